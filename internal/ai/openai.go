package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/hospiblog/internal/metrics"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/images/generations"
	maxImageResponseSize  = 32 * 1024 * 1024
)

// OpenAIConfig はOpenAI画像生成クライアントの設定。
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Size    string
	Timeout time.Duration
}

// GeneratedImage は画像生成の結果。
// Dataが空でURLのみの場合、呼び出し元がダウンロードする。
type GeneratedImage struct {
	Data          []byte
	URL           string
	RevisedPrompt string
}

// OpenAIClient はOpenAI Images APIのクライアント。
type OpenAIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	config     OpenAIConfig
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewOpenAIClient はOpenAIClientを生成する。
func NewOpenAIClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, config OpenAIConfig) *OpenAIClient {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &OpenAIClient{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		config:     config,
		endpoint:   defaultOpenAIEndpoint,
	}
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// GenerateImage はプロンプトから画像を1枚生成する。
// b64_jsonで受け取れた場合はData、URLのみの場合はURLを返す。どちらもなければErrNoContent。
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	start := time.Now()
	img, err := c.generateImage(ctx, prompt)
	c.metrics.RecordProviderCall("openai", "image", outcomeOf(err), time.Since(start))
	return img, err
}

func (c *OpenAIClient) generateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	payload, err := json.Marshal(openAIImageRequest{
		Model:          c.config.Model,
		Prompt:         prompt,
		N:              1,
		Size:           c.config.Size,
		Quality:        "standard",
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode openai request: %w", err)
	}

	callCtx := ctx
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = classifyDoError(ctx, err)
		c.logger.Error("openai image call failed", slog.String("error", err.Error()))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageResponseSize))
	if err != nil {
		return nil, classifyDoError(ctx, fmt.Errorf("failed to read openai response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var eb providerErrorBody
		_ = json.Unmarshal(body, &eb)
		c.logger.Error("openai returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("error_type", eb.Error.Type),
			slog.String("error", eb.Error.Message),
		)
		return nil, &StatusError{Provider: "openai", StatusCode: resp.StatusCode, Message: eb.Error.Message}
	}

	var result openAIImageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("failed to parse openai response", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to parse openai response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, ErrNoContent
	}

	item := result.Data[0]
	img := &GeneratedImage{URL: item.URL, RevisedPrompt: item.RevisedPrompt}
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		img.Data = data
	}
	if len(img.Data) == 0 && img.URL == "" {
		return nil, ErrNoContent
	}
	return img, nil
}
