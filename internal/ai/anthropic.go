package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/hospiblog/internal/metrics"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
	maxTextResponseSize      = 4 * 1024 * 1024
)

// AnthropicConfig はAnthropicクライアントの設定。
type AnthropicConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// TextRequest はテキスト生成の1回分の要求。
type TextRequest struct {
	Operation string // メトリクスのラベル（blog, topic）
	System    string
	Prompt    string
	MaxTokens int
}

// AnthropicClient はAnthropic Messages APIのクライアント。
type AnthropicClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	config     AnthropicConfig
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewAnthropicClient はAnthropicClientを生成する。
func NewAnthropicClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, config AnthropicConfig) *AnthropicClient {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &AnthropicClient{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		config:     config,
		endpoint:   defaultAnthropicEndpoint,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete はプロンプトを送信し、最初のコンテンツブロックのテキストを返す。
// 最初のブロックがテキストでない場合は空文字列を返す。
func (c *AnthropicClient) Complete(ctx context.Context, req TextRequest) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, req)
	c.metrics.RecordProviderCall("anthropic", req.Operation, outcomeOf(err), time.Since(start))
	return text, err
}

func (c *AnthropicClient) complete(ctx context.Context, req TextRequest) (string, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:     c.config.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode anthropic request: %w", err)
	}

	callCtx := ctx
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = classifyDoError(ctx, err)
		c.logger.Error("anthropic call failed",
			slog.String("operation", req.Operation),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextResponseSize))
	if err != nil {
		return "", classifyDoError(ctx, fmt.Errorf("failed to read anthropic response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var eb providerErrorBody
		_ = json.Unmarshal(body, &eb)
		c.logger.Error("anthropic returned error status",
			slog.String("operation", req.Operation),
			slog.Int("http_status", resp.StatusCode),
			slog.String("error_type", eb.Error.Type),
			slog.String("error", eb.Error.Message),
		)
		return "", &StatusError{Provider: "anthropic", StatusCode: resp.StatusCode, Message: eb.Error.Message}
	}

	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("failed to parse anthropic response", slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to parse anthropic response: %w", err)
	}

	c.logger.Info("anthropic call completed",
		slog.String("operation", req.Operation),
		slog.String("stop_reason", result.StopReason),
		slog.Int("input_tokens", result.Usage.InputTokens),
		slog.Int("output_tokens", result.Usage.OutputTokens),
	)

	if len(result.Content) == 0 || result.Content[0].Type != "text" {
		return "", nil
	}
	return result.Content[0].Text, nil
}
