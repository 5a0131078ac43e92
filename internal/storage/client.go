// Package storage はSupabase Storageへの画像ブロブの保存・削除・一覧を提供する。
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/hospiblog/internal/metrics"
)

// listPageSize は一覧APIの1ページあたりの件数。
const listPageSize = 100

// Object はバケット内のオブジェクトを表す。
type Object struct {
	Name      string
	CreatedAt time.Time
}

// Client はSupabase Storage REST APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	baseURL    string // https://<project>.supabase.co/storage/v1
	apiKey     string
	bucket     string
}

// NewClient はClientを生成する。baseURLは/storage/v1までを含むURL。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, baseURL, apiKey, bucket string) *Client {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
	}
}

// NewObjectPath は "<unix-ms>_<ランダム16進>.png" 形式のASCIIのみのパスを返す。
func NewObjectPath(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d_%s.png", now.UnixMilli(), suffix)
}

// PublicURL はパスに対応する公開URLを返す。
func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, escapePath(path))
}

// PathFromPublicURL は公開URLからバケット内のパスを取り出す。
// このバケットの公開URLでなければfalseを返す。
func (c *Client) PathFromPublicURL(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/object/public/%s/", c.baseURL, c.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	path, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

// Upload はデータをpathに保存し、公開URLを返す。既存オブジェクトは上書きしない。
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	req.Header.Set("Cache-Control", "max-age=3600")

	if err := c.do(req, nil); err != nil {
		c.metrics.RecordStorageFailure("upload")
		c.logger.Error("storage upload failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	return c.PublicURL(path), nil
}

// Delete はpathsのオブジェクトを削除する。
func (c *Client) Delete(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/object/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		c.metrics.RecordStorageFailure("delete")
		c.logger.Error("storage delete failed",
			slog.Int("count", len(paths)),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy struct {
		Column string `json:"column"`
		Order  string `json:"order"`
	} `json:"sortBy"`
}

type listEntry struct {
	ID        *string   `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// List はバケット直下のオブジェクトを作成日時の昇順ですべて返す。フォルダは除く。
func (c *Client) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	for offset := 0; ; offset += listPageSize {
		page, err := c.listPage(ctx, offset)
		if err != nil {
			c.metrics.RecordStorageFailure("list")
			return nil, err
		}
		for _, e := range page {
			if e.ID == nil {
				continue
			}
			objects = append(objects, Object{Name: e.Name, CreatedAt: e.CreatedAt})
		}
		if len(page) < listPageSize {
			return objects, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, offset int) ([]listEntry, error) {
	body := listRequest{Prefix: "", Limit: listPageSize, Offset: offset}
	body.SortBy.Column = "created_at"
	body.SortBy.Order = "asc"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/object/list/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var entries []listEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do は認証ヘッダーを付けてリクエストを実行し、outがあればJSONをデコードする。
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read storage response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(body, &eb)
		return fmt.Errorf("storage returned status %d: %s %s", resp.StatusCode, eb.Error, eb.Message)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse storage response: %w", err)
		}
	}
	return nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
