package topic

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/hospiblog/internal/security"
)

const (
	naverRSSEndpoint = "https://rss.blog.naver.com/%s.xml"
	maxFeedSize      = 2 * 1024 * 1024
)

// BlogFeedReader は病院の公開ブログRSSから最近の記事タイトルを取得する。
type BlogFeedReader struct {
	guard    security.SSRFGuardService
	client   *http.Client
	endpoint string // テスト用にエンドポイントを差し替え可能
}

// NewBlogFeedReader はSSRFガード付きクライアントでBlogFeedReaderを生成する。
func NewBlogFeedReader(guard security.SSRFGuardService, client *http.Client) *BlogFeedReader {
	return &BlogFeedReader{
		guard:    guard,
		client:   client,
		endpoint: naverRSSEndpoint,
	}
}

// RecentTitles はブログIDのRSSから新しい順に最大limit件のタイトルを返す。
func (r *BlogFeedReader) RecentTitles(ctx context.Context, blogID string, limit int) ([]string, error) {
	blogID = strings.TrimSpace(blogID)
	if blogID == "" {
		return nil, fmt.Errorf("empty blog id")
	}

	feedURL := fmt.Sprintf(r.endpoint, url.PathEscape(blogID))
	if err := r.guard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("blog feed URL rejected: %w", err)
	}

	body, _, err := security.FetchLimited(ctx, r.client, feedURL, maxFeedSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blog feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse blog feed: %w", err)
	}

	titles := make([]string, 0, limit)
	for _, item := range parsed.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			titles = append(titles, t)
		}
		if len(titles) == limit {
			break
		}
	}
	return titles, nil
}
