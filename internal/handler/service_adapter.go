package handler

import (
	"context"

	"github.com/hitoshi/hospiblog/internal/admin"
	"github.com/hitoshi/hospiblog/internal/auth"
	"github.com/hitoshi/hospiblog/internal/blog"
	"github.com/hitoshi/hospiblog/internal/hospital"
	"github.com/hitoshi/hospiblog/internal/image"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/topic"
)

// BlogServiceAdapter は blog.Service を BlogServiceInterface に適合させるアダプタ。
type BlogServiceAdapter struct {
	svc *blog.Service
}

// NewBlogServiceAdapter はBlogServiceAdapterを生成する。
func NewBlogServiceAdapter(svc *blog.Service) *BlogServiceAdapter {
	return &BlogServiceAdapter{svc: svc}
}

// Generate は本文を生成しhandlerレスポンス型で返す。
func (a *BlogServiceAdapter) Generate(ctx context.Context, identity *model.Identity, topicText, keywords string) (*generateBlogResponse, error) {
	result, err := a.svc.Generate(ctx, identity, blog.GenerateInput{Topic: topicText, Keywords: keywords})
	if err != nil {
		return nil, err
	}

	suggestions := make([]imageSuggestionResponse, len(result.ImageSuggestions))
	for i, d := range result.ImageSuggestions {
		suggestions[i] = imageSuggestionResponse{
			Type:        string(d.Type),
			Description: d.Description,
			Text:        d.Text,
		}
	}
	return &generateBlogResponse{
		Content:          result.Content,
		ImageKeywords:    nonNilStrings(result.ImageKeywords),
		ImageSuggestions: suggestions,
		BlogPostID:       result.BlogPostID,
	}, nil
}

// ListRecent は直近の記事をhandlerレスポンス型で返す。
func (a *BlogServiceAdapter) ListRecent(ctx context.Context, hospitalRef string) ([]blogPostResponse, error) {
	posts, err := a.svc.ListRecent(ctx, hospitalRef)
	if err != nil {
		return nil, err
	}

	results := make([]blogPostResponse, len(posts))
	for i, p := range posts {
		results[i] = toBlogPostResponse(p)
	}
	return results, nil
}

// UpdateContent は記事本文を更新する。
func (a *BlogServiceAdapter) UpdateContent(ctx context.Context, hospitalRef, postID, content string) error {
	return a.svc.UpdateContent(ctx, hospitalRef, postID, content)
}

// ImageServiceAdapter は image.Service を ImageServiceInterface に適合させるアダプタ。
type ImageServiceAdapter struct {
	svc *image.Service
}

// NewImageServiceAdapter はImageServiceAdapterを生成する。
func NewImageServiceAdapter(svc *image.Service) *ImageServiceAdapter {
	return &ImageServiceAdapter{svc: svc}
}

// GenerateImages は画像を生成しhandlerレスポンス型で返す。
func (a *ImageServiceAdapter) GenerateImages(ctx context.Context, hospitalRef string, req image.GenerateRequest) ([]imageResultResponse, error) {
	results, err := a.svc.Generate(ctx, hospitalRef, req)
	if err != nil {
		return nil, err
	}

	resp := make([]imageResultResponse, len(results))
	for i, res := range results {
		resp[i] = toImageResultResponse(res)
	}
	return resp, nil
}

// ListImages は記事の画像をhandlerレスポンス型で返す。
func (a *ImageServiceAdapter) ListImages(ctx context.Context, hospitalRef, postID string) ([]blogImageResponse, error) {
	images, err := a.svc.ListByPost(ctx, hospitalRef, postID)
	if err != nil {
		return nil, err
	}

	resp := make([]blogImageResponse, len(images))
	for i, img := range images {
		resp[i] = toBlogImageResponse(img)
	}
	return resp, nil
}

// TopicServiceAdapter は topic.Service を TopicServiceInterface に適合させるアダプタ。
type TopicServiceAdapter struct {
	svc *topic.Service
}

// NewTopicServiceAdapter はTopicServiceAdapterを生成する。
func NewTopicServiceAdapter(svc *topic.Service) *TopicServiceAdapter {
	return &TopicServiceAdapter{svc: svc}
}

// Recommend はトピックを推薦しhandlerレスポンス型で返す。
func (a *TopicServiceAdapter) Recommend(ctx context.Context, hospitalRef string) (*topicsResponse, error) {
	topics, err := a.svc.Recommend(ctx, hospitalRef)
	if err != nil {
		return nil, err
	}

	var resp topicsResponse
	resp.Topics.Informational = nonNilStrings(topics.Informational)
	resp.Topics.Promotional = nonNilStrings(topics.Promotional)
	return &resp, nil
}

// --- compile-time interface checks ---

var _ BlogServiceInterface = (*BlogServiceAdapter)(nil)
var _ ImageServiceInterface = (*ImageServiceAdapter)(nil)
var _ TopicServiceInterface = (*TopicServiceAdapter)(nil)
var _ AuthServiceInterface = (*auth.Service)(nil)
var _ SettingsServiceInterface = (*hospital.Service)(nil)
var _ AdminServiceInterface = (*admin.Service)(nil)
