package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/hospiblog/internal/middleware"
	"github.com/hitoshi/hospiblog/internal/model"
)

// BlogServiceInterface はブログ記事ハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	// Generate は本文を生成する。identityがnilの場合は保存しない。
	Generate(ctx context.Context, identity *model.Identity, topic, keywords string) (*generateBlogResponse, error)
	// ListRecent は病院の直近の記事を返す。
	ListRecent(ctx context.Context, hospitalRef string) ([]blogPostResponse, error)
	// UpdateContent は自院の記事本文を更新する。
	UpdateContent(ctx context.Context, hospitalRef, postID, content string) error
}

// BlogHandler はブログ記事の生成・一覧・編集のHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

type generateBlogRequest struct {
	Topic    string `json:"topic"`
	Keywords string `json:"keywords"`
}

type imageSuggestionResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// generateBlogResponse は本文生成のレスポンス。既存クライアントに合わせてcamelCaseを使う。
type generateBlogResponse struct {
	Content          string                    `json:"content"`
	ImageKeywords    []string                  `json:"imageKeywords"`
	ImageSuggestions []imageSuggestionResponse `json:"imageSuggestions"`
	BlogPostID       *string                   `json:"blogPostId"`
}

type blogPostResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Topic         string     `json:"topic"`
	Keywords      []string   `json:"keywords"`
	ImageKeywords []string   `json:"image_keywords"`
	Category      *string    `json:"category"`
	PostedToBlog  bool       `json:"posted_to_blog"`
	PostedAt      *time.Time `json:"posted_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type updateBlogPostRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// GenerateBlog はブログ本文を生成する。セッションは任意。
// POST /api/generate-blog
func (h *BlogHandler) GenerateBlog(w http.ResponseWriter, r *http.Request) {
	var req generateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, _ := middleware.IdentityFromContext(r.Context())
	resp, err := h.service.Generate(r.Context(), identity, req.Topic, req.Keywords)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPosts は自院の直近の記事一覧を返す。
// GET /api/blog-posts
func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	posts, err := h.service.ListRecent(r.Context(), identity.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// UpdatePost は自院の記事本文を更新する。
// PUT /api/blog-posts
func (h *BlogHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req updateBlogPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateContent(r.Context(), identity.Subject, req.ID, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, "저장되었습니다.")
}

// toBlogPostResponse はmodel.BlogPostをAPIレスポンスに変換する。
func toBlogPostResponse(p *model.BlogPost) blogPostResponse {
	return blogPostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Topic:         p.Topic,
		Keywords:      nonNilStrings(p.Keywords),
		ImageKeywords: nonNilStrings(p.ImageKeywords),
		Category:      p.Category,
		PostedToBlog:  p.PostedToBlog,
		PostedAt:      p.PostedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
