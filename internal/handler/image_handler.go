package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hospiblog/internal/image"
	"github.com/hitoshi/hospiblog/internal/model"
)

// ImageServiceInterface は画像ハンドラーが必要とするサービスインターフェース。
type ImageServiceInterface interface {
	// GenerateImages は画像をまとめて生成する。各要素が個別に成否を持つ。
	GenerateImages(ctx context.Context, hospitalRef string, req image.GenerateRequest) ([]imageResultResponse, error)
	// ListImages は記事の画像をdisplay_order順に返す。
	ListImages(ctx context.Context, hospitalRef, postID string) ([]blogImageResponse, error)
}

// ImageHandler は画像生成と記事画像一覧のHTTPハンドラー。
type ImageHandler struct {
	service ImageServiceInterface
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(service ImageServiceInterface) *ImageHandler {
	return &ImageHandler{service: service}
}

// generateImagesRequest は画像生成リクエストのボディ。
// imagesが空の場合は旧形式のkeywordsを使う。
type generateImagesRequest struct {
	BlogPostID      string                 `json:"blog_post_id"`
	Topic           string                 `json:"topic"`
	Images          []image.DirectiveInput `json:"images"`
	Keywords        []image.DirectiveInput `json:"keywords"`
	ReplaceExisting bool                   `json:"replace_existing"`
	DisplayOrder    *int                   `json:"display_order"`
}

type imageResultResponse struct {
	Type         string `json:"type"`
	Description  string `json:"description"`
	Text         string `json:"text,omitempty"`
	DisplayOrder int    `json:"display_order"`
	URL          string `json:"url"`
	ImageID      string `json:"image_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

type blogImageResponse struct {
	ID           string    `json:"id"`
	BlogPostID   string    `json:"blog_post_id"`
	Keyword      string    `json:"keyword"`
	TextContent  string    `json:"text_content"`
	StoragePath  string    `json:"storage_path"`
	PublicURL    string    `json:"public_url"`
	Prompt       string    `json:"prompt"`
	ImageType    string    `json:"image_type"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// GenerateImages は画像指示ごとに画像を生成して保存する。
// POST /api/generate-images
func (h *ImageHandler) GenerateImages(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req generateImagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inputs := req.Images
	if len(inputs) == 0 {
		inputs = req.Keywords
	}

	results, err := h.service.GenerateImages(r.Context(), identity.Subject, image.GenerateRequest{
		BlogPostID:      req.BlogPostID,
		Topic:           req.Topic,
		Directives:      image.Directives(inputs),
		ReplaceExisting: req.ReplaceExisting,
		DisplayOrder:    req.DisplayOrder,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": results})
}

// ListImages は記事の画像一覧を返す。
// GET /api/blog-posts/{id}/images
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	images, err := h.service.ListImages(r.Context(), identity.Subject, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func toImageResultResponse(res image.Result) imageResultResponse {
	return imageResultResponse{
		Type:         string(res.Type),
		Description:  res.Description,
		Text:         res.Text,
		DisplayOrder: res.DisplayOrder,
		URL:          res.URL,
		ImageID:      res.ImageID,
		Error:        res.Error,
	}
}

func toBlogImageResponse(img *model.BlogImage) blogImageResponse {
	return blogImageResponse{
		ID:           img.ID,
		BlogPostID:   img.BlogPostID,
		Keyword:      img.Keyword,
		TextContent:  img.TextContent,
		StoragePath:  img.StoragePath,
		PublicURL:    img.PublicURL,
		Prompt:       img.Prompt,
		ImageType:    string(img.ImageType),
		DisplayOrder: img.DisplayOrder,
		CreatedAt:    img.CreatedAt,
	}
}
