package handler

import (
	"context"
	"net/http"
)

// TopicServiceInterface はトピック推薦ハンドラーが必要とするサービスインターフェース。
type TopicServiceInterface interface {
	Recommend(ctx context.Context, hospitalRef string) (*topicsResponse, error)
}

// TopicHandler はトピック推薦のHTTPハンドラー。
type TopicHandler struct {
	service TopicServiceInterface
}

// NewTopicHandler はTopicHandlerを生成する。
func NewTopicHandler(service TopicServiceInterface) *TopicHandler {
	return &TopicHandler{service: service}
}

// topicsResponse はカテゴリ名（韓国語）をキーとする推薦トピック。
type topicsResponse struct {
	Topics struct {
		Informational []string `json:"정보성"`
		Promotional   []string `json:"홍보성"`
	} `json:"topics"`
}

// Recommend は自院向けのトピックを推薦する。
// POST /api/topics/recommend
func (h *TopicHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Recommend(r.Context(), identity.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
