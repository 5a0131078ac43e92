package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hospiblog/internal/model"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	CreateHospital(ctx context.Context, hospitalID, initialPassword, department string) (*model.Hospital, error)
	ResetPassword(ctx context.Context, hospitalRef, newPassword string) error
	ListHospitals(ctx context.Context) ([]model.HospitalSummary, error)
	GetHospital(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error)
	UpdateHospitalProfile(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error)
	ListHospitalPosts(ctx context.Context, hospitalRef string) ([]*model.BlogPost, error)
}

// AdminHandler は管理者による病院アカウント管理のHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

type createHospitalRequest struct {
	HospitalID      string `json:"hospital_id"`
	InitialPassword string `json:"initial_password"`
	Department      string `json:"department"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// adminHospitalUpdateRequest は管理者が変更できる項目のみを受け付ける。
type adminHospitalUpdateRequest struct {
	HospitalName *string   `json:"hospital_name"`
	Department   *string   `json:"department"`
	Address      *string   `json:"address"`
	MainServices *[]string `json:"main_services"`
}

type createdHospitalResponse struct {
	ID         string `json:"id"`
	HospitalID string `json:"hospital_id"`
	Department string `json:"department"`
}

type hospitalSummaryResponse struct {
	ID                     string    `json:"id"`
	HospitalID             string    `json:"hospital_id"`
	HospitalName           string    `json:"hospital_name"`
	Department             string    `json:"department"`
	IsInitialSetupComplete bool      `json:"is_initial_setup_complete"`
	CreatedAt              time.Time `json:"created_at"`
}

type postSummaryResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Topic        string    `json:"topic"`
	CreatedAt    time.Time `json:"created_at"`
	PostedToBlog bool      `json:"posted_to_blog"`
}

// CreateHospital は病院アカウントを発行する。
// POST /api/admin/hospitals
func (h *AdminHandler) CreateHospital(w http.ResponseWriter, r *http.Request) {
	var req createHospitalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hospital, err := h.service.CreateHospital(r.Context(), req.HospitalID, req.InitialPassword, req.Department)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "병원 계정이 생성되었습니다.",
		"hospital": createdHospitalResponse{
			ID:         hospital.ID,
			HospitalID: hospital.HospitalID,
			Department: hospital.Department,
		},
	})
}

// ListHospitals は病院一覧を返す。
// GET /api/admin/hospitals
func (h *AdminHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.ListHospitals(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	hospitals := make([]hospitalSummaryResponse, len(summaries))
	for i, s := range summaries {
		hospitals[i] = hospitalSummaryResponse{
			ID:                     s.ID,
			HospitalID:             s.HospitalID,
			HospitalName:           s.HospitalName,
			Department:             s.Department,
			IsInitialSetupComplete: s.IsInitialSetupComplete,
			CreatedAt:              s.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospitals": hospitals})
}

// GetHospital は病院のプロフィールを返す。
// GET /api/admin/hospitals/{id}
func (h *AdminHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetHospital(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospital": toHospitalProfileResponse(profile)})
}

// UpdateHospital は病院の基本情報を更新する。
// PUT /api/admin/hospitals/{id}
func (h *AdminHandler) UpdateHospital(w http.ResponseWriter, r *http.Request) {
	var req adminHospitalUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateHospitalProfile(r.Context(), chi.URLParam(r, "id"), model.HospitalProfileUpdate{
		HospitalName: req.HospitalName,
		Department:   req.Department,
		Address:      req.Address,
		MainServices: req.MainServices,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospital": toHospitalProfileResponse(profile)})
}

// ResetPassword は病院のパスワードを再設定する。
// POST /api/admin/hospitals/{id}/reset-password
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, "비밀번호가 성공적으로 재설정되었습니다.")
}

// ListHospitalPosts は病院の記事一覧を返す。本文は含まない。
// GET /api/admin/hospitals/{id}/posts
func (h *AdminHandler) ListHospitalPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListHospitalPosts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]postSummaryResponse, len(posts))
	for i, p := range posts {
		resp[i] = postSummaryResponse{
			ID:           p.ID,
			Title:        p.Title,
			Topic:        p.Topic,
			CreatedAt:    p.CreatedAt,
			PostedToBlog: p.PostedToBlog,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": resp})
}
