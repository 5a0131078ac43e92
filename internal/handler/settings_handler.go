package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/hospiblog/internal/model"
)

// SettingsServiceInterface は病院設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	GetSettings(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error)
	UpdateSettings(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error)
}

// SettingsHandler は病院自身のプロフィール設定のHTTPハンドラー。
type SettingsHandler struct {
	service SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// hospitalProfileResponse は病院プロフィールのAPIレスポンス。
// password_hashと暗号化済みブログパスワードは含まない。
type hospitalProfileResponse struct {
	ID                     string    `json:"id"`
	HospitalID             string    `json:"hospital_id"`
	HospitalName           string    `json:"hospital_name"`
	Department             string    `json:"department"`
	MainServices           []string  `json:"main_services"`
	Address                string    `json:"address"`
	BlogPlatform           string    `json:"blog_platform"`
	BlogID                 string    `json:"blog_id"`
	BlogBoardName          string    `json:"blog_board_name"`
	HasBlogPassword        bool      `json:"has_blog_password"`
	MustChangePassword     bool      `json:"must_change_password"`
	IsInitialSetupComplete bool      `json:"is_initial_setup_complete"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// hospitalSettingsRequest は設定更新リクエスト。省略した項目は変更しない。
type hospitalSettingsRequest struct {
	HospitalName  *string   `json:"hospital_name"`
	Department    *string   `json:"department"`
	MainServices  *[]string `json:"main_services"`
	Address       *string   `json:"address"`
	BlogPlatform  *string   `json:"blog_platform"`
	BlogID        *string   `json:"blog_id"`
	BlogPassword  *string   `json:"blog_password"`
	BlogBoardName *string   `json:"blog_board_name"`
}

func (req hospitalSettingsRequest) toUpdate() model.HospitalProfileUpdate {
	return model.HospitalProfileUpdate{
		HospitalName:  req.HospitalName,
		Department:    req.Department,
		MainServices:  req.MainServices,
		Address:       req.Address,
		BlogPlatform:  req.BlogPlatform,
		BlogID:        req.BlogID,
		BlogPassword:  req.BlogPassword,
		BlogBoardName: req.BlogBoardName,
	}
}

// GetSettings は自院のプロフィールを返す。
// GET /api/hospital/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetSettings(r.Context(), identity.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospital": toHospitalProfileResponse(profile)})
}

// UpdateSettings は自院のプロフィールを部分更新する。
// PUT /api/hospital/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req hospitalSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateSettings(r.Context(), identity.Subject, req.toUpdate())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "설정이 저장되었습니다.",
		"hospital": toHospitalProfileResponse(profile),
	})
}

func toHospitalProfileResponse(p *model.HospitalProfile) hospitalProfileResponse {
	return hospitalProfileResponse{
		ID:                     p.ID,
		HospitalID:             p.HospitalID,
		HospitalName:           p.HospitalName,
		Department:             p.Department,
		MainServices:           nonNilStrings(p.MainServices),
		Address:                p.Address,
		BlogPlatform:           p.BlogPlatform,
		BlogID:                 p.BlogID,
		BlogBoardName:          p.BlogBoardName,
		HasBlogPassword:        p.HasBlogPassword,
		MustChangePassword:     p.MustChangePassword,
		IsInitialSetupComplete: p.IsInitialSetupComplete,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}
