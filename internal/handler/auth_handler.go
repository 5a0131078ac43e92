package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/hospiblog/internal/auth"
	"github.com/hitoshi/hospiblog/internal/middleware"
	"github.com/hitoshi/hospiblog/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginHospital(ctx context.Context, hospitalID, password string) (*auth.HospitalLogin, error)
	LoginAdmin(ctx context.Context, username, password string) (*auth.AdminLogin, error)
	ChangePassword(ctx context.Context, hospitalRef, currentPassword, newPassword string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は病院・管理者のログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

type hospitalLoginRequest struct {
	HospitalID string `json:"hospital_id"`
	Password   string `json:"password"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type hospitalLoginResponse struct {
	Message  string                `json:"message"`
	Hospital hospitalLoginSnapshot `json:"hospital"`
}

type hospitalLoginSnapshot struct {
	ID                     string `json:"id"`
	HospitalID             string `json:"hospital_id"`
	HospitalName           string `json:"hospital_name"`
	IsInitialSetupComplete bool   `json:"is_initial_setup_complete"`
	MustChangePassword     bool   `json:"must_change_password"`
}

type adminLoginResponse struct {
	Message string             `json:"message"`
	Admin   adminLoginSnapshot `json:"admin"`
}

type adminLoginSnapshot struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	FullName    string     `json:"full_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type hospitalSessionResponse struct {
	Authenticated bool `json:"authenticated"`
	Session       struct {
		ID         string `json:"id"`
		HospitalID string `json:"hospital_id"`
	} `json:"session"`
}

type adminSessionResponse struct {
	Authenticated bool `json:"authenticated"`
	Admin         struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"admin"`
}

// Login は病院ログインを行い、セッションCookieを設定する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req hospitalLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.LoginHospital(r.Context(), req.HospitalID, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, model.RoleHospital, result.Token)
	writeJSON(w, http.StatusOK, hospitalLoginResponse{
		Message: "로그인 성공",
		Hospital: hospitalLoginSnapshot{
			ID:                     result.Hospital.ID,
			HospitalID:             result.Hospital.HospitalID,
			HospitalName:           result.Hospital.HospitalName,
			IsInitialSetupComplete: result.Hospital.IsInitialSetupComplete,
			MustChangePassword:     result.Hospital.MustChangePassword,
		},
	})
}

// Logout は病院セッションCookieをクリアする。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w, model.RoleHospital)
	writeMessage(w, "로그아웃 되었습니다.")
}

// Session は現在の病院セッションを返す。
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var resp hospitalSessionResponse
	resp.Authenticated = true
	resp.Session.ID = identity.Subject
	resp.Session.HospitalID = identity.Login
	writeJSON(w, http.StatusOK, resp)
}

// ChangePassword は病院のパスワードを変更する。
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, "비밀번호가 변경되었습니다.")
}

// AdminLogin は管理者ログインを行い、管理者セッションCookieを設定する。
// POST /api/admin/auth/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.LoginAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, model.RoleAdmin, result.Token)
	writeJSON(w, http.StatusOK, adminLoginResponse{
		Message: "로그인 성공",
		Admin: adminLoginSnapshot{
			ID:          result.Admin.ID,
			Username:    result.Admin.Username,
			Role:        result.Admin.Role,
			FullName:    result.Admin.FullName,
			LastLoginAt: result.Admin.LastLoginAt,
		},
	})
}

// AdminLogout は管理者セッションCookieをクリアする。
// POST /api/admin/auth/logout
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w, model.RoleAdmin)
	writeMessage(w, "로그아웃되었습니다.")
}

// AdminSession は現在の管理者セッションを返す。
// GET /api/admin/auth/session
func (h *AuthHandler) AdminSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var resp adminSessionResponse
	resp.Authenticated = true
	resp.Admin.ID = identity.Subject
	resp.Admin.Username = identity.Login
	resp.Admin.Role = identity.AdminRole
	writeJSON(w, http.StatusOK, resp)
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, role model.Role, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieNameFor(role),
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
// トークンは署名付きで失効リストを持たないため、Cookieの削除のみ行う。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter, role model.Role) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieNameFor(role),
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
