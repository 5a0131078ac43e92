package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/hospiblog/internal/auth"
	"github.com/hitoshi/hospiblog/internal/image"
	"github.com/hitoshi/hospiblog/internal/middleware"
	"github.com/hitoshi/hospiblog/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	loginHospitalFn  func(ctx context.Context, hospitalID, password string) (*auth.HospitalLogin, error)
	loginAdminFn     func(ctx context.Context, username, password string) (*auth.AdminLogin, error)
	changePasswordFn func(ctx context.Context, hospitalRef, currentPassword, newPassword string) error
}

func (m *mockAuthService) LoginHospital(ctx context.Context, hospitalID, password string) (*auth.HospitalLogin, error) {
	if m.loginHospitalFn != nil {
		return m.loginHospitalFn(ctx, hospitalID, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) LoginAdmin(ctx context.Context, username, password string) (*auth.AdminLogin, error) {
	if m.loginAdminFn != nil {
		return m.loginAdminFn(ctx, username, password)
	}
	return nil, model.NewInvalidAdminCredentialsError()
}

func (m *mockAuthService) ChangePassword(ctx context.Context, hospitalRef, currentPassword, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, hospitalRef, currentPassword, newPassword)
	}
	return nil
}

type mockBlogService struct {
	generateFn      func(ctx context.Context, identity *model.Identity, topic, keywords string) (*generateBlogResponse, error)
	listRecentFn    func(ctx context.Context, hospitalRef string) ([]blogPostResponse, error)
	updateContentFn func(ctx context.Context, hospitalRef, postID, content string) error
}

func (m *mockBlogService) Generate(ctx context.Context, identity *model.Identity, topic, keywords string) (*generateBlogResponse, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, identity, topic, keywords)
	}
	return &generateBlogResponse{ImageKeywords: []string{}, ImageSuggestions: []imageSuggestionResponse{}}, nil
}

func (m *mockBlogService) ListRecent(ctx context.Context, hospitalRef string) ([]blogPostResponse, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, hospitalRef)
	}
	return []blogPostResponse{}, nil
}

func (m *mockBlogService) UpdateContent(ctx context.Context, hospitalRef, postID, content string) error {
	if m.updateContentFn != nil {
		return m.updateContentFn(ctx, hospitalRef, postID, content)
	}
	return nil
}

type mockImageService struct {
	generateImagesFn func(ctx context.Context, hospitalRef string, req image.GenerateRequest) ([]imageResultResponse, error)
	listImagesFn     func(ctx context.Context, hospitalRef, postID string) ([]blogImageResponse, error)
}

func (m *mockImageService) GenerateImages(ctx context.Context, hospitalRef string, req image.GenerateRequest) ([]imageResultResponse, error) {
	if m.generateImagesFn != nil {
		return m.generateImagesFn(ctx, hospitalRef, req)
	}
	return []imageResultResponse{}, nil
}

func (m *mockImageService) ListImages(ctx context.Context, hospitalRef, postID string) ([]blogImageResponse, error) {
	if m.listImagesFn != nil {
		return m.listImagesFn(ctx, hospitalRef, postID)
	}
	return []blogImageResponse{}, nil
}

type mockTopicService struct {
	recommendFn func(ctx context.Context, hospitalRef string) (*topicsResponse, error)
}

func (m *mockTopicService) Recommend(ctx context.Context, hospitalRef string) (*topicsResponse, error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, hospitalRef)
	}
	return &topicsResponse{}, nil
}

type mockSettingsService struct {
	getSettingsFn    func(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error)
	updateSettingsFn func(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error)
}

func (m *mockSettingsService) GetSettings(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(ctx, hospitalRef)
	}
	return &model.HospitalProfile{ID: hospitalRef}, nil
}

func (m *mockSettingsService) UpdateSettings(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(ctx, hospitalRef, update)
	}
	return &model.HospitalProfile{ID: hospitalRef}, nil
}

type mockAdminService struct {
	createHospitalFn        func(ctx context.Context, hospitalID, initialPassword, department string) (*model.Hospital, error)
	resetPasswordFn         func(ctx context.Context, hospitalRef, newPassword string) error
	listHospitalsFn         func(ctx context.Context) ([]model.HospitalSummary, error)
	getHospitalFn           func(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error)
	updateHospitalProfileFn func(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error)
	listHospitalPostsFn     func(ctx context.Context, hospitalRef string) ([]*model.BlogPost, error)
}

func (m *mockAdminService) CreateHospital(ctx context.Context, hospitalID, initialPassword, department string) (*model.Hospital, error) {
	if m.createHospitalFn != nil {
		return m.createHospitalFn(ctx, hospitalID, initialPassword, department)
	}
	return &model.Hospital{ID: "h-new", HospitalID: hospitalID, Department: department}, nil
}

func (m *mockAdminService) ResetPassword(ctx context.Context, hospitalRef, newPassword string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, hospitalRef, newPassword)
	}
	return nil
}

func (m *mockAdminService) ListHospitals(ctx context.Context) ([]model.HospitalSummary, error) {
	if m.listHospitalsFn != nil {
		return m.listHospitalsFn(ctx)
	}
	return []model.HospitalSummary{}, nil
}

func (m *mockAdminService) GetHospital(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error) {
	if m.getHospitalFn != nil {
		return m.getHospitalFn(ctx, hospitalRef)
	}
	return &model.HospitalProfile{ID: hospitalRef}, nil
}

func (m *mockAdminService) UpdateHospitalProfile(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error) {
	if m.updateHospitalProfileFn != nil {
		return m.updateHospitalProfileFn(ctx, hospitalRef, update)
	}
	return &model.HospitalProfile{ID: hospitalRef}, nil
}

func (m *mockAdminService) ListHospitalPosts(ctx context.Context, hospitalRef string) ([]*model.BlogPost, error) {
	if m.listHospitalPostsFn != nil {
		return m.listHospitalPostsFn(ctx, hospitalRef)
	}
	return []*model.BlogPost{}, nil
}

var (
	_ AuthServiceInterface     = (*mockAuthService)(nil)
	_ BlogServiceInterface     = (*mockBlogService)(nil)
	_ ImageServiceInterface    = (*mockImageService)(nil)
	_ TopicServiceInterface    = (*mockTopicService)(nil)
	_ SettingsServiceInterface = (*mockSettingsService)(nil)
	_ AdminServiceInterface    = (*mockAdminService)(nil)
)

// --- ヘルパー ---

var testHospital = &model.Identity{Subject: "h-1", Login: "seoul-clinic", Role: model.RoleHospital}

var testAdmin = &model.Identity{Subject: "a-1", Login: "root", Role: model.RoleAdmin, AdminRole: "super_admin"}

// newJSONRequest はJSONボディ付きのリクエストを生成し、identityがあればコンテキストに注入する。
func newJSONRequest(method, target, body string, identity *model.Identity) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
	}
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := decodeBody(t, w)
	if body["code"] != want {
		t.Errorf("code = %v, want %s", body["code"], want)
	}
	if body["error"] != body["message"] {
		t.Errorf("error (%v) should mirror message (%v)", body["error"], body["message"])
	}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
