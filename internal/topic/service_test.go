package topic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/hospiblog/internal/ai"
	"github.com/hitoshi/hospiblog/internal/model"
)

// --- モック定義 ---

type mockGenerator struct {
	completeFn func(ctx context.Context, req ai.TextRequest) (string, error)
	requests   []ai.TextRequest
}

func (m *mockGenerator) Complete(ctx context.Context, req ai.TextRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return "", nil
}

type mockHospitalRepo struct {
	hospital *model.Hospital
	err      error
}

func (m *mockHospitalRepo) FindByID(context.Context, string) (*model.Hospital, error) {
	return m.hospital, m.err
}
func (m *mockHospitalRepo) FindByHospitalID(context.Context, string) (*model.Hospital, error) {
	return nil, nil
}
func (m *mockHospitalRepo) Create(context.Context, *model.Hospital) error { return nil }
func (m *mockHospitalRepo) List(context.Context) ([]model.HospitalSummary, error) {
	return nil, nil
}
func (m *mockHospitalRepo) UpdateProfile(context.Context, *model.Hospital) error { return nil }
func (m *mockHospitalRepo) UpdatePassword(context.Context, string, string, bool) error {
	return nil
}

type mockPostRepo struct {
	listRecentTopicsFn func(ctx context.Context, hospitalID string, limit int) ([]string, error)
}

func (m *mockPostRepo) ListRecentTopics(ctx context.Context, hospitalID string, limit int) ([]string, error) {
	if m.listRecentTopicsFn != nil {
		return m.listRecentTopicsFn(ctx, hospitalID, limit)
	}
	return nil, nil
}
func (m *mockPostRepo) Create(context.Context, *model.BlogPost) error { return nil }
func (m *mockPostRepo) FindByID(context.Context, string) (*model.BlogPost, error) {
	return nil, nil
}
func (m *mockPostRepo) ListRecentByHospital(context.Context, string, int) ([]*model.BlogPost, error) {
	return nil, nil
}
func (m *mockPostRepo) ListSummariesByHospital(context.Context, string) ([]*model.BlogPost, error) {
	return nil, nil
}
func (m *mockPostRepo) UpdateContent(context.Context, string, string, time.Time) error {
	return nil
}

type mockFeedReader struct {
	recentTitlesFn func(ctx context.Context, blogID string, limit int) ([]string, error)
	calls          int
}

func (m *mockFeedReader) RecentTitles(ctx context.Context, blogID string, limit int) ([]string, error) {
	m.calls++
	if m.recentTitlesFn != nil {
		return m.recentTitlesFn(ctx, blogID, limit)
	}
	return nil, nil
}

const sampleResponse = "[정보성]\n1. 주제 A\n2. 주제 B\n\n[홍보성]\n1. 주제 C"

func naverHospital() *model.Hospital {
	return &model.Hospital{
		ID:           "h-1",
		HospitalName: "서울여성의원",
		Department:   "산부인과",
		BlogPlatform: "naver",
		BlogID:       "seoul_clinic",
	}
}

// --- Recommend ---

func TestService_Recommend(t *testing.T) {
	gen := &mockGenerator{completeFn: func(context.Context, ai.TextRequest) (string, error) {
		return sampleResponse, nil
	}}
	posts := &mockPostRepo{listRecentTopicsFn: func(_ context.Context, hospitalID string, limit int) ([]string, error) {
		if hospitalID != "h-1" || limit != 10 {
			t.Errorf("ListRecentTopics(%q, %d)", hospitalID, limit)
		}
		return []string{"임신 초기 증상"}, nil
	}}
	feeds := &mockFeedReader{recentTitlesFn: func(_ context.Context, blogID string, _ int) ([]string, error) {
		if blogID != "seoul_clinic" {
			t.Errorf("blogID = %q", blogID)
		}
		return []string{"봄철 건강 관리"}, nil
	}}
	s := NewService(gen, &mockHospitalRepo{hospital: naverHospital()}, posts, feeds, 2000)

	topics, err := s.Recommend(context.Background(), "h-1")
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	assertTopics(t, "정보성", topics.Informational, []string{"주제 A", "주제 B"})
	assertTopics(t, "홍보성", topics.Promotional, []string{"주제 C"})

	req := gen.requests[0]
	if req.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
	if !strings.Contains(req.Prompt, "임신 초기 증상") || !strings.Contains(req.Prompt, "봄철 건강 관리") {
		t.Errorf("prompt should include history and blog titles: %q", req.Prompt)
	}
}

func TestService_Recommend_FeedFailureIgnored(t *testing.T) {
	gen := &mockGenerator{completeFn: func(context.Context, ai.TextRequest) (string, error) {
		return sampleResponse, nil
	}}
	feeds := &mockFeedReader{recentTitlesFn: func(context.Context, string, int) ([]string, error) {
		return nil, errors.New("feed unavailable")
	}}
	s := NewService(gen, &mockHospitalRepo{hospital: naverHospital()}, &mockPostRepo{}, feeds, 2000)

	if _, err := s.Recommend(context.Background(), "h-1"); err != nil {
		t.Fatalf("feed failure should not fail the recommendation: %v", err)
	}
	if feeds.calls != 1 {
		t.Errorf("feed calls = %d, want 1", feeds.calls)
	}
}

func TestService_Recommend_SkipsFeedWithoutNaverBlog(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		blogID   string
	}{
		{"other platform", "tistory", "seoul"},
		{"no blog id", "naver", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := naverHospital()
			h.BlogPlatform, h.BlogID = tt.platform, tt.blogID
			feeds := &mockFeedReader{}
			s := NewService(&mockGenerator{}, &mockHospitalRepo{hospital: h}, &mockPostRepo{}, feeds, 2000)

			if _, err := s.Recommend(context.Background(), "h-1"); err != nil {
				t.Fatalf("Recommend returned error: %v", err)
			}
			if feeds.calls != 0 {
				t.Error("feed should not be read")
			}
		})
	}
}

func TestService_Recommend_HospitalNotFound(t *testing.T) {
	gen := &mockGenerator{}
	s := NewService(gen, &mockHospitalRepo{}, &mockPostRepo{}, nil, 2000)

	_, err := s.Recommend(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeHospitalNotFound {
		t.Fatalf("error = %v, want HOSPITAL_NOT_FOUND", err)
	}
	if len(gen.requests) != 0 {
		t.Error("provider should not be called")
	}
}

func TestService_Recommend_ProviderTimeout(t *testing.T) {
	gen := &mockGenerator{completeFn: func(context.Context, ai.TextRequest) (string, error) {
		return "", fmt.Errorf("%w: deadline", ai.ErrTimeout)
	}}
	s := NewService(gen, &mockHospitalRepo{hospital: naverHospital()}, &mockPostRepo{}, nil, 2000)

	_, err := s.Recommend(context.Background(), "h-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProviderTimeout {
		t.Fatalf("error = %v, want PROVIDER_TIMEOUT", err)
	}
}
