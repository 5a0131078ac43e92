// Package topic は病院プロフィールと投稿履歴からブログトピックを推薦する。
package topic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/hospiblog/internal/ai"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
)

// recentLimit はプロンプトに含める最近のトピック・タイトルの件数。
const recentLimit = 10

// TextGenerator はトピック生成プロバイダのインターフェース。
type TextGenerator interface {
	Complete(ctx context.Context, req ai.TextRequest) (string, error)
}

// FeedReader は公開ブログの最近のタイトルを取得するインターフェース。
type FeedReader interface {
	RecentTitles(ctx context.Context, blogID string, limit int) ([]string, error)
}

// Service はトピック推薦のサービス層。
type Service struct {
	generator TextGenerator
	hospitals repository.HospitalRepository
	posts     repository.BlogPostRepository
	feeds     FeedReader
	maxTokens int
}

// NewService はServiceを生成する。feedsがnilの場合は公開ブログを参照しない。
func NewService(
	generator TextGenerator,
	hospitals repository.HospitalRepository,
	posts repository.BlogPostRepository,
	feeds FeedReader,
	maxTokens int,
) *Service {
	return &Service{
		generator: generator,
		hospitals: hospitals,
		posts:     posts,
		feeds:     feeds,
		maxTokens: maxTokens,
	}
}

// Recommend は病院向けに정보성・홍보성それぞれのトピックを推薦する。
func (s *Service) Recommend(ctx context.Context, hospitalRef string) (*Topics, error) {
	hospital, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if hospital == nil {
		return nil, model.NewHospitalNotFoundError()
	}

	recentTopics, err := s.posts.ListRecentTopics(ctx, hospital.ID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent topics: %w", err)
	}

	text, err := s.generator.Complete(ctx, ai.TextRequest{
		Operation: "recommend_topics",
		Prompt:    buildPrompt(hospital, recentTopics, s.recentTitles(ctx, hospital)),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, ai.ToAPIError(err, "주제 추천 중 오류가 발생했습니다.")
	}

	topics := ParseTopics(text)
	return &topics, nil
}

// recentTitles は公開ブログの最近のタイトルを取得する。失敗しても推薦は続行する。
func (s *Service) recentTitles(ctx context.Context, h *model.Hospital) []string {
	if s.feeds == nil || h.BlogPlatform != model.DefaultBlogPlatform || h.BlogID == "" {
		return nil
	}
	titles, err := s.feeds.RecentTitles(ctx, h.BlogID, recentLimit)
	if err != nil {
		slog.Warn("failed to read hospital blog feed",
			slog.String("hospital_id", h.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return titles
}
