// Package blog はブログ本文の生成、画像ディレクティブの抽出、記事の保存・編集を提供する。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/hospiblog/internal/ai"
	"github.com/hitoshi/hospiblog/internal/metrics"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
	"github.com/hitoshi/hospiblog/internal/security"
)

// recentPostLimit は記事一覧で返す件数。
const recentPostLimit = 10

// TextGenerator は本文生成プロバイダのインターフェース。
type TextGenerator interface {
	Complete(ctx context.Context, req ai.TextRequest) (string, error)
}

// GenerateInput は本文生成の入力。
type GenerateInput struct {
	Topic    string
	Keywords string // カンマ区切り
}

// GenerateResult は本文生成の結果。
// BlogPostIDは未ログインまたは保存失敗の場合nil。
type GenerateResult struct {
	Content          string
	ImageKeywords    []string
	ImageSuggestions []model.ImageDirective
	BlogPostID       *string
}

// Service はブログ記事の生成と管理を行うサービス層。
type Service struct {
	generator TextGenerator
	hospitals repository.HospitalRepository
	posts     repository.BlogPostRepository
	sanitizer security.ContentSanitizerService
	metrics   metrics.MetricsCollector
	maxTokens int
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	generator TextGenerator,
	hospitals repository.HospitalRepository,
	posts repository.BlogPostRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	maxTokens int,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		generator: generator,
		hospitals: hospitals,
		posts:     posts,
		sanitizer: sanitizer,
		metrics:   collector,
		maxTokens: maxTokens,
		now:       time.Now,
	}
}

// Generate はトピックからブログ本文を生成する。
// identityがnilでない場合は病院名・所在地をプロンプトに含め、生成結果を記事として保存する。
// 保存に失敗しても本文は返し、BlogPostIDをnilとする。
func (s *Service) Generate(ctx context.Context, identity *model.Identity, input GenerateInput) (*GenerateResult, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return nil, model.NewValidationError("주제를 입력해주세요.")
	}
	keywords := ParseKeywords(input.Keywords)

	var hospital *model.Hospital
	if identity != nil {
		h, err := s.hospitals.FindByID(ctx, identity.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to find hospital: %w", err)
		}
		hospital = h
	}
	address := ""
	if hospital != nil {
		address = hospital.Address
	}

	raw, err := s.generator.Complete(ctx, ai.TextRequest{
		Operation: "generate_blog",
		System:    systemPrompt,
		Prompt:    buildUserPrompt(hospital.DisplayName(), address, topic, keywords),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, ai.ToAPIError(err, "블로그 글 생성 중 오류가 발생했습니다.")
	}

	directives := ExtractDirectives(raw)
	imageKeywords, body := ExtractImageKeywords(raw)
	content := s.sanitizer.StripTags(body)

	result := &GenerateResult{
		Content:          content,
		ImageKeywords:    imageKeywords,
		ImageSuggestions: directives,
	}

	if identity == nil {
		s.metrics.RecordPostGenerated(false)
		return result, nil
	}

	now := s.now()
	post := &model.BlogPost{
		ID:            uuid.New().String(),
		HospitalID:    identity.Subject,
		Title:         ExtractTitle(content, topic),
		Content:       content,
		Topic:         topic,
		Keywords:      keywords,
		ImageKeywords: imageKeywords,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		slog.Error("failed to save generated blog post",
			slog.String("hospital_id", identity.Subject),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordPostGenerated(false)
		return result, nil
	}

	s.metrics.RecordPostGenerated(true)
	slog.Info("blog post generated",
		slog.String("hospital_id", identity.Subject),
		slog.String("blog_post_id", post.ID),
		slog.Int("directives", len(directives)),
	)
	result.BlogPostID = &post.ID
	return result, nil
}

// ListRecent は病院の直近の記事を新しい順に返す。
func (s *Service) ListRecent(ctx context.Context, hospitalRef string) ([]*model.BlogPost, error) {
	posts, err := s.posts.ListRecentByHospital(ctx, hospitalRef, recentPostLimit)
	if err != nil {
		slog.Error("failed to list blog posts",
			slog.String("hospital_id", hospitalRef),
			slog.String("error", err.Error()),
		)
		return nil, model.NewOperationFailedError("글 목록을 불러오는데 실패했습니다.")
	}
	return posts, nil
}

// UpdateContent は記事本文を更新する。記事が存在しないか他の病院の記事であれば403を返す。
func (s *Service) UpdateContent(ctx context.Context, hospitalRef, postID, content string) error {
	if strings.TrimSpace(postID) == "" || strings.TrimSpace(content) == "" {
		return model.NewValidationError("글 ID와 내용을 입력해주세요.")
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to find blog post: %w", err)
	}
	if post == nil || post.HospitalID != hospitalRef {
		return model.NewForbiddenError()
	}

	if err := s.posts.UpdateContent(ctx, postID, s.sanitizer.StripTags(content), s.now()); err != nil {
		slog.Error("failed to update blog post",
			slog.String("blog_post_id", postID),
			slog.String("error", err.Error()),
		)
		return model.NewOperationFailedError("글 수정에 실패했습니다.")
	}
	return nil
}
