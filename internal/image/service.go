// Package image は画像ディレクティブから画像を生成し、ストレージへの保存と
// メタデータの永続化、スロット単位の再生成を行う。
package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/hospiblog/internal/ai"
	"github.com/hitoshi/hospiblog/internal/metrics"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
	"github.com/hitoshi/hospiblog/internal/security"
	"github.com/hitoshi/hospiblog/internal/storage"
)

// minImageSize はダウンロードした画像として受け入れる最小バイト数。
const minImageSize = 1000

const defaultMaxConcurrent = 5

// errMsgSlotTaken は記事の同じ位置に既に画像がある場合の項目エラー。
const errMsgSlotTaken = "이미 이미지가 있는 위치입니다. 교체하려면 replace_existing를 사용해주세요."

// errImageTooSmall は画像データが小さすぎて有効な画像とみなせない場合のエラー。
var errImageTooSmall = errors.New("image payload too small")

// ImageGenerator は画像生成プロバイダのインターフェース。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*ai.GeneratedImage, error)
}

// BlobStore は画像ブロブの保存先のインターフェース。
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, paths []string) error
	PathFromPublicURL(publicURL string) (string, bool)
}

// Downloader はプロバイダが返した画像URLを取得するインターフェース。
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

var _ BlobStore = (*storage.Client)(nil)

// GenerateRequest は画像生成の入力。
type GenerateRequest struct {
	BlogPostID      string
	Topic           string
	Directives      []model.ImageDirective
	ReplaceExisting bool
	DisplayOrder    *int
}

// Result は1件の画像指示に対する生成結果。
// 失敗した場合はURLが空でErrorに理由が入る。
type Result struct {
	Type         model.ImageType
	Description  string
	Text         string
	DisplayOrder int
	URL          string
	ImageID      string
	Error        string
}

// Config は画像パイプラインの設定。
type Config struct {
	MaxConcurrent int
}

// Service は画像生成パイプラインのサービス層。
type Service struct {
	generator  ImageGenerator
	blobs      BlobStore
	downloader Downloader
	hospitals  repository.HospitalRepository
	posts      repository.BlogPostRepository
	images     repository.BlogImageRepository
	metrics    metrics.MetricsCollector
	config     Config
	now        func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	generator ImageGenerator,
	blobs BlobStore,
	downloader Downloader,
	hospitals repository.HospitalRepository,
	posts repository.BlogPostRepository,
	images repository.BlogImageRepository,
	collector metrics.MetricsCollector,
	config Config,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaultMaxConcurrent
	}
	return &Service{
		generator:  generator,
		blobs:      blobs,
		downloader: downloader,
		hospitals:  hospitals,
		posts:      posts,
		images:     images,
		metrics:    collector,
		config:     config,
		now:        time.Now,
	}
}

// Generate は画像指示ごとに画像を生成し、アップロードとメタデータ保存を行う。
// 記事IDが指定された場合、記事は呼び出し元の病院のものでなければならない。
// 各指示の失敗は結果のErrorに記録し、バッチ全体は失敗させない。
func (s *Service) Generate(ctx context.Context, hospitalRef string, req GenerateRequest) ([]Result, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	hospital, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	department := model.DefaultDepartment
	if hospital != nil && hospital.Department != "" {
		department = hospital.Department
	}

	if req.BlogPostID != "" {
		if err := s.authorizePost(ctx, hospitalRef, req.BlogPostID); err != nil {
			return nil, err
		}
	}

	slots := make([]int, len(req.Directives))
	for i := range slots {
		slots[i] = i
	}
	if req.DisplayOrder != nil {
		slots[0] = *req.DisplayOrder
	}

	if req.ReplaceExisting {
		s.removeSlot(ctx, req.BlogPostID, slots[0])
	}

	occupied := map[int]bool{}
	if req.BlogPostID != "" && !req.ReplaceExisting {
		if occupied, err = s.occupiedSlots(ctx, req.BlogPostID); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(req.Directives))
	var g errgroup.Group
	g.SetLimit(s.config.MaxConcurrent)
	for i, d := range req.Directives {
		if occupied[slots[i]] {
			results[i] = slotTakenResult(d, slots[i])
			continue
		}
		g.Go(func() error {
			results[i] = s.generateOne(ctx, req.BlogPostID, department, req.Topic, d, slots[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListByPost は記事の画像をdisplay_order順に返す。
func (s *Service) ListByPost(ctx context.Context, hospitalRef, postID string) ([]*model.BlogImage, error) {
	if err := s.authorizePost(ctx, hospitalRef, postID); err != nil {
		return nil, err
	}
	images, err := s.images.ListByPost(ctx, postID)
	if err != nil {
		slog.Error("failed to list blog images",
			slog.String("blog_post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewOperationFailedError("이미지 목록을 불러오는데 실패했습니다.")
	}
	return images, nil
}

func validateRequest(req *GenerateRequest) error {
	if len(req.Directives) == 0 {
		return model.NewValidationError("이미지 키워드를 입력해주세요.")
	}
	if len(req.Directives) > model.MaxImagesPerPost {
		req.Directives = req.Directives[:model.MaxImagesPerPost]
	}
	for _, d := range req.Directives {
		if strings.TrimSpace(d.Description) == "" {
			return model.NewValidationError("이미지 설명을 입력해주세요.")
		}
	}

	if req.DisplayOrder != nil {
		if *req.DisplayOrder < 0 || *req.DisplayOrder >= model.MaxImagesPerPost {
			return model.NewValidationError(fmt.Sprintf("display_order는 0부터 %d 사이여야 합니다.", model.MaxImagesPerPost-1))
		}
		if len(req.Directives) != 1 {
			return model.NewValidationError("display_order는 이미지 1개에만 지정할 수 있습니다.")
		}
	}

	if req.ReplaceExisting && (req.BlogPostID == "" || req.DisplayOrder == nil) {
		return model.NewValidationError("이미지를 교체하려면 blog_post_id와 display_order가 필요합니다.")
	}
	return nil
}

// authorizePost は記事の存在と所有者を確認する。
func (s *Service) authorizePost(ctx context.Context, hospitalRef, postID string) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to find blog post: %w", err)
	}
	if post == nil {
		return model.NewBlogPostNotFoundError(postID)
	}
	if post.HospitalID != hospitalRef {
		return model.NewForbiddenError()
	}
	return nil
}

// occupiedSlots は記事で既に画像があるdisplay_orderの集合を返す。
func (s *Service) occupiedSlots(ctx context.Context, postID string) (map[int]bool, error) {
	existing, err := s.images.ListByPost(ctx, postID)
	if err != nil {
		slog.Error("failed to list images for slot check",
			slog.String("blog_post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewOperationFailedError("이미지 목록을 불러오는데 실패했습니다.")
	}
	occupied := make(map[int]bool, len(existing))
	for _, img := range existing {
		occupied[img.DisplayOrder] = true
	}
	return occupied, nil
}

func slotTakenResult(d model.ImageDirective, slot int) Result {
	return Result{
		Type:         d.Type,
		Description:  d.Description,
		Text:         d.Text,
		DisplayOrder: slot,
		Error:        errMsgSlotTaken,
	}
}

// removeSlot は指定スロットの既存画像をブロブ、行の順に削除する。
// 失敗はログに記録するだけで再生成は続行する。
func (s *Service) removeSlot(ctx context.Context, postID string, displayOrder int) {
	existing, err := s.images.ListByPostAndOrder(ctx, postID, displayOrder)
	if err != nil {
		slog.Error("failed to list images for replacement",
			slog.String("blog_post_id", postID),
			slog.Int("display_order", displayOrder),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, img := range existing {
		path := img.StoragePath
		if path == "" {
			path, _ = s.blobs.PathFromPublicURL(img.PublicURL)
		}
		if path != "" {
			if err := s.blobs.Delete(ctx, []string{path}); err != nil {
				slog.Warn("failed to delete replaced image blob",
					slog.String("image_id", img.ID),
					slog.String("storage_path", path),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := s.images.DeleteByID(ctx, img.ID); err != nil {
			slog.Warn("failed to delete replaced image row",
				slog.String("image_id", img.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// generateOne は1件の画像指示を処理する。
func (s *Service) generateOne(ctx context.Context, postID, department, topic string, d model.ImageDirective, slot int) Result {
	result := Result{
		Type:         d.Type,
		Description:  d.Description,
		Text:         d.Text,
		DisplayOrder: slot,
	}
	prompt := BuildPrompt(d.Type, department, topic, d.Description, d.Text)

	generated, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		s.metrics.RecordImageGenerated(itemOutcome(err))
		result.Error = itemErrorMessage(err)
		return result
	}

	// ストレージのブロブは必ずblog_imagesの行から参照される。
	// 記事がない場合はアップロードせずプロバイダの結果を返す。
	if postID == "" {
		return s.unboundResult(result, d, generated)
	}

	data := generated.Data
	if len(data) == 0 && generated.URL != "" {
		data, err = s.downloader.Download(ctx, generated.URL)
		if err != nil {
			slog.Error("failed to download generated image",
				slog.String("image_type", string(d.Type)),
				slog.String("error", err.Error()),
			)
			s.metrics.RecordImageGenerated(metrics.OutcomeFailure)
			result.Error = "생성된 이미지를 가져오지 못했습니다."
			return result
		}
	}
	if len(data) < minImageSize {
		slog.Error("generated image rejected",
			slog.String("image_type", string(d.Type)),
			slog.Int("bytes", len(data)),
			slog.String("error", errImageTooSmall.Error()),
		)
		s.metrics.RecordImageGenerated(metrics.OutcomeFailure)
		result.Error = "생성된 이미지가 올바르지 않습니다."
		return result
	}

	path := storage.NewObjectPath(s.now())
	publicURL, err := s.blobs.Upload(ctx, path, data, "image/png")
	if err != nil {
		s.metrics.RecordImageGenerated(metrics.OutcomeFailure)
		result.Error = "이미지 저장에 실패했습니다."
		return result
	}
	img := &model.BlogImage{
		ID:           uuid.New().String(),
		BlogPostID:   postID,
		Keyword:      d.Description,
		TextContent:  d.Text,
		StoragePath:  path,
		PublicURL:    publicURL,
		Prompt:       prompt,
		ImageType:    d.Type,
		DisplayOrder: slot,
		CreatedAt:    s.now(),
	}
	if err := s.images.Create(ctx, img); err != nil {
		slog.Error("failed to save image metadata",
			slog.String("blog_post_id", postID),
			slog.Int("display_order", slot),
			slog.String("error", err.Error()),
		)
		if delErr := s.blobs.Delete(ctx, []string{path}); delErr != nil {
			slog.Warn("failed to delete unreferenced image blob",
				slog.String("storage_path", path),
				slog.String("error", delErr.Error()),
			)
		}
		s.metrics.RecordImageGenerated(metrics.OutcomeFailure)
		if errors.Is(err, repository.ErrDuplicateKey) {
			result.Error = errMsgSlotTaken
		} else {
			result.Error = "이미지 정보 저장에 실패했습니다."
		}
		return result
	}

	s.metrics.RecordImageGenerated(metrics.OutcomeSuccess)
	result.URL = publicURL
	result.ImageID = img.ID
	return result
}

// unboundResult は記事に紐付かない画像の結果を組み立てる。
// URLがあればそのまま、画像データのみの場合はdata URIで返す。
func (s *Service) unboundResult(result Result, d model.ImageDirective, generated *ai.GeneratedImage) Result {
	switch {
	case len(generated.Data) >= minImageSize:
		result.URL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(generated.Data)
	case len(generated.Data) == 0 && generated.URL != "":
		result.URL = generated.URL
	default:
		slog.Error("generated image rejected",
			slog.String("image_type", string(d.Type)),
			slog.Int("bytes", len(generated.Data)),
			slog.String("error", errImageTooSmall.Error()),
		)
		s.metrics.RecordImageGenerated(metrics.OutcomeFailure)
		result.Error = "생성된 이미지가 올바르지 않습니다."
		return result
	}
	s.metrics.RecordImageGenerated(metrics.OutcomeSuccess)
	return result
}

func itemOutcome(err error) string {
	if errors.Is(err, ai.ErrTimeout) {
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeFailure
}

func itemErrorMessage(err error) string {
	if errors.Is(err, ai.ErrTimeout) {
		return "AI 응답 시간이 초과되었습니다."
	}
	return "이미지 생성 중 오류가 발생했습니다."
}

// safeDownloader はSSRF対策済みクライアントで画像をダウンロードする。
type safeDownloader struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloader はSSRFガードのクライアントを使うDownloaderを生成する。
func NewDownloader(guard security.SSRFGuardService, timeout time.Duration, maxBytes int64) *safeDownloader {
	return &safeDownloader{client: guard.NewSafeClient(timeout), maxBytes: maxBytes}
}

// Download はURLの画像をmaxBytesまで取得する。
func (d *safeDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	data, _, err := security.FetchLimited(ctx, d.client, url, d.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	return data, nil
}
