// Package cleanup はストレージ上の孤立画像ブロブを削除するジョブを提供する。
// アップロードから blog_images 行の作成までの間にプロセスが停止した場合や、
// 置き換え時のブロブ削除が失敗した場合、どの行からも参照されないブロブが残る。
// 猶予期間を過ぎたそれらをまとめて削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/hospiblog/internal/metrics"
	"github.com/hitoshi/hospiblog/internal/storage"
)

// deleteBatchSize は1回の削除リクエストで送るパス数の上限。
const deleteBatchSize = 100

// BlobStore はストレージの一覧と削除を抽象化する。
type BlobStore interface {
	List(ctx context.Context) ([]storage.Object, error)
	Delete(ctx context.Context, paths []string) error
}

// ReferenceFinder はメタデータから参照されているパスを判定する。
type ReferenceFinder interface {
	FindReferencedPaths(ctx context.Context, paths []string) (map[string]bool, error)
}

// OrphanSweeper は孤立ブロブの削除ジョブ。
// 冪等であり、削除対象がない場合もエラーにならない。
type OrphanSweeper struct {
	store   BlobStore
	refs    ReferenceFinder
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	GracePeriod time.Duration // アップロード直後のブロブを誤って消さないための猶予（デフォルト: 24時間）
	now         func() time.Time
}

// NewOrphanSweeper は新しいOrphanSweeperを生成する。
func NewOrphanSweeper(store BlobStore, refs ReferenceFinder, logger *slog.Logger, collector metrics.MetricsCollector) *OrphanSweeper {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &OrphanSweeper{
		store:       store,
		refs:        refs,
		logger:      logger,
		metrics:     collector,
		GracePeriod: 24 * time.Hour,
		now:         time.Now,
	}
}

// Run は猶予期間を過ぎた未参照ブロブを削除し、削除件数を返す。
func (s *OrphanSweeper) Run(ctx context.Context) (int, error) {
	start := s.now()

	objects, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list storage objects", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to list storage objects: %w", err)
	}

	cutoff := start.Add(-s.GracePeriod)
	var candidates []string
	for _, obj := range objects {
		if obj.CreatedAt.Before(cutoff) {
			candidates = append(candidates, obj.Name)
		}
	}

	removed := 0
	for i := 0; i < len(candidates); i += deleteBatchSize {
		end := min(i+deleteBatchSize, len(candidates))
		n, err := s.sweepBatch(ctx, candidates[i:end])
		removed += n
		if err != nil {
			s.metrics.RecordOrphansRemoved(removed)
			return removed, err
		}
	}
	s.metrics.RecordOrphansRemoved(removed)

	s.logger.Info("orphan blob sweep completed",
		slog.Int("scanned", len(objects)),
		slog.Int("candidates", len(candidates)),
		slog.Int("removed", removed),
		slog.Duration("grace_period", s.GracePeriod),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return removed, nil
}

func (s *OrphanSweeper) sweepBatch(ctx context.Context, paths []string) (int, error) {
	referenced, err := s.refs.FindReferencedPaths(ctx, paths)
	if err != nil {
		s.logger.Error("failed to look up referenced paths", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to look up referenced paths: %w", err)
	}

	var orphans []string
	for _, p := range paths {
		if !referenced[p] {
			orphans = append(orphans, p)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	if err := s.store.Delete(ctx, orphans); err != nil {
		s.logger.Error("failed to delete orphan blobs",
			slog.String("error", err.Error()),
			slog.Int("count", len(orphans)),
		)
		return 0, fmt.Errorf("failed to delete orphan blobs: %w", err)
	}
	return len(orphans), nil
}
