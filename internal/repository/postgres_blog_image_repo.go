package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hospiblog/internal/database"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/lib/pq"
)

const blogImageColumns = `id, blog_post_id, keyword, text_content, storage_path, public_url,
	prompt, image_type, display_order, created_at`

// PostgresBlogImageRepo はPostgreSQLを使用した記事画像リポジトリ。
type PostgresBlogImageRepo struct {
	db *sql.DB
}

// NewPostgresBlogImageRepo はPostgresBlogImageRepoを生成する。
func NewPostgresBlogImageRepo(db *sql.DB) *PostgresBlogImageRepo {
	return &PostgresBlogImageRepo{db: db}
}

// Create は画像メタデータを作成する。
// 同じ記事の同じdisplay_orderに行がある場合はErrDuplicateKeyを返す。
func (r *PostgresBlogImageRepo) Create(ctx context.Context, img *model.BlogImage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_images (`+blogImageColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		img.ID, img.BlogPostID, img.Keyword, img.TextContent, img.StoragePath, img.PublicURL,
		img.Prompt, string(img.ImageType), img.DisplayOrder, img.CreatedAt,
	)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert blog image: %w", err)
	}
	return nil
}

// ListByPost は記事の画像をdisplay_order、created_at昇順で返す。
func (r *PostgresBlogImageRepo) ListByPost(ctx context.Context, postID string) ([]*model.BlogImage, error) {
	if !isUUID(postID) {
		return []*model.BlogImage{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogImageColumns+` FROM blog_images
		 WHERE blog_post_id = $1 ORDER BY display_order ASC, created_at ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog images: %w", err)
	}
	defer rows.Close()

	return collectBlogImages(rows)
}

// ListByPostAndOrder は記事の指定スロットの画像を返す。
func (r *PostgresBlogImageRepo) ListByPostAndOrder(ctx context.Context, postID string, displayOrder int) ([]*model.BlogImage, error) {
	if !isUUID(postID) {
		return []*model.BlogImage{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogImageColumns+` FROM blog_images
		 WHERE blog_post_id = $1 AND display_order = $2 ORDER BY created_at ASC`,
		postID, displayOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog images by order: %w", err)
	}
	defer rows.Close()

	return collectBlogImages(rows)
}

// DeleteByID は画像メタデータを削除する。
func (r *PostgresBlogImageRepo) DeleteByID(ctx context.Context, id string) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog image: %w", err)
	}
	return requireAffected(result)
}

// FindReferencedPaths は指定パスのうちメタデータから参照されているものを返す。
func (r *PostgresBlogImageRepo) FindReferencedPaths(ctx context.Context, paths []string) (map[string]bool, error) {
	referenced := make(map[string]bool, len(paths))
	if len(paths) == 0 {
		return referenced, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT storage_path FROM blog_images WHERE storage_path = ANY($1)`,
		pq.Array(paths),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find referenced storage paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan storage path: %w", err)
		}
		referenced[path] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate storage paths: %w", err)
	}
	return referenced, nil
}

func collectBlogImages(rows *sql.Rows) ([]*model.BlogImage, error) {
	images := []*model.BlogImage{}
	for rows.Next() {
		img := &model.BlogImage{}
		var imageType string
		if err := rows.Scan(
			&img.ID, &img.BlogPostID, &img.Keyword, &img.TextContent, &img.StoragePath, &img.PublicURL,
			&img.Prompt, &imageType, &img.DisplayOrder, &img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan blog image: %w", err)
		}
		img.ImageType = model.ImageType(imageType)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog images: %w", err)
	}
	return images, nil
}

// compile-time interface check
var _ BlogImageRepository = (*PostgresBlogImageRepo)(nil)
