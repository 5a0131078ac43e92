package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/lib/pq"
)

const blogPostColumns = `id, hospital_id, title, content, topic, keywords, image_keywords,
	category, posted_to_blog, posted_at, created_at, updated_at`

// PostgresBlogPostRepo はPostgreSQLを使用したブログ記事リポジトリ。
type PostgresBlogPostRepo struct {
	db *sql.DB
}

// NewPostgresBlogPostRepo はPostgresBlogPostRepoを生成する。
func NewPostgresBlogPostRepo(db *sql.DB) *PostgresBlogPostRepo {
	return &PostgresBlogPostRepo{db: db}
}

// Create は記事を作成する。
func (r *PostgresBlogPostRepo) Create(ctx context.Context, p *model.BlogPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_posts (`+blogPostColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.HospitalID, p.Title, p.Content, p.Topic,
		pq.Array(nonNil(p.Keywords)), pq.Array(nonNil(p.ImageKeywords)),
		p.Category, p.PostedToBlog, p.PostedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert blog post: %w", err)
	}
	return nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresBlogPostRepo) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	if !isUUID(id) {
		return nil, nil
	}
	p, err := scanBlogPost(r.db.QueryRowContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog post by ID: %w", err)
	}
	return p, nil
}

// ListRecentByHospital は病院の記事を新しい順にlimit件返す。
func (r *PostgresBlogPostRepo) ListRecentByHospital(ctx context.Context, hospitalID string, limit int) ([]*model.BlogPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogPostColumns+` FROM blog_posts
		 WHERE hospital_id = $1 ORDER BY created_at DESC LIMIT $2`,
		hospitalID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent blog posts: %w", err)
	}
	defer rows.Close()

	return collectBlogPosts(rows)
}

// ListSummariesByHospital は病院の全記事を新しい順に返す。本文は含まない。
func (r *PostgresBlogPostRepo) ListSummariesByHospital(ctx context.Context, hospitalID string) ([]*model.BlogPost, error) {
	if !isUUID(hospitalID) {
		return []*model.BlogPost{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hospital_id, title, topic, posted_to_blog, created_at
		 FROM blog_posts WHERE hospital_id = $1 ORDER BY created_at DESC`,
		hospitalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog post summaries: %w", err)
	}
	defer rows.Close()

	posts := []*model.BlogPost{}
	for rows.Next() {
		p := &model.BlogPost{}
		if err := rows.Scan(&p.ID, &p.HospitalID, &p.Title, &p.Topic, &p.PostedToBlog, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blog post summary: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog post summaries: %w", err)
	}
	return posts, nil
}

// ListRecentTopics は病院の直近の記事トピックを新しい順にlimit件返す。
func (r *PostgresBlogPostRepo) ListRecentTopics(ctx context.Context, hospitalID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT topic FROM blog_posts WHERE hospital_id = $1 ORDER BY created_at DESC LIMIT $2`,
		hospitalID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent topics: %w", err)
	}
	defer rows.Close()

	topics := []string{}
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}
	return topics, nil
}

// UpdateContent は本文とupdated_atを更新する。
func (r *PostgresBlogPostRepo) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE blog_posts SET content = $2, updated_at = $3 WHERE id = $1`,
		id, content, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog post content: %w", err)
	}
	return requireAffected(result)
}

func scanBlogPost(row rowScanner) (*model.BlogPost, error) {
	p := &model.BlogPost{}
	var category sql.NullString
	var postedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.HospitalID, &p.Title, &p.Content, &p.Topic,
		pq.Array(&p.Keywords), pq.Array(&p.ImageKeywords),
		&category, &p.PostedToBlog, &postedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if category.Valid {
		c := category.String
		p.Category = &c
	}
	if postedAt.Valid {
		t := postedAt.Time
		p.PostedAt = &t
	}
	return p, nil
}

func collectBlogPosts(rows *sql.Rows) ([]*model.BlogPost, error) {
	posts := []*model.BlogPost{}
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ BlogPostRepository = (*PostgresBlogPostRepo)(nil)
