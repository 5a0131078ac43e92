// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/hospiblog/internal/model"
)

// ErrNotFound は更新・削除対象の行が存在しない場合に返される。
// 検索系メソッドは見つからない場合にエラーではなくnilを返す。
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey は一意制約違反の場合に返される。
var ErrDuplicateKey = errors.New("duplicate key")

// HospitalRepository は病院アカウントの永続化インターフェース。
type HospitalRepository interface {
	// FindByID は指定IDの病院を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Hospital, error)

	// FindByHospitalID はログインハンドルで病院を取得する。見つからない場合はnilを返す。
	FindByHospitalID(ctx context.Context, hospitalID string) (*model.Hospital, error)

	// Create は病院を作成する。hospital_idが重複する場合はErrDuplicateKeyを返す。
	Create(ctx context.Context, hospital *model.Hospital) error

	// List は病院の要約一覧をcreated_at降順で返す。
	List(ctx context.Context) ([]model.HospitalSummary, error)

	// UpdateProfile はプロフィール項目と初期設定完了フラグを上書きする。
	UpdateProfile(ctx context.Context, hospital *model.Hospital) error

	// UpdatePassword はパスワードハッシュとmust_change_passwordを更新する。
	// 対象が存在しない場合はErrNotFoundを返す。
	UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error
}

// AdminRepository は管理者アカウントの永続化インターフェース。
type AdminRepository interface {
	// FindActiveByUsername は有効な管理者をユーザー名で取得する。見つからない場合はnilを返す。
	FindActiveByUsername(ctx context.Context, username string) (*model.Admin, error)

	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Admin, error)

	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// Upsert はユーザー名をキーに管理者を作成または更新する。
	Upsert(ctx context.Context, admin *model.Admin) error
}

// BlogPostRepository はブログ記事の永続化インターフェース。
type BlogPostRepository interface {
	// Create は記事を作成する。
	Create(ctx context.Context, post *model.BlogPost) error

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BlogPost, error)

	// ListRecentByHospital は病院の記事を新しい順にlimit件返す。
	ListRecentByHospital(ctx context.Context, hospitalID string, limit int) ([]*model.BlogPost, error)

	// ListSummariesByHospital は病院の全記事を新しい順に返す。本文は含まない。
	ListSummariesByHospital(ctx context.Context, hospitalID string) ([]*model.BlogPost, error)

	// ListRecentTopics は病院の直近の記事トピックを新しい順にlimit件返す。
	ListRecentTopics(ctx context.Context, hospitalID string, limit int) ([]string, error)

	// UpdateContent は本文とupdated_atを更新する。対象が存在しない場合はErrNotFoundを返す。
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
}

// BlogImageRepository は記事画像メタデータの永続化インターフェース。
type BlogImageRepository interface {
	// Create は画像メタデータを作成する。
	// (blog_post_id, display_order)が既に使われている場合はErrDuplicateKeyを返す。
	Create(ctx context.Context, image *model.BlogImage) error

	// ListByPost は記事の画像をdisplay_order、created_at昇順で返す。
	ListByPost(ctx context.Context, postID string) ([]*model.BlogImage, error)

	// ListByPostAndOrder は記事の指定スロットの画像を返す。
	ListByPostAndOrder(ctx context.Context, postID string, displayOrder int) ([]*model.BlogImage, error)

	// DeleteByID は画像メタデータを削除する。対象が存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error

	// FindReferencedPaths は指定パスのうちメタデータから参照されているものを返す。
	FindReferencedPaths(ctx context.Context, paths []string) (map[string]bool, error)
}
