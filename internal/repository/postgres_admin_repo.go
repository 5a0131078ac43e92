package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/hospiblog/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// FindActiveByUsername は有効な管理者をユーザー名で取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindActiveByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, full_name, role, is_active, last_login_at, created_at
		 FROM admins WHERE username = $1 AND is_active = TRUE`,
		username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by username: %w", err)
	}
	return a, nil
}

// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, full_name, role, is_active, last_login_at, created_at
		 FROM admins WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by ID: %w", err)
	}
	return a, nil
}

// UpdateLastLogin は最終ログイン日時を更新する。
func (r *PostgresAdminRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admins SET last_login_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update admin last login: %w", err)
	}
	return requireAffected(result)
}

// Upsert はユーザー名をキーに管理者を作成または更新する。
// 既存の場合はパスワード・氏名・ロールを上書きし、有効化する。
func (r *PostgresAdminRepo) Upsert(ctx context.Context, a *model.Admin) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, full_name, role, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		 ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			is_active = TRUE`,
		a.ID, a.Username, a.PasswordHash, a.FullName, a.Role, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}

func scanAdmin(row rowScanner) (*model.Admin, error) {
	a := &model.Admin{}
	var lastLogin sql.NullTime
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &a.Role, &a.IsActive, &lastLogin, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return a, nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
