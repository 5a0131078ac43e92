package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/hospiblog/internal/database"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/lib/pq"
)

const hospitalColumns = `id, hospital_id, password_hash, hospital_name, department, main_services,
	address, blog_platform, blog_id, blog_password_encrypted, blog_board_name,
	must_change_password, is_initial_setup_complete, created_at, updated_at`

// PostgresHospitalRepo はPostgreSQLを使用した病院アカウントリポジトリ。
type PostgresHospitalRepo struct {
	db *sql.DB
}

// NewPostgresHospitalRepo はPostgresHospitalRepoを生成する。
func NewPostgresHospitalRepo(db *sql.DB) *PostgresHospitalRepo {
	return &PostgresHospitalRepo{db: db}
}

// FindByID は指定IDの病院を取得する。見つからない場合はnilを返す。
func (r *PostgresHospitalRepo) FindByID(ctx context.Context, id string) (*model.Hospital, error) {
	if !isUUID(id) {
		return nil, nil
	}
	h, err := scanHospital(r.db.QueryRowContext(ctx,
		`SELECT `+hospitalColumns+` FROM hospitals WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital by ID: %w", err)
	}
	return h, nil
}

// FindByHospitalID はログインハンドルで病院を取得する。見つからない場合はnilを返す。
func (r *PostgresHospitalRepo) FindByHospitalID(ctx context.Context, hospitalID string) (*model.Hospital, error) {
	h, err := scanHospital(r.db.QueryRowContext(ctx,
		`SELECT `+hospitalColumns+` FROM hospitals WHERE hospital_id = $1`, hospitalID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital by hospital_id: %w", err)
	}
	return h, nil
}

// Create は病院を作成する。hospital_idが重複する場合はErrDuplicateKeyを返す。
func (r *PostgresHospitalRepo) Create(ctx context.Context, h *model.Hospital) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO hospitals (`+hospitalColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		h.ID, h.HospitalID, h.PasswordHash, h.HospitalName, h.Department, pq.Array(nonNil(h.MainServices)),
		h.Address, h.BlogPlatform, h.BlogID, h.BlogPasswordEncrypted, h.BlogBoardName,
		h.MustChangePassword, h.IsInitialSetupComplete, h.CreatedAt, h.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert hospital: %w", err)
	}
	return nil
}

// List は病院の要約一覧をcreated_at降順で返す。
func (r *PostgresHospitalRepo) List(ctx context.Context) ([]model.HospitalSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hospital_id, hospital_name, department, is_initial_setup_complete, created_at
		 FROM hospitals ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	defer rows.Close()

	summaries := []model.HospitalSummary{}
	for rows.Next() {
		var s model.HospitalSummary
		if err := rows.Scan(&s.ID, &s.HospitalID, &s.HospitalName, &s.Department,
			&s.IsInitialSetupComplete, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hospital summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hospitals: %w", err)
	}
	return summaries, nil
}

// UpdateProfile はプロフィール項目と初期設定完了フラグを上書きする。
func (r *PostgresHospitalRepo) UpdateProfile(ctx context.Context, h *model.Hospital) error {
	if !isUUID(h.ID) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE hospitals SET
			hospital_name = $2, department = $3, main_services = $4, address = $5,
			blog_platform = $6, blog_id = $7, blog_password_encrypted = $8, blog_board_name = $9,
			is_initial_setup_complete = $10, updated_at = $11
		 WHERE id = $1`,
		h.ID, h.HospitalName, h.Department, pq.Array(nonNil(h.MainServices)), h.Address,
		h.BlogPlatform, h.BlogID, h.BlogPasswordEncrypted, h.BlogBoardName,
		h.IsInitialSetupComplete, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update hospital profile: %w", err)
	}
	return requireAffected(result)
}

// UpdatePassword はパスワードハッシュとmust_change_passwordを更新する。
func (r *PostgresHospitalRepo) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	if !isUUID(id) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE hospitals SET password_hash = $2, must_change_password = $3, updated_at = now()
		 WHERE id = $1`,
		id, passwordHash, mustChange,
	)
	if err != nil {
		return fmt.Errorf("failed to update hospital password: %w", err)
	}
	return requireAffected(result)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHospital(row rowScanner) (*model.Hospital, error) {
	h := &model.Hospital{}
	err := row.Scan(
		&h.ID, &h.HospitalID, &h.PasswordHash, &h.HospitalName, &h.Department, pq.Array(&h.MainServices),
		&h.Address, &h.BlogPlatform, &h.BlogID, &h.BlogPasswordEncrypted, &h.BlogBoardName,
		&h.MustChangePassword, &h.IsInitialSetupComplete, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// requireAffected は更新・削除で1行も対象がなかった場合にErrNotFoundを返す。
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUUID はidがUUID列と比較できる形式かどうかを返す。
// 形式が不正な値をそのまま渡すとPostgreSQLが22P02を返すため、該当行なしとして扱う。
func isUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// nonNil はtext[]にNULLではなく空配列を書き込むためにnilを空スライスに置き換える。
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// compile-time interface check
var _ HospitalRepository = (*PostgresHospitalRepo)(nil)
