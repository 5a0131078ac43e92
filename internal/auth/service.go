// Package auth は病院・管理者のログイン、セッショントークン、パスワード管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// HospitalLogin は病院ログインの結果。
type HospitalLogin struct {
	Token    string
	Hospital *model.Hospital
}

// AdminLogin は管理者ログインの結果。
type AdminLogin struct {
	Token string
	Admin *model.Admin
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	hospitals repository.HospitalRepository
	admins    repository.AdminRepository
	tokens    *TokenCodec
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	hospitals repository.HospitalRepository,
	admins repository.AdminRepository,
	tokens *TokenCodec,
	config ServiceConfig,
) *Service {
	return &Service{
		hospitals: hospitals,
		admins:    admins,
		tokens:    tokens,
		config:    config,
		now:       time.Now,
	}
}

func (s *Service) sessionTTL() time.Duration {
	return time.Duration(s.config.SessionMaxAge) * time.Second
}

// LoginHospital はログインハンドルとパスワードを検証し、病院セッショントークンを発行する。
// ハンドル不明とパスワード不一致は同じエラーを返す。
func (s *Service) LoginHospital(ctx context.Context, hospitalID, password string) (*HospitalLogin, error) {
	if hospitalID == "" || password == "" {
		return nil, model.NewValidationError("병원 ID와 비밀번호를 입력해주세요.")
	}

	hospital, err := s.hospitals.FindByHospitalID(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if hospital == nil || !CheckPassword(hospital.PasswordHash, password) {
		slog.Warn("hospital login failed", slog.String("hospital_id", hospitalID))
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Encode(model.Identity{
		Subject: hospital.ID,
		Login:   hospital.HospitalID,
		Role:    model.RoleHospital,
	}, s.sessionTTL())
	if err != nil {
		return nil, err
	}

	slog.Info("hospital logged in", slog.String("hospital_id", hospital.HospitalID))
	return &HospitalLogin{Token: token, Hospital: hospital}, nil
}

// LoginAdmin は有効な管理者の資格情報を検証し、管理者セッショントークンを発行する。
// 入力の前後空白は除去する。成功時はlast_login_atを更新する（失敗はログのみ）。
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (*AdminLogin, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, model.NewValidationError("ID와 비밀번호를 입력해주세요.")
	}

	admin, err := s.admins.FindActiveByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil || !CheckPassword(admin.PasswordHash, password) {
		slog.Warn("admin login failed", slog.String("username", username))
		return nil, model.NewInvalidAdminCredentialsError()
	}

	now := s.now()
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		slog.Error("failed to update admin last login",
			slog.String("admin_id", admin.ID),
			slog.String("error", err.Error()),
		)
	} else {
		admin.LastLoginAt = &now
	}

	token, err := s.tokens.Encode(model.Identity{
		Subject:   admin.ID,
		Login:     admin.Username,
		Role:      model.RoleAdmin,
		AdminRole: admin.Role,
	}, s.sessionTTL())
	if err != nil {
		return nil, err
	}

	slog.Info("admin logged in", slog.String("username", admin.Username))
	return &AdminLogin{Token: token, Admin: admin}, nil
}

// ChangePassword は現在のパスワードを検証して新しいパスワードに変更し、
// must_change_passwordを解除する。
func (s *Service) ChangePassword(ctx context.Context, hospitalRef, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return model.NewValidationError("현재 비밀번호와 새 비밀번호를 입력해주세요.")
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("새 비밀번호는 %d자 이상이어야 합니다.", MinPasswordLength))
	}

	hospital, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return fmt.Errorf("failed to find hospital: %w", err)
	}
	if hospital == nil {
		return model.NewHospitalNotFoundError()
	}
	if !CheckPassword(hospital.PasswordHash, currentPassword) {
		return model.NewWrongPasswordError()
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.hospitals.UpdatePassword(ctx, hospital.ID, hash, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewHospitalNotFoundError()
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("hospital password changed", slog.String("hospital_id", hospital.HospitalID))
	return nil
}
