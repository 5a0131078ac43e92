// Package admin は管理者による病院アカウントの発行・パスワード再設定・閲覧を提供する。
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hospiblog/internal/auth"
	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
)

// ProfileEditor は病院プロフィールの更新を行うインターフェース。
// 初期設定完了フラグの再計算とHTML除去は実装側が行う。
type ProfileEditor interface {
	UpdateSettings(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error)
}

// Service は管理者向けの病院アカウント管理サービス。
type Service struct {
	hospitals repository.HospitalRepository
	posts     repository.BlogPostRepository
	profiles  ProfileEditor
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	hospitals repository.HospitalRepository,
	posts repository.BlogPostRepository,
	profiles ProfileEditor,
) *Service {
	return &Service{
		hospitals: hospitals,
		posts:     posts,
		profiles:  profiles,
		now:       time.Now,
	}
}

// CreateHospital は一時パスワード付きの病院アカウントを作成する。
// 初回ログイン時にパスワード変更を必須とする。一時パスワードの長さは問わない。
func (s *Service) CreateHospital(ctx context.Context, hospitalID, initialPassword, department string) (*model.Hospital, error) {
	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" || initialPassword == "" {
		return nil, model.NewValidationError("병원 ID와 초기 비밀번호를 입력해주세요.")
	}
	department = strings.TrimSpace(department)
	if department == "" {
		department = model.DefaultDepartment
	}

	existing, err := s.hospitals.FindByHospitalID(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to check hospital_id: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateHospitalError()
	}

	hash, err := auth.HashPassword(initialPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	h := &model.Hospital{
		ID:                 uuid.New().String(),
		HospitalID:         hospitalID,
		PasswordHash:       hash,
		Department:         department,
		MainServices:       []string{},
		BlogPlatform:       model.DefaultBlogPlatform,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.hospitals.Create(ctx, h); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.NewDuplicateHospitalError()
		}
		slog.Error("failed to create hospital",
			slog.String("hospital_id", hospitalID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewOperationFailedError("병원 계정 생성 중 오류가 발생했습니다.")
	}

	slog.Info("hospital account created",
		slog.String("hospital_id", hospitalID),
		slog.String("id", h.ID),
	)
	return h, nil
}

// ResetPassword は病院のパスワードを再設定し、次回ログイン時の変更を必須にする。
// 同じパスワードで繰り返し呼び出しても結果は変わらない。
func (s *Service) ResetPassword(ctx context.Context, hospitalRef, newPassword string) error {
	if newPassword == "" {
		return model.NewValidationError("새 비밀번호를 입력해주세요.")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.hospitals.UpdatePassword(ctx, hospitalRef, hash, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewHospitalNotFoundError()
		}
		slog.Error("failed to reset hospital password",
			slog.String("id", hospitalRef),
			slog.String("error", err.Error()),
		)
		return model.NewOperationFailedError("비밀번호 재설정에 실패했습니다.")
	}

	slog.Info("hospital password reset", slog.String("id", hospitalRef))
	return nil
}

// ListHospitals は病院の要約を新しい順に返す。
func (s *Service) ListHospitals(ctx context.Context) ([]model.HospitalSummary, error) {
	summaries, err := s.hospitals.List(ctx)
	if err != nil {
		slog.Error("failed to list hospitals", slog.String("error", err.Error()))
		return nil, model.NewOperationFailedError("병원 목록 조회 중 오류가 발생했습니다.")
	}
	return summaries, nil
}

// GetHospital は病院のプロフィールを返す。
func (s *Service) GetHospital(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error) {
	h, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if h == nil {
		return nil, model.NewHospitalNotFoundError()
	}
	return h.Profile(), nil
}

// UpdateHospitalProfile は病院名・診療科・住所・主要診療項目のみを更新する。
// ブログ関連の項目は病院アカウント自身だけが変更できる。
func (s *Service) UpdateHospitalProfile(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error) {
	restricted := model.HospitalProfileUpdate{
		HospitalName: update.HospitalName,
		Department:   update.Department,
		Address:      update.Address,
		MainServices: update.MainServices,
	}
	return s.profiles.UpdateSettings(ctx, hospitalRef, restricted)
}

// ListHospitalPosts は病院の記事を新しい順に返す。本文は含まない。
func (s *Service) ListHospitalPosts(ctx context.Context, hospitalRef string) ([]*model.BlogPost, error) {
	h, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if h == nil {
		return nil, model.NewHospitalNotFoundError()
	}

	posts, err := s.posts.ListSummariesByHospital(ctx, hospitalRef)
	if err != nil {
		slog.Error("failed to list hospital posts",
			slog.String("id", hospitalRef),
			slog.String("error", err.Error()),
		)
		return nil, model.NewOperationFailedError("블로그 글을 불러오는데 실패했습니다.")
	}
	return posts, nil
}
