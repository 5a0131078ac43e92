// Package hospital は病院アカウント自身によるプロフィール設定の参照・更新を提供する。
package hospital

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/hospiblog/internal/model"
	"github.com/hitoshi/hospiblog/internal/repository"
	"github.com/hitoshi/hospiblog/internal/security"
)

// Sealer はブログ認証情報を保存前に暗号化するインターフェース。
type Sealer interface {
	Seal(plaintext string) (string, error)
}

var _ Sealer = (*security.CredentialSealer)(nil)

// Service は病院プロフィールのサービス層。
type Service struct {
	hospitals repository.HospitalRepository
	sanitizer security.ContentSanitizerService
	sealer    Sealer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	hospitals repository.HospitalRepository,
	sanitizer security.ContentSanitizerService,
	sealer Sealer,
) *Service {
	return &Service{
		hospitals: hospitals,
		sanitizer: sanitizer,
		sealer:    sealer,
		now:       time.Now,
	}
}

// GetSettings は病院のプロフィールを返す。パスワードハッシュは含まない。
func (s *Service) GetSettings(ctx context.Context, hospitalRef string) (*model.HospitalProfile, error) {
	h, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if h == nil {
		return nil, model.NewHospitalNotFoundError()
	}
	return h.Profile(), nil
}

// UpdateSettings はプロフィールを部分更新し、初期設定完了フラグを再計算する。
// テキスト項目はHTMLを除去し、ブログパスワードは暗号化して保存する。
// 空文字列のブログパスワードは保存済みの値を消去する。
func (s *Service) UpdateSettings(ctx context.Context, hospitalRef string, update model.HospitalProfileUpdate) (*model.HospitalProfile, error) {
	h, err := s.hospitals.FindByID(ctx, hospitalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find hospital: %w", err)
	}
	if h == nil {
		return nil, model.NewHospitalNotFoundError()
	}

	s.sanitize(&update)
	update.ApplyTo(h)

	if update.BlogPassword != nil {
		sealed, err := s.sealer.Seal(*update.BlogPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to seal blog password: %w", err)
		}
		h.BlogPasswordEncrypted = sealed
	}
	h.UpdatedAt = s.now()

	if err := s.hospitals.UpdateProfile(ctx, h); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewHospitalNotFoundError()
		}
		slog.Error("failed to update hospital profile",
			slog.String("hospital_id", h.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewOperationFailedError("설정 업데이트 중 오류가 발생했습니다.")
	}

	slog.Info("hospital profile updated",
		slog.String("hospital_id", h.ID),
		slog.Bool("setup_complete", h.IsInitialSetupComplete),
	)
	return h.Profile(), nil
}

// sanitize は表示用テキスト項目からHTMLを除去する。パスワードは対象外。
func (s *Service) sanitize(u *model.HospitalProfileUpdate) {
	for _, field := range []**string{&u.HospitalName, &u.Department, &u.Address, &u.BlogPlatform, &u.BlogID, &u.BlogBoardName} {
		if *field != nil {
			v := s.sanitizer.StripTags(**field)
			*field = &v
		}
	}
	if u.MainServices != nil {
		services := make([]string, len(*u.MainServices))
		for i, svc := range *u.MainServices {
			services[i] = s.sanitizer.StripTags(svc)
		}
		u.MainServices = &services
	}
}
