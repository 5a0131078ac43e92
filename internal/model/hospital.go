package model

import (
	"strings"
	"time"
)

// DefaultDepartment は病院作成時に診療科が未指定の場合の既定値。
const DefaultDepartment = "산부인과"

// DefaultBlogPlatform はブログプラットフォームの既定値。
const DefaultBlogPlatform = "naver"

// DefaultHospitalName は病院名が未設定の場合にプロンプトで使う名称。
const DefaultHospitalName = "병원"

// Hospital は病院アカウント（テナント）を表す。
// 論理削除も物理削除も行わない。
type Hospital struct {
	ID                     string
	HospitalID             string // ログインハンドル（一意）
	PasswordHash           string
	HospitalName           string
	Department             string
	MainServices           []string
	Address                string
	BlogPlatform           string
	BlogID                 string
	BlogPasswordEncrypted  string
	BlogBoardName          string
	MustChangePassword     bool
	IsInitialSetupComplete bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HospitalSummary は管理画面の一覧表示用の要約。
type HospitalSummary struct {
	ID                     string
	HospitalID             string
	HospitalName           string
	Department             string
	IsInitialSetupComplete bool
	CreatedAt              time.Time
}

// HospitalProfile はクライアントに返す病院情報。
// パスワードハッシュと暗号化済みブログパスワードは含まない。
type HospitalProfile struct {
	ID                     string
	HospitalID             string
	HospitalName           string
	Department             string
	MainServices           []string
	Address                string
	BlogPlatform           string
	BlogID                 string
	BlogBoardName          string
	HasBlogPassword        bool
	MustChangePassword     bool
	IsInitialSetupComplete bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Profile は秘密情報を除いたプロフィールを返す。
func (h *Hospital) Profile() *HospitalProfile {
	services := h.MainServices
	if services == nil {
		services = []string{}
	}
	return &HospitalProfile{
		ID:                     h.ID,
		HospitalID:             h.HospitalID,
		HospitalName:           h.HospitalName,
		Department:             h.Department,
		MainServices:           services,
		Address:                h.Address,
		BlogPlatform:           h.BlogPlatform,
		BlogID:                 h.BlogID,
		BlogBoardName:          h.BlogBoardName,
		HasBlogPassword:        h.BlogPasswordEncrypted != "",
		MustChangePassword:     h.MustChangePassword,
		IsInitialSetupComplete: h.IsInitialSetupComplete,
		CreatedAt:              h.CreatedAt,
		UpdatedAt:              h.UpdatedAt,
	}
}

// HospitalProfileUpdate はプロフィールの部分更新を表す。
// nilのフィールドは変更しない。
type HospitalProfileUpdate struct {
	HospitalName  *string
	Department    *string
	MainServices  *[]string
	Address       *string
	BlogPlatform  *string
	BlogID        *string
	BlogPassword  *string // 平文。保存前にサービス層で暗号化する
	BlogBoardName *string
}

// ApplyTo は更新内容をhに反映し、初期設定完了フラグを再計算する。
// BlogPasswordは暗号化が必要なため反映しない。
func (u HospitalProfileUpdate) ApplyTo(h *Hospital) {
	if u.HospitalName != nil {
		h.HospitalName = strings.TrimSpace(*u.HospitalName)
	}
	if u.Department != nil {
		h.Department = strings.TrimSpace(*u.Department)
	}
	if u.MainServices != nil {
		h.MainServices = normalizeServices(*u.MainServices)
	}
	if u.Address != nil {
		h.Address = strings.TrimSpace(*u.Address)
	}
	if u.BlogPlatform != nil {
		h.BlogPlatform = strings.TrimSpace(*u.BlogPlatform)
	}
	if u.BlogID != nil {
		h.BlogID = strings.TrimSpace(*u.BlogID)
	}
	if u.BlogBoardName != nil {
		h.BlogBoardName = strings.TrimSpace(*u.BlogBoardName)
	}
	h.IsInitialSetupComplete = h.SetupComplete()
}

// IsEmpty は更新対象フィールドが1つもないかを返す。
func (u HospitalProfileUpdate) IsEmpty() bool {
	return u.HospitalName == nil && u.Department == nil && u.MainServices == nil &&
		u.Address == nil && u.BlogPlatform == nil && u.BlogID == nil &&
		u.BlogPassword == nil && u.BlogBoardName == nil
}

// SetupComplete は初期設定に必要な項目がすべて埋まっているかを返す。
// 病院名、主要診療項目（1件以上）、住所、ブログID、ブログ掲示板名が対象。
func (h *Hospital) SetupComplete() bool {
	return strings.TrimSpace(h.HospitalName) != "" &&
		len(normalizeServices(h.MainServices)) > 0 &&
		strings.TrimSpace(h.Address) != "" &&
		strings.TrimSpace(h.BlogID) != "" &&
		strings.TrimSpace(h.BlogBoardName) != ""
}

// DisplayName はプロンプトに埋め込む病院名を返す。未設定なら既定値。
func (h *Hospital) DisplayName() string {
	if h == nil || strings.TrimSpace(h.HospitalName) == "" {
		return DefaultHospitalName
	}
	return h.HospitalName
}

// normalizeServices は前後空白を除去し、空要素を取り除く。
func normalizeServices(services []string) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
