// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（利用者向け、韓国語）
	Category string // カテゴリ: auth, validation, content, provider, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeHospitalNotFound   = "HOSPITAL_NOT_FOUND"
	ErrCodeBlogPostNotFound   = "BLOG_POST_NOT_FOUND"
	ErrCodeDuplicateHospital  = "DUPLICATE_HOSPITAL"
	ErrCodeProviderFailed     = "PROVIDER_FAILED"
	ErrCodeProviderTimeout    = "PROVIDER_TIMEOUT"
	ErrCodeOperationFailed    = "OPERATION_FAILED"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "입력 내용을 확인한 후 다시 시도해주세요.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "로그인이 필요합니다.",
		Category: "auth",
		Action:   "다시 로그인해주세요.",
	}
}

// NewInvalidCredentialsError は病院ログインのID・パスワード不一致エラーを生成する。
// どちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "병원 ID 또는 비밀번호가 올바르지 않습니다.",
		Category: "auth",
		Action:   "병원 ID와 비밀번호를 확인해주세요.",
	}
}

// NewInvalidAdminCredentialsError は管理者ログインのID・パスワード不一致エラーを生成する。
func NewInvalidAdminCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "잘못된 관리자 ID 또는 비밀번호입니다.",
		Category: "auth",
		Action:   "관리자 ID와 비밀번호를 확인해주세요.",
	}
}

// NewWrongPasswordError はパスワード変更時の現在パスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "현재 비밀번호가 올바르지 않습니다.",
		Category: "auth",
		Action:   "현재 비밀번호를 확인해주세요.",
	}
}

// NewForbiddenError は他テナントのリソースへのアクセスエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "권한이 없습니다.",
		Category: "auth",
		Action:   "본인 병원의 글만 수정할 수 있습니다.",
	}
}

// NewHospitalNotFoundError は病院アカウント未検出エラーを生成する。
func NewHospitalNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeHospitalNotFound,
		Message:  "병원 정보를 찾을 수 없습니다.",
		Category: "validation",
		Action:   "병원 ID를 확인해주세요.",
	}
}

// NewBlogPostNotFoundError はブログ記事未検出エラーを生成する。
func NewBlogPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodeBlogPostNotFound,
		Message:  fmt.Sprintf("블로그 글을 찾을 수 없습니다: %s", postID),
		Category: "content",
		Action:   "글 목록을 새로고침한 후 다시 시도해주세요.",
	}
}

// NewDuplicateHospitalError はログインハンドル重複エラーを生成する。
func NewDuplicateHospitalError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateHospital,
		Message:  "이미 존재하는 병원 ID입니다.",
		Category: "validation",
		Action:   "다른 병원 ID를 입력해주세요.",
	}
}

// NewProviderError は外部AIプロバイダの失敗エラーを生成する。
// プロバイダの詳細はログのみに記録し、メッセージは操作ごとの汎用文言とする。
func NewProviderError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderFailed,
		Message:  message,
		Category: "provider",
		Action:   "잠시 후 다시 시도해주세요.",
	}
}

// NewProviderTimeoutError は外部AIプロバイダの応答期限超過エラーを生成する。
func NewProviderTimeoutError() *APIError {
	return &APIError{
		Code:     ErrCodeProviderTimeout,
		Message:  "AI 응답 시간이 초과되었습니다.",
		Category: "provider",
		Action:   "잠시 후 다시 시도해주세요.",
	}
}

// NewOperationFailedError はストア操作の失敗エラーを生成する。
func NewOperationFailedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeOperationFailed,
		Message:  message,
		Category: "system",
		Action:   "잠시 후 다시 시도해주세요.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "요청이 너무 많습니다.",
		Category: "system",
		Action:   "잠시 후 다시 시도해주세요.",
	}
}
