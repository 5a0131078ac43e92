// Package ai は本文生成（Anthropic）と画像生成（OpenAI）のAPIクライアントを提供する。
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/hospiblog/internal/model"
)

// ErrTimeout はプロバイダ呼び出しが設定された期限内に完了しなかった場合に返される。
var ErrTimeout = errors.New("provider call timed out")

// ErrNoContent はプロバイダが利用可能なペイロードを返さなかった場合に返される。
var ErrNoContent = errors.New("provider returned no content")

// StatusError はプロバイダが200以外を返した場合のエラー。
// Messageはプロバイダのエラーメッセージで、ログ出力のみに使う。
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// providerErrorBody はAnthropic/OpenAIに共通するエラーレスポンスの形。
type providerErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// classifyDoError はHTTP実行エラーを分類する。
// 呼び出し単位の期限切れはErrTimeout、親コンテキストのキャンセルはそのまま返す。
func classifyDoError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// outcomeOf はメトリクス用の結果ラベルを返す。
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "failure"
	}
}

// ToAPIError はプロバイダ呼び出しのエラーをクライアント向けのAPIErrorに変換する。
// 期限切れはPROVIDER_TIMEOUT、それ以外はmessageを持つPROVIDER_FAILEDとなる。
// 呼び出し元のキャンセルは変換しない。
func ToAPIError(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout):
		return model.NewProviderTimeoutError()
	case errors.Is(err, context.Canceled):
		return err
	default:
		return model.NewProviderError(message)
	}
}
