package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses はエスケープされたタグを再検査する最大回数。
const maxSanitizePasses = 3

// ContentSanitizerService は本文やプロフィールからHTMLを除去するインターフェース。
// 生成本文、編集本文、病院プロフィールの保存前に使用される。
type ContentSanitizerService interface {
	// StripTags はHTMLタグを除去したプレーンテキストを返す。
	// Markdown記法、画像ディレクティブ、改行はそのまま残る。
	StripTags(s string) string
}

type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はbluemondayのStrictPolicyでContentSanitizerServiceを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{policy: bluemonday.StrictPolicy()}
}

// StripTags はタグを除去し、bluemondayが付与したエンティティを元の文字に戻す。
// "&lt;script&gt;"のようにエスケープされたタグも、戻した後に再度除去する。
func (s *contentSanitizer) StripTags(in string) string {
	out := in
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return next
		}
		out = next
	}
	return out
}
