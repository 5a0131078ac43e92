package image

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hitoshi/hospiblog/internal/model"
)

// DirectiveInput はリクエストで受け取る画像指示。
// オブジェクト {"type","description","text"} と旧形式の文字列 "TYPE|説明" の両方を受け付け、
// デコード時にmodel.ImageDirectiveへ正規化する。
type DirectiveInput struct {
	model.ImageDirective
}

type directiveObject struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// UnmarshalJSON は文字列とオブジェクトのどちらでもデコードする。
func (d *DirectiveInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.ImageDirective = ParseLegacyDirective(s)
		return nil
	}

	var obj directiveObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("image directive must be a string or an object: %w", err)
	}
	imageType, ok := model.ParseImageType(strings.ToUpper(strings.TrimSpace(obj.Type)))
	if !ok {
		imageType = model.ImageTypeMedical
	}
	d.ImageDirective = model.ImageDirective{
		Type:        imageType,
		Description: strings.TrimSpace(obj.Description),
		Text:        strings.TrimSpace(obj.Text),
	}
	return nil
}

// ParseLegacyDirective は "TYPE|説明" 形式の文字列を解釈する。
// 種別がない、または未知の場合はMEDICALとして文字列全体を説明とする。
func ParseLegacyDirective(s string) model.ImageDirective {
	if prefix, rest, found := strings.Cut(s, "|"); found {
		if imageType, ok := model.ParseImageType(strings.TrimSpace(prefix)); ok {
			return model.ImageDirective{Type: imageType, Description: strings.TrimSpace(rest)}
		}
	}
	return model.ImageDirective{Type: model.ImageTypeMedical, Description: strings.TrimSpace(s)}
}

// Directives はDirectiveInputのスライスをmodel.ImageDirectiveに変換する。
func Directives(inputs []DirectiveInput) []model.ImageDirective {
	out := make([]model.ImageDirective, len(inputs))
	for i, in := range inputs {
		out[i] = in.ImageDirective
	}
	return out
}
