package blog

import (
	"regexp"
	"strings"

	"github.com/hitoshi/hospiblog/internal/model"
)

// directivePattern は [TYPE | 説明 | text : 文字] 形式の画像ディレクティブにマッチする。
// 3番目のフィールドと "text :" 接頭辞は省略可能。
var directivePattern = regexp.MustCompile(`\[([A-Z]+)\s*\|\s*([^|\]]+?)(?:\s*\|\s*(?:text\s*:\s*)?([^\]]+))?\]`)

var (
	imageKeywordBlockPattern = regexp.MustCompile(`(?s)\[이미지 키워드\](.*?)(?:\n\n|\z)`)
	imageKeywordTailPattern  = regexp.MustCompile(`(?s)\[이미지 키워드\].*\z`)
	titlePattern             = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// ExtractDirectives は本文から画像ディレクティブを出現順に抽出する。
// 未知の種別は指示子とみなさず読み飛ばし、先頭からmodel.MaxImagesPerPost件までを返す。
func ExtractDirectives(text string) []model.ImageDirective {
	directives := make([]model.ImageDirective, 0, model.MaxImagesPerPost)
	for _, m := range directivePattern.FindAllStringSubmatchIndex(text, -1) {
		imageType, ok := model.ParseImageType(text[m[2]:m[3]])
		if !ok {
			continue
		}
		d := model.ImageDirective{
			Type:        imageType,
			Description: strings.TrimSpace(text[m[4]:m[5]]),
			Position:    m[0],
		}
		if m[6] >= 0 {
			d.Text = strings.TrimSpace(text[m[6]:m[7]])
		}
		directives = append(directives, d)
		if len(directives) == model.MaxImagesPerPost {
			break
		}
	}
	return directives
}

// ExtractImageKeywords は旧形式の [이미지 키워드] ブロックから "- " で始まる行を取り出し、
// ブロック以降を取り除いた本文とともに返す。ブロックがなければ本文はそのまま返す。
func ExtractImageKeywords(text string) (keywords []string, body string) {
	m := imageKeywordBlockPattern.FindStringSubmatch(text)
	if m == nil {
		return []string{}, text
	}

	keywords = []string{}
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		if kw := strings.TrimSpace(strings.TrimPrefix(line, "-")); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	body = strings.TrimSpace(imageKeywordTailPattern.ReplaceAllString(text, ""))
	return keywords, body
}

// ExtractTitle は最初の "# " 見出し行をタイトルとして返す。見出しがなければfallback。
func ExtractTitle(body, fallback string) string {
	m := titlePattern.FindStringSubmatch(body)
	if m == nil {
		return fallback
	}
	if title := strings.TrimSpace(m[1]); title != "" {
		return title
	}
	return fallback
}

// ParseKeywords はカンマ区切りのキーワード文字列を分割する。空要素は除く。
func ParseKeywords(raw string) []string {
	keywords := []string{}
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
