package topic

import (
	"regexp"
	"strings"

	"github.com/hitoshi/hospiblog/internal/model"
)

const (
	informationalMarker = "[" + model.CategoryInformational + "]"
	promotionalMarker   = "[" + model.CategoryPromotional + "]"
)

var numberedLinePattern = regexp.MustCompile(`^\d+\.\s*`)

// Topics はカテゴリ別の推薦トピック。
type Topics struct {
	Informational []string
	Promotional   []string
}

// ParseTopics は応答テキストから [정보성] と [홍보성] の番号付きリストを取り出す。
// [정보성] は [홍보성] または末尾まで、[홍보성] は末尾までを対象とする。
func ParseTopics(text string) Topics {
	topics := Topics{Informational: []string{}, Promotional: []string{}}

	if i := strings.Index(text, informationalMarker); i >= 0 {
		section := text[i+len(informationalMarker):]
		if j := strings.Index(section, promotionalMarker); j >= 0 {
			section = section[:j]
		}
		topics.Informational = parseNumbered(section)
	}
	if i := strings.Index(text, promotionalMarker); i >= 0 {
		topics.Promotional = parseNumbered(text[i+len(promotionalMarker):])
	}
	return topics
}

func parseNumbered(section string) []string {
	out := []string{}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLinePattern.MatchString(line) {
			continue
		}
		if t := strings.TrimSpace(numberedLinePattern.ReplaceAllString(line, "")); t != "" {
			out = append(out, t)
		}
	}
	return out
}
