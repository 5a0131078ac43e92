package security

import (
	"strings"
	"testing"
)

func TestStripTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "임신 초기 증상",
			want:  "임신 초기 증상",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "Markdown見出しと改行を保持",
			input: "# 제목\n\n## 소제목\n본문입니다.",
			want:  "# 제목\n\n## 소제목\n본문입니다.",
		},
		{
			name:  "画像ディレクティブを保持",
			input: "[INTRO | 진료실 풍경]\n[CTA | 예약 안내 | text : 지금 상담하세요]",
			want:  "[INTRO | 진료실 풍경]\n[CTA | 예약 안내 | text : 지금 상담하세요]",
		},
		{
			name:  "アンパサンドと引用符をエスケープしない",
			input: `Q&A "자주 묻는 질문" 'FAQ'`,
			want:  `Q&A "자주 묻는 질문" 'FAQ'`,
		},
		{
			name:  "インラインタグを除去",
			input: "<b>굵게</b> 그리고 <em>기울임</em>",
			want:  "굵게 그리고 기울임",
		},
		{
			name:  "scriptタグは内容ごと除去",
			input: "안녕<script>alert(1)</script>하세요",
			want:  "안녕하세요",
		},
		{
			name:  "イベント属性付きタグを除去",
			input: `<img src=x onerror="alert(1)">본문`,
			want:  "본문",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripTags_EscapedTagsRemoved(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.StripTags("본문 &lt;script&gt;alert(1)&lt;/script&gt; 끝")
	if strings.Contains(got, "<script") {
		t.Errorf("escaped script tag should not survive: %q", got)
	}
}

func TestStripTags_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	inputs := []string{
		"<p>단락</p> & 기호",
		"# 제목\n<div onclick=\"x()\">클릭</div>",
		"a < b 이고 c > d",
	}
	for _, in := range inputs {
		first := sanitizer.StripTags(in)
		second := sanitizer.StripTags(first)
		if first != second {
			t.Errorf("StripTags is not idempotent for %q: %q -> %q", in, first, second)
		}
	}
}

func TestContentSanitizerInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
