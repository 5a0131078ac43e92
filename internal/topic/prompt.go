package topic

import (
	"fmt"
	"strings"

	"github.com/hitoshi/hospiblog/internal/model"
)

const noneLabel = "없음"

// buildPrompt は病院情報と最近の投稿からトピック推薦プロンプトを組み立てる。
// recentTitlesは公開ブログから取得したタイトルで、空なら行ごと省く。
func buildPrompt(h *model.Hospital, recentTopics, recentTitles []string) string {
	department := h.Department
	if department == "" {
		department = model.DefaultDepartment
	}

	var b strings.Builder
	fmt.Fprintf(&b, "당신은 %s 전문 블로그 주제 추천 전문가입니다.\n\n", department)
	b.WriteString("병원 정보:\n")
	fmt.Fprintf(&b, "- 병원명: %s\n", h.DisplayName())
	fmt.Fprintf(&b, "- 진료과목: %s\n", department)
	fmt.Fprintf(&b, "- 주요 진료 항목: %s\n", joinOrNone(h.MainServices))
	fmt.Fprintf(&b, "- 최근 작성한 글 주제: %s\n", joinOrNone(recentTopics))
	if len(recentTitles) > 0 {
		fmt.Fprintf(&b, "- 블로그 최근 게시글: %s\n", strings.Join(recentTitles, ", "))
	}

	b.WriteString(`
다음 두 카테고리로 각 5개씩, 총 10개의 블로그 주제를 추천해주세요:

1. 정보성 주제 (환자들이 궁금해하는 의료 정보):
   - 건강 정보, 질병 예방, 증상 설명 등
   - 예: "임신 초기 증상과 대처법"

2. 홍보성 주제 (병원의 강점과 진료 소개):
   - 병원 진료 프로그램, 특화 서비스 등
   - 예: "우리 병원의 임신 관리 프로그램"

응답 형식:
[정보성]
1. 주제명
2. 주제명
3. 주제명
4. 주제명
5. 주제명

[홍보성]
1. 주제명
2. 주제명
3. 주제명
4. 주제명
5. 주제명

주의사항:
- 최근 작성한 주제와 중복되지 않게
- 계절/시기를 고려
- 실용적이고 환자들이 관심 가질 만한 주제
`)
	fmt.Fprintf(&b, "- %s 전문 내용으로", department)
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return noneLabel
	}
	return strings.Join(items, ", ")
}
