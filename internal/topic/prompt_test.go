package topic

import (
	"strings"
	"testing"

	"github.com/hitoshi/hospiblog/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	h := &model.Hospital{
		HospitalName: "서울여성의원",
		Department:   "산부인과",
		MainServices: []string{"산전검사", "난임"},
	}

	p := buildPrompt(h, []string{"임신 초기 증상", "자궁근종"}, []string{"봄철 건강 관리"})

	for _, want := range []string{
		"당신은 산부인과 전문 블로그 주제 추천 전문가입니다.",
		"- 병원명: 서울여성의원",
		"- 주요 진료 항목: 산전검사, 난임",
		"- 최근 작성한 글 주제: 임신 초기 증상, 자궁근종",
		"- 블로그 최근 게시글: 봄철 건강 관리",
		"[정보성]",
		"[홍보성]",
		"- 산부인과 전문 내용으로",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_EmptyHistory(t *testing.T) {
	p := buildPrompt(&model.Hospital{}, nil, nil)

	if !strings.Contains(p, "- 최근 작성한 글 주제: 없음") || !strings.Contains(p, "- 주요 진료 항목: 없음") {
		t.Errorf("empty lists should render as 없음: %q", p)
	}
	if strings.Contains(p, "블로그 최근 게시글") {
		t.Error("blog titles line should be omitted when there are none")
	}
	if !strings.Contains(p, "- 병원명: 병원") {
		t.Error("missing hospital name should fall back to the default")
	}
}
