package llm

import (
	"strings"
	"testing"
)

const wellFormedReply = `1. 평가점수: 85
2. 상담자 강점: 공감 표현이 자연스럽고 경청 태도가 좋습니다.
3. 상담자 단점: 대기 시간 안내가 부족했습니다.
4. 개선점: 대안을 먼저 제시하는 습관이 필요합니다.
5. 코칭 멘트: 고객의 말을 끝까지 듣고 대안을 제시해 보세요.`

func TestParseAnalysisWellFormed(t *testing.T) {
	a := ParseAnalysis(wellFormedReply)

	if a.EvaluationScore != 85 {
		t.Errorf("EvaluationScore = %d, want 85", a.EvaluationScore)
	}
	if a.Strength != "공감 표현이 자연스럽고 경청 태도가 좋습니다." {
		t.Errorf("Strength = %q", a.Strength)
	}
	if a.Weakness != "대기 시간 안내가 부족했습니다." {
		t.Errorf("Weakness = %q", a.Weakness)
	}
	if a.Improvement != "대안을 먼저 제시하는 습관이 필요합니다." {
		t.Errorf("Improvement = %q", a.Improvement)
	}
	if a.CoachingMessage != "고객의 말을 끝까지 듣고 대안을 제시해 보세요." {
		t.Errorf("CoachingMessage = %q", a.CoachingMessage)
	}
	if len(a.MissingFields) != 0 {
		t.Errorf("MissingFields = %v, want none", a.MissingFields)
	}
}

func TestParseAnalysisKeywordLabels(t *testing.T) {
	reply := `평가점수: 70
상담자 강점: 침착한 응대
상담자 단점: 설명이 장황함
개선점: 요점 정리
코칭 멘트: 핵심부터 말해 보세요.`

	a := ParseAnalysis(reply)
	if a.EvaluationScore != 70 {
		t.Errorf("EvaluationScore = %d, want 70", a.EvaluationScore)
	}
	if a.Strength != "침착한 응대" {
		t.Errorf("Strength = %q", a.Strength)
	}
	if len(a.MissingFields) != 0 {
		t.Errorf("MissingFields = %v, want none", a.MissingFields)
	}
}

func TestParseAnalysisEnglishLabels(t *testing.T) {
	reply := `Score: 92
Strengths: calm tone
Weaknesses: slow greeting
Improvements: open with the script
Coaching: lead with empathy.`

	a := ParseAnalysis(reply)
	if a.EvaluationScore != 92 {
		t.Errorf("EvaluationScore = %d, want 92", a.EvaluationScore)
	}
	if a.CoachingMessage != "lead with empathy." {
		t.Errorf("CoachingMessage = %q", a.CoachingMessage)
	}
}

func TestParseAnalysisMissingSection(t *testing.T) {
	reply := `1. 평가점수: 85
2. 상담자 강점: 공감 표현이 좋습니다.
4. 개선점: 대안 제시 필요.
5. 코칭 멘트: 대안을 제시해 보세요.`

	a := ParseAnalysis(reply)
	if a.Weakness != Placeholder {
		t.Errorf("Weakness = %q, want placeholder", a.Weakness)
	}
	if a.EvaluationScore != 85 {
		t.Errorf("EvaluationScore = %d, want 85", a.EvaluationScore)
	}
	if len(a.MissingFields) != 1 || a.MissingFields[0] != "weaknesses" {
		t.Errorf("MissingFields = %v, want [weaknesses]", a.MissingFields)
	}
}

func TestParseAnalysisScoreDigits(t *testing.T) {
	t.Run("digits embedded in text", func(t *testing.T) {
		a := ParseAnalysis("1. 평가점수: 약 85점입니다")
		if a.EvaluationScore != 85 {
			t.Errorf("EvaluationScore = %d, want 85", a.EvaluationScore)
		}
	})

	t.Run("no digits defaults to zero", func(t *testing.T) {
		a := ParseAnalysis("1. 평가점수: 높음")
		if a.EvaluationScore != 0 {
			t.Errorf("EvaluationScore = %d, want 0", a.EvaluationScore)
		}
	})
}

func TestParseAnalysisPeriodFallback(t *testing.T) {
	// No colon: content is everything after the numeric prefix period.
	a := ParseAnalysis("2. 경청 태도가 좋습니다")
	if a.Strength != "경청 태도가 좋습니다" {
		t.Errorf("Strength = %q", a.Strength)
	}
}

func TestParseAnalysisMarkdownNoise(t *testing.T) {
	reply := "```\n**1. 평가점수: 88**\n- 2. 상담자 강점: 밝은 목소리\n```"
	a := ParseAnalysis(reply)
	if a.EvaluationScore != 88 {
		t.Errorf("EvaluationScore = %d, want 88", a.EvaluationScore)
	}
	if a.Strength != "밝은 목소리" {
		t.Errorf("Strength = %q, want 밝은 목소리", a.Strength)
	}
}

func TestParseAnalysisLastLineWins(t *testing.T) {
	reply := "1. 평가점수: 50\n1. 평가점수: 60"
	a := ParseAnalysis(reply)
	if a.EvaluationScore != 60 {
		t.Errorf("EvaluationScore = %d, want 60", a.EvaluationScore)
	}
}

func TestParseAnalysisNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"완전히 다른 텍스트",
		strings.Repeat("x", 10000),
		"::::....1234....::::",
		"\n\n\n",
	}
	for _, in := range inputs {
		a := ParseAnalysis(in)
		if a.Strength == "" || a.Weakness == "" || a.Improvement == "" || a.CoachingMessage == "" {
			t.Errorf("ParseAnalysis(%.20q) left an empty field", in)
		}
		if len(a.MissingFields) == 0 {
			t.Errorf("ParseAnalysis(%.20q) reported no missing fields", in)
		}
	}
}

func TestAnalysisMap(t *testing.T) {
	a := ParseAnalysis(wellFormedReply)
	m := a.Map()
	if m["평가점수"] != 85 {
		t.Errorf("map score = %v, want 85", m["평가점수"])
	}
	for _, key := range []string{"상담자 강점", "상담자 단점", "개선점", "코칭 멘트"} {
		if _, ok := m[key]; !ok {
			t.Errorf("map missing key %q", key)
		}
	}
}
