package llm

import "fmt"

// analysisPromptTemplate embeds the serialized record and the computed
// sub-scores. The model is asked for exactly five one-line items; the reply
// format is not contractually guaranteed, so ParseAnalysis stays permissive.
const analysisPromptTemplate = `당신은 콜센터 전문 평가 AI입니다. 아래 상담 데이터(JSON)와 계산된 중간 점수를 참고하여 분석해주세요.

[상담 데이터(JSON)]
%s

[중간 스코어]
- 상담사 감정 점수: %d
- 고객 감정 점수: %d
- 효율성 점수: %d
- 매뉴얼 준수율: %.2f
- 최종 점수: %d

다음 5가지 항목에 대해 분석해주세요:
1. 평가점수 (100점 만점, 숫자만)
2. 상담자 강점
3. 상담자 단점
4. 개선점
5. 코칭 멘트 (실제 상담자에게 전달할 수 있는 구체적이고 실질적인 코칭 메시지, 한 문장)

각 항목은 한 줄로 작성해주세요.`

// BuildAnalysisPrompt renders the consultation analysis prompt from the
// record JSON and the four sub-scores plus the composite.
func BuildAnalysisPrompt(recordJSON string, agentEmotion, customerEmotion, efficiency int, manualRatio float64, finalScore int) string {
	return fmt.Sprintf(analysisPromptTemplate,
		recordJSON, agentEmotion, customerEmotion, efficiency, manualRatio, finalScore)
}
