package llm

import (
	"strings"
)

// Placeholder fills text fields the model reply did not contain. A degraded
// result with placeholders is preferable to a dropped record.
const Placeholder = "분석 결과 없음"

// Analysis is the structured form of the model's free-text reply. All five
// fields are always populated after ParseAnalysis; MissingFields names the
// ones that were filled with defaults.
type Analysis struct {
	EvaluationScore int
	Strength        string
	Weakness        string
	Improvement     string
	CoachingMessage string
	MissingFields   []string
}

// Map returns the five result fields keyed the way the batch artifact and
// the original report expect them.
func (a Analysis) Map() map[string]any {
	return map[string]any{
		"평가점수":   a.EvaluationScore,
		"상담자 강점": a.Strength,
		"상담자 단점": a.Weakness,
		"개선점":    a.Improvement,
		"코칭 멘트":  a.CoachingMessage,
	}
}

type section int

const (
	sectionNone section = iota
	sectionScore
	sectionStrength
	sectionWeakness
	sectionImprovement
	sectionCoaching
)

// keyword prefixes per section, Korean first then English.
var sectionKeywords = map[section][]string{
	sectionScore:       {"평가점수", "score"},
	sectionStrength:    {"상담자 강점", "strength"},
	sectionWeakness:    {"상담자 단점", "weakness"},
	sectionImprovement: {"개선점", "improvement"},
	sectionCoaching:    {"코칭 멘트", "코칭멘트", "coaching"},
}

var sectionNumbers = map[string]section{
	"1.": sectionScore,
	"2.": sectionStrength,
	"3.": sectionWeakness,
	"4.": sectionImprovement,
	"5.": sectionCoaching,
}

// ParseAnalysis extracts the five analysis fields from the model's reply.
// It never fails: unrecognized lines are skipped, a later line for the same
// section wins, and missing sections are filled with Placeholder (0 for the
// score) and recorded in MissingFields.
func ParseAnalysis(raw string) Analysis {
	found := map[section]string{}

	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		sec := sectionFor(line)
		if sec == sectionNone {
			continue
		}
		found[sec] = extractContent(line)
	}

	a := Analysis{
		Strength:        Placeholder,
		Weakness:        Placeholder,
		Improvement:     Placeholder,
		CoachingMessage: Placeholder,
	}

	if text, ok := found[sectionScore]; ok {
		a.EvaluationScore = digitsToInt(text)
	} else {
		a.MissingFields = append(a.MissingFields, "evaluation_score")
	}
	if text, ok := found[sectionStrength]; ok {
		a.Strength = text
	} else {
		a.MissingFields = append(a.MissingFields, "strengths")
	}
	if text, ok := found[sectionWeakness]; ok {
		a.Weakness = text
	} else {
		a.MissingFields = append(a.MissingFields, "weaknesses")
	}
	if text, ok := found[sectionImprovement]; ok {
		a.Improvement = text
	} else {
		a.MissingFields = append(a.MissingFields, "improvements")
	}
	if text, ok := found[sectionCoaching]; ok {
		a.CoachingMessage = text
	} else {
		a.MissingFields = append(a.MissingFields, "coaching_message")
	}
	return a
}

// cleanLine trims whitespace, markdown emphasis and bullet prefixes so the
// prefix checks see the label itself.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "*")
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "```")
	return strings.TrimSpace(line)
}

func sectionFor(line string) section {
	for prefix, sec := range sectionNumbers {
		if strings.HasPrefix(line, prefix) {
			return sec
		}
	}
	lower := strings.ToLower(line)
	for sec, keywords := range sectionKeywords {
		for _, kw := range keywords {
			if strings.HasPrefix(lower, kw) {
				return sec
			}
		}
	}
	return sectionNone
}

// extractContent takes the text after the first colon, else after the first
// period, else the whole line.
func extractContent(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	if idx := strings.Index(line, "."); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return line
}

// digitsToInt strips everything but digits and parses the rest; anything
// unparseable scores 0.
func digitsToInt(text string) int {
	n := 0
	seen := false
	for _, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		seen = true
		n = n*10 + int(r-'0')
		if n > 1000000 {
			break
		}
	}
	if !seen {
		return 0
	}
	return n
}
