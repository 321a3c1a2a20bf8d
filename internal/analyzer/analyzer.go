// Package analyzer runs the per-record consultation analysis pipeline:
// fetch, score, prompt, LLM call, parse, persist.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/costs"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/eventlog"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/llm"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/logger"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/results"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/score"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/store"
)

// RecordStore is the record-store surface the pipeline needs.
type RecordStore interface {
	Get(ctx context.Context, callID string) (*store.CallRecord, error)
	Save(ctx context.Context, r *store.CallRecord) error
}

// ResultSink receives the per-call analysis row.
type ResultSink interface {
	Upsert(ctx context.Context, row results.Row) error
}

// AnalysisResult combines the parsed textual analysis with the numeric
// sub-scores for one call. Persisted is false when the analysis succeeded
// but the write-back did not.
type AnalysisResult struct {
	CallID           string  `json:"call_id"`
	EvaluationScore  int     `json:"evaluation_score"`
	Strengths        string  `json:"strengths"`
	Weaknesses       string  `json:"weaknesses"`
	Improvements     string  `json:"improvements"`
	CoachingMessage  string  `json:"coaching_message"`
	AgentEmotion     int     `json:"agent_emotion"`
	CustomerEmotion  int     `json:"customer_emotion"`
	Efficiency       int     `json:"efficiency"`
	ManualCompliance float64 `json:"manual_compliance"`
	FinalScore       int     `json:"final_score"`
	Persisted        bool    `json:"persisted"`

	// Fields the parser had to fill with placeholders; log-only diagnostics.
	MissingFields []string `json:"-"`
}

// Analysis returns the five result fields keyed for the batch artifact.
func (r *AnalysisResult) Analysis() map[string]any {
	return map[string]any{
		"평가점수":   r.EvaluationScore,
		"상담자 강점": r.Strengths,
		"상담자 단점": r.Weaknesses,
		"개선점":    r.Improvements,
		"코칭 멘트":  r.CoachingMessage,
	}
}

type Analyzer struct {
	records RecordStore
	sink    ResultSink
	llm     llm.Client
	events  *eventlog.Logger
	log     *logger.Logger
}

// New wires the orchestrator. All collaborators are injected so tests can
// substitute doubles for the LLM and both stores; events may be nil.
func New(records RecordStore, sink ResultSink, client llm.Client, events *eventlog.Logger, log *logger.Logger) *Analyzer {
	return &Analyzer{records: records, sink: sink, llm: client, events: events, log: log}
}

// Analyze runs the full pipeline for one call. A missing record or a failed
// LLM call returns an error; persistence failures do not — the computed
// result is still returned with Persisted=false.
func (a *Analyzer) Analyze(ctx context.Context, callID string) (*AnalysisResult, error) {
	log := a.log.WithCall(callID)

	rec, err := a.records.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	a.events.LogAsync(callID, eventlog.EventAnalysisStarted, nil)

	agentStar := rec.AgentStar.OrDefault()
	customerStar := rec.CustomerStar.OrDefault()

	agentEmotion := score.Emotion(agentStar)
	customerEmotion := score.Emotion(customerStar)
	efficiency := score.Efficiency(rec.Silence, rec.CSRSpeechCount, rec.CustomerSpeechCount)
	manual := score.Manual(rec.AlternativeSolutionCount, rec.ApologyRatio,
		rec.PositiveWordRatio, rec.EuphoniousWordRatio, rec.EmpathyExpressionRatio)
	compliance := score.Compliance(customerStar, manual)
	finalScore := score.Final(agentEmotion, customerEmotion, efficiency, compliance, rec.Profane)

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("serialize call %s: %w", callID, err)
	}

	prompt := llm.BuildAnalysisPrompt(string(recordJSON),
		agentEmotion, customerEmotion, efficiency, compliance, finalScore)

	reply, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		a.events.LogAsync(callID, eventlog.EventLLMError, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("llm call failed for %s: %w", callID, err)
	}

	cost := costs.Estimate(costs.Usage{PromptTokens: reply.PromptTokens, OutputTokens: reply.OutputTokens})
	log.WithFields(logrus.Fields{
		"prompt_tokens": reply.PromptTokens,
		"output_tokens": reply.OutputTokens,
		"cost_cents":    cost.TotalCents,
	}).Debug("llm call completed")
	a.events.LogAsync(callID, eventlog.EventLLMCompleted, map[string]any{
		"prompt_tokens": reply.PromptTokens,
		"output_tokens": reply.OutputTokens,
		"cost_cents":    cost.TotalCents,
	})

	analysis := llm.ParseAnalysis(reply.Text)
	if len(analysis.MissingFields) > 0 {
		log.WithField("missing_fields", analysis.MissingFields).
			Warn("llm reply incomplete, placeholders substituted")
		a.events.LogAsync(callID, eventlog.EventParseDegraded, map[string]any{
			"missing_fields": analysis.MissingFields,
		})
	}

	result := &AnalysisResult{
		CallID:           callID,
		EvaluationScore:  analysis.EvaluationScore,
		Strengths:        analysis.Strength,
		Weaknesses:       analysis.Weakness,
		Improvements:     analysis.Improvement,
		CoachingMessage:  analysis.CoachingMessage,
		AgentEmotion:     agentEmotion,
		CustomerEmotion:  customerEmotion,
		Efficiency:       efficiency,
		ManualCompliance: compliance,
		FinalScore:       finalScore,
		MissingFields:    analysis.MissingFields,
	}

	result.Persisted = a.persist(ctx, rec, result, log)
	a.events.LogAsync(callID, eventlog.EventAnalysisCompleted, map[string]any{
		"final_score":      finalScore,
		"evaluation_score": analysis.EvaluationScore,
		"persisted":        result.Persisted,
	})
	return result, nil
}

// persist writes the analysis back onto the record and upserts the results
// row. Failures are logged and reported, never propagated: the caller still
// gets the computed analysis.
func (a *Analyzer) persist(ctx context.Context, rec *store.CallRecord, res *AnalysisResult, log *logrus.Entry) bool {
	rec.Strength = &res.Strengths
	rec.Weakness = &res.Weaknesses
	rec.Improvement = &res.Improvements
	rec.ManualComplianceRatio = &res.ManualCompliance
	rec.Score = &res.FinalScore

	ok := true
	if err := a.records.Save(ctx, rec); err != nil {
		ok = false
		log.Warnf("record write-back failed: %v", err)
		sentry.CaptureException(err)
		a.events.LogAsync(res.CallID, eventlog.EventPersistFailed, map[string]any{
			"target": "consulting",
			"error":  err.Error(),
		})
	}

	row := results.Row{
		CallID:                res.CallID,
		EvaluationScore:       res.EvaluationScore,
		Strengths:             res.Strengths,
		Weaknesses:            res.Weaknesses,
		Improvements:          res.Improvements,
		CoachingMessage:       res.CoachingMessage,
		AgentEmotionScore:     res.AgentEmotion,
		CustomerEmotionScore:  res.CustomerEmotion,
		EfficiencyScore:       res.Efficiency,
		ManualComplianceRatio: res.ManualCompliance,
		FinalScore:            res.FinalScore,
	}
	if err := a.sink.Upsert(ctx, row); err != nil {
		ok = false
		log.Warnf("results upsert failed: %v", err)
		sentry.CaptureException(err)
		a.events.LogAsync(res.CallID, eventlog.EventPersistFailed, map[string]any{
			"target": "results",
			"error":  err.Error(),
		})
	}
	return ok
}
