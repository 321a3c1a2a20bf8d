package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/llm"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/logger"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/results"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/store"
)

type fakeRecordStore struct {
	mu      sync.Mutex
	records map[string]*store.CallRecord
	saveErr error
	saved   []string
}

func (f *fakeRecordStore) Get(ctx context.Context, callID string) (*store.CallRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[callID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecordStore) Save(ctx context.Context, r *store.CallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[r.CallID] = r
	f.saved = append(f.saved, r.CallID)
	return nil
}

type fakeSink struct {
	mu   sync.Mutex
	rows []results.Row
	err  error
}

func (f *fakeSink) Upsert(ctx context.Context, row results.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (*llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.reply, PromptTokens: 1500, OutputTokens: 120}, nil
}

const goodReply = `1. 평가점수: 85
2. 상담자 강점: 공감 표현이 좋습니다.
3. 상담자 단점: 안내가 늦습니다.
4. 개선점: 대안 제시를 서두르세요.
5. 코칭 멘트: 고객의 말을 끝까지 들어 보세요.`

// referenceRecord matches the documented end-to-end scenario:
// agent 5 stars, customer 1 star, all five manual criteria satisfied.
func referenceRecord() *store.CallRecord {
	return &store.CallRecord{
		CallID:                   "CALL-0001",
		CallDate:                 time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Silence:                  100,
		CSRSpeechCount:           30,
		CustomerSpeechCount:      28,
		AlternativeSolutionCount: 1,
		ApologyRatio:             0.2,
		PositiveWordRatio:        0.15,
		EuphoniousWordRatio:      0.1,
		EmpathyExpressionRatio:   0.2,
		Profane:                  false,
		AgentStar:                5,
		CustomerStar:             1,
	}
}

func newTestAnalyzer(rs *fakeRecordStore, sink *fakeSink, client *fakeLLM) *Analyzer {
	return New(rs, sink, client, nil, logger.New())
}

func TestAnalyzeReferenceScenario(t *testing.T) {
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{"CALL-0001": referenceRecord()}}
	sink := &fakeSink{}
	client := &fakeLLM{reply: goodReply}

	res, err := newTestAnalyzer(rs, sink, client).Analyze(context.Background(), "CALL-0001")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if res.AgentEmotion != 100 {
		t.Errorf("AgentEmotion = %d, want 100", res.AgentEmotion)
	}
	if res.CustomerEmotion != 20 {
		t.Errorf("CustomerEmotion = %d, want 20", res.CustomerEmotion)
	}
	if res.Efficiency != 96 {
		t.Errorf("Efficiency = %d, want 96", res.Efficiency)
	}
	if res.ManualCompliance != 1.0 {
		t.Errorf("ManualCompliance = %v, want 1.0", res.ManualCompliance)
	}
	if res.FinalScore != 79 {
		t.Errorf("FinalScore = %d, want 79", res.FinalScore)
	}
	if res.EvaluationScore != 85 {
		t.Errorf("EvaluationScore = %d, want 85", res.EvaluationScore)
	}
	if !res.Persisted {
		t.Error("Persisted = false, want true")
	}
}

func TestAnalyzePromptContents(t *testing.T) {
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{"CALL-0001": referenceRecord()}}
	client := &fakeLLM{reply: goodReply}

	_, err := newTestAnalyzer(rs, &fakeSink{}, client).Analyze(context.Background(), "CALL-0001")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("llm called %d times, want 1", len(client.prompts))
	}
	prompt := client.prompts[0]
	for _, want := range []string{
		`"call_id":"CALL-0001"`,          // serialized record
		`"call_date":"2025-03-01T10:00`,  // ISO-8601 timestamp
		"상담사 감정 점수: 100",
		"고객 감정 점수: 20",
		"효율성 점수: 96",
		"매뉴얼 준수율: 1.00",
		"최종 점수: 79",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeWriteBack(t *testing.T) {
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{"CALL-0001": referenceRecord()}}
	sink := &fakeSink{}

	_, err := newTestAnalyzer(rs, sink, &fakeLLM{reply: goodReply}).Analyze(context.Background(), "CALL-0001")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	saved := rs.records["CALL-0001"]
	if saved.Score == nil || *saved.Score != 79 {
		t.Errorf("saved score = %v, want 79", saved.Score)
	}
	if saved.Strength == nil || *saved.Strength != "공감 표현이 좋습니다." {
		t.Errorf("saved strength = %v", saved.Strength)
	}
	if saved.ManualComplianceRatio == nil || *saved.ManualComplianceRatio != 1.0 {
		t.Errorf("saved manual_compliance_ratio = %v, want 1.0", saved.ManualComplianceRatio)
	}

	if len(sink.rows) != 1 {
		t.Fatalf("results rows = %d, want 1", len(sink.rows))
	}
	row := sink.rows[0]
	if row.CallID != "CALL-0001" || row.FinalScore != 79 || row.EvaluationScore != 85 {
		t.Errorf("results row = %+v", row)
	}
}

func TestAnalyzeNotFound(t *testing.T) {
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{}}

	_, err := newTestAnalyzer(rs, &fakeSink{}, &fakeLLM{reply: goodReply}).Analyze(context.Background(), "MISSING")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Analyze = %v, want ErrNotFound", err)
	}
}

func TestAnalyzeLLMFailure(t *testing.T) {
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{"CALL-0001": referenceRecord()}}
	sink := &fakeSink{}
	client := &fakeLLM{err: errors.New("connection refused")}

	_, err := newTestAnalyzer(rs, sink, client).Analyze(context.Background(), "CALL-0001")
	if err == nil {
		t.Fatal("Analyze = nil error, want llm failure")
	}
	if !strings.Contains(err.Error(), "llm call failed") {
		t.Errorf("error = %v, want llm call failed", err)
	}
	if len(sink.rows) != 0 {
		t.Errorf("results rows = %d, want 0 after llm failure", len(sink.rows))
	}
}

func TestAnalyzeDegradedReply(t *testing.T) {
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{"CALL-0001": referenceRecord()}}
	client := &fakeLLM{reply: "죄송하지만 분석할 수 없습니다."}

	res, err := newTestAnalyzer(rs, &fakeSink{}, client).Analyze(context.Background(), "CALL-0001")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Strengths != "분석 결과 없음" {
		t.Errorf("Strengths = %q, want placeholder", res.Strengths)
	}
	if res.EvaluationScore != 0 {
		t.Errorf("EvaluationScore = %d, want 0", res.EvaluationScore)
	}
	if len(res.MissingFields) != 5 {
		t.Errorf("MissingFields = %v, want all five", res.MissingFields)
	}
	// Numeric sub-scores are unaffected by the degraded reply.
	if res.FinalScore != 79 {
		t.Errorf("FinalScore = %d, want 79", res.FinalScore)
	}
}

func TestAnalyzePersistenceFailure(t *testing.T) {
	rs := &fakeRecordStore{
		records: map[string]*store.CallRecord{"CALL-0001": referenceRecord()},
		saveErr: errors.New("connection reset"),
	}
	sink := &fakeSink{}

	res, err := newTestAnalyzer(rs, sink, &fakeLLM{reply: goodReply}).Analyze(context.Background(), "CALL-0001")
	if err != nil {
		t.Fatalf("Analyze = %v, want nil error despite persistence failure", err)
	}
	if res.Persisted {
		t.Error("Persisted = true, want false")
	}
	if res.FinalScore != 79 {
		t.Errorf("FinalScore = %d, analysis should survive persistence failure", res.FinalScore)
	}
	// Results upsert still attempted even when the record save failed.
	if len(sink.rows) != 1 {
		t.Errorf("results rows = %d, want 1", len(sink.rows))
	}
}

func TestAnalyzeUnratedStarsDefault(t *testing.T) {
	rec := referenceRecord()
	rec.AgentStar = 0
	rec.CustomerStar = 0
	rs := &fakeRecordStore{records: map[string]*store.CallRecord{"CALL-0001": rec}}

	res, err := newTestAnalyzer(rs, &fakeSink{}, &fakeLLM{reply: goodReply}).Analyze(context.Background(), "CALL-0001")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	// Unrated resolves to 3 stars = 60 points for both actors, and a
	// 3-star customer means compliance is not audited.
	if res.AgentEmotion != 60 || res.CustomerEmotion != 60 {
		t.Errorf("emotions = %d/%d, want 60/60", res.AgentEmotion, res.CustomerEmotion)
	}
	if res.ManualCompliance != 1.0 {
		t.Errorf("ManualCompliance = %v, want 1.0 for unrated customer", res.ManualCompliance)
	}
}
