// Package batch drives the analysis pipeline over many records with bounded
// parallelism. Records are processed in fixed-size chunks; a chunk is a hard
// synchronization barrier that caps the number of concurrent outbound LLM
// requests.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/analyzer"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/logger"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	defaultMaxWorkers = 3
	defaultBatchSize  = 10
)

// Analyzer is the per-record pipeline the runner fans out to.
type Analyzer interface {
	Analyze(ctx context.Context, callID string) (*analyzer.AnalysisResult, error)
}

// Outcome is one record's result in the batch artifact.
type Outcome struct {
	CallID    string         `json:"call_id"`
	Timestamp string         `json:"timestamp"`
	Analysis  map[string]any `json:"analysis"`
	Status    string         `json:"status"`
}

// Summary aggregates one run. Printed and returned, never persisted.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
}

// SuccessRate returns the percentage of succeeded records, 0 for empty runs.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

type Config struct {
	MaxWorkers int    // concurrent analyses per chunk, default 3
	BatchSize  int    // chunk size, default 10
	OutputPath string // JSON artifact path; empty disables the artifact
}

type Runner struct {
	analyzer Analyzer
	cfg      Config
	log      *logger.Logger
}

func New(a Analyzer, cfg Config, log *logger.Logger) *Runner {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Runner{analyzer: a, cfg: cfg, log: log}
}

// Run analyzes every call id, chunk by chunk. One record's failure never
// aborts the batch; it becomes a failed outcome with the id preserved.
// Outcomes keep the input order. After the last chunk the artifact is
// written; a write failure is the only error Run itself returns.
func (r *Runner) Run(ctx context.Context, callIDs []string) (Summary, []Outcome, error) {
	runID := uuid.New().String()
	total := len(callIDs)
	log := r.log.WithField("run_id", runID)

	log.WithField("total", total).
		WithField("max_workers", r.cfg.MaxWorkers).
		WithField("batch_size", r.cfg.BatchSize).
		Info("batch run started")

	outcomes := make([]Outcome, total)
	var completed atomic.Int64

	for start := 0; start < total; start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, total)
		r.runChunk(ctx, callIDs[start:end], outcomes[start:end], &completed, total, log)
	}

	summary := Summary{RunID: runID, Total: total}
	for _, o := range outcomes {
		if o.Status == StatusCompleted {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	log.WithField("succeeded", summary.Succeeded).
		WithField("failed", summary.Failed).
		Info("batch run finished")

	if r.cfg.OutputPath != "" {
		if err := WriteOutcomes(r.cfg.OutputPath, outcomes); err != nil {
			return summary, outcomes, err
		}
		log.WithField("path", r.cfg.OutputPath).Info("batch artifact written")
	}
	return summary, outcomes, nil
}

// runChunk fans the chunk out to at most MaxWorkers goroutines and waits for
// every record to finish before returning. The WaitGroup is the chunk
// barrier.
func (r *Runner) runChunk(ctx context.Context, ids []string, out []Outcome, completed *atomic.Int64, total int, log *logrus.Entry) {
	sem := make(chan struct{}, r.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, callID := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, callID string) {
			defer wg.Done()
			defer func() { <-sem }()

			out[i] = r.analyzeOne(ctx, callID, log)

			done := completed.Add(1)
			log.WithField("call_id", callID).
				WithField("progress", fmt.Sprintf("%d/%d", done, total)).
				Info("record completed")
		}(i, callID)
	}
	wg.Wait()
}

// analyzeOne converts the per-record result or error into an Outcome. A
// panic inside the pipeline also yields exactly one failed outcome instead
// of taking down sibling workers.
func (r *Runner) analyzeOne(ctx context.Context, callID string, log *logrus.Entry) (o Outcome) {
	o = Outcome{
		CallID:    callID,
		Timestamp: time.Now().Format(time.RFC3339),
		Analysis:  map[string]any{},
		Status:    StatusFailed,
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithField("call_id", callID).Errorf("analysis panicked: %v", p)
		}
	}()

	res, err := r.analyzer.Analyze(ctx, callID)
	if err != nil {
		log.WithField("call_id", callID).WithField("error", err.Error()).
			Warn("analysis failed")
		return o
	}
	o.Analysis = res.Analysis()
	o.Status = StatusCompleted
	return o
}

// WriteOutcomes writes the outcomes as an indented JSON array.
func WriteOutcomes(path string, outcomes []Outcome) error {
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write outcomes: %w", err)
	}
	return nil
}
