// Package eventlog records a per-call trail of pipeline events in Postgres.
package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventType represents the type of analysis event
type EventType string

const (
	EventAnalysisStarted   EventType = "analysis_started"
	EventLLMCompleted      EventType = "llm_completed"
	EventLLMError          EventType = "llm_error"
	EventParseDegraded     EventType = "parse_degraded"
	EventAnalysisCompleted EventType = "analysis_completed"
	EventPersistFailed     EventType = "persist_failed"
)

// Logger provides event logging to the database. A nil Logger is valid and
// drops every event, so callers never have to branch on it.
type Logger struct {
	db *pgxpool.Pool
	wg sync.WaitGroup
}

// New creates a new event logger
func New(db *pgxpool.Pool) *Logger {
	return &Logger{db: db}
}

// Log writes an event to the database synchronously
func (l *Logger) Log(ctx context.Context, callID string, eventType EventType, data map[string]any) error {
	if l == nil || l.db == nil || callID == "" {
		return nil
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO analysis_events (call_id, event_type, event_data)
		VALUES ($1, $2, $3)
	`, callID, string(eventType), dataJSON)

	return err
}

// LogAsync logs an event without blocking the caller. Queued events are
// written by background goroutines; Wait drains them before shutdown.
func (l *Logger) LogAsync(callID string, eventType EventType, data map[string]any) {
	if l == nil || l.db == nil || callID == "" {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Log(ctx, callID, eventType, data)
	}()
}

// Wait blocks until every event queued by LogAsync has been written, so a
// short-lived process does not drop the tail of its event trail on exit.
func (l *Logger) Wait() {
	if l == nil {
		return
	}
	l.wg.Wait()
}
