package store

import (
	"context"
	"fmt"
)

const consultingSchema = `
CREATE TABLE IF NOT EXISTS consulting (
	call_id                    TEXT PRIMARY KEY,
	call_date                  TIMESTAMPTZ NOT NULL DEFAULT now(),
	call_duration              INT NOT NULL DEFAULT 0,
	silence                    INT NOT NULL DEFAULT 0,
	csr_speech_count           INT NOT NULL DEFAULT 0,
	customer_speech_count      INT NOT NULL DEFAULT 0,
	alternative_solution_count INT NOT NULL DEFAULT 0,
	apology_ratio              DOUBLE PRECISION NOT NULL DEFAULT 0,
	positive_word_ratio        DOUBLE PRECISION NOT NULL DEFAULT 0,
	euphonious_word_ratio      DOUBLE PRECISION NOT NULL DEFAULT 0,
	empathy_expression_ratio   DOUBLE PRECISION NOT NULL DEFAULT 0,
	profane                    BOOLEAN NOT NULL DEFAULT false,
	agent_star                 SMALLINT NOT NULL DEFAULT 0 CHECK (agent_star BETWEEN 0 AND 5),
	customer_star              SMALLINT NOT NULL DEFAULT 0 CHECK (customer_star BETWEEN 0 AND 5),
	strength                   TEXT,
	weakness                   TEXT,
	improvement                TEXT,
	manual_compliance_ratio    DOUBLE PRECISION,
	score                      INT CHECK (score BETWEEN 0 AND 100),
	created_at                 TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                 TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const analysisEventsSchema = `
CREATE TABLE IF NOT EXISTS analysis_events (
	id         BIGSERIAL PRIMARY KEY,
	call_id    TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_data JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the consulting and analysis_events tables when they do
// not exist yet. Invoked by the seed command; deployments normally manage the
// tables themselves.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, consultingSchema); err != nil {
		return fmt.Errorf("create consulting table: %w", err)
	}
	if _, err := s.db.Exec(ctx, analysisEventsSchema); err != nil {
		return fmt.Errorf("create analysis_events table: %w", err)
	}
	return nil
}
