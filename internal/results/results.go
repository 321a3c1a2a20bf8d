// Package results persists analysis results into a results store that is
// physically separate from the record store. The store is a local SQLite
// database; rows are keyed by call_id with insert-or-update semantics and
// last-write-wins on conflicting fields.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createResultsTableSQL = `
CREATE TABLE IF NOT EXISTS analysis_results (
	call_id                 TEXT PRIMARY KEY,
	evaluation_score        INTEGER NOT NULL,
	strengths               TEXT NOT NULL,
	weaknesses              TEXT NOT NULL,
	improvements            TEXT NOT NULL,
	coaching_message        TEXT NOT NULL,
	agent_emotion_score     INTEGER NOT NULL,
	customer_emotion_score  INTEGER NOT NULL,
	efficiency_score        INTEGER NOT NULL,
	manual_compliance_ratio REAL NOT NULL,
	final_score             INTEGER NOT NULL,
	created_at_utc          TEXT NOT NULL,
	updated_at_utc          TEXT NOT NULL
)`

const upsertResultSQL = `
INSERT INTO analysis_results (
	call_id, evaluation_score, strengths, weaknesses, improvements,
	coaching_message, agent_emotion_score, customer_emotion_score,
	efficiency_score, manual_compliance_ratio, final_score,
	created_at_utc, updated_at_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (call_id) DO UPDATE SET
	evaluation_score        = excluded.evaluation_score,
	strengths               = excluded.strengths,
	weaknesses              = excluded.weaknesses,
	improvements            = excluded.improvements,
	coaching_message        = excluded.coaching_message,
	agent_emotion_score     = excluded.agent_emotion_score,
	customer_emotion_score  = excluded.customer_emotion_score,
	efficiency_score        = excluded.efficiency_score,
	manual_compliance_ratio = excluded.manual_compliance_ratio,
	final_score             = excluded.final_score,
	updated_at_utc          = excluded.updated_at_utc`

// Row is one persisted analysis result.
type Row struct {
	CallID                string
	EvaluationScore       int
	Strengths             string
	Weaknesses            string
	Improvements          string
	CoachingMessage       string
	AgentEmotionScore     int
	CustomerEmotionScore  int
	EfficiencyScore       int
	ManualComplianceRatio float64
	FinalScore            int
	CreatedAtUTC          string
	UpdatedAtUTC          string
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite results database and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("results db path is required")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	// SQLite allows one writer at a time; a single pooled connection keeps
	// the batch workers queued instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping results db: %w", err)
	}
	if _, err := db.Exec(createResultsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create analysis_results table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces the row for its call_id, keeping the original
// created_at on update.
func (s *Store) Upsert(ctx context.Context, row Row) error {
	now := time.Now().UTC().Format(time.RFC3339)
	created := row.CreatedAtUTC
	if created == "" {
		created = now
	}
	_, err := s.db.ExecContext(ctx, upsertResultSQL,
		row.CallID, row.EvaluationScore, row.Strengths, row.Weaknesses,
		row.Improvements, row.CoachingMessage, row.AgentEmotionScore,
		row.CustomerEmotionScore, row.EfficiencyScore, row.ManualComplianceRatio,
		row.FinalScore, created, now)
	if err != nil {
		return fmt.Errorf("upsert result %s: %w", row.CallID, err)
	}
	return nil
}

// List returns results ordered by call_id ascending. limit <= 0 lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Row, error) {
	q := `SELECT call_id, evaluation_score, strengths, weaknesses, improvements,
		coaching_message, agent_emotion_score, customer_emotion_score,
		efficiency_score, manual_compliance_ratio, final_score,
		created_at_utc, updated_at_utc
	FROM analysis_results ORDER BY call_id ASC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		err := rows.Scan(&r.CallID, &r.EvaluationScore, &r.Strengths,
			&r.Weaknesses, &r.Improvements, &r.CoachingMessage,
			&r.AgentEmotionScore, &r.CustomerEmotionScore, &r.EfficiencyScore,
			&r.ManualComplianceRatio, &r.FinalScore,
			&r.CreatedAtUTC, &r.UpdatedAtUTC)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get fetches one result by call id; returns sql.ErrNoRows when absent.
func (s *Store) Get(ctx context.Context, callID string) (*Row, error) {
	row := s.db.QueryRowContext(ctx, `SELECT call_id, evaluation_score, strengths,
		weaknesses, improvements, coaching_message, agent_emotion_score,
		customer_emotion_score, efficiency_score, manual_compliance_ratio,
		final_score, created_at_utc, updated_at_utc
	FROM analysis_results WHERE call_id = ?`, callID)

	var r Row
	err := row.Scan(&r.CallID, &r.EvaluationScore, &r.Strengths, &r.Weaknesses,
		&r.Improvements, &r.CoachingMessage, &r.AgentEmotionScore,
		&r.CustomerEmotionScore, &r.EfficiencyScore, &r.ManualComplianceRatio,
		&r.FinalScore, &r.CreatedAtUTC, &r.UpdatedAtUTC)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
