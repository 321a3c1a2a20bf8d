// Package store reads and updates consultation records in the Postgres
// record store. Records are created by upstream ingestion; this pipeline only
// reads them and writes back the analysis outputs.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/score"
)

// ErrNotFound is returned by Get when no record exists for the call id.
// Callers distinguish it from connectivity failures with errors.Is.
var ErrNotFound = errors.New("consulting record not found")

// CallRecord is one analyzed call. The telemetry fields are inputs produced
// upstream; strength/weakness/improvement, manual_compliance_ratio and score
// are overwritten by the pipeline. Star ratings use a single 1-5 column per
// actor; 0 means unrated and resolves to 3 during analysis.
type CallRecord struct {
	CallID                   string           `json:"call_id"`
	CallDate                 time.Time        `json:"call_date"`
	CallDuration             int              `json:"call_duration"`
	Silence                  int              `json:"silence"`
	CSRSpeechCount           int              `json:"csr_speech_count"`
	CustomerSpeechCount      int              `json:"customer_speech_count"`
	AlternativeSolutionCount int              `json:"alternative_solution_count"`
	ApologyRatio             float64          `json:"apology_ratio"`
	PositiveWordRatio        float64          `json:"positive_word_ratio"`
	EuphoniousWordRatio      float64          `json:"euphonious_word_ratio"`
	EmpathyExpressionRatio   float64          `json:"empathy_expression_ratio"`
	Profane                  bool             `json:"profane"`
	AgentStar                score.StarRating `json:"agent_star"`
	CustomerStar             score.StarRating `json:"customer_star"`

	Strength              *string  `json:"strength,omitempty"`
	Weakness              *string  `json:"weakness,omitempty"`
	Improvement           *string  `json:"improvement,omitempty"`
	ManualComplianceRatio *float64 `json:"manual_compliance_ratio,omitempty"`
	Score                 *int     `json:"score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool and waits for the database to answer pings, retrying
// with exponential backoff. Retry happens only here at startup; individual
// record operations are never retried.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	ping := func() error { return db.Ping(ctx) }
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping record store: %w", err)
	}
	return db, nil
}

const recordColumns = `
	call_id, call_date, call_duration, silence, csr_speech_count,
	customer_speech_count, alternative_solution_count, apology_ratio,
	positive_word_ratio, euphonious_word_ratio, empathy_expression_ratio,
	profane, agent_star, customer_star,
	strength, weakness, improvement, manual_compliance_ratio, score,
	created_at, updated_at`

func scanRecord(row pgx.Row) (*CallRecord, error) {
	var r CallRecord
	err := row.Scan(
		&r.CallID, &r.CallDate, &r.CallDuration, &r.Silence, &r.CSRSpeechCount,
		&r.CustomerSpeechCount, &r.AlternativeSolutionCount, &r.ApologyRatio,
		&r.PositiveWordRatio, &r.EuphoniousWordRatio, &r.EmpathyExpressionRatio,
		&r.Profane, &r.AgentStar, &r.CustomerStar,
		&r.Strength, &r.Weakness, &r.Improvement, &r.ManualComplianceRatio, &r.Score,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Get fetches one record by call id. Returns ErrNotFound when the id is
// unknown; any other error is a connectivity/query failure.
func (s *Store) Get(ctx context.Context, callID string) (*CallRecord, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM consulting WHERE call_id = $1`, callID)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("call %s: %w", callID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get call %s: %w", callID, err)
	}
	return r, nil
}

// List returns records ordered by call_id ascending so batch membership is
// deterministic across runs. limit <= 0 lists everything.
func (s *Store) List(ctx context.Context, limit int) ([]CallRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM consulting ORDER BY call_id ASC`
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.Query(ctx, q+` LIMIT $1`, limit)
	} else {
		rows, err = s.db.Query(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Save writes the pipeline's analysis outputs back onto the record.
func (s *Store) Save(ctx context.Context, r *CallRecord) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE consulting
		SET strength = $1,
		    weakness = $2,
		    improvement = $3,
		    manual_compliance_ratio = $4,
		    score = $5,
		    updated_at = now()
		WHERE call_id = $6
	`, r.Strength, r.Weakness, r.Improvement, r.ManualComplianceRatio, r.Score, r.CallID)
	if err != nil {
		return fmt.Errorf("save call %s: %w", r.CallID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save call %s: %w", r.CallID, ErrNotFound)
	}
	return nil
}

// Insert creates a record with its telemetry inputs. Used by seeding; the
// production path never inserts.
func (s *Store) Insert(ctx context.Context, r *CallRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO consulting (
			call_id, call_date, call_duration, silence, csr_speech_count,
			customer_speech_count, alternative_solution_count, apology_ratio,
			positive_word_ratio, euphonious_word_ratio, empathy_expression_ratio,
			profane, agent_star, customer_star
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (call_id) DO NOTHING
	`, r.CallID, r.CallDate, r.CallDuration, r.Silence, r.CSRSpeechCount,
		r.CustomerSpeechCount, r.AlternativeSolutionCount, r.ApologyRatio,
		r.PositiveWordRatio, r.EuphoniousWordRatio, r.EmpathyExpressionRatio,
		r.Profane, r.AgentStar, r.CustomerStar)
	if err != nil {
		return fmt.Errorf("insert call %s: %w", r.CallID, err)
	}
	return nil
}
