package store

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/score"
)

// SeedSampleData inserts n synthetic consultation records for local runs and
// demos. Call ids are sequential (CALL-0001, ...) so re-seeding is a no-op
// for ids that already exist. The generator is seeded for reproducibility.
func (s *Store) SeedSampleData(ctx context.Context, n int) (int, error) {
	rng := rand.New(rand.NewSource(42))
	inserted := 0
	base := time.Now().Add(-time.Duration(n) * time.Hour)

	for i := 0; i < n; i++ {
		rec := &CallRecord{
			CallID:                   fmt.Sprintf("CALL-%04d", i+1),
			CallDate:                 base.Add(time.Duration(i) * time.Hour),
			CallDuration:             60 + rng.Intn(900),
			Silence:                  rng.Intn(2000),
			CSRSpeechCount:           10 + rng.Intn(40),
			CustomerSpeechCount:      10 + rng.Intn(40),
			AlternativeSolutionCount: rng.Intn(3),
			ApologyRatio:             roundRatio(rng.Float64() * 0.4),
			PositiveWordRatio:        roundRatio(rng.Float64() * 0.3),
			EuphoniousWordRatio:      roundRatio(rng.Float64() * 0.2),
			EmpathyExpressionRatio:   roundRatio(rng.Float64() * 0.3),
			Profane:                  rng.Intn(10) == 0,
			AgentStar:                score.StarRating(1 + rng.Intn(5)),
			CustomerStar:             score.StarRating(1 + rng.Intn(5)),
		}
		if err := s.Insert(ctx, rec); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func roundRatio(v float64) float64 {
	return float64(int(v*100)) / 100
}
