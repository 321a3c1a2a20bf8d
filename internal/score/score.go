// Package score contains the deterministic scoring functions for consultation
// records. All functions are pure; the composite final score combines emotion,
// efficiency and manual-compliance sub-scores with a profanity penalty.
package score

import (
	"fmt"
	"math"
)

// StarRating is a discrete 1-5 emotion rating for one speaker.
// Zero means unrated; OrDefault resolves it to the neutral 3.
type StarRating int

const DefaultStar StarRating = 3

// Validate reports whether the rating is inside the 1-5 domain.
func (s StarRating) Validate() error {
	if s < 1 || s > 5 {
		return fmt.Errorf("star rating %d out of range 1-5", s)
	}
	return nil
}

// OrDefault maps the unrated zero value to the neutral 3.
func (s StarRating) OrDefault() StarRating {
	if s == 0 {
		return DefaultStar
	}
	return s
}

// Emotion maps a 1-5 star rating onto a 20-100 scale (5 stars = 100).
// Callers must pass a valid rating; the domain is not re-checked here.
func Emotion(star StarRating) int {
	return max(20, int(star)*20)
}

// Efficiency rewards low silence and balanced turn-taking between the agent
// and the customer. The penalty grows with total silence and with the
// absolute difference in speech counts; the result stays within [0,100].
func Efficiency(silence, csrCount, custCount int) int {
	penalty := float64(silence)/500 + 2*math.Abs(float64(csrCount-custCount))
	return clamp(100-int(penalty), 0, 100)
}

// Manual returns the fraction of the five coaching criteria the agent
// satisfied: offered an alternative, apologized, and kept positive,
// euphonious and empathetic language above their thresholds.
func Manual(altCount int, apology, positive, euphonious, empathy float64) float64 {
	criteria := []bool{
		altCount > 0,
		apology > 0,
		positive > 0.1,
		euphonious > 0.05,
		empathy > 0.1,
	}
	met := 0
	for _, ok := range criteria {
		if ok {
			met++
		}
	}
	return float64(met) / float64(len(criteria))
}

// Compliance gates the manual ratio on customer satisfaction: compliance is
// only audited when the customer rated 2 stars or lower. A satisfied customer
// implies the manual was followed well enough.
func Compliance(customerStar StarRating, manual float64) float64 {
	if customerStar <= 2 {
		return manual
	}
	return 1.0
}

// Final combines the four sub-scores into the 0-100 composite, subtracting 20
// points when profanity was detected.
func Final(agentEmotion, customerEmotion, efficiency int, compliance float64, profane bool) int {
	penalty := 0
	if profane {
		penalty = -20
	}
	mean := (float64(agentEmotion) + float64(customerEmotion) + float64(efficiency) + compliance*100) / 4
	return clamp(int(math.Round(mean))+penalty, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
