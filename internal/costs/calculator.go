// Package costs estimates LLM API spend for analysis runs.
package costs

import (
	"os"
	"strconv"
)

// Pricing in cents per 1K tokens. Defaults match Gemini 1.5 Pro list prices
// (<=128K context) and can be overridden via environment variables when the
// model or tier changes.
var (
	// GeminiCentsPerThousandInputTokens: $1.25/1M = 0.125 cents/1K.
	GeminiCentsPerThousandInputTokens = getEnvFloat("COST_GEMINI_INPUT_CENTS_PER_1K", 0.125)

	// GeminiCentsPerThousandOutputTokens: $5.00/1M = 0.5 cents/1K.
	GeminiCentsPerThousandOutputTokens = getEnvFloat("COST_GEMINI_OUTPUT_CENTS_PER_1K", 0.5)
)

// Usage is the token usage one analysis call reported.
type Usage struct {
	PromptTokens int
	OutputTokens int
}

// Costs breaks down the estimated spend for one or more calls, in cents.
// A single analysis is typically a fraction of a cent, so values are kept
// fractional instead of rounding per call.
type Costs struct {
	InputCents  float64
	OutputCents float64
	TotalCents  float64
}

// Estimate computes the cost of the given token usage.
func Estimate(u Usage) Costs {
	c := Costs{
		InputCents:  float64(u.PromptTokens) / 1000.0 * GeminiCentsPerThousandInputTokens,
		OutputCents: float64(u.OutputTokens) / 1000.0 * GeminiCentsPerThousandOutputTokens,
	}
	c.TotalCents = c.InputCents + c.OutputCents
	return c
}

// Add accumulates usage across a batch run.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens: u.PromptTokens + other.PromptTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
