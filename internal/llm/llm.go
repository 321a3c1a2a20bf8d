package llm

import "context"

// Completion is one model reply plus the token counts the provider reported.
// Token counts are zero when the provider omits usage metadata.
type Completion struct {
	Text         string
	PromptTokens int
	OutputTokens int
}

// Client defines the text-analysis provider boundary. The pipeline makes one
// Generate call per record; implementations must be safe for concurrent use.
type Client interface {
	// Generate sends a prompt and returns the model's free-text reply.
	Generate(ctx context.Context, prompt string) (*Completion, error)
}
