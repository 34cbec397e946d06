// Package providers declares the three narrow capability interfaces the
// core depends on but never implements: a proxy model for log-probability
// scoring, an action model that proposes tool calls, and a sanitizer that
// rewrites untrusted content. Concrete adapters (internal/proxyhttp,
// internal/actionhttp, internal/sanitizerhttp) satisfy these against real
// model-serving endpoints; tests satisfy them with in-memory fakes.
package providers

import (
	"context"

	"github.com/corvid-labs/tripline/internal/model"
)

// ScoreRequest is one leave-one-out variant to be scored.
type ScoreRequest struct {
	// Prompt is the serialized context for this ablation variant.
	Prompt string
	// Continuation is the action's raw text; log-probabilities are
	// reported for its tokens only.
	Continuation string
}

// ScoreResponse carries per-token log-probabilities for Continuation's
// tokens and their count. len(Logprobs) must equal TokenCount.
type ScoreResponse struct {
	Logprobs  []float64
	TokenCount int
}

// ProxyProvider scores the log-probability of an action's tokens under a
// given context. Implementations must report natural-log, sum-preserving
// per-token log-probabilities identified by byte offset at or beyond the
// end of Prompt.
type ProxyProvider interface {
	Score(ctx context.Context, req ScoreRequest) (ScoreResponse, error)
}

// ActionProvider proposes a tool call from a message sequence, or returns
// nil when it declines to call a tool.
type ActionProvider interface {
	Propose(ctx context.Context, messages []model.Message) (*model.ToolCall, error)
}

// SanitizerProvider rewrites a single untrusted span, preserving factual
// content and stripping imperative or instruction-like content.
type SanitizerProvider interface {
	Sanitize(ctx context.Context, spanContent, spanToolName string) (string, error)
}
