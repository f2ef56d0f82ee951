package llm

import (
	"context"
	"iter"
)

// Provider is the language-model backend. Complete is one-shot (classifier,
// summaries); Stream yields fragments lazily in arrival order and stops when
// the consumer stops or ctx is cancelled. A Stream sequence is not restartable.
type Provider interface {
	Complete(ctx context.Context, system string, prompt string) (string, error)
	Stream(ctx context.Context, system string, prompt string) iter.Seq2[string, error]
}
