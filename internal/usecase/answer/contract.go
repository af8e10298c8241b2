package answer

import (
	"context"

	"github.com/parchment-labs/parchment/internal/domain"
)

// Retriever fetches chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error)
}

// Generator streams a model completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (domain.TokenStream, error)
}
