package summary

import (
	"context"

	"github.com/parchment-labs/parchment/internal/domain"
)

// Retriever fetches chunks relevant to a probe query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error)
}

// Generator streams a model completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (domain.TokenStream, error)
}

// ChunkCounter reports how many chunks the store holds.
type ChunkCounter interface {
	Count(ctx context.Context) (int, error)
}
