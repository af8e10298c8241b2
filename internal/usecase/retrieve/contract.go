package retrieve

import (
	"context"

	"github.com/parchment-labs/parchment/internal/domain"
)

// Embedder produces the query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkSearcher runs vector similarity search over indexed chunks.
type ChunkSearcher interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)
}
