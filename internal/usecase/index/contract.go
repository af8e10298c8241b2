package index

import (
	"context"

	"github.com/parchment-labs/parchment/internal/domain"
)

// Embedder produces vectors for chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ChunkStore persists chunks with their vectors.
type ChunkStore interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error
}

// Extractor converts a raw document into pages of plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) ([]domain.Page, error)
}

// Chunker splits extracted pages into chunks.
type Chunker interface {
	Split(docID, source string, pages []domain.Page) []domain.Chunk
}

// Failure records a chunk that could not be indexed.
type Failure struct {
	ChunkID string `json:"chunk_id"`
	Reason  string `json:"reason"`
}

// Report summarizes one indexing run.
type Report struct {
	DocID   string    `json:"doc_id"`
	Total   int       `json:"total"`
	Indexed int       `json:"indexed"`
	Failed  int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}
