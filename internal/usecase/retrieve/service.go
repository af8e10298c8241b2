package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/logger"
)

const defaultK = 4

// Service embeds a query and fetches the most similar chunks, reordered
// for long-context consumption.
type Service struct {
	embedder Embedder
	searcher ChunkSearcher
	k        int
}

// New creates a Service with the default result count.
func New(embedder Embedder, searcher ChunkSearcher) *Service {
	return &Service{embedder: embedder, searcher: searcher, k: defaultK}
}

// WithK sets the number of chunks retrieved per query.
func (s *Service) WithK(k int) *Service {
	if k > 0 {
		s.k = k
	}
	return s
}

// Retrieve returns up to k chunks relevant to the query. Scores are
// preserved so callers can apply relevance thresholds.
func (s *Service) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := s.searcher.SearchKNN(ctx, result.Embedding, s.k)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	logger.FromContext(ctx).Debug("retrieved chunks",
		zap.Int("requested", s.k),
		zap.Int("found", len(chunks)))

	return Reorder(chunks), nil
}
