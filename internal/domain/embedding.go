package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// TruncatingEmbedder is a domain decorator that truncates input from the end
// before embedding, so that tail content is dropped rather than head when the
// text exceeds the provider's capacity. Indexing and querying both go through
// this decorator, which keeps the two embedding spaces consistent.
type TruncatingEmbedder struct {
	inner    Embedder
	maxChars int
}

// NewTruncatingEmbedder creates the truncation decorator. maxChars <= 0
// disables truncation.
func NewTruncatingEmbedder(inner Embedder, maxChars int) *TruncatingEmbedder {
	return &TruncatingEmbedder{inner: inner, maxChars: maxChars}
}

// Embed truncates the text from the end and delegates to the inner embedder.
func (e *TruncatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, TruncateEnd(text, e.maxChars))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("truncating embed: %w", err)
	}
	return result, nil
}

// TruncateEnd drops trailing content so the result holds at most maxChars
// bytes without splitting a UTF-8 rune. maxChars <= 0 means no limit.
func TruncateEnd(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}
