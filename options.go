package parchment

import (
	"time"

	"go.uber.org/zap"
)

type clientConfig struct {
	addrs    []string
	password string

	apiKey         string
	baseURL        string
	embeddingModel string
	chatModel      string
	dimensions     int
	maxInputChars  int

	chunkMin     int
	chunkMax     int
	chunkOverlap int

	topK     int
	minScore float64

	cacheTTL time.Duration
	logger   *zap.Logger
}

// Option configures the client.
type Option func(*clientConfig)

// WithRedis sets the Redis connection. Required.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithOpenAI sets the provider API key. Required.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) { c.apiKey = apiKey }
}

// WithBaseURL points the provider client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) { c.baseURL = baseURL }
}

// WithModels overrides the embedding and chat model names.
func WithModels(embedding, chat string) Option {
	return func(c *clientConfig) {
		if embedding != "" {
			c.embeddingModel = embedding
		}
		if chat != "" {
			c.chatModel = chat
		}
	}
}

// WithDimensions sets the embedding vector dimensionality.
func WithDimensions(dim int) Option {
	return func(c *clientConfig) {
		if dim > 0 {
			c.dimensions = dim
		}
	}
}

// WithMaxInputChars caps embedding input length; longer text is truncated
// from the end.
func WithMaxInputChars(n int) Option {
	return func(c *clientConfig) { c.maxInputChars = n }
}

// WithChunking overrides the chunk size window and overlap.
func WithChunking(minSize, maxSize, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkMin = minSize
		c.chunkMax = maxSize
		c.chunkOverlap = overlap
	}
}

// WithTopK sets how many chunks each query retrieves.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithMinScore sets the similarity floor below which retrieved chunks are
// discarded before answering.
func WithMinScore(score float64) Option {
	return func(c *clientConfig) { c.minScore = score }
}

// WithEmbeddingCacheTTL sets an expiry on cached embeddings.
func WithEmbeddingCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) { c.cacheTTL = ttl }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}
