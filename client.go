package parchment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/chunker"
	dbRedis "github.com/parchment-labs/parchment/internal/db/redis"
	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/extract"
	chunkrepo "github.com/parchment-labs/parchment/internal/repository/chunk"
	"github.com/parchment-labs/parchment/internal/repository/embcache"
	openaiTransport "github.com/parchment-labs/parchment/internal/transport/openai"
	answeruc "github.com/parchment-labs/parchment/internal/usecase/answer"
	indexuc "github.com/parchment-labs/parchment/internal/usecase/index"
	retrieveuc "github.com/parchment-labs/parchment/internal/usecase/retrieve"
	summaryuc "github.com/parchment-labs/parchment/internal/usecase/summary"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the parchment SDK entry point.
type Client struct {
	store       *dbRedis.Store
	indexSvc    *indexuc.Service
	retrieveSvc *retrieveuc.Service
	answerSvc   *answeruc.Service
	summarySvc  *summaryuc.Service
	chunks      *chunkrepo.Repo
}

// New creates a parchment Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		embeddingModel: "text-embedding-3-small",
		chatModel:      "gpt-4o-mini",
		dimensions:     1536,
		chunkMin:       800,
		chunkMax:       1200,
		chunkOverlap:   200,
		topK:           4,
		logger:         zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("parchment: database address required (use WithRedis)")
	}
	if cfg.apiKey == "" {
		return nil, fmt.Errorf("parchment: provider api key required: %w", domain.ErrMissingCredential)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("parchment: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store *dbRedis.Store, cfg *clientConfig) *Client {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Model:      cfg.embeddingModel,
		Dimensions: cfg.dimensions,
		Provider:   "openai",
		Logger:     cfg.logger,
	})
	// nil cache counter — the embedded client registers no metrics.
	cached := embcache.New(base, store, nil, cfg.logger).WithTTL(cfg.cacheTTL)
	var embedder domain.Embedder = domain.NewTruncatingEmbedder(cached, cfg.maxInputChars)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:   cfg.apiKey,
		BaseURL:  cfg.baseURL,
		Model:    cfg.chatModel,
		Provider: "openai",
		Logger:   cfg.logger,
	})

	chunks := chunkrepo.New(store, cfg.dimensions)
	splitter := chunker.New(chunker.Config{
		MinSize: cfg.chunkMin,
		MaxSize: cfg.chunkMax,
		Overlap: cfg.chunkOverlap,
	})

	retrieveSvc := retrieveuc.New(embedder, chunks).WithK(cfg.topK)

	return &Client{
		store:       store,
		indexSvc:    indexuc.New(embedder, chunks, extract.NewService(), splitter),
		retrieveSvc: retrieveSvc,
		answerSvc:   answeruc.New(retrieveSvc, generator).WithMinScore(cfg.minScore),
		summarySvc:  summaryuc.New(retrieveSvc, generator, chunks),
		chunks:      chunks,
	}
}

// Index extracts, chunks, embeds and stores a document. Re-indexing the
// same filename overwrites its chunks.
func (c *Client) Index(ctx context.Context, filename string, data []byte) (Report, error) {
	return c.indexSvc.IngestDocument(ctx, filename, data)
}

// Ask answers a question grounded in the indexed documents. sink receives
// tokens as they stream and may be nil.
func (c *Client) Ask(ctx context.Context, question string, sink TokenSink) (Answer, error) {
	return c.answerSvc.Ask(ctx, question, sink)
}

// Summarize produces a structured summary of everything indexed.
func (c *Client) Summarize(ctx context.Context, sink TokenSink) (Answer, error) {
	return c.summarySvc.Summarize(ctx, sink)
}

// Retrieve returns the chunks most similar to the query, reordered for
// long-context prompting.
func (c *Client) Retrieve(ctx context.Context, query string) ([]ScoredChunk, error) {
	return c.retrieveSvc.Retrieve(ctx, query)
}

// ChunkCount reports how many chunks are indexed.
func (c *Client) ChunkCount(ctx context.Context) (int, error) {
	return c.chunks.Count(ctx)
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the database connection.
func (c *Client) Close() {
	c.store.Close()
}
