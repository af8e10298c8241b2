package index

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/logger"
)

const (
	defaultConcurrency = 4
	defaultMaxRetries  = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// Service embeds and upserts chunks. Re-indexing the same document
// overwrites existing entries because chunk ids are deterministic.
type Service struct {
	embedder    Embedder
	store       ChunkStore
	extractor   Extractor
	chunker     Chunker
	concurrency int
	maxRetries  int
	baseDelay   time.Duration
}

// New creates a Service with default concurrency and retry settings.
func New(embedder Embedder, store ChunkStore, extractor Extractor, chunker Chunker) *Service {
	return &Service{
		embedder:    embedder,
		store:       store,
		extractor:   extractor,
		chunker:     chunker,
		concurrency: defaultConcurrency,
		maxRetries:  defaultMaxRetries,
		baseDelay:   defaultBaseDelay,
	}
}

// WithConcurrency sets the number of chunks embedded in parallel.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithRetry sets the per-chunk retry attempts and base backoff delay.
func (s *Service) WithRetry(attempts int, baseDelay time.Duration) *Service {
	if attempts > 0 {
		s.maxRetries = attempts
	}
	if baseDelay > 0 {
		s.baseDelay = baseDelay
	}
	return s
}

// IngestDocument extracts, chunks and indexes a single uploaded file.
// Extraction failure yields a zero-chunk report rather than an error so
// one bad file does not abort a multi-file upload.
func (s *Service) IngestDocument(ctx context.Context, filename string, data []byte) (Report, error) {
	log := logger.FromContext(ctx)
	docID := domain.SanitizeFilename(filename)

	pages, err := s.extractor.Extract(ctx, filename, data)
	if errors.Is(err, domain.ErrUnsupportedFormat) {
		return Report{DocID: docID}, err
	}
	if err != nil {
		// One unreadable file must not abort a multi-file upload.
		log.Warn("document extraction failed",
			zap.String("doc_id", docID),
			zap.Error(err))
		return Report{DocID: docID}, nil
	}

	chunks := s.chunker.Split(docID, docID, pages)
	if len(chunks) == 0 {
		return Report{DocID: docID}, nil
	}

	report, err := s.IndexChunks(ctx, chunks)
	if err != nil {
		return report, err
	}
	report.DocID = docID
	return report, nil
}

// IndexChunks embeds every chunk and upserts it into the store.
// Individual chunk failures are collected in the report; the run only
// fails as a whole when the index itself cannot be created.
func (s *Service) IndexChunks(ctx context.Context, chunks []domain.Chunk) (Report, error) {
	log := logger.FromContext(ctx)

	if err := s.store.EnsureIndex(ctx); err != nil {
		return Report{Total: len(chunks)}, fmt.Errorf("ensuring index: %w", err)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures []Failure
	)
	sem := make(chan struct{}, s.concurrency)

	for _, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(c domain.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.indexOne(ctx, c); err != nil {
				log.Warn("chunk indexing failed",
					zap.String("chunk_id", c.ID()),
					zap.Error(err))
				mu.Lock()
				failures = append(failures, Failure{ChunkID: c.ID(), Reason: err.Error()})
				mu.Unlock()
			}
		}(chunk)
	}
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].ChunkID < failures[j].ChunkID })

	report := Report{
		Total:    len(chunks),
		Indexed:  len(chunks) - len(failures),
		Failed:   len(failures),
		Failures: failures,
	}
	log.Info("indexing run complete",
		zap.Int("total", report.Total),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) indexOne(ctx context.Context, chunk domain.Chunk) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(s.baseDelay, attempt)):
			}
		}

		result, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			lastErr = fmt.Errorf("embedding chunk: %w", err)
			continue
		}
		if err := s.store.Upsert(ctx, chunk, result.Embedding); err != nil {
			lastErr = fmt.Errorf("upserting chunk: %w", err)
			continue
		}
		return nil
	}
	return lastErr
}

// backoff returns an exponential delay with jitter for the given attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if half := int64(base) / 2; half > 0 {
		d += time.Duration(rand.Int63n(half))
	}
	return d
}
