package answer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/logger"
	"github.com/parchment-labs/parchment/internal/metrics"
)

// Service answers questions grounded in retrieved chunks. When retrieval
// yields no usable context the refusal is served structurally, without a
// chat call.
type Service struct {
	retriever Retriever
	generator Generator
	minScore  float64
}

// New creates a Service. minScore of 0 disables the relevance threshold.
func New(retriever Retriever, generator Generator) *Service {
	return &Service{retriever: retriever, generator: generator}
}

// WithMinScore sets the similarity floor below which chunks are discarded.
func (s *Service) WithMinScore(score float64) *Service {
	if score > 0 {
		s.minScore = score
	}
	return s
}

// Ask retrieves context for the question, streams the model answer
// through sink token by token, and returns the validated final answer.
// sink may be nil.
func (s *Service) Ask(ctx context.Context, question string, sink domain.TokenSink) (domain.Answer, error) {
	log := logger.FromContext(ctx)

	scored, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieving context: %w", err)
	}

	chunks := s.filter(scored)
	if len(chunks) == 0 {
		metrics.GuardrailRefusalsTotal.Inc()
		log.Info("guardrail refusal", zap.Int("retrieved", len(scored)))
		ans := domain.RefusalAnswer()
		emit(sink, ans.Text)
		return ans, nil
	}

	prompt := BuildPrompt(question, chunks)
	raw, err := s.stream(ctx, prompt, sink)
	if err != nil {
		return domain.Answer{}, err
	}

	return s.finalize(ctx, raw, chunks), nil
}

// filter drops chunks below the similarity floor.
func (s *Service) filter(scored []domain.ScoredChunk) []domain.ScoredChunk {
	if s.minScore <= 0 {
		return scored
	}
	kept := make([]domain.ScoredChunk, 0, len(scored))
	for _, sc := range scored {
		if sc.Score >= s.minScore {
			kept = append(kept, sc)
		}
	}
	return kept
}

func (s *Service) stream(ctx context.Context, prompt domain.Prompt, sink domain.TokenSink) (string, error) {
	stream, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("starting chat stream: %w", err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("reading chat stream: %w", err)
		}
		b.WriteString(token)
		emit(sink, token)
	}
}

// finalize validates model-emitted citations against the supplied chunks
// and detects a model-side refusal.
func (s *Service) finalize(ctx context.Context, raw string, chunks []domain.ScoredChunk) domain.Answer {
	supplied := make([]domain.Chunk, len(chunks))
	for i, sc := range chunks {
		supplied[i] = sc.Chunk
	}

	text, citations, dropped := domain.ValidateCitations(raw, supplied)
	if dropped > 0 {
		metrics.CitationsDroppedTotal.Add(float64(dropped))
		logger.FromContext(ctx).Warn("dropped unverifiable citations", zap.Int("count", dropped))
	}

	return domain.Answer{
		Text:      text,
		Citations: citations,
		Refusal:   isRefusal(text, citations),
	}
}

// isRefusal reports whether the model declined to answer. A grounded answer
// that merely quotes the phrase is not a refusal: a refusal carries zero
// verifiable citations.
func isRefusal(text string, citations []string) bool {
	return len(citations) == 0 && strings.Contains(text, "I don't know")
}

func emit(sink domain.TokenSink, token string) {
	if sink != nil {
		sink(token)
	}
}
