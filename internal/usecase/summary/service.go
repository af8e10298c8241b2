package summary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/logger"
	"github.com/parchment-labs/parchment/internal/metrics"
)

// probes are the fixed retrieval queries that gather summary context.
// They are deliberately static so the same index always produces the
// same context set.
var probes = []string{
	"parties to the agreement and their roles",
	"obligations, deliverables and service levels",
	"payment terms, fees and invoicing",
	"term, termination and renewal",
	"liability, indemnification and limitation of damages",
	"definitions of key terms",
}

const systemPrompt = `You are a careful assistant summarizing contract documents.
Summarize ONLY using the retrieved context below. Do not use outside knowledge.
When you state a fact from the context, cite it by copying the bracketed
reference that precedes the excerpt, exactly as written.
Structure the summary under these headings:
- Purpose
- Key Clauses
- Risks
- Missing Information
- Definitions
Under Missing Information, list topics the context does not cover.`

// Service produces a structured summary of everything indexed. Context
// is gathered with fixed probe queries so the summary is deterministic
// for a given index state.
type Service struct {
	retriever Retriever
	generator Generator
	counter   ChunkCounter
}

// New creates a Service.
func New(retriever Retriever, generator Generator, counter ChunkCounter) *Service {
	return &Service{retriever: retriever, generator: generator, counter: counter}
}

// Summarize streams a structured summary through sink and returns the
// validated final answer. An empty index yields a fixed notice without
// any model call. sink may be nil.
func (s *Service) Summarize(ctx context.Context, sink domain.TokenSink) (domain.Answer, error) {
	log := logger.FromContext(ctx)

	count, err := s.counter.Count(ctx)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("counting chunks: %w", err)
	}
	if count == 0 {
		ans := domain.EmptyIndexAnswer()
		if sink != nil {
			sink(ans.Text)
		}
		return ans, nil
	}

	chunks, err := s.gather(ctx)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(chunks) == 0 {
		ans := domain.EmptyIndexAnswer()
		if sink != nil {
			sink(ans.Text)
		}
		return ans, nil
	}
	log.Debug("gathered summary context", zap.Int("chunks", len(chunks)))

	raw, err := s.stream(ctx, buildPrompt(chunks), sink)
	if err != nil {
		return domain.Answer{}, err
	}

	text, citations, dropped := domain.ValidateCitations(raw, chunks)
	if dropped > 0 {
		metrics.CitationsDroppedTotal.Add(float64(dropped))
		log.Warn("dropped unverifiable citations", zap.Int("count", dropped))
	}

	return domain.Answer{Text: text, Citations: citations}, nil
}

// gather runs every probe and merges the results, deduplicated by chunk
// id and ordered by document and sequence.
func (s *Service) gather(ctx context.Context) ([]domain.Chunk, error) {
	seen := make(map[string]domain.Chunk)
	for _, probe := range probes {
		scored, err := s.retriever.Retrieve(ctx, probe)
		if err != nil {
			return nil, fmt.Errorf("probing %q: %w", probe, err)
		}
		for _, sc := range scored {
			seen[sc.Chunk.ID()] = sc.Chunk
		}
	}

	chunks := make([]domain.Chunk, 0, len(seen))
	for _, c := range seen {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocID != chunks[j].DocID {
			return chunks[i].DocID < chunks[j].DocID
		}
		return chunks[i].Seq < chunks[j].Seq
	})
	return chunks, nil
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
		if sink != nil {
			sink(token)
		}
	}
}

func buildPrompt(chunks []domain.Chunk) domain.Prompt {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "%s\n%s\n\n", c.Citation(), c.Text)
	}
	b.WriteString("Summarize the indexed documents.")

	return domain.Prompt{System: systemPrompt, User: b.String()}
}
