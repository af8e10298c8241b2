package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
	"github.com/parchment-labs/parchment/internal/metrics"
)

// Generator is a streaming chat completion provider using the
// OpenAI-compatible API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	provider    string
	logger      *zap.Logger
}

// GeneratorConfig holds the chat provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Generate opens a streaming completion. Tokens arrive through the returned
// domain.TokenStream in generation order; Close may be called early to
// abandon the stream.
func (g *Generator) Generate(ctx context.Context, prompt domain.Prompt) (domain.TokenStream, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	}

	start := time.Now()

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return nil, parseChatAPIError(err)
	}

	metrics.ChatRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()

	return &tokenStream{
		stream:   stream,
		provider: g.provider,
		model:    g.model,
		start:    start,
	}, nil
}

// tokenStream adapts the go-openai stream to domain.TokenStream.
type tokenStream struct {
	stream   *openai.ChatCompletionStream
	provider string
	model    string
	start    time.Time
	done     bool
}

// Recv returns the next token, skipping empty deltas. io.EOF ends the stream.
func (s *tokenStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			if !s.done {
				s.done = true
				metrics.ChatStreamDuration.WithLabelValues(s.provider, s.model).Observe(time.Since(s.start).Seconds())
			}
			return "", io.EOF
		}
		if err != nil {
			return "", parseChatAPIError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if token := resp.Choices[0].Delta.Content; token != "" {
			return token, nil
		}
	}
}

// Close releases the underlying stream. Safe after EOF and safe to call
// early to abandon generation.
func (s *tokenStream) Close() error {
	return s.stream.Close()
}

// parseChatAPIError wraps chat failures with domain.ErrChatProvider so the
// transport can distinguish them from guardrail refusals.
func parseChatAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrChatProvider)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrChatProvider)
	}

	return fmt.Errorf("chat request failed: %v: %w", err, domain.ErrChatProvider)
}
