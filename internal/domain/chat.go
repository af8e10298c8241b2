package domain

import "context"

// Prompt is a system/user message pair for the chat service.
type Prompt struct {
	System string
	User   string
}

// TokenStream delivers generation tokens incrementally, in generation order.
// Recv returns io.EOF after the final token. Close releases the stream and
// may be called early to abandon generation; abandoning never corrupts the
// index or leaves partial writes behind.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Generator is the chat completion contract. Implementations must support
// streaming delivery; at most one stream is active per request.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (TokenStream, error)
}

// TokenSink receives tokens as they arrive from a stream. Implementations
// live in the transport layer (SSE writer) or in tests (buffers).
type TokenSink func(token string)
