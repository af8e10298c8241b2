package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/parchment-labs/parchment/internal/domain"
)

// chatStreamServer serves an SSE chat completion stream with the given tokens.
func chatStreamServer(t *testing.T, tokens []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")

		flusher := w.(http.Flusher)
		for _, tok := range tokens {
			fmt.Fprintf(w,
				"data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n",
				tok)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
}

func newTestGenerator(baseURL string) *Generator {
	return NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestGenerator_StreamsTokens(t *testing.T) {
	server := chatStreamServer(t, []string{"Hello", " ", "world"})
	defer server.Close()

	g := newTestGenerator(server.URL)

	stream, err := g.Generate(context.Background(), domain.Prompt{System: "sys", User: "question"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer stream.Close()

	var got string
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		got += tok
	}

	if got != "Hello world" {
		t.Errorf("streamed %q, expected %q", got, "Hello world")
	}
}

func TestGenerator_SkipsEmptyDeltas(t *testing.T) {
	server := chatStreamServer(t, []string{"", "a", "", "b"})
	defer server.Close()

	g := newTestGenerator(server.URL)

	stream, err := g.Generate(context.Background(), domain.Prompt{User: "q"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer stream.Close()

	var toks []string
	for {
		tok, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		toks = append(toks, tok)
	}

	if len(toks) != 2 || toks[0] != "a" || toks[1] != "b" {
		t.Errorf("tokens %v, expected [a b]", toks)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	g := newTestGenerator(server.URL)

	_, err := g.Generate(context.Background(), domain.Prompt{User: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrChatProvider) {
		t.Errorf("expected ErrChatProvider, got %v", err)
	}
}

func TestGenerator_CloseBeforeDrain(t *testing.T) {
	server := chatStreamServer(t, []string{"a", "b", "c"})
	defer server.Close()

	g := newTestGenerator(server.URL)

	stream, err := g.Generate(context.Background(), domain.Prompt{User: "q"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
