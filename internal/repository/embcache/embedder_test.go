package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/parchment-labs/parchment/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalled = true
		return nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if !setCalled {
		t.Fatal("expected SET to be called for cache put")
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{9, 9, 9},
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := []float32{0.1, 0.2, 0.3}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return vectorToCacheBytes(cached), nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("inner embedder must not be called on hit, got %d calls", inner.calls)
	}
	if len(result.Embedding) != 3 || result.Embedding[2] != 0.3 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	// a hit consumes no provider tokens
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on hit, got %d", result.TotalTokens)
	}
}

func TestEmbed_CacheKeyIsContentHash(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	keys := map[string]bool{}
	ms.setFn = func(_ context.Context, key string, _ []byte) error {
		keys[key] = true
		return nil
	}

	for _, text := range []string{"alpha", "beta", "alpha"} {
		if _, err := ce.Embed(context.Background(), text); err != nil {
			t.Fatal(err)
		}
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 distinct cache keys, got %d: %v", len(keys), keys)
	}
	for key := range keys {
		if !strings.HasPrefix(key, "parchment:emb_cache:") {
			t.Errorf("key %q missing cache prefix", key)
		}
	}
}

func TestEmbed_GetErrorFallsThroughToInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}

	result, err := ce.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("get failure must not surface: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner call, got %d", inner.calls)
	}
	if len(result.Embedding) != 2 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}

func TestEmbed_SetErrorIsNonFatal(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("oom")
	}

	if _, err := ce.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("set failure must not surface: %v", err)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	sentinel := errors.New("provider down")
	inner := &mockEmbedder{err: sentinel}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "text")
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestEmbed_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	if _, err := ce.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner call after corrupt entry, got %d", inner.calls)
	}
}

func TestEmbed_WithTTLUsesExpiringSet(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ce.WithTTL(time.Hour)

	var gotTTL time.Duration
	var plainSet bool
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		plainSet = true
		return nil
	}
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}

	if _, err := ce.Embed(context.Background(), "text"); err != nil {
		t.Fatal(err)
	}
	if plainSet {
		t.Error("plain SET used despite configured TTL")
	}
	if gotTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", gotTTL)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 3}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("got %v, want %v", out, in)
		}
	}
}
