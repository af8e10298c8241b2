package parchment

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background(), WithOpenAI("sk-test"))
	if err == nil {
		t.Fatal("expected error without database address")
	}
}

func TestNew_NoAPIKey(t *testing.T) {
	_, err := New(context.Background(), WithRedis("localhost:6379", ""))
	if err == nil {
		t.Fatal("expected error without api key")
	}
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("got %v, want ErrMissingCredential", err)
	}
}

func TestOptions_Defaults(t *testing.T) {
	cfg := &clientConfig{
		embeddingModel: "text-embedding-3-small",
		chatModel:      "gpt-4o-mini",
		dimensions:     1536,
		chunkMin:       800,
		chunkMax:       1200,
		chunkOverlap:   200,
		topK:           4,
	}

	for _, o := range []Option{
		WithModels("", ""),
		WithDimensions(0),
		WithTopK(0),
	} {
		o(cfg)
	}

	if cfg.embeddingModel != "text-embedding-3-small" || cfg.chatModel != "gpt-4o-mini" {
		t.Errorf("empty model overrides must keep defaults, got %s/%s", cfg.embeddingModel, cfg.chatModel)
	}
	if cfg.dimensions != 1536 {
		t.Errorf("dimensions: got %d, want 1536", cfg.dimensions)
	}
	if cfg.topK != 4 {
		t.Errorf("topK: got %d, want 4", cfg.topK)
	}
}

func TestOptions_Apply(t *testing.T) {
	cfg := &clientConfig{}

	for _, o := range []Option{
		WithRedis("redis:6379", "pass"),
		WithOpenAI("sk-test"),
		WithBaseURL("https://llm.internal/v1"),
		WithModels("text-embedding-3-large", "gpt-4o"),
		WithDimensions(3072),
		WithMaxInputChars(8000),
		WithChunking(500, 900, 100),
		WithTopK(8),
		WithMinScore(0.3),
		WithEmbeddingCacheTTL(time.Hour),
	} {
		o(cfg)
	}

	if len(cfg.addrs) != 1 || cfg.addrs[0] != "redis:6379" || cfg.password != "pass" {
		t.Errorf("redis config not applied: %+v", cfg.addrs)
	}
	if cfg.apiKey != "sk-test" || cfg.baseURL != "https://llm.internal/v1" {
		t.Errorf("provider config not applied")
	}
	if cfg.embeddingModel != "text-embedding-3-large" || cfg.chatModel != "gpt-4o" {
		t.Errorf("models not applied: %s/%s", cfg.embeddingModel, cfg.chatModel)
	}
	if cfg.dimensions != 3072 || cfg.maxInputChars != 8000 {
		t.Errorf("dimensions/maxInputChars not applied")
	}
	if cfg.chunkMin != 500 || cfg.chunkMax != 900 || cfg.chunkOverlap != 100 {
		t.Errorf("chunking not applied: %d/%d/%d", cfg.chunkMin, cfg.chunkMax, cfg.chunkOverlap)
	}
	if cfg.topK != 8 || cfg.minScore != 0.3 {
		t.Errorf("retrieval settings not applied")
	}
	if cfg.cacheTTL != time.Hour {
		t.Errorf("cache ttl not applied: %v", cfg.cacheTTL)
	}
}
