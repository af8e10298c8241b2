package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parchment-labs/parchment/internal/domain"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const minimalConfig = `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
provider:
  api_key: "sk-test"
`

func TestLoad_AppliesDefaults(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunking.MinSize != 800 || cfg.Chunking.MaxSize != 1200 || cfg.Chunking.Overlap != 200 {
		t.Errorf("chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.K != 4 {
		t.Errorf("retrieval.k default: %d", cfg.Retrieval.K)
	}
	if cfg.Provider.EmbeddingModel == "" || cfg.Provider.ChatModel == "" {
		t.Error("model defaults not applied")
	}
	if cfg.Provider.Dimensions != 1536 {
		t.Errorf("dimensions default: %d", cfg.Provider.Dimensions)
	}
	if cfg.HTTP.WriteTimeoutSec < 60 {
		t.Errorf("write timeout %ds too short for streaming responses", cfg.HTTP.WriteTimeoutSec)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	writeConfig(t, `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
provider:
  api_key: ""
`)

	_, err := Load("test")
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("got %v, want ErrMissingCredential", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-from-env")
	writeConfig(t, `
http:
  port: 8080
database:
  addrs: ["${TEST_REDIS_ADDR:-localhost:6379}"]
provider:
  api_key: "${TEST_API_KEY}"
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("api key: %q", cfg.Provider.APIKey)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("default fallback: %q", cfg.Database.Addrs[0])
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{}
		c.HTTP.Port = 8080
		c.Database.Addrs = []string{"localhost:6379"}
		c.Provider.APIKey = "sk-test"
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, true},
		{"max below min", func(c *Config) { c.Chunking.MaxSize = 100 }, true},
		{"overlap too big", func(c *Config) { c.Chunking.Overlap = 900 }, true},
		{"min score out of range", func(c *Config) { c.Retrieval.MinScore = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("default env: %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("env: %q", got)
	}
}
