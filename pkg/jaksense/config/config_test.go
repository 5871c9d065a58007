package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Policy.Labels != 2 || cfg.Policy.NoMatch != "empty" {
		t.Errorf("unexpected default policy %+v", cfg.Policy)
	}
	if cfg.Sentiment.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Sentiment.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "jaksense.yaml", `
policy:
  labels: 3
  no_match: other
sentiment:
  backend: model
  model_url: http://localhost:9000/classify
  timeout: 750ms
store:
  driver: sqlite
  path: /tmp/sessions.db
  session_ttl: 2h
server:
  addr: ":9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy.Labels != 3 || cfg.Policy.NoMatch != "other" {
		t.Errorf("policy = %+v", cfg.Policy)
	}
	if cfg.Policy.OtherLabel != "Lainnya" {
		t.Errorf("unset fields should keep defaults, other_label = %q", cfg.Policy.OtherLabel)
	}
	if cfg.Sentiment.Timeout != 750*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Sentiment.Timeout)
	}
	if cfg.Store.Driver != StoreSQLite || cfg.Store.SessionTTL != 2*time.Hour {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.PruneInterval != 10*time.Minute {
		t.Errorf("prune interval default lost: %v", cfg.Store.PruneInterval)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/jaksense.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "policy: [unclosed")
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JAKSENSE_ADDR", ":7000")
	t.Setenv("JAKSENSE_LOG_LEVEL", "debug")
	t.Setenv("JAKSENSE_LOG_JSON", "true")
	t.Setenv("JAKSENSE_SENTIMENT_BACKEND", "openai")
	t.Setenv("JAKSENSE_OPENAI_API_KEY", "sk-test")
	t.Setenv("JAKSENSE_SENTIMENT_TIMEOUT", "5s")
	t.Setenv("JAKSENSE_TELEGRAM_ENABLED", "1")
	t.Setenv("JAKSENSE_TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("server/log overrides not applied: %+v %+v", cfg.Server, cfg.Log)
	}
	if cfg.Sentiment.Backend != BackendOpenAI || cfg.Sentiment.OpenAIAPIKey != "sk-test" {
		t.Errorf("sentiment overrides not applied: %+v", cfg.Sentiment)
	}
	if cfg.Sentiment.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Sentiment.Timeout)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.Token != "123:abc" {
		t.Errorf("telegram = %+v", cfg.Telegram)
	}
}

func TestEnvBadValues(t *testing.T) {
	t.Setenv("JAKSENSE_LOG_JSON", "sometimes")
	if _, err := Load(""); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("bad bool: expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"labels":         func(c *Config) { c.Policy.Labels = 5 },
		"no match":       func(c *Config) { c.Policy.NoMatch = "random" },
		"backend":        func(c *Config) { c.Sentiment.Backend = "bert" },
		"model url":      func(c *Config) { c.Sentiment.Backend = BackendModel },
		"openai key":     func(c *Config) { c.Sentiment.Backend = BackendOpenAI },
		"timeout":        func(c *Config) { c.Sentiment.Timeout = 0 },
		"driver":         func(c *Config) { c.Store.Driver = "redis" },
		"sqlite path":    func(c *Config) { c.Store.Driver = StoreSQLite },
		"negative ttl":   func(c *Config) { c.Store.SessionTTL = -time.Second },
		"telegram token": func(c *Config) { c.Telegram.Enabled = true },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}
