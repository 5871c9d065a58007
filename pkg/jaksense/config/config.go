package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
)

// Sentiment backends.
const (
	BackendLexicon = "lexicon"
	BackendModel   = "model"
	BackendOpenAI  = "openai"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the YAML configuration file.
type Config struct {
	Taxonomy  Taxonomy  `yaml:"taxonomy"`
	Policy    Policy    `yaml:"policy"`
	Sentiment Sentiment `yaml:"sentiment"`
	Dataset   Dataset   `yaml:"dataset"`
	Store     Store     `yaml:"store"`
	Server    Server    `yaml:"server"`
	Telegram  Telegram  `yaml:"telegram"`
	Log       Log       `yaml:"log"`
}

// Taxonomy points at replacement taxonomy files. Empty paths use the
// embedded data.
type Taxonomy struct {
	ProblemPath    string `yaml:"problem"`
	GoodAspectPath string `yaml:"good_aspect"`
}

// Policy configures the sentiment router.
type Policy struct {
	Labels     int    `yaml:"labels"`
	NoMatch    string `yaml:"no_match"`
	OtherLabel string `yaml:"other_label"`
}

// Lexicon overrides the fallback word lists.
type Lexicon struct {
	Negative []string `yaml:"negative"`
	Positive []string `yaml:"positive"`
}

// Sentiment selects the classifier.
type Sentiment struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`

	ModelURL    string `yaml:"model_url"`
	ModelAPIKey string `yaml:"model_api_key"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	Lexicon Lexicon `yaml:"lexicon"`
}

// Dataset is the baseline corpus. A missing file falls back to the
// embedded sample.
type Dataset struct {
	Path string `yaml:"path"`
}

// Store configures where session collections live.
type Store struct {
	Driver        string        `yaml:"driver"`
	Path          string        `yaml:"path"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// Server configures the HTTP dashboard.
type Server struct {
	Addr         string `yaml:"addr"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// Telegram configures the optional bot channel.
type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	Debug   bool   `yaml:"debug"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	p := routing.DefaultPolicy()
	return Config{
		Policy: Policy{
			Labels:     int(p.Labels),
			NoMatch:    string(p.NoMatch),
			OtherLabel: string(p.OtherLabel),
		},
		Sentiment: Sentiment{
			Backend: BackendLexicon,
			Timeout: 3 * time.Second,
		},
		Dataset: Dataset{Path: "trial_df.csv"},
		Store: Store{
			Driver:        StoreMemory,
			SessionTTL:    24 * time.Hour,
			PruneInterval: 10 * time.Minute,
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info"},
	}
}

// Parse decodes YAML over the defaults. It does not apply the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode config: %v", internalerr.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Load reads the file at path (defaults only when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and deployment knobs from JAKSENSE_* variables.
func (c *Config) ApplyEnv() error {
	c.Server.Addr = envString("JAKSENSE_ADDR", c.Server.Addr)
	c.Log.Level = envString("JAKSENSE_LOG_LEVEL", c.Log.Level)
	c.Dataset.Path = envString("JAKSENSE_DATASET", c.Dataset.Path)
	c.Store.Driver = envString("JAKSENSE_STORE_DRIVER", c.Store.Driver)
	c.Store.Path = envString("JAKSENSE_STORE_PATH", c.Store.Path)
	c.Sentiment.Backend = envString("JAKSENSE_SENTIMENT_BACKEND", c.Sentiment.Backend)
	c.Sentiment.ModelURL = envString("JAKSENSE_MODEL_URL", c.Sentiment.ModelURL)
	c.Sentiment.ModelAPIKey = envString("JAKSENSE_MODEL_API_KEY", c.Sentiment.ModelAPIKey)
	c.Sentiment.OpenAIAPIKey = envString("JAKSENSE_OPENAI_API_KEY", c.Sentiment.OpenAIAPIKey)
	c.Telegram.Token = envString("JAKSENSE_TELEGRAM_TOKEN", c.Telegram.Token)

	var err error
	if c.Log.JSON, err = envBool("JAKSENSE_LOG_JSON", c.Log.JSON); err != nil {
		return err
	}
	if c.Telegram.Enabled, err = envBool("JAKSENSE_TELEGRAM_ENABLED", c.Telegram.Enabled); err != nil {
		return err
	}
	if c.Sentiment.Timeout, err = envDuration("JAKSENSE_SENTIMENT_TIMEOUT", c.Sentiment.Timeout); err != nil {
		return err
	}
	return nil
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if c.Policy.Labels != int(routing.TwoWay) && c.Policy.Labels != int(routing.ThreeWay) {
		return fmt.Errorf("%w: policy.labels must be 2 or 3, got %d", internalerr.ErrInvalidConfig, c.Policy.Labels)
	}
	if _, err := routing.ParseNoMatch(c.Policy.NoMatch); err != nil {
		return err
	}

	switch c.Sentiment.Backend {
	case BackendLexicon:
	case BackendModel:
		if c.Sentiment.ModelURL == "" {
			return fmt.Errorf("%w: sentiment.model_url required for the model backend", internalerr.ErrInvalidConfig)
		}
	case BackendOpenAI:
		if c.Sentiment.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: openai backend needs JAKSENSE_OPENAI_API_KEY", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sentiment backend %q", internalerr.ErrInvalidConfig, c.Sentiment.Backend)
	}
	if c.Sentiment.Timeout <= 0 {
		return fmt.Errorf("%w: sentiment.timeout must be positive", internalerr.ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path required for sqlite", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", internalerr.ErrInvalidConfig, c.Store.Driver)
	}
	if c.Store.SessionTTL < 0 || c.Store.PruneInterval < 0 {
		return fmt.Errorf("%w: store durations must not be negative", internalerr.ErrInvalidConfig)
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram enabled without JAKSENSE_TELEGRAM_TOKEN", internalerr.ErrInvalidConfig)
	}
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, key, err)
	}
	return d, nil
}
