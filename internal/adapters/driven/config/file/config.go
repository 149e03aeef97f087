// Package file loads docdex configuration from a TOML file.
// Provider credentials never live in the file; they arrive via the
// process environment.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultCacheTTL       = 5 * time.Minute
	DefaultMaxConcurrency = 10
)

// Config is the full docdex configuration.
type Config struct {
	// Corpus configures where documents live and how they are cached.
	Corpus CorpusConfig `toml:"corpus"`

	// Vector configures the vector store.
	Vector VectorConfig `toml:"vector"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Generation configures the answer synthesis provider.
	Generation GenerationConfig `toml:"generation"`

	// Reranker configures the cross-encoder provider.
	Reranker RerankerConfig `toml:"reranker"`
}

// CorpusConfig locates and tunes the corpus.
type CorpusConfig struct {
	// Root is the corpus root directory (required).
	Root string `toml:"root"`

	// CacheTTLMs is the index cache lifetime in milliseconds
	// (default 300000).
	CacheTTLMs int64 `toml:"cache_ttl_ms"`

	// Watch enables the file watcher (default true).
	Watch *bool `toml:"watch"`

	// MaxConcurrency bounds parallel embed batches (default 10).
	MaxConcurrency int `toml:"max_concurrency"`
}

// VectorConfig locates the vector store.
type VectorConfig struct {
	// DataDir is where the store keeps its database
	// (default ~/.docdex/data).
	DataDir string `toml:"data_dir"`

	// Collection names the chunk collection (default chunks).
	Collection string `toml:"collection"`
}

// EmbeddingConfig selects the embedding model.
type EmbeddingConfig struct {
	// Provider is "openai" or "hash" (default openai when a key is
	// present, hash otherwise).
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions overrides the model's vector width.
	Dimensions int `toml:"dimensions"`
}

// GenerationConfig selects the synthesis model.
type GenerationConfig struct {
	// Model is the generation model name.
	Model string `toml:"model"`
}

// RerankerConfig selects the cross-encoder.
type RerankerConfig struct {
	// Enabled turns reranking on (default false).
	Enabled bool `toml:"enabled"`

	// Model is the rerank model name.
	Model string `toml:"model"`

	// TopK is how many candidates survive reranking (default 6).
	TopK int `toml:"top_k"`
}

// CacheTTL returns the configured index TTL.
func (c *Config) CacheTTL() time.Duration {
	if c.Corpus.CacheTTLMs <= 0 {
		return DefaultCacheTTL
	}
	return time.Duration(c.Corpus.CacheTTLMs) * time.Millisecond
}

// WatchEnabled reports whether the watcher should run.
func (c *Config) WatchEnabled() bool {
	return c.Corpus.Watch == nil || *c.Corpus.Watch
}

// DefaultPath returns ~/.docdex/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docdex", "config.toml"), nil
}

// Load reads configuration from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Corpus.CacheTTLMs <= 0 {
		cfg.Corpus.CacheTTLMs = DefaultCacheTTL.Milliseconds()
	}
	if cfg.Corpus.MaxConcurrency <= 0 {
		cfg.Corpus.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "chunks"
	}
}
