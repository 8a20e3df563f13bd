// Package config provides configuration loading and structs for the regindex server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Query     QueryConfig     `yaml:"query"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the document database and index snapshots.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexDir     string `yaml:"index_dir"`
}

// EmbeddingConfig holds embedder settings. Backend selects the vectorizer:
// "hashing" needs no model file, "onnx" requires a cgo build and ModelPath.
type EmbeddingConfig struct {
	Backend    string `yaml:"backend"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// IndexConfig holds hybrid index settings. Scorer selects the semantic
// backend ("dense" or "tfidf").
type IndexConfig struct {
	Scorer            string  `yaml:"scorer"`
	LexicalWeight     float64 `yaml:"lexical_weight"`
	SemanticWeight    float64 `yaml:"semantic_weight"`
	AuthorityWeight   float64 `yaml:"authority_weight"`
	AuthorityFallback *bool   `yaml:"authority_fallback"`
}

// AuthorityFallbackOrDefault returns whether pure-authority ordering applies
// when a query matches no content; defaults to true when unset.
func (c *IndexConfig) AuthorityFallbackOrDefault() bool {
	if c.AuthorityFallback != nil {
		return *c.AuthorityFallback
	}
	return true
}

// ChunkerConfig holds hierarchical chunking limits, in characters.
type ChunkerConfig struct {
	MinChunkSize int `yaml:"min_chunk_size"`
	MaxChunkSize int `yaml:"max_chunk_size"`
	OverlapSize  int `yaml:"overlap_size"`
}

// QueryConfig holds grounded query defaults.
type QueryConfig struct {
	MaxSources         int     `yaml:"max_sources"`
	AuthorityThreshold float64 `yaml:"authority_threshold"`
}

// WatchConfig holds drop-directory ingestion settings.
type WatchConfig struct {
	Enabled    bool     `yaml:"enabled"`
	DropDir    string   `yaml:"drop_dir"`
	Extensions []string `yaml:"extensions"`
	DebounceMs int      `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Watch.DropDir != "" {
		cfg.Watch.DropDir = expandPath(cfg.Watch.DropDir, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings that would misconfigure the index or embedder.
func Validate(cfg *Config) error {
	switch cfg.Embedding.Backend {
	case "hashing", "onnx":
	default:
		return fmt.Errorf("unknown embedding backend %q", cfg.Embedding.Backend)
	}
	switch cfg.Index.Scorer {
	case "dense", "tfidf":
	default:
		return fmt.Errorf("unknown index scorer %q", cfg.Index.Scorer)
	}
	if cfg.Index.LexicalWeight < 0 || cfg.Index.SemanticWeight < 0 || cfg.Index.AuthorityWeight < 0 {
		return fmt.Errorf("index weights must be non-negative")
	}
	if cfg.Query.AuthorityThreshold < 0 || cfg.Query.AuthorityThreshold > 1 {
		return fmt.Errorf("authority_threshold %f out of range [0,1]", cfg.Query.AuthorityThreshold)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
