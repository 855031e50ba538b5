// Package config provides configuration loading for bunko.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	QA        QAConfig        `yaml:"qa"`
	Search    SearchConfig    `yaml:"search"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the persisted index files, the keyword index
// directory, and the source catalog database.
type StorageConfig struct {
	IndexPath      string `yaml:"index_path"`
	MetadataPath   string `yaml:"metadata_path"`
	KeywordDirPath string `yaml:"keyword_dir_path"`
	CatalogPath    string `yaml:"catalog_path"`
}

// EmbeddingConfig holds OpenAI embedding settings. The API key comes from the
// OPENAI_API_KEY environment variable (or a .env file), never from yaml.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// QAConfig holds answer-generation settings.
type QAConfig struct {
	Model string `yaml:"model"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
	// Fallback enables the keyword channel when the dense channel
	// underdelivers. Defaults to true when unset.
	Fallback *bool `yaml:"fallback"`
	// MaxDistance is the distance at which the displayed relevance score
	// bottoms out.
	MaxDistance float64 `yaml:"max_distance"`
}

// FallbackOrDefault returns whether keyword fallback is enabled; defaults to
// true when unset.
func (s *SearchConfig) FallbackOrDefault() bool {
	if s.Fallback != nil {
		return *s.Fallback
	}
	return true
}

// ClampTopK applies the configured floor and ceiling to a requested hit
// count: non-positive requests get DefaultTopK, requests above MaxTopK are
// capped.
func (s *SearchConfig) ClampTopK(topK int) int {
	if topK <= 0 {
		topK = s.DefaultTopK
	}
	if s.MaxTopK > 0 && topK > s.MaxTopK {
		topK = s.MaxTopK
	}
	return topK
}

// ChunkingConfig holds token-window chunking settings.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
}

// Load reads and parses the config file at path, expands relative paths, and
// applies defaults. A .env file next to the config (or in the working
// directory) is loaded for the OpenAI API key; a missing .env is not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	_ = godotenv.Load()

	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Storage.MetadataPath = expandPath(cfg.Storage.MetadataPath, configDir)
	cfg.Storage.KeywordDirPath = expandPath(cfg.Storage.KeywordDirPath, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	return &cfg, nil
}

// Default returns a config built entirely from defaults, loading a .env file
// from the working directory when present.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	_ = godotenv.Load()
	return cfg
}

// APIKey returns the OpenAI API key from the environment.
func APIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
