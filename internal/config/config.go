// Package config loads the contentsync configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// Embedding provider tags.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the top-level configuration, loaded from
// ~/.contentsync/config.toml unless overridden.
type Config struct {
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`

	// DataDir holds local state (session database, spending log).
	// Defaults to ~/.contentsync/data.
	DataDir string `toml:"data_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	Tables    []TableConfig   `toml:"tables"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "gemini".
	Provider string `toml:"provider"`

	// Model overrides the provider's default embedding model.
	Model string `toml:"model"`

	// Dimensions overrides the default vector size.
	Dimensions int `toml:"dimensions"`

	// APIKey authenticates against the provider. The OPENAI_API_KEY or
	// GEMINI_API_KEY environment variable takes precedence so keys can be
	// kept out of the config file.
	APIKey string `toml:"api_key"`
}

// QdrantConfig holds search backend connection settings.
type QdrantConfig struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
	UseTLS bool   `toml:"use_tls"`
}

// TableConfig is the declarative file form of a sync table.
type TableConfig struct {
	Slug           string   `toml:"slug"`
	CollectionName string   `toml:"collection_name"`
	Strategy       string   `toml:"strategy"`
	Fields         []string `toml:"fields"`
	EmbedFields    []string `toml:"embed_fields"`

	ChunkStrategy string `toml:"chunk_strategy"`
	ChunkSize     int    `toml:"chunk_size"`
	ChunkOverlap  int    `toml:"chunk_overlap"`
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".contentsync", "config.toml"), nil
}

// Load reads the configuration from path. A missing file yields the zero
// config with environment overrides applied, not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through with defaults.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// SyncTables converts the declarative table entries into domain table
// configurations.
func (c *Config) SyncTables() ([]domain.TableConfig, error) {
	tables := make([]domain.TableConfig, 0, len(c.Tables))
	for _, t := range c.Tables {
		table := domain.TableConfig{
			Slug:           t.Slug,
			CollectionName: t.CollectionName,
		}
		for _, field := range t.Fields {
			table.Fields = append(table.Fields, domain.FieldMapping{Source: field})
		}
		for _, field := range t.EmbedFields {
			table.EmbedFields = append(table.EmbedFields, domain.SourceField{Field: field})
		}

		switch strings.ToLower(t.Strategy) {
		case "", "whole":
			table.Strategy = domain.StrategyWhole
		case "chunked":
			table.Strategy = domain.StrategyChunked
			table.Chunking = &domain.ChunkingConfig{
				Strategy: domain.ChunkStrategy(t.ChunkStrategy),
				Size:     t.ChunkSize,
				Overlap:  t.ChunkOverlap,
			}
			if t.ChunkStrategy == "" {
				table.Chunking.Strategy = domain.ChunkPlain
			}
		default:
			return nil, fmt.Errorf("%w: unknown sync strategy %q for table %s",
				domain.ErrInvalidInput, t.Strategy, t.Slug)
		}

		if err := table.Validate(); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (c *Config) applyEnv() {
	switch c.Embedding.Provider {
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.Embedding.APIKey = key
		}
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.Embedding.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		c.Qdrant.APIKey = key
	}
}

func (c *Config) applyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".contentsync", "data")
		}
	}
}
