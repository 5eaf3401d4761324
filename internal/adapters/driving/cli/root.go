// Package cli provides the contentsync command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexo-labs/contentsync/internal/adapters/driven/embedding/gemini"
	"github.com/nexo-labs/contentsync/internal/adapters/driven/embedding/openai"
	"github.com/nexo-labs/contentsync/internal/adapters/driven/index/qdrant"
	sessionsqlite "github.com/nexo-labs/contentsync/internal/adapters/driven/sessions/sqlite"
	"github.com/nexo-labs/contentsync/internal/adapters/driven/spending"
	"github.com/nexo-labs/contentsync/internal/config"
	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
	"github.com/nexo-labs/contentsync/internal/core/ports/driving"
	"github.com/nexo-labs/contentsync/internal/core/services"
	"github.com/nexo-labs/contentsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	verboseFlag bool

	cfg *config.Config

	// Injected services. Commands check for nil so tests can swap them.
	syncers        map[string]driving.DocumentSyncer
	sessionManager driving.SessionManager

	cleanups []func() error
)

var rootCmd = &cobra.Command{
	Use:   "contentsync",
	Short: "Sync content into a search index and manage chat sessions",
	Long: `contentsync projects documents from a content store into a vector
search index (whole or chunked, with embeddings) and manages the chat
sessions of the conversational retrieval layer built on top of it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		logger.SetVerbose(verboseFlag || cfg.Verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.contentsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	defer runCleanups()
	return rootCmd.Execute()
}

func runCleanups() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			logger.Warn("Cleanup failed: %v", err)
		}
	}
	cleanups = nil
}

// buildSyncers wires the sync pipeline from the loaded configuration:
// embedding provider, spending log, Qdrant index and one syncer per table.
func buildSyncers(ctx context.Context) (map[string]driving.DocumentSyncer, error) {
	if syncers != nil {
		return syncers, nil
	}

	tables, err := cfg.SyncTables()
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables configured")
	}

	recorder, err := spending.NewFileRecorder(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(ctx)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, provider.Close)
	embeddings := services.NewEmbeddingService(provider, recorder)

	index, err := qdrant.NewIndex(qdrant.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
		Dimensions: provider.Dimensions(),
	})
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, index.Close)

	built := make(map[string]driving.DocumentSyncer, len(tables))
	for _, table := range tables {
		if err := index.EnsureCollection(ctx, table.IndexCollectionName()); err != nil {
			return nil, err
		}
		syncer, err := services.NewSyncer(index, embeddings, table)
		if err != nil {
			return nil, err
		}
		built[table.Slug] = syncer
	}

	syncers = built
	return syncers, nil
}

func buildProvider(ctx context.Context) (driven.EmbeddingProvider, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderGemini:
		return gemini.NewProvider(ctx, gemini.Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case config.ProviderOpenAI:
		return openai.NewProvider(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrEmbeddingUnavailable, cfg.Embedding.Provider)
	}
}

// buildSessionManager wires the session service on the SQLite store.
func buildSessionManager() (driving.SessionManager, error) {
	if sessionManager != nil {
		return sessionManager, nil
	}

	store, err := sessionsqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, store.Close)

	sessionManager = services.NewSessionService(store)
	return sessionManager, nil
}
