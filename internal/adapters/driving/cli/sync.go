package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

var syncUpdate bool

var syncCmd = &cobra.Command{
	Use:   "sync <collection> <documents.json>",
	Short: "Index documents from a JSON file",
	Long: `Reads a JSON array of documents and indexes them into the collection's
configured search index table. Documents are chunked and embedded
according to the table configuration.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncUpdate, "update", false, "treat documents as updates (removes stale chunks first)")
	rootCmd.AddCommand(syncCmd)
}

// jsonDocument is the file form of a source document.
type jsonDocument struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Fields      map[string]any `json:"fields"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
}

func runSync(cmd *cobra.Command, args []string) error {
	collection, path := args[0], args[1]

	built, err := buildSyncers(cmd.Context())
	if err != nil {
		return err
	}
	syncer, ok := built[collection]
	if !ok {
		return fmt.Errorf("no table configured for collection %q", collection)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading documents: %w", err)
	}

	var docs []jsonDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parsing documents: %w", err)
	}

	op := domain.OpCreate
	if syncUpdate {
		op = domain.OpUpdate
	}

	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document without id in %s", path)
		}
		syncer.Sync(cmd.Context(), domain.SourceDocument{
			ID:          doc.ID,
			Slug:        doc.Slug,
			Fields:      doc.Fields,
			CreatedAt:   doc.CreatedAt,
			UpdatedAt:   doc.UpdatedAt,
			PublishedAt: doc.PublishedAt,
		}, op)
	}

	cmd.Printf("Synced %d documents to %s.\n", len(docs), collection)
	return nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <doc-id>",
	Short: "Remove a document from the search index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, docID := args[0], args[1]

		built, err := buildSyncers(cmd.Context())
		if err != nil {
			return err
		}
		syncer, ok := built[collection]
		if !ok {
			return fmt.Errorf("no table configured for collection %q", collection)
		}

		syncer.Delete(cmd.Context(), docID)
		cmd.Printf("Deleted %s from %s.\n", docID, collection)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
