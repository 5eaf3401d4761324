// Package spending persists cost/usage entries as an append-only JSONL log.
package spending

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
	"github.com/nexo-labs/contentsync/internal/logger"
)

// Ensure FileRecorder implements the interface.
var _ driven.SpendingRecorder = (*FileRecorder)(nil)

// FileRecorder appends one JSON line per spending entry. Recording is
// best-effort: a write failure is logged, never surfaced, so spend
// accounting can never break an indexing or chat path.
type FileRecorder struct {
	mu   sync.Mutex
	path string
}

// NewFileRecorder creates a recorder writing to dataDir/spending.jsonl.
func NewFileRecorder(dataDir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileRecorder{
		path: filepath.Join(dataDir, "spending.jsonl"),
	}, nil
}

// Path returns the log file path.
func (r *FileRecorder) Path() string {
	return r.path
}

// Record appends one entry.
func (r *FileRecorder) Record(entry domain.SpendingEntry) {
	line, err := json.Marshal(entry)
	if err != nil {
		logger.Error("Failed to encode spending entry (%s/%s): %v", entry.Service, entry.Model, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		logger.Error("Failed to open spending log %s: %v", r.path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		logger.Error("Failed to write spending entry: %v", err)
	}
}

// Entries reads back every recorded entry, skipping corrupt lines.
func (r *FileRecorder) Entries() ([]domain.SpendingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading spending log: %w", err)
	}

	var entries []domain.SpendingEntry
	for _, line := range splitLines(data) {
		var entry domain.SpendingEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
