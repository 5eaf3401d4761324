// Package sqlite provides a SQLite-backed session store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nexo-labs/contentsync/internal/adapters/driven/sessions/sqlite/migrations"
	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.SessionStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a session store at the specified data directory. If
// dataDir is empty, defaults to ~/.contentsync/data/sessions.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".contentsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Find returns sessions matching the query, sorted by last activity
// descending.
func (s *Store) Find(ctx context.Context, q driven.SessionQuery) ([]domain.ChatSession, error) {
	query, args := buildFindQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// Create inserts a new session.
func (s *Store) Create(ctx context.Context, session domain.ChatSession) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("marshalling messages: %w", err)
	}

	var closedAt any
	if session.ClosedAt != nil {
		closedAt = session.ClosedAt.UnixMilli()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions
			(user_id, conversation_id, status, messages, total_tokens, total_cost, last_activity, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID,
		session.ConversationID,
		string(session.Status),
		string(messagesJSON),
		session.TotalTokens,
		session.TotalCost,
		session.LastActivity.UnixMilli(),
		closedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Update applies the patch to matching sessions and returns the number
// updated. Message appends require JSON rewriting, so matching rows are
// read, patched in Go and written back inside one transaction.
func (s *Store) Update(ctx context.Context, q driven.SessionQuery, patch driven.SessionPatch) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query, args := buildFindQuery(q)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("querying sessions: %w", err)
	}

	var sessions []domain.ChatSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterating sessions: %w", err)
	}
	rows.Close()

	for i := range sessions {
		applyPatch(&sessions[i], patch)

		messagesJSON, err := json.Marshal(sessions[i].Messages)
		if err != nil {
			return 0, fmt.Errorf("marshalling messages: %w", err)
		}
		var closedAt any
		if sessions[i].ClosedAt != nil {
			closedAt = sessions[i].ClosedAt.UnixMilli()
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE chat_sessions
			SET status = ?, messages = ?, total_tokens = ?, total_cost = ?, last_activity = ?, closed_at = ?
			WHERE user_id = ? AND conversation_id = ?`,
			string(sessions[i].Status),
			string(messagesJSON),
			sessions[i].TotalTokens,
			sessions[i].TotalCost,
			sessions[i].LastActivity.UnixMilli(),
			closedAt,
			sessions[i].UserID,
			sessions[i].ConversationID,
		)
		if err != nil {
			return 0, fmt.Errorf("updating session %s: %w", sessions[i].ConversationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return len(sessions), nil
}

// buildFindQuery assembles the WHERE clause for a session query.
func buildFindQuery(q driven.SessionQuery) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if q.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.ConversationID != "" {
		conditions = append(conditions, "conversation_id = ?")
		args = append(args, q.ConversationID)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(q.Status))
	}
	if !q.ActiveAfter.IsZero() {
		conditions = append(conditions, "last_activity > ?")
		args = append(args, q.ActiveAfter.UnixMilli())
	}

	query := `SELECT user_id, conversation_id, status, messages, total_tokens, total_cost, last_activity, closed_at
		FROM chat_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY last_activity DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return query, args
}

// scanSession reads one session row.
func scanSession(rows *sql.Rows) (*domain.ChatSession, error) {
	var (
		session      domain.ChatSession
		status       string
		messagesJSON string
		lastActivity int64
		closedAt     sql.NullInt64
	)
	err := rows.Scan(
		&session.UserID,
		&session.ConversationID,
		&status,
		&messagesJSON,
		&session.TotalTokens,
		&session.TotalCost,
		&lastActivity,
		&closedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Status = domain.SessionStatus(status)
	session.LastActivity = time.UnixMilli(lastActivity)
	if closedAt.Valid {
		t := time.UnixMilli(closedAt.Int64)
		session.ClosedAt = &t
	}
	if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
		return nil, fmt.Errorf("unmarshalling messages: %w", err)
	}
	return &session, nil
}

// applyPatch mutates one session according to the patch.
func applyPatch(session *domain.ChatSession, patch driven.SessionPatch) {
	if patch.Status != nil {
		session.Status = *patch.Status
	}
	if patch.ClosedAt != nil {
		closedAt := *patch.ClosedAt
		session.ClosedAt = &closedAt
	}
	if patch.AppendMessage != nil {
		session.Messages = append(session.Messages, *patch.AppendMessage)
		if !patch.AppendMessage.Timestamp.IsZero() {
			session.LastActivity = patch.AppendMessage.Timestamp
		} else {
			session.LastActivity = time.Now()
		}
	}
	session.TotalTokens += patch.AddTokens
	session.TotalCost += patch.AddCost
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
