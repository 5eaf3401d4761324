package driving

import (
	"context"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// SessionManager looks up, records and closes chat sessions.
// Lookup misses are values (nil), never errors.
type SessionManager interface {
	// GetActiveSession returns the user's most recent active session
	// within the configured activity window, or nil.
	GetActiveSession(ctx context.Context, userID string) (*domain.ChatSession, error)

	// GetSessionByConversationID returns the user's session for a
	// conversation, or nil.
	GetSessionByConversationID(ctx context.Context, userID, conversationID string) (*domain.ChatSession, error)

	// CloseSession transitions a session to closed and returns the
	// pre-close snapshot with the new status, or nil when no active
	// session matches.
	CloseSession(ctx context.Context, userID, conversationID string) (*domain.ChatSession, error)

	// RecordTurn appends a turn to a session and accumulates usage.
	RecordTurn(ctx context.Context, userID, conversationID string, msg domain.ChatMessage, spend domain.SpendingEntry) error
}
