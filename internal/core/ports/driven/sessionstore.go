package driven

import (
	"context"
	"time"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// SessionQuery is an equality/range filter over the session collection.
// Zero-valued fields are not part of the filter.
type SessionQuery struct {
	// UserID filters by session owner.
	UserID string

	// ConversationID filters by conversation.
	ConversationID string

	// Status filters by lifecycle state.
	Status domain.SessionStatus

	// ActiveAfter filters sessions whose last activity is strictly after
	// this instant.
	ActiveAfter time.Time

	// Limit caps the number of returned sessions (0 = no limit).
	Limit int
}

// SessionPatch is a partial update applied to matching sessions.
// Nil fields are left untouched.
type SessionPatch struct {
	// Status transitions the lifecycle state.
	Status *domain.SessionStatus

	// ClosedAt stamps the close time.
	ClosedAt *time.Time

	// AppendMessage appends one turn to the message list and refreshes
	// last_activity.
	AppendMessage *domain.ChatMessage

	// AddTokens and AddCost accumulate usage totals.
	AddTokens int
	AddCost   float64
}

// SessionStore persists chat sessions in a document collection with
// find/update-by-filter semantics.
type SessionStore interface {
	// Find returns sessions matching the query, sorted by last_activity
	// descending.
	Find(ctx context.Context, q SessionQuery) ([]domain.ChatSession, error)

	// Create inserts a new session.
	Create(ctx context.Context, session domain.ChatSession) error

	// Update applies the patch to sessions matching the query and
	// returns the number of sessions updated.
	Update(ctx context.Context, q SessionQuery, patch SessionPatch) (int, error)
}
