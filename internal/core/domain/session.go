package domain

import "time"

// SessionStatus is the lifecycle state of a chat session.
type SessionStatus string

const (
	// SessionActive marks a session still accepting turns.
	SessionActive SessionStatus = "active"

	// SessionClosed marks a finished session. The transition is monotonic:
	// active to closed only.
	SessionClosed SessionStatus = "closed"
)

// DefaultActiveSessionWindow bounds how stale a session may be and still
// count as active.
const DefaultActiveSessionWindow = 24 * time.Hour

// ChatMessage is one conversational turn persisted on a session.
type ChatMessage struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Sources are the cited retrieval sources for assistant turns.
	Sources []ChunkSource `json:"sources,omitempty"`

	// Timestamp is when the turn completed.
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is the persisted state of one conversation.
type ChatSession struct {
	// ConversationID is unique per user.
	ConversationID string `json:"conversation_id"`

	// UserID owns the session.
	UserID string `json:"user_id"`

	// Messages are the ordered conversational turns.
	Messages []ChatMessage `json:"messages"`

	// Status is active or closed.
	Status SessionStatus `json:"status"`

	// TotalTokens accumulates token usage across turns.
	TotalTokens int `json:"total_tokens"`

	// TotalCost accumulates spend in USD across turns.
	TotalCost float64 `json:"total_cost"`

	// LastActivity is when the session last saw a turn.
	LastActivity time.Time `json:"last_activity"`

	// ClosedAt is set when the session is closed.
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}
