// Package memory provides an in-memory session store for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store is an in-memory implementation of driven.SessionStore.
type Store struct {
	mu       sync.RWMutex
	sessions []domain.ChatSession
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{}
}

// Find returns sessions matching the query, sorted by last activity
// descending.
func (s *Store) Find(_ context.Context, q driven.SessionQuery) ([]domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChatSession
	for _, session := range s.sessions {
		if matches(session, q) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Create inserts a new session.
func (s *Store) Create(_ context.Context, session domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
	return nil
}

// Update applies the patch to matching sessions and returns the number
// updated.
func (s *Store) Update(_ context.Context, q driven.SessionQuery, patch driven.SessionPatch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for i := range s.sessions {
		if !matches(s.sessions[i], q) {
			continue
		}
		apply(&s.sessions[i], patch)
		updated++
	}
	return updated, nil
}

func matches(session domain.ChatSession, q driven.SessionQuery) bool {
	if q.UserID != "" && session.UserID != q.UserID {
		return false
	}
	if q.ConversationID != "" && session.ConversationID != q.ConversationID {
		return false
	}
	if q.Status != "" && session.Status != q.Status {
		return false
	}
	if !q.ActiveAfter.IsZero() && !session.LastActivity.After(q.ActiveAfter) {
		return false
	}
	return true
}

func apply(session *domain.ChatSession, patch driven.SessionPatch) {
	if patch.Status != nil {
		session.Status = *patch.Status
	}
	if patch.ClosedAt != nil {
		closedAt := *patch.ClosedAt
		session.ClosedAt = &closedAt
	}
	if patch.AppendMessage != nil {
		session.Messages = append(session.Messages, *patch.AppendMessage)
		session.LastActivity = lastActivityFor(patch.AppendMessage)
	}
	session.TotalTokens += patch.AddTokens
	session.TotalCost += patch.AddCost
}

func lastActivityFor(msg *domain.ChatMessage) time.Time {
	if !msg.Timestamp.IsZero() {
		return msg.Timestamp
	}
	return time.Now()
}
