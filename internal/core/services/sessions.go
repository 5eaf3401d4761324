package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driven"
	"github.com/nexo-labs/contentsync/internal/core/ports/driving"
	"github.com/nexo-labs/contentsync/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionManager = (*SessionService)(nil)

// SessionService manages chat session lifecycle on top of a SessionStore.
type SessionService struct {
	store  driven.SessionStore
	window time.Duration
	now    func() time.Time
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithActiveWindow overrides the activity window used for active-session
// lookups.
func WithActiveWindow(d time.Duration) SessionOption {
	return func(s *SessionService) {
		if d > 0 {
			s.window = d
		}
	}
}

// NewSessionService creates a session service with the default 24 hour
// activity window.
func NewSessionService(store driven.SessionStore, opts ...SessionOption) *SessionService {
	s := &SessionService{
		store:  store,
		window: domain.DefaultActiveSessionWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetActiveSession returns the user's most recently active session within
// the activity window, or nil when none qualifies. A session outside the
// window stays in active status but is no longer resumed.
func (s *SessionService) GetActiveSession(ctx context.Context, userID string) (*domain.ChatSession, error) {
	sessions, err := s.store.Find(ctx, driven.SessionQuery{
		UserID:      userID,
		Status:      domain.SessionActive,
		ActiveAfter: s.now().Add(-s.window),
		Limit:       1,
	})
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// GetSessionByConversationID returns the user's session for a conversation
// regardless of status, or nil when none exists.
func (s *SessionService) GetSessionByConversationID(ctx context.Context, userID, conversationID string) (*domain.ChatSession, error) {
	sessions, err := s.store.Find(ctx, driven.SessionQuery{
		UserID:         userID,
		ConversationID: conversationID,
		Limit:          1,
	})
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", conversationID, err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// CloseSession transitions an active session to closed and returns its
// pre-close snapshot carrying the new status and close time. Closing a
// session that is missing or already closed returns nil.
func (s *SessionService) CloseSession(ctx context.Context, userID, conversationID string) (*domain.ChatSession, error) {
	query := driven.SessionQuery{
		UserID:         userID,
		ConversationID: conversationID,
		Status:         domain.SessionActive,
		Limit:          1,
	}

	sessions, err := s.store.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", conversationID, err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	session := sessions[0]

	closedAt := s.now()
	status := domain.SessionClosed
	if _, err := s.store.Update(ctx, query, driven.SessionPatch{
		Status:   &status,
		ClosedAt: &closedAt,
	}); err != nil {
		return nil, fmt.Errorf("close session %s: %w", conversationID, err)
	}

	session.Status = domain.SessionClosed
	session.ClosedAt = &closedAt
	return &session, nil
}

// RecordTurn appends one turn to the conversation's active session and
// accumulates its usage. When no session exists for the conversation yet,
// a new active one is created. A closed session never accepts turns:
// recording against one returns ErrSessionClosed.
func (s *SessionService) RecordTurn(ctx context.Context, userID, conversationID string, msg domain.ChatMessage, spend domain.SpendingEntry) error {
	updated, err := s.store.Update(ctx, driven.SessionQuery{
		UserID:         userID,
		ConversationID: conversationID,
		Status:         domain.SessionActive,
	}, driven.SessionPatch{
		AppendMessage: &msg,
		AddTokens:     spend.Tokens.Total,
		AddCost:       spend.CostUSD,
	})
	if err != nil {
		return fmt.Errorf("record turn for %s: %w", conversationID, err)
	}
	if updated > 0 {
		return nil
	}

	existing, err := s.GetSessionByConversationID(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("record turn for %s: %w", conversationID, domain.ErrSessionClosed)
	}

	logger.Debug("Creating session for conversation %s", conversationID)
	session := domain.ChatSession{
		ConversationID: conversationID,
		UserID:         userID,
		Messages:       []domain.ChatMessage{msg},
		Status:         domain.SessionActive,
		TotalTokens:    spend.Tokens.Total,
		TotalCost:      spend.CostUSD,
		LastActivity:   s.now(),
	}
	if err := s.store.Create(ctx, session); err != nil {
		return fmt.Errorf("create session for %s: %w", conversationID, err)
	}
	return nil
}
