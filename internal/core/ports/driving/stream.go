package driving

import (
	"context"
	"io"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

// StreamEventType identifies an application-level event emitted while a
// conversation stream is consumed.
type StreamEventType string

const (
	// EventConversationID carries the captured conversation id (once).
	EventConversationID StreamEventType = "conversation_id"

	// EventSources carries the cited retrieval sources (once).
	EventSources StreamEventType = "sources"

	// EventToken carries one incremental assistant message delta.
	EventToken StreamEventType = "token"

	// EventDone marks the end of the stream.
	EventDone StreamEventType = "done"
)

// StreamEvent is one application-level event forwarded downstream.
type StreamEvent struct {
	Type StreamEventType

	// Data is the delta text or conversation id, depending on Type.
	Data string

	// Sources is set for EventSources.
	Sources []domain.ChunkSource
}

// EventSink receives stream events as they are produced.
type EventSink func(event StreamEvent)

// StreamResult summarises a fully consumed conversation stream.
type StreamResult struct {
	// AssistantMessage is the accumulated assistant response.
	AssistantMessage string

	// ConversationID is the captured conversation id, if any.
	ConversationID string

	// Sources are the cited retrieval sources, if any.
	Sources []domain.ChunkSource

	// Spending is the derived cost/usage record for the LLM call.
	Spending domain.SpendingEntry
}

// ConversationStreamer reassembles a retrieval backend's incremental
// response protocol into structured events and spend accounting.
type ConversationStreamer interface {
	// Process consumes the stream until EOF or cancellation, forwarding
	// events to sink. The body is closed on every exit path.
	Process(ctx context.Context, body io.ReadCloser, sink EventSink) (*StreamResult, error)
}
