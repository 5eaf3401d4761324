package domain

import "encoding/json"

// DoneMarker is the sentinel line that terminates a conversation stream.
const DoneMarker = "[DONE]"

// ResultHit is one retrieved record within a result group.
type ResultHit struct {
	// DocumentID is the identifier of the matched record.
	DocumentID string `json:"document_id"`

	// Text is the matched chunk text, used to build the retrieval context.
	Text string `json:"text"`
}

// ResultGroup is a set of retrieval hits from one index collection.
type ResultGroup struct {
	// Collection is the index collection the hits came from.
	Collection string `json:"collection"`

	// Hits are the retrieved records.
	Hits []ResultHit `json:"hits"`
}

// ConversationEvent is one parsed unit of a streaming backend response.
// Any combination of the payload fields may be present on a single event.
type ConversationEvent struct {
	// ConversationID identifies the conversation, when carried.
	ConversationID string `json:"conversation_id,omitempty"`

	// Message is an incremental assistant message delta.
	Message string `json:"message,omitempty"`

	// Results is the retrieval result set, when carried.
	Results []ResultGroup `json:"results,omitempty"`

	// Raw is the original line the event was parsed from.
	Raw string `json:"-"`

	// Done marks the terminal [DONE] sentinel.
	Done bool `json:"-"`
}

// ParseConversationEvent parses one stream line into a ConversationEvent.
// It returns nil for blank or unparseable lines, which are discarded.
func ParseConversationEvent(line string) *ConversationEvent {
	if line == "" {
		return nil
	}
	if line == DoneMarker {
		return &ConversationEvent{Raw: line, Done: true}
	}

	var event ConversationEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return nil
	}
	event.Raw = line
	return &event
}

// ChunkSource is a cited retrieval source surfaced to the caller.
type ChunkSource struct {
	// Collection is the index collection the source came from.
	Collection string `json:"collection"`

	// DocumentType is the human-facing label for the collection.
	DocumentType string `json:"document_type"`

	// DocumentID identifies the cited record.
	DocumentID string `json:"document_id"`
}
