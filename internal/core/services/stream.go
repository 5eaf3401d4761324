package services

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/nexo-labs/contentsync/internal/core/domain"
	"github.com/nexo-labs/contentsync/internal/core/ports/driving"
	"github.com/nexo-labs/contentsync/internal/logger"
)

// Ensure StreamProcessor implements the interface.
var _ driving.ConversationStreamer = (*StreamProcessor)(nil)

// llmModel is the model conversation spend is billed against.
const llmModel = "gpt-4o-mini"

// DocTypeResolver maps an index collection name to a human-facing document
// type label for cited sources.
type DocTypeResolver func(collection string) string

// DefaultDocTypeResolver labels the built-in collections.
func DefaultDocTypeResolver(collection string) string {
	switch collection {
	case "article_web_chunk":
		return "article"
	case "book_chunk":
		return "book"
	default:
		return "document"
	}
}

// StreamProcessor consumes a retrieval backend's newline-delimited
// conversation stream and reassembles it into structured events.
//
// Protocol handling follows the backend's contract: events are
// one-per-line JSON, a line may arrive split across reads, and the
// stream terminates with a [DONE] sentinel line.
type StreamProcessor struct {
	resolveDocType DocTypeResolver
}

// StreamOption configures a StreamProcessor.
type StreamOption func(*StreamProcessor)

// WithDocTypeResolver overrides the collection-to-label mapping.
func WithDocTypeResolver(r DocTypeResolver) StreamOption {
	return func(p *StreamProcessor) {
		if r != nil {
			p.resolveDocType = r
		}
	}
}

// NewStreamProcessor creates a stream processor.
func NewStreamProcessor(opts ...StreamOption) *StreamProcessor {
	p := &StreamProcessor{
		resolveDocType: DefaultDocTypeResolver,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process consumes body until the [DONE] sentinel, EOF or cancellation,
// forwarding events to sink. The body is closed on every exit path.
//
// The conversation id is captured from the first event that carries one;
// later ids are ignored. Sources are extracted from the first event that
// carries results. A trailing partial line without a newline is dropped,
// never parsed.
func (p *StreamProcessor) Process(ctx context.Context, body io.ReadCloser, sink driving.EventSink) (*driving.StreamResult, error) {
	if body == nil {
		return nil, domain.ErrNoStreamBody
	}
	defer body.Close()

	if sink == nil {
		sink = func(driving.StreamEvent) {}
	}

	var (
		message        strings.Builder
		contextText    strings.Builder
		conversationID string
		sources        []domain.ChunkSource
	)

	reader := bufio.NewReader(body)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		atEOF := err == io.EOF

		// Only a newline-terminated line is a complete event.
		if !atEOF || strings.HasSuffix(line, "\n") {
			event := domain.ParseConversationEvent(normaliseLine(line))
			if event != nil {
				if event.Done {
					// The sentinel ends the conversation. Anything the
					// backend writes after it is ignored, not drained.
					sink(driving.StreamEvent{Type: driving.EventDone})
					break
				}

				if event.ConversationID != "" && conversationID == "" {
					conversationID = event.ConversationID
					sink(driving.StreamEvent{Type: driving.EventConversationID, Data: conversationID})
				}

				if len(event.Results) > 0 && sources == nil {
					sources = p.extractSources(event.Results, &contextText)
					// Result groups without hits yield nothing to cite.
					if len(sources) > 0 {
						sink(driving.StreamEvent{Type: driving.EventSources, Sources: sources})
					}
				}

				if event.Message != "" {
					message.WriteString(event.Message)
					sink(driving.StreamEvent{Type: driving.EventToken, Data: event.Message})
				}
			}
		} else if line != "" {
			logger.Debug("Dropping partial trailing stream line (%d bytes)", len(line))
		}

		if atEOF {
			break
		}
	}

	result := &driving.StreamResult{
		AssistantMessage: message.String(),
		ConversationID:   conversationID,
		Sources:          sources,
		Spending: domain.NewSpendingEntry("openai_llm", llmModel,
			domain.EstimateTokens(contextText.String()),
			domain.EstimateTokens(message.String())),
	}
	return result, nil
}

// extractSources flattens the result groups into cited sources and
// accumulates the hit texts into the retrieval context used for input token
// estimation.
func (p *StreamProcessor) extractSources(groups []domain.ResultGroup, contextText *strings.Builder) []domain.ChunkSource {
	sources := make([]domain.ChunkSource, 0, len(groups))
	for _, group := range groups {
		docType := p.resolveDocType(group.Collection)
		for _, hit := range group.Hits {
			sources = append(sources, domain.ChunkSource{
				Collection:   group.Collection,
				DocumentType: docType,
				DocumentID:   hit.DocumentID,
			})
			if hit.Text != "" {
				if contextText.Len() > 0 {
					contextText.WriteString("\n\n")
				}
				contextText.WriteString(hit.Text)
			}
		}
	}
	return sources
}

// normaliseLine strips the optional SSE data prefix and surrounding
// whitespace from a raw stream line.
func normaliseLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "data: ")
	return strings.TrimSpace(line)
}
