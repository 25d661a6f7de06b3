package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists per-conversation message history. History is
// append-only within a turn; implementations decide retention (Redis applies
// the configured TTL, the in-memory repository keeps everything).
type ConversationRepository interface {
	// AddMessage appends one message to the conversation's history.
	AddMessage(ctx context.Context, conversationID string, message *schema.Message) error

	// LoadHistory returns the full stored history, oldest first.
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory drops all history for the conversation.
	ClearHistory(ctx context.Context, conversationID string) error

	// GetMessageCount reports how many messages the conversation holds.
	GetMessageCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory is a loaded history snapshot.
type ConversationHistory struct {
	ConversationID string
	Messages       []*schema.Message
}
