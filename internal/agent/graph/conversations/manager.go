package conversations

import (
	"context"
	"strings"

	"github.com/reviewchat-core/server/internal/agent/model"

	"github.com/cloudwego/eino/schema"
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	routerMaxTurns   int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		routerMaxTurns:   config.Router.MaxTurns,
	}
}

// =========== Function for Router ===========

// AppendUserMessage persists the current turn's user message so the session
// history stays append-only across nodes and turns.
func (cm *MessagesManager) AppendUserMessage(ctx context.Context, conversationID string, query string) error {
	return cm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(query))
}

// RouterContext builds the tagged transcript the router sees: enough recent
// history to disambiguate pronouns and follow-ups, plus the current message.
func (cm *MessagesManager) RouterContext(ctx context.Context, conversationID string, query string) (string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return "", err
	}

	recentMessages := trimTail(history.Messages, cm.routerMaxTurns)

	var contextBuilder strings.Builder
	contextBuilder.WriteString("<conversation_context>\n")
	for _, msg := range recentMessages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			contextBuilder.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			contextBuilder.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	contextBuilder.WriteString("</conversation_context>\n")
	contextBuilder.WriteString("<current_message_to_classify>\n")
	contextBuilder.WriteString("UserMessage(" + query + ")\n")
	contextBuilder.WriteString("</current_message_to_classify>")

	return contextBuilder.String(), nil
}

// =========== Function for Finalizer ===========

// BuildChatContext assembles the open-dialogue message list: system prompt
// followed by the full conversation history (which already contains the
// current user message).
func (cm *MessagesManager) BuildChatContext(ctx context.Context, conversationID string, systemPrompt string) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
	}
	messages = append(messages, history.Messages...)

	return messages, nil
}

// SaveResponse appends the finalized assistant answer to the session history.
func (cm *MessagesManager) SaveResponse(ctx context.Context, conversationID string, content string) error {
	assistantMsg := schema.AssistantMessage(content, nil)
	return cm.conversationRepo.AddMessage(ctx, conversationID, assistantMsg)
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
