package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/metadata_prompt.txt
var metadataSystemPrompt string

//go:embed template/rag_prompt.txt
var ragSystemPrompt string

//go:embed template/chat_prompt.txt
var chatSystemPrompt string

//go:embed template/finalizer_prompt.txt
var finalizerSystemPrompt string

// RenderMetadataMessages renders the catalog key selection call: the choices
// listing plus the user input, constrained to "key or none only" output.
func RenderMetadataMessages(ctx context.Context, choices, userInput string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(metadataSystemPrompt),
		schema.UserMessage("대상 목록:\n{{.Choices}}\n\n사용자 입력: {{.UserInput}}"),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Choices":   choices,
		"UserInput": userInput,
	})
	if err != nil {
		return nil, fmt.Errorf("metadata prompt render: %w", err)
	}
	return msgs, nil
}

// RenderRAGMessages renders the context-only answering call. The context is
// built strictly from retrieved review excerpts; the system prompt forbids
// answering outside it.
func RenderRAGMessages(ctx context.Context, question, reviewContext string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(ragSystemPrompt),
		schema.UserMessage("질문: {{.Question}}\n\n리뷰 컨텍스트:\n{{.Context}}\n\n답변을 작성하라."),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Question": question,
		"Context":  reviewContext,
	})
	if err != nil {
		return nil, fmt.Errorf("rag prompt render: %w", err)
	}
	return msgs, nil
}

// RenderChatSystem renders the open-dialogue system prompt.
func RenderChatSystem(ctx context.Context) (string, error) {
	return renderStaticSystem(ctx, chatSystemPrompt)
}

// RenderFinalizerMessages renders the condensation call: polish the branch
// draft into the final user-facing answer without adding new content.
func RenderFinalizerMessages(ctx context.Context, draft string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(finalizerSystemPrompt),
		schema.UserMessage("초안:\n{{.Draft}}\n\n정리된 답변을 작성하라."),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Draft": draft,
	})
	if err != nil {
		return nil, fmt.Errorf("finalizer prompt render: %w", err)
	}
	return msgs, nil
}
