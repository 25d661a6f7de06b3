package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/router_prompt.txt
var routerSystemPrompt string

// RenderRouterSystem renders the closed-label routing system prompt via the
// Eino prompt component so prompt callbacks fire.
func RenderRouterSystem(ctx context.Context) (string, error) {
	return renderStaticSystem(ctx, routerSystemPrompt)
}

// renderStaticSystem wraps a fixed system prompt in an Eino prompt component
// using a messages placeholder, which emits callbacks without template
// interpolation touching the prompt body.
func renderStaticSystem(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("system prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
