package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/reviewchat-core/server/internal/agent/graph/conversations"
	"github.com/reviewchat-core/server/internal/agent/graph/parsers"
	"github.com/reviewchat-core/server/internal/agent/graph/prompts"
	"github.com/reviewchat-core/server/internal/agent/model"
	"github.com/reviewchat-core/server/internal/catalog"
	"github.com/reviewchat-core/server/internal/rag"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// NewRouterPreHandler seeds per-turn state before classification runs.
func NewRouterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.ConversationID = in.ConversationID
		s.UserInput = in.Query
		return in, nil
	}
}

// NewRouterNode creates the classification node. It persists the user message,
// asks the router model for one of the three labels, and validates the answer.
// Any failure along the way resolves to the chat route: routing is never a
// fatal error, and there is exactly one attempt.
func NewRouterNode(cm *ChatModels, mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (model.RouteDecision, error) {
		decision := model.RouteDecision{Route: model.RouteChat, UserInput: in.Query}

		// The window is built before the current message is persisted, so the
		// message appears only in the classify section of the transcript.
		routerCtx, err := mm.RouterContext(ctx, in.ConversationID, in.Query)
		if err != nil {
			logx.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("failed to load router context; classifying without history")
			routerCtx = "UserMessage(" + in.Query + ")"
		}

		if err := mm.AppendUserMessage(ctx, in.ConversationID, in.Query); err != nil {
			// History persistence is best effort for this turn; the session
			// loses continuity, not the response.
			logx.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("failed to persist user message")
		}

		systemPrompt, err := prompts.RenderRouterSystem(ctx)
		if err != nil {
			logx.Error().Err(err).Msg("router prompt render failed; defaulting to chat")
			return decision, nil
		}

		out, err := cm.Router.Generate(ctx, []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(routerCtx),
		})
		if err != nil {
			logx.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("router model call failed; defaulting to chat")
			return decision, nil
		}
		accountUsage(ctx, NodeRouter, cm.RouterModelName, out)

		decision.Route = parsers.RouteLabel(out.Content)
		return decision, nil
	})
}

// NewRouterPostHandler records the chosen route in state.
func NewRouterPostHandler() func(context.Context, model.RouteDecision, *model.AppState) (model.RouteDecision, error) {
	return func(ctx context.Context, out model.RouteDecision, state *model.AppState) (model.RouteDecision, error) {
		state.Route = out.Route
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("route", string(out.Route)).
			Msg("turn routed")
		return out, nil
	}
}

// NewRouteCondition dispatches the routed turn to its branch node. The chat
// route (and anything unrecognized) goes straight to the finalizer.
func NewRouteCondition() func(context.Context, model.RouteDecision) (string, error) {
	return func(ctx context.Context, input model.RouteDecision) (string, error) {
		switch input.Route {
		case model.RouteMetadata:
			return NodeMetadataLookup, nil
		case model.RouteRetrieval:
			return NodeReviewRAG, nil
		default:
			return NodeFinalizer, nil
		}
	}
}

// NewMetadataNode creates the catalog lookup branch. The selection model picks
// a key from the catalog listing; the answer is validated against the catalog
// before use, so a fabricated key degrades to a no-match draft instead of
// propagating an invalid reference.
func NewMetadataNode(cm *ChatModels, cat *catalog.Store) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, dec model.RouteDecision) (model.RouteDecision, error) {
		if cat.Len() == 0 {
			return dec, setDraft(ctx, DraftCatalogEmpty, false)
		}

		msgs, err := prompts.RenderMetadataMessages(ctx, cat.Choices(), dec.UserInput)
		if err != nil {
			logx.Error().Err(err).Msg("metadata prompt render failed")
			return dec, setDraft(ctx, DraftLookupFailed, true)
		}

		out, err := cm.Response.Generate(ctx, msgs)
		if err != nil {
			logx.Warn().Err(err).Msg("metadata selection call failed")
			return dec, setDraft(ctx, DraftLookupFailed, true)
		}
		accountUsage(ctx, NodeMetadataLookup, cm.ResponseModelName, out)

		key := parsers.CatalogKey(out.Content)
		record, ok := cat.Get(key)
		if key == "" || !ok {
			logx.Debug().Str("raw_key", strings.TrimSpace(out.Content)).Msg("no catalog match")
			return dec, setDraft(ctx, DraftNoCatalogMatch, false)
		}

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.EntityKey = key
			state.Draft = formatRecord(record)
			return nil
		})
		return dec, err
	})
}

// formatRecord renders a catalog record as the metadata branch draft.
func formatRecord(rec model.CatalogRecord) string {
	lines := []string{
		"제목: " + firstNonEmpty(rec.Title, rec.Key),
		"저자: " + firstNonEmpty(rec.Author, "정보 없음"),
		"요약: " + firstNonEmpty(rec.Summary, "정보 없음"),
	}
	if len(rec.Keywords) > 0 {
		lines = append(lines, "키워드: "+strings.Join(rec.Keywords, ", "))
	}
	return strings.Join(lines, "\n")
}

// NewReviewRAGNode creates the retrieval-augmented branch. The grounding
// context is built strictly from retrieved review excerpts; zero documents or
// a retrieval failure degrade to fixed drafts rather than ungrounded output.
func NewReviewRAGNode(cm *ChatModels, retriever *rag.Retriever) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, dec model.RouteDecision) (model.RouteDecision, error) {
		docs, err := retriever.Search(ctx, dec.UserInput, 0)
		if err != nil {
			logx.Warn().Err(err).Msg("review retrieval failed")
			return dec, setDraft(ctx, DraftRetrievalFailed, true)
		}
		if len(docs) == 0 {
			return dec, setDraft(ctx, DraftNoReviews, false)
		}

		msgs, err := prompts.RenderRAGMessages(ctx, dec.UserInput, formatReviewContext(docs))
		if err != nil {
			logx.Error().Err(err).Msg("rag prompt render failed")
			return dec, setDraft(ctx, DraftRetrievalFailed, true)
		}

		out, err := cm.Response.Generate(ctx, msgs)
		if err != nil {
			logx.Warn().Err(err).Msg("grounded answer call failed")
			return dec, setDraft(ctx, DraftRetrievalFailed, true)
		}
		accountUsage(ctx, NodeReviewRAG, cm.ResponseModelName, out)

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Retrieved = docs
			state.Draft = strings.TrimSpace(out.Content)
			return nil
		})
		return dec, err
	})
}

// formatReviewContext renders retrieved documents as a numbered grounding
// context with provenance.
func formatReviewContext(docs []model.RetrievedDocument) string {
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] (%s, rating=%.1f, date=%s) %s\n", i+1, doc.Site, doc.Rating, firstNonEmpty(doc.Date, "NA"), doc.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewFinalizerNode creates the single convergence point of the graph. With a
// draft in state it condenses the draft into the final answer without adding
// content; without one (the chat route) it generates directly from the
// conversation history. The turn always ends with a non-empty response.
func NewFinalizerNode(cm *ChatModels, mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, dec model.RouteDecision) (*schema.Message, error) {
		var conversationID, draft string
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			conversationID = state.ConversationID
			draft = state.Draft
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		var response string
		if draft != "" {
			response = finalizeDraft(ctx, cm, draft)
		} else {
			response = chatResponse(ctx, cm, mm, conversationID, dec.UserInput)
		}
		if strings.TrimSpace(response) == "" {
			response = FallbackResponse
		}

		if err := mm.SaveResponse(ctx, conversationID, response); err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to save assistant response")
		}

		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Draft = ""
			state.Response = response
			return nil
		})
		return schema.AssistantMessage(response, nil), err
	})
}

// finalizeDraft condenses a branch draft into the final answer. The raw draft
// substitutes on failure: it is already grounded, and a grounded rough answer
// beats an apology.
func finalizeDraft(ctx context.Context, cm *ChatModels, draft string) string {
	msgs, err := prompts.RenderFinalizerMessages(ctx, draft)
	if err != nil {
		logx.Error().Err(err).Msg("finalizer prompt render failed; returning raw draft")
		return draft
	}
	out, err := cm.Response.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Msg("finalizer call failed; returning raw draft")
		return draft
	}
	accountUsage(ctx, NodeFinalizer, cm.ResponseModelName, out)
	return firstNonEmpty(strings.TrimSpace(out.Content), draft)
}

// chatResponse handles the open-dialogue call shape.
func chatResponse(ctx context.Context, cm *ChatModels, mm *conversations.MessagesManager, conversationID, userInput string) string {
	systemPrompt, err := prompts.RenderChatSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("chat prompt render failed")
		return FallbackResponse
	}

	msgs, err := mm.BuildChatContext(ctx, conversationID, systemPrompt)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to build chat context; answering without history")
		msgs = []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(userInput),
		}
	}

	out, err := cm.Response.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("chat call failed")
		return FallbackResponse
	}
	accountUsage(ctx, NodeFinalizer, cm.ResponseModelName, out)
	return strings.TrimSpace(out.Content)
}
