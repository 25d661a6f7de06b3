package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/reviewchat-core/server/internal/agent/model"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// Node names used when wiring the graph.
const (
	NodeRouter         = "router"
	NodeMetadataLookup = "metadata_lookup"
	NodeReviewRAG      = "review_rag"
	NodeFinalizer      = "finalizer"
)

// Degraded and no-match draft texts. Branches substitute these so the
// finalizer always has something to work with and the turn still completes.
const (
	// DraftNoReviews marks insufficient grounding context for the RAG branch.
	DraftNoReviews = "관련 리뷰를 찾지 못했습니다. 제공된 리뷰 데이터만으로는 답변할 수 없습니다. 다른 질문을 해주시거나 질문을 구체적으로 바꿔 주세요."
	// DraftRetrievalFailed substitutes for the RAG branch when retrieval itself failed.
	DraftRetrievalFailed = "리뷰 검색 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
	// DraftCatalogEmpty substitutes when no catalog records are registered.
	DraftCatalogEmpty = "현재 등록된 리뷰 대상 정보가 없습니다."
	// DraftNoCatalogMatch substitutes when no catalog key matches the request.
	DraftNoCatalogMatch = "요청하신 대상의 정보를 찾지 못했습니다. 어떤 대상의 정보를 원하시는지 알려주세요."
	// DraftLookupFailed substitutes for the metadata branch when the selection call failed.
	DraftLookupFailed = "대상 정보를 조회하는 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
	// FallbackResponse is the apologetic final answer when even the finalizer
	// call fails; the turn never surfaces internal errors to the user.
	FallbackResponse = "죄송합니다. 답변을 생성하는 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
)

// setDraft records a branch result in graph state. degraded marks drafts that
// substitute for failed branch work rather than real branch output.
func setDraft(ctx context.Context, draft string, degraded bool) error {
	return compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		state.Draft = draft
		if degraded {
			state.BranchDegraded = true
		}
		return nil
	})
}

// accountUsage folds model token usage into the per-turn cost accumulator and
// logs it, following the same bookkeeping for every model call in the graph.
func accountUsage(ctx context.Context, nodeName, modelName string, out *schema.Message) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		state.TotalCostUSD += totalC
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("node", nodeName).
			Str("model", modelName).
			Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
			Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", state.TotalCostUSD).
			Msg("LLM usage")
		return nil
	})
}

// firstNonEmpty returns the first argument that is not blank after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
