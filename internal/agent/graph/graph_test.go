package graph

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewchat-core/server/internal/agent/graph/conversations"
	"github.com/reviewchat-core/server/internal/agent/graph/nodes"
	"github.com/reviewchat-core/server/internal/agent/model"
	"github.com/reviewchat-core/server/internal/agent/repo"
	"github.com/reviewchat-core/server/internal/catalog"
	"github.com/reviewchat-core/server/internal/rag"
)

// scriptedModel is a chat model double driven by a generate function. It
// records every call so tests can assert on what a node sent.
type scriptedModel struct {
	mu       sync.Mutex
	calls    [][]*schema.Message
	generate func(msgs []*schema.Message) (*schema.Message, error)
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()
	return m.generate(input)
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func routerReturning(label string) *scriptedModel {
	return &scriptedModel{generate: func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(label, nil), nil
	}}
}

func failingModel(msg string) *scriptedModel {
	return &scriptedModel{generate: func([]*schema.Message) (*schema.Message, error) {
		return nil, errors.New(msg)
	}}
}

const ragAnswer = "독자들은 문체와 깊은 여운을 호평합니다."

// newResponder dispatches on the call shape each node renders: catalog key
// selection, grounded answering, draft condensation, or open chat. The
// condensation branch echoes the draft so tests can observe branch output.
func newResponder(catalogKey string) *scriptedModel {
	m := &scriptedModel{}
	m.generate = func(msgs []*schema.Message) (*schema.Message, error) {
		last := msgs[len(msgs)-1].Content
		switch {
		case strings.HasPrefix(last, "대상 목록:"):
			return schema.AssistantMessage(catalogKey, nil), nil
		case strings.Contains(last, "리뷰 컨텍스트:"):
			return schema.AssistantMessage(ragAnswer, nil), nil
		case strings.HasPrefix(last, "초안:"):
			draft := strings.TrimPrefix(last, "초안:\n")
			draft = strings.TrimSuffix(draft, "\n\n정리된 답변을 작성하라.")
			return schema.AssistantMessage(draft, nil), nil
		default:
			return schema.AssistantMessage("안녕하세요! 무엇을 도와드릴까요?", nil), nil
		}
	}
	return m
}

type hashEmbedder struct {
	dim  int
	fail bool
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedding service unavailable")
	}
	v := make([]float32, e.dim)
	for _, word := range strings.Fields(text) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[int(h.Sum32())%e.dim]++
	}
	return v, nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *hashEmbedder) Dimension() int { return e.dim }

type fixture struct {
	runner           Runner
	conversationRepo *repo.MemoryConversationRepository
	responder        *scriptedModel
	embedder         *hashEmbedder
}

const fixtureCatalog = `{
  "sonyeon_i_onda": {
    "title": "소년이 온다",
    "author": "한강",
    "summary": "5.18 광주를 다룬 장편소설.",
    "keywords": ["광주", "역사"]
  }
}`

func newFixture(t *testing.T, router, responder *scriptedModel) *fixture {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	catalogPath := filepath.Join(root, "subjects.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(fixtureCatalog), 0o644))
	cat, err := catalog.Load(catalogPath)
	require.NoError(t, err)

	corpusDir := filepath.Join(root, "database")
	require.NoError(t, os.MkdirAll(corpusDir, 0o755))
	csv := "rating,date,cleaned_content\n" +
		"9.5,2024-01-02,문체가 정말 아름답다\n" +
		"8.0,2024-02-10,읽는 내내 먹먹했다\n" +
		"10.0,2024-03-05,역사를 기억하게 하는 책\n" +
		"9.0,2024-04-01,여운이 오래 남는다\n"
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "preprocessed_reviews_kyobo.csv"), []byte(csv), 0o644))

	embedder := &hashEmbedder{dim: 32}
	retriever := rag.NewRetriever(embedder, model.RetrievalConfig{
		TopK:          4,
		IndexDir:      filepath.Join(root, "db", "review_index"),
		CorpusDir:     corpusDir,
		MaxRowsPerCSV: 500,
	})
	require.NoError(t, retriever.EnsureIndex(ctx, false))

	conversationRepo := repo.NewMemoryConversationRepository()
	convCfg := model.ConversationConfig{}
	convCfg.Router.MaxTurns = 5
	mm := conversations.NewMessagesManager(conversationRepo, convCfg)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels: &nodes.ChatModels{
			Router:            router,
			Response:          responder,
			RouterModelName:   "router-test",
			ResponseModelName: "responder-test",
		},
		MessagesManager: mm,
		Catalog:         cat,
		Retriever:       retriever,
	})
	require.NoError(t, err)

	return &fixture{
		runner:           &graphRunner{runnable: runnable},
		conversationRepo: conversationRepo,
		responder:        responder,
		embedder:         embedder,
	}
}

func (f *fixture) invoke(t *testing.T, query string) string {
	t.Helper()
	out, err := f.runner.Invoke(context.Background(), model.QueryInput{
		ConversationID: "conv-test",
		Query:          query,
	})
	require.NoError(t, err)
	return out
}

func TestChatRoute(t *testing.T) {
	f := newFixture(t, routerReturning("chat"), newResponder(""))

	out := f.invoke(t, "안녕")
	assert.Equal(t, "안녕하세요! 무엇을 도와드릴까요?", out)

	// User message and assistant answer are both persisted.
	n, err := f.conversationRepo.GetMessageCount(context.Background(), "conv-test")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetadataRoute(t *testing.T) {
	f := newFixture(t, routerReturning("metadata"), newResponder("sonyeon_i_onda"))

	out := f.invoke(t, "소년이 온다 정보 알려줘")
	assert.Contains(t, out, "소년이 온다")
	assert.Contains(t, out, "한강")
	assert.Contains(t, out, "광주")
}

func TestMetadataRouteNoMatch(t *testing.T) {
	f := newFixture(t, routerReturning("metadata"), newResponder("none"))

	out := f.invoke(t, "처음 보는 책 정보 알려줘")
	assert.Equal(t, nodes.DraftNoCatalogMatch, out)
}

func TestMetadataRouteFabricatedKey(t *testing.T) {
	f := newFixture(t, routerReturning("metadata"), newResponder("no_such_book"))

	out := f.invoke(t, "그 책 정보 알려줘")
	assert.Equal(t, nodes.DraftNoCatalogMatch, out)
}

func TestRetrievalRoute(t *testing.T) {
	f := newFixture(t, routerReturning("retrieval"), newResponder(""))

	out := f.invoke(t, "문체가 아름답다 는 평이 많아?")
	assert.Equal(t, ragAnswer, out)

	// The answering call is grounded on retrieved review excerpts with
	// provenance, not on the bare question.
	sawContext := false
	f.responder.mu.Lock()
	for _, call := range f.responder.calls {
		content := call[len(call)-1].Content
		if strings.Contains(content, "리뷰 컨텍스트:") {
			sawContext = true
			assert.Contains(t, content, "문체가 정말 아름답다")
			assert.Contains(t, content, "kyobo")
			assert.Contains(t, content, "rating=")
		}
	}
	f.responder.mu.Unlock()
	assert.True(t, sawContext)
}

func TestRetrievalRouteEmbeddingDown(t *testing.T) {
	f := newFixture(t, routerReturning("retrieval"), newResponder(""))
	f.embedder.fail = true

	out := f.invoke(t, "문체가 아름답다 는 평이 많아?")
	assert.Equal(t, nodes.DraftRetrievalFailed, out)
}

func TestRouterModelFailureDefaultsToChat(t *testing.T) {
	f := newFixture(t, failingModel("router unavailable"), newResponder(""))

	out := f.invoke(t, "안녕")
	assert.Equal(t, "안녕하세요! 무엇을 도와드릴까요?", out)
}

func TestRouterGarbageLabelDefaultsToChat(t *testing.T) {
	f := newFixture(t, routerReturning("definitely not a label"), newResponder(""))

	out := f.invoke(t, "안녕")
	assert.Equal(t, "안녕하세요! 무엇을 도와드릴까요?", out)
}

func TestChatModelFailureFallsBack(t *testing.T) {
	f := newFixture(t, routerReturning("chat"), failingModel("generation unavailable"))

	out := f.invoke(t, "안녕")
	assert.Equal(t, nodes.FallbackResponse, out)
}

func TestMetadataSelectionFailureFallsBack(t *testing.T) {
	f := newFixture(t, routerReturning("metadata"), failingModel("generation unavailable"))

	out := f.invoke(t, "소년이 온다 정보 알려줘")
	// The lookup draft survives: condensation also fails, so the raw draft
	// is returned rather than an empty answer.
	assert.Equal(t, nodes.DraftLookupFailed, out)
}

func TestInvokeRejectsEmptyInput(t *testing.T) {
	f := newFixture(t, routerReturning("chat"), newResponder(""))

	_, err := f.runner.Invoke(context.Background(), model.QueryInput{ConversationID: "conv-test"})
	assert.Error(t, err)

	_, err = f.runner.Invoke(context.Background(), model.QueryInput{Query: "안녕"})
	assert.Error(t, err)
}

func TestRouterTranscriptListsCurrentMessageOnce(t *testing.T) {
	router := routerReturning("chat")
	f := newFixture(t, router, newResponder(""))

	f.invoke(t, "안녕")
	f.invoke(t, "그 책 어때?")

	router.mu.Lock()
	defer router.mu.Unlock()
	require.Len(t, router.calls, 2)

	first := router.calls[0][len(router.calls[0])-1].Content
	assert.Equal(t, 1, strings.Count(first, "UserMessage(안녕)"))
	assert.Contains(t, first, "<current_message_to_classify>\nUserMessage(안녕)")

	// On the second turn the first exchange sits in the context window and
	// the new message only in the classify section.
	second := router.calls[1][len(router.calls[1])-1].Content
	assert.Equal(t, 1, strings.Count(second, "UserMessage(안녕)"))
	assert.Equal(t, 1, strings.Count(second, "UserMessage(그 책 어때?)"))
	assert.Contains(t, second, "<current_message_to_classify>\nUserMessage(그 책 어때?)")
	assert.NotContains(t, strings.Split(second, "<current_message_to_classify>")[0], "UserMessage(그 책 어때?)")
}

func TestConversationContinuityAcrossTurns(t *testing.T) {
	f := newFixture(t, routerReturning("chat"), newResponder(""))

	f.invoke(t, "안녕")
	f.invoke(t, "또 왔어")

	history, err := f.conversationRepo.LoadHistory(context.Background(), "conv-test")
	require.NoError(t, err)
	require.Len(t, history.Messages, 4)
	assert.Equal(t, "안녕", history.Messages[0].Content)
	assert.Equal(t, "또 왔어", history.Messages[2].Content)
}
