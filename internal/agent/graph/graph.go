package graph

import (
	"context"
	"fmt"
	"strings"

	logx "github.com/reviewchat-core/server/pkg/logger"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/reviewchat-core/server/internal/agent/graph/conversations"
	"github.com/reviewchat-core/server/internal/agent/graph/nodes"
	"github.com/reviewchat-core/server/internal/agent/graph/observers"
	"github.com/reviewchat-core/server/internal/agent/model"
	"github.com/reviewchat-core/server/internal/catalog"
	"github.com/reviewchat-core/server/internal/rag"
)

// Runner is a thin wrapper to execute the compiled graph with the public QueryInput.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
}

// Config holds everything needed to compose the full response graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels and MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	RouterModel      model.RouterModelConfig
	ResponseModel    model.ResponseModelConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Catalog          *catalog.Store
	Retriever        *rag.Retriever
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	MessagesManager *conversations.MessagesManager
	Catalog         *catalog.Store
	Retriever       *rag.Retriever
}

// GraphBuilder handles the construction of the routed conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("empty user input")
	}
	if strings.TrimSpace(in.ConversationID) == "" {
		return "", fmt.Errorf("empty conversation id")
	}

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("graph returned no message")
	}
	return out.Content, nil
}

// BuildResponseGraph composes ChatModels, MessagesManager, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog store is nil")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		RouterConfig: &cfg.RouterModel,
		RespConfig:   &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		MessagesManager: mm,
		Catalog:         cfg.Catalog,
		Retriever:       cfg.Retriever,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled routed conversation graph.
// Shape: START → router → {metadata_lookup | review_rag | finalizer};
// both branch nodes converge on the finalizer, which ends the turn. The graph
// never re-enters the router within a turn.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Router == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Catalog == nil || config.Retriever == nil {
		return nil, fmt.Errorf("catalog/retriever is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeRouter,
		nodes.NewRouterNode(b.config.ChatModels, b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewRouterPreHandler()),
		compose.WithStatePostHandler(nodes.NewRouterPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeMetadataLookup,
		nodes.NewMetadataNode(b.config.ChatModels, b.config.Catalog),
	)

	b.graph.AddLambdaNode(nodes.NodeReviewRAG,
		nodes.NewReviewRAGNode(b.config.ChatModels, b.config.Retriever),
	)

	b.graph.AddLambdaNode(nodes.NodeFinalizer,
		nodes.NewFinalizerNode(b.config.ChatModels, b.config.MessagesManager),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeRouter},
		{nodes.NodeMetadataLookup, nodes.NodeFinalizer},
		{nodes.NodeReviewRAG, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branch out of the router
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodeMetadataLookup: true,
			nodes.NodeReviewRAG:      true,
			nodes.NodeFinalizer:      true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouter, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Every path visits at most three nodes; the bound only guards against
	// wiring mistakes reintroducing a cycle.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
