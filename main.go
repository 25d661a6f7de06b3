package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/reviewchat-core/server/internal/agent/graph"
	"github.com/reviewchat-core/server/internal/agent/model"
	"github.com/reviewchat-core/server/internal/agent/repo"
	"github.com/reviewchat-core/server/internal/catalog"
	"github.com/reviewchat-core/server/internal/core"
	"github.com/reviewchat-core/server/internal/rag"
	"github.com/reviewchat-core/server/internal/rag/embed"
	"github.com/reviewchat-core/server/internal/rag/index/qdrant"
	logx "github.com/reviewchat-core/server/pkg/logger"
	pkgredis "github.com/reviewchat-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the chatbot, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure. Redis is optional for local runs: without REDIS_URL the
	// conversation history lives in process memory.
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Router       model.RouterModelConfig
	Response     model.ResponseModelConfig
	Conversation model.ConversationConfig
	Retrieval    model.RetrievalConfig
	Embedding    model.EmbeddingConfig
	Catalog      model.CatalogConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Env)})

	conversationRepo, err := buildConversationRepo(envCfg)
	if err != nil {
		log.Fatalf("Failed to initialise conversation repository: %v", err)
	}

	catalogStore, err := catalog.Load(envCfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	retriever, err := buildRetriever(envCfg)
	if err != nil {
		log.Fatalf("Failed to construct retriever: %v", err)
	}
	// Serving queries against a broken index is worse than not starting.
	if err := retriever.EnsureIndex(ctx, envCfg.Retrieval.ForceRebuild); err != nil {
		log.Fatalf("Failed to prepare similarity index: %v", err)
	}

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		RouterModel:      envCfg.Router,
		ResponseModel:    envCfg.Response,
		Conversation:     envCfg.Conversation,
		ConversationRepo: conversationRepo,
		Catalog:          catalogStore,
		Retriever:        retriever,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Greeting routed to open chat",
			query:       "안녕하세요!",
		},
		{
			description: "Catalog lookup for a registered book",
			query:       "소년이 온다 책 정보 알려줘",
		},
		{
			description: "Review summary grounded in the retrieval index",
			query:       "이 책 리뷰 요약해줘. 독자들이 어떤 점을 좋아했어?",
		},
	}

	conversationID := fmt.Sprintf("demo-%d", time.Now().Unix())

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)

		response, err := runner.Invoke(ctx, model.QueryInput{
			ConversationID: conversationID,
			Query:          test.query,
		})
		if err != nil {
			log.Fatalf("Failed to invoke graph for test %d: %v", i+1, err)
		}

		fmt.Printf("Response %d: %s\n", i+1, response)
		fmt.Println("───────────────────────────────────────────────")

		time.Sleep(500 * time.Millisecond)
	}
}

func buildConversationRepo(cfg AppConfig) (model.ConversationRepository, error) {
	if cfg.Redis.URL == "" {
		logx.Warn().Msg("REDIS_URL not set; conversation history kept in process memory")
		return repo.NewMemoryConversationRepository(), nil
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, fmt.Errorf("initialise redis client: %w", err)
	}
	return repo.NewRedisConversationRepository(rdb, ttl), nil
}

func buildRetriever(cfg AppConfig) (*rag.Retriever, error) {
	embedder, err := embed.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("construct embedder: %w", err)
	}

	if cfg.Retrieval.Backend == "qdrant" {
		store, err := qdrant.New(qdrant.Config{
			Host:       cfg.Retrieval.QdrantHost,
			Port:       cfg.Retrieval.QdrantPort,
			Collection: cfg.Retrieval.QdrantCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		return rag.NewRetrieverWithStore(embedder, store, cfg.Retrieval), nil
	}
	return rag.NewRetriever(embedder, cfg.Retrieval), nil
}
