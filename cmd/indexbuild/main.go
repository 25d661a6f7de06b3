// Command indexbuild builds (or force-rebuilds) the persisted similarity
// index from the preprocessed review corpus, without starting the chatbot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/reviewchat-core/server/internal/agent/model"
	"github.com/reviewchat-core/server/internal/rag"
	"github.com/reviewchat-core/server/internal/rag/embed"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

type buildConfig struct {
	Retrieval model.RetrievalConfig
	Embedding model.EmbeddingConfig
}

func main() {
	force := flag.Bool("force", false, "rebuild even when a compatible persisted index exists")
	flag.Parse()

	ctx := context.Background()
	logx.Init()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg buildConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	embedder, err := embed.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to construct embedder: %v", err)
	}

	retriever := rag.NewRetriever(embedder, cfg.Retrieval)
	if err := retriever.EnsureIndex(ctx, *force || cfg.Retrieval.ForceRebuild); err != nil {
		log.Fatalf("Index build failed: %v", err)
	}

	count, err := retriever.Count(ctx)
	if err != nil {
		log.Fatalf("Index count failed: %v", err)
	}
	fmt.Printf("Similarity index ready: %d documents under %s\n", count, cfg.Retrieval.IndexDir)
}
