package model

// ================ Config ================
type ConversationConfig struct {
	TTL    string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Router struct {
		MaxTurns int `envconfig:"CONVERSATION_ROUTER_MAX_TURNS" default:"5"`
	}
}

type RouterModelConfig struct {
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"16"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0.0"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.3"`
}

type RetrievalConfig struct {
	TopK          int    `envconfig:"RETRIEVAL_TOP_K" default:"4"`
	IndexDir      string `envconfig:"RETRIEVAL_INDEX_DIR" default:"db/review_index"`
	CorpusDir     string `envconfig:"RETRIEVAL_CORPUS_DIR" default:"database"`
	MaxRowsPerCSV int    `envconfig:"RETRIEVAL_MAX_ROWS_PER_CSV" default:"500"`
	ForceRebuild  bool   `envconfig:"RETRIEVAL_FORCE_REBUILD" default:"false"`

	// Backend selects the vector store implementation: "memory" keeps the
	// file-persisted in-process index, "qdrant" uses an external collection.
	Backend          string `envconfig:"RETRIEVAL_BACKEND" default:"memory"`
	QdrantHost       string `envconfig:"RETRIEVAL_QDRANT_HOST" default:"localhost"`
	QdrantPort       int    `envconfig:"RETRIEVAL_QDRANT_PORT" default:"6334"`
	QdrantCollection string `envconfig:"RETRIEVAL_QDRANT_COLLECTION" default:"reviews"`
}

type EmbeddingConfig struct {
	Model   string `envconfig:"EMBEDDING_MODEL" default:"solar-embedding-1-large"`
	BaseURL string `envconfig:"EMBEDDING_BASE_URL" default:"https://api.upstage.ai/v1/solar"`
	APIKey  string `envconfig:"EMBEDDING_API_KEY" required:"true"`
	Timeout int    `envconfig:"EMBEDDING_TIMEOUT_SECONDS" default:"30"`
}

type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH" default:"db/subject_information/subjects.json"`
}
