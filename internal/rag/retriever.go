// Package rag ties the embedding gateway, review corpus, and similarity index
// into the retriever used by the review-grounded answer branch.
package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/reviewchat-core/server/internal/agent/model"
	logx "github.com/reviewchat-core/server/pkg/logger"

	"github.com/reviewchat-core/server/internal/rag/corpus"
	"github.com/reviewchat-core/server/internal/rag/embed"
	"github.com/reviewchat-core/server/internal/rag/index"
)

// embedBatchSize bounds a single embedding gateway call during index builds.
const embedBatchSize = 64

// Retriever answers top-K similarity queries over embedded review documents.
// The active store is swapped atomically after a rebuild, so concurrent
// queries keep hitting the previous snapshot until the new one is published.
type Retriever struct {
	embedder embed.Embedder
	cfg      model.RetrievalConfig

	buildMu sync.Mutex // rebuilds are exclusive maintenance operations
	active  atomic.Pointer[activeStore]
}

type activeStore struct {
	store index.VectorStore
}

// NewRetriever creates a retriever over the file-persisted in-memory index.
func NewRetriever(embedder embed.Embedder, cfg model.RetrievalConfig) *Retriever {
	r := &Retriever{embedder: embedder, cfg: cfg}
	r.active.Store(&activeStore{store: index.NewMemory()})
	return r
}

// NewRetrieverWithStore creates a retriever over an externally managed store,
// e.g. a Qdrant collection. Manifest-based reuse does not apply; the store's
// live document count decides build-vs-reuse instead.
func NewRetrieverWithStore(embedder embed.Embedder, store index.VectorStore, cfg model.RetrievalConfig) *Retriever {
	r := &Retriever{embedder: embedder, cfg: cfg}
	r.active.Store(&activeStore{store: store})
	return r
}

// EnsureIndex makes a queryable index available: it reuses a compatible
// persisted index, and otherwise builds one from the review corpus, persists
// it, and publishes it atomically. force skips reuse entirely.
func (r *Retriever) EnsureIndex(ctx context.Context, force bool) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if !force && r.tryReuse(ctx) {
		return nil
	}
	return r.rebuildLocked(ctx)
}

// tryReuse attempts to adopt an existing index without rebuilding.
func (r *Retriever) tryReuse(ctx context.Context) bool {
	current := r.active.Load().store
	if _, ok := current.(*index.Memory); ok {
		loaded, manifest, err := index.LoadDir(r.cfg.IndexDir, r.embedder.Dimension())
		if err != nil {
			logx.Warn().Err(err).Str("dir", r.cfg.IndexDir).Msg("persisted index not reusable; rebuilding")
			return false
		}
		r.active.Store(&activeStore{store: loaded})
		logx.Info().Int("count", manifest.Count).Int("dimension", manifest.Dimension).
			Msg("reusing persisted similarity index")
		return true
	}

	// External store: reuse when the collection already holds documents.
	n, err := current.Count(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("external index count failed; rebuilding")
		return false
	}
	if n == 0 {
		return false
	}
	logx.Info().Int("count", n).Msg("reusing external similarity index")
	return true
}

// rebuildLocked builds a fresh index from the corpus and publishes it. Callers
// must hold buildMu.
func (r *Retriever) rebuildLocked(ctx context.Context) error {
	rows, err := corpus.LoadDir(r.cfg.CorpusDir, r.cfg.MaxRowsPerCSV)
	if err != nil {
		return fmt.Errorf("load review corpus: %w", err)
	}
	if len(rows) == 0 {
		logx.Warn().Str("dir", r.cfg.CorpusDir).Msg("empty review corpus; serving empty index")
		if _, ok := r.active.Load().store.(*index.Memory); ok {
			r.active.Store(&activeStore{store: index.NewMemory()})
		}
		return nil
	}

	docs := make([]model.RetrievedDocument, len(rows))
	texts := make([]string, len(rows))
	for i, row := range rows {
		docs[i] = model.RetrievedDocument{
			Text:     row.Text,
			SourceID: row.RowID,
			Site:     row.Site,
			Rating:   row.Rating,
			Date:     row.Date,
		}
		texts[i] = row.Text
	}

	vectors, err := r.embedCorpus(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed review corpus: %w", err)
	}
	dimension := len(vectors[0])

	current := r.active.Load().store
	if _, ok := current.(*index.Memory); ok {
		fresh := index.NewMemory()
		if err := fresh.Init(ctx, dimension); err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		if err := fresh.Upsert(ctx, docs, vectors); err != nil {
			return fmt.Errorf("populate index: %w", err)
		}
		if err := fresh.Save(r.cfg.IndexDir); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}
		r.active.Store(&activeStore{store: fresh})
	} else {
		if err := current.Init(ctx, dimension); err != nil {
			return fmt.Errorf("init external index: %w", err)
		}
		if err := current.Upsert(ctx, docs, vectors); err != nil {
			return fmt.Errorf("populate external index: %w", err)
		}
	}

	logx.Info().Int("count", len(docs)).Int("dimension", dimension).Msg("similarity index built")
	return nil
}

func (r *Retriever) embedCorpus(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := r.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Search embeds the query through the index's embedding gateway and returns
// up to k documents by descending similarity. k <= 0 uses the configured
// TopK. Embedding failures surface as errors; an empty result does not.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]model.RetrievedDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = r.cfg.TopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	docs, err := r.active.Load().store.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	return docs, nil
}

// Count reports the number of documents in the active index.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	return r.active.Load().store.Count(ctx)
}
