// Package index implements the similarity index over embedded review
// documents: an in-process store persisted to disk with a manifest, and a
// Qdrant-backed alternative behind the same contract.
package index

import (
	"context"

	"github.com/reviewchat-core/server/internal/agent/model"
)

// VectorStore persists embedded documents and serves nearest-neighbor queries.
// Stores must support concurrent readers; writes happen only during index
// builds, which callers serialize.
type VectorStore interface {
	// Init prepares the store for vectors of the given dimension, discarding
	// any previously indexed documents. It runs only on the rebuild path.
	Init(ctx context.Context, dimension int) error
	// Upsert inserts documents with their embedding vectors, in matching order.
	Upsert(ctx context.Context, docs []model.RetrievedDocument, vectors [][]float32) error
	// Search returns up to k documents ordered by descending similarity.
	// An empty result is valid, not an error.
	Search(ctx context.Context, vector []float32, k int) ([]model.RetrievedDocument, error)
	// Count reports the number of indexed documents.
	Count(ctx context.Context) (int, error)
}
