// Package embed provides the embedding gateway used both at index-build time
// and at query time. Build and query must go through the same embedder: the
// index is only meaningful inside one embedding space.
package embed

import "context"

// Embedder converts text into a fixed-dimension vector through an external
// embedding service.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector dimension, or 0 when not yet known
	// (remote embedders learn it from the first response).
	Dimension() int
}
