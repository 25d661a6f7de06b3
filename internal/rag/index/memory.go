package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/reviewchat-core/server/internal/agent/model"
	errx "github.com/reviewchat-core/server/internal/core/error"
)

// Memory is a brute-force cosine similarity store. Vectors are L2-normalized
// on insert so similarity reduces to a dot product. An RWMutex lets query
// serving proceed with concurrent readers.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	docs      []model.RetrievedDocument
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

// Init resets the store for vectors of the given dimension.
func (m *Memory) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimension = dimension
	m.vectors = nil
	m.docs = nil
	return nil
}

// Upsert inserts documents with their embedding vectors, in matching order.
func (m *Memory) Upsert(_ context.Context, docs []model.RetrievedDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension <= 0 {
		return fmt.Errorf("store not initialized")
	}
	for _, v := range vectors {
		if len(v) != m.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), m.dimension)
		}
	}
	for i := range vectors {
		m.vectors = append(m.vectors, normalize(vectors[i]))
		m.docs = append(m.docs, docs[i])
	}
	return nil
}

// Search returns up to k documents ordered by descending cosine similarity.
func (m *Memory) Search(_ context.Context, vector []float32, k int) ([]model.RetrievedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.vectors) == 0 {
		return nil, nil
	}
	// A query from a different embedding space must never be scored against
	// truncated prefixes.
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			errx.ErrIndexIncompatible, len(vector), m.dimension)
	}

	query := normalize(vector)
	type hit struct {
		idx   int
		score float64
	}
	hits := make([]hit, len(m.vectors))
	for i := range m.vectors {
		hits[i] = hit{idx: i, score: dot(m.vectors[i], query)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	if k > len(hits) {
		k = len(hits)
	}
	results := make([]model.RetrievedDocument, 0, k)
	for i := 0; i < k; i++ {
		doc := m.docs[hits[i].idx]
		doc.Score = hits[i].score
		results = append(results, doc)
	}
	return results, nil
}

// Count reports the number of indexed documents.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Dimension returns the vector dimension the store was initialized with.
func (m *Memory) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dimension
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

var _ VectorStore = (*Memory)(nil)
