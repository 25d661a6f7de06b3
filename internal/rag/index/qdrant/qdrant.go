// Package qdrant implements the index.VectorStore contract against an
// external Qdrant collection with cosine distance.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/reviewchat-core/server/internal/agent/model"
	"github.com/reviewchat-core/server/internal/rag/index"
)

// Store serves nearest-neighbor queries from a Qdrant collection. Review
// payloads travel alongside the vectors, so reuse needs no local artifact.
type Store struct {
	client     *qdrant.Client
	collection string
}

// Config holds the Qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	Collection string
}

// New connects to Qdrant and returns a store bound to the configured collection.
func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &Store{client: client, collection: cfg.Collection}, nil
}

// Init creates the collection for cosine distance, dropping any existing one
// first. Init runs only on the rebuild path; a shrunken corpus must not leave
// stale points from the previous build behind.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("drop collection %s: %w", s.collection, err)
		}
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert inserts documents with their embedding vectors, in matching order.
func (s *Store) Upsert(ctx context.Context, docs []model.RetrievedDocument, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		payload := map[string]*qdrant.Value{
			"text":      qdrant.NewValueString(doc.Text),
			"source_id": qdrant.NewValueString(doc.SourceID),
			"site":      qdrant.NewValueString(string(doc.Site)),
			"rating":    qdrant.NewValueDouble(doc.Rating),
			"date":      qdrant.NewValueString(doc.Date),
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i) + 1),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search returns up to k documents ordered by descending similarity.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]model.RetrievedDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", s.collection, err)
	}

	docs := make([]model.RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		doc := model.RetrievedDocument{Score: float64(hit.Score)}
		if v, ok := hit.Payload["text"]; ok {
			doc.Text = v.GetStringValue()
		}
		if v, ok := hit.Payload["source_id"]; ok {
			doc.SourceID = v.GetStringValue()
		}
		if v, ok := hit.Payload["site"]; ok {
			doc.Site = model.Site(v.GetStringValue())
		}
		if v, ok := hit.Payload["rating"]; ok {
			doc.Rating = v.GetDoubleValue()
		}
		if v, ok := hit.Payload["date"]; ok {
			doc.Date = v.GetStringValue()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count reports the number of points in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", s.collection, err)
	}
	return int(n), nil
}

var _ index.VectorStore = (*Store)(nil)
