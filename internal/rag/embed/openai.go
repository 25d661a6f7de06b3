package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/reviewchat-core/server/internal/agent/model"
	errx "github.com/reviewchat-core/server/internal/core/error"
	logx "github.com/reviewchat-core/server/pkg/logger"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. Upstage's
// solar embedding API speaks the same protocol, so the base URL selects the
// provider.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an embedder from the embedding gateway config.
func NewOpenAIEmbedder(cfg model.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding api key is empty")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(time.Duration(cfg.Timeout) * time.Second),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIEmbedder{
		client: &client,
		model:  cfg.Model,
	}, nil
}

// Embed returns the embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, in input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, e.mapError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errx.WrapGateway(fmt.Errorf("embedding count mismatch: sent %d, got %d: %w",
			len(texts), len(resp.Data), errx.ErrServiceUnavailable))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	if e.dimension == 0 && len(vectors[0]) > 0 {
		e.dimension = len(vectors[0])
	}
	return vectors, nil
}

// Dimension returns the vector dimension observed on the first call.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// mapError converts provider errors into the gateway failure taxonomy.
func (e *OpenAIEmbedder) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return errx.WrapGateway(fmt.Errorf("embeddings: %w: %v", errx.ErrRateLimited, err))
		case apiErr.StatusCode >= 500:
			return errx.WrapGateway(fmt.Errorf("embeddings: %w: %v", errx.ErrServiceUnavailable, err))
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errx.WrapGateway(fmt.Errorf("embeddings: %w: %v", errx.ErrTimeout, err))
	}
	logx.Error().Err(err).Str("model", e.model).Msg("embedding call failed")
	return errx.WrapGateway(fmt.Errorf("embeddings: %w: %v", errx.ErrServiceUnavailable, err))
}

var _ Embedder = (*OpenAIEmbedder)(nil)
