package adapters

import (
	"context"
	"fmt"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	"google.golang.org/genai"
)

var _ domain.Embedder = (*GeminiEmbedder)(nil)

const defaultEmbeddingModel = "text-embedding-004"

// contentEmbedder is satisfied by genai.Models
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder produces embeddings through the Gemini API
type GeminiEmbedder struct {
	models     contentEmbedder
	model      string
	dimensions int
}

// NewGeminiEmbedder creates an embedder for the given API key and model
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return newGeminiEmbedder(gc.Models, model, dimensions), nil
}

func newGeminiEmbedder(models contentEmbedder, model string, dimensions int) *GeminiEmbedder {
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &GeminiEmbedder{
		models:     models,
		model:      model,
		dimensions: dimensions,
	}
}

// Embed returns the embedding of text
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if e.dimensions > 0 {
		dims := int32(e.dimensions)
		cfg.OutputDimensionality = &dims
	}

	resp, err := e.models.EmbedContent(ctx, e.model, []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}
