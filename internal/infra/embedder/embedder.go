// Package embedder produces the L2-normalized 384-dimension embeddings used
// by the search engine's vec field and the per-user interest vector.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// Dim is the fixed embedding dimension used throughout the pipeline. It must
// match the search engine schema's vec field and the profile store's vector
// column.
const Dim = 384

// Embedder turns text into an L2-normalized embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// normalize scales v to unit L2 norm in place; a zero vector is left as-is.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// HashEmbedder is a deterministic, dependency-free fallback embedder: it
// derives Dim pseudo-random components from a SHA-256 of the text so that
// identical text always produces an identical vector and distinct text
// produces (with overwhelming probability) distinct vectors. It approximates
// nothing about meaning; it exists so the pipeline runs end to end without a
// live OpenAI credential, and so tests are deterministic.
type HashEmbedder struct{}

// NewHashEmbedder returns a HashEmbedder.
func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{} }

// Embed implements Embedder.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, Dim)
	block := sha256.Sum256([]byte(text))
	seed := block[:]
	for i := 0; i < Dim; i++ {
		if len(seed) < 8 {
			next := sha256.Sum256(append([]byte{byte(i)}, block[:]...))
			seed = next[:]
		}
		bits := binary.BigEndian.Uint64(seed[:8])
		seed = seed[1:]
		// Map to a signed value in roughly [-1, 1].
		v[i] = float32(bits%2000001)/1000000.0 - 1.0
	}
	return normalize(v), nil
}

// OpenAIEmbedder calls the OpenAI embeddings API and L2-normalizes the
// result. The configured model must produce vectors of length Dim.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an OpenAIEmbedder using apiKey and model.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Embed implements Embedder.
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      o.model,
		Dimensions: Dim,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings returned no data")
	}
	raw := resp.Data[0].Embedding
	if len(raw) != Dim {
		return nil, fmt.Errorf("openai embedding dimension %d does not match expected %d", len(raw), Dim)
	}
	return normalize(raw), nil
}
