package repository

import (
	"context"

	"newsfeed/internal/domain/entity"
)

// SimilarArticle is one row of an ArticleEmbeddingRepository.SearchSimilar
// result: the article id and its cosine similarity to the query vector.
type SimilarArticle struct {
	ArticleID  string
	Similarity float64
}

// ArticleEmbeddingRepository is a diagnostic side-table mirroring the
// embedding the indexer computed for an article, independent of the search
// engine's own vec field. It exists so re-ranking decisions can be audited
// against the embedding that actually produced them; nothing in the read
// path depends on it.
type ArticleEmbeddingRepository interface {
	// Upsert stores or replaces the embedding for (ArticleID, Provider, Model).
	Upsert(ctx context.Context, rec *entity.ArticleEmbeddingRecord) error

	// FindByArticleID returns every recorded embedding for articleID.
	FindByArticleID(ctx context.Context, articleID string) ([]*entity.ArticleEmbeddingRecord, error)

	// DeleteByArticleID removes every recorded embedding for articleID,
	// returning the number of rows removed.
	DeleteByArticleID(ctx context.Context, articleID string) (int64, error)

	// SearchSimilar returns the limit articles whose stored embedding is
	// nearest to embedding by cosine similarity.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]SimilarArticle, error)
}
