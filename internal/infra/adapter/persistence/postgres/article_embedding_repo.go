package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/repository"
)

// DefaultSearchTimeout bounds similarity search queries.
const DefaultSearchTimeout = 5 * time.Second

// ArticleEmbeddingRepo implements repository.ArticleEmbeddingRepository
// against the article_embeddings diagnostic side-table.
type ArticleEmbeddingRepo struct {
	db *sql.DB
}

// NewArticleEmbeddingRepo builds an ArticleEmbeddingRepo over db.
func NewArticleEmbeddingRepo(db *sql.DB) repository.ArticleEmbeddingRepository {
	return &ArticleEmbeddingRepo{db: db}
}

// Upsert stores or replaces rec's embedding, keyed by (article_id, provider, model).
func (repo *ArticleEmbeddingRepo) Upsert(ctx context.Context, rec *entity.ArticleEmbeddingRecord) error {
	if rec == nil {
		return fmt.Errorf("Upsert: embedding record is nil")
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("Upsert: %w", entity.ErrInvalidInput)
	}

	vector := pgvector.NewVector(rec.Embedding)

	const query = `
INSERT INTO article_embeddings (article_id, provider, model, embedding, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT (article_id, provider, model)
DO UPDATE SET
    embedding = EXCLUDED.embedding,
    updated_at = NOW()
RETURNING id, created_at, updated_at`

	err := repo.db.QueryRowContext(ctx, query,
		rec.ArticleID,
		rec.Provider,
		rec.Model,
		vector,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// FindByArticleID returns every recorded embedding for articleID.
func (repo *ArticleEmbeddingRepo) FindByArticleID(ctx context.Context, articleID string) ([]*entity.ArticleEmbeddingRecord, error) {
	const query = `
SELECT id, article_id, provider, model, embedding, created_at, updated_at
FROM article_embeddings
WHERE article_id = $1
ORDER BY provider, model`

	rows, err := repo.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("FindByArticleID: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*entity.ArticleEmbeddingRecord, 0)
	for rows.Next() {
		rec := &entity.ArticleEmbeddingRecord{}
		var vector pgvector.Vector

		if err := rows.Scan(
			&rec.ID,
			&rec.ArticleID,
			&rec.Provider,
			&rec.Model,
			&vector,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("FindByArticleID: Scan: %w", err)
		}
		rec.Embedding = vector.Slice()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindByArticleID: %w", err)
	}
	return records, nil
}

// DeleteByArticleID removes all embeddings recorded for articleID.
func (repo *ArticleEmbeddingRepo) DeleteByArticleID(ctx context.Context, articleID string) (int64, error) {
	const query = `DELETE FROM article_embeddings WHERE article_id = $1`

	result, err := repo.db.ExecContext(ctx, query, articleID)
	if err != nil {
		return 0, fmt.Errorf("DeleteByArticleID: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteByArticleID: RowsAffected: %w", err)
	}
	return count, nil
}

// SearchSimilar finds the articles whose stored embedding is nearest to
// embedding by cosine distance.
func (repo *ArticleEmbeddingRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]repository.SimilarArticle, error) {
	searchCtx, cancel := context.WithTimeout(ctx, DefaultSearchTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	vector := pgvector.NewVector(embedding)

	const query = `
SELECT article_id, 1 - (embedding <=> $1) AS similarity
FROM article_embeddings
ORDER BY embedding <=> $1
LIMIT $2`

	rows, err := repo.db.QueryContext(searchCtx, query, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]repository.SimilarArticle, 0, limit)
	for rows.Next() {
		var result repository.SimilarArticle
		if err := rows.Scan(&result.ArticleID, &result.Similarity); err != nil {
			return nil, fmt.Errorf("SearchSimilar: Scan: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	return results, nil
}
