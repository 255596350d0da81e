// Package postgres holds the Postgres-backed repository implementations for
// the article store (C2) and the diagnostic embeddings side-table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/repository"
)

// ArticleRepo implements repository.ArticleRepository against Postgres.
// Upsert identity is the (canonical_url, hash) unique index created by
// MigrateUp; a repeated pair is a no-op that still returns the stored row.
type ArticleRepo struct {
	db *sql.DB
}

// NewArticleRepo builds an ArticleRepo over db.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// EnsureIndexes creates the indexes the store depends on. It is safe to
// call on every process start: every statement is IF NOT EXISTS.
func (r *ArticleRepo) EnsureIndexes(ctx context.Context) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_canonical_hash ON articles(canonical_url, hash)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source_published ON articles(source, published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("EnsureIndexes: %w", err)
		}
	}
	return nil
}

// Upsert writes article keyed by (CanonicalURL, Hash). A new ID is assigned
// when the row is freshly inserted; a conflicting pair leaves the existing
// row's id and updated timestamp untouched and returns it unchanged.
func (r *ArticleRepo) Upsert(ctx context.Context, article *entity.Article) (*entity.Article, error) {
	id := article.ID
	if id == "" {
		id = uuid.NewString()
	}

	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return nil, fmt.Errorf("Upsert: marshaling tags: %w", err)
	}

	var publishedAt sql.NullTime
	if article.HasPublished {
		publishedAt = sql.NullTime{Time: article.PublishedAt, Valid: true}
	}

	const query = `
INSERT INTO articles (id, url, canonical_url, source, title, body, author, tags, published_at, has_published, fetched_at, hash, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
ON CONFLICT (canonical_url, hash) DO UPDATE SET
    updated = articles.updated
RETURNING id, url, canonical_url, source, title, body, author, tags, published_at, has_published, fetched_at, hash, updated`

	row := r.db.QueryRowContext(ctx, query,
		id,
		article.URL,
		article.CanonicalURL,
		article.Source,
		article.Title,
		article.Body,
		article.Author,
		tags,
		publishedAt,
		article.HasPublished,
		article.FetchedAt,
		article.Hash,
	)

	stored, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("Upsert: %w", err)
	}
	return stored, nil
}

// ListUpdatedSince returns articles with Updated strictly greater than
// since, ascending by Updated, capped at limit (the indexer's per-tick
// page).
func (r *ArticleRepo) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*entity.Article, error) {
	const query = `
SELECT id, url, canonical_url, source, title, body, author, tags, published_at, has_published, fetched_at, hash, updated
FROM articles
WHERE updated > $1
ORDER BY updated ASC
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUpdatedSince: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUpdatedSince: %w", err)
		}
		out = append(out, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUpdatedSince: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*entity.Article, error) {
	var a entity.Article
	var tags []byte
	var publishedAt sql.NullTime

	if err := row.Scan(
		&a.ID,
		&a.URL,
		&a.CanonicalURL,
		&a.Source,
		&a.Title,
		&a.Body,
		&a.Author,
		&tags,
		&publishedAt,
		&a.HasPublished,
		&a.FetchedAt,
		&a.Hash,
		&a.Updated,
	); err != nil {
		return nil, fmt.Errorf("scanning article: %w", err)
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &a.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	if publishedAt.Valid {
		a.PublishedAt = publishedAt.Time
	}

	return &a, nil
}
