// Package repository declares the storage-agnostic interfaces consumed by
// the usecase layer. Concrete implementations live under
// internal/infra/adapter.
package repository

import (
	"context"
	"time"

	"newsfeed/internal/domain/entity"
)

// ArticleRepository is the document store behind the article pipeline (C2).
// Upsert is keyed by (CanonicalURL, Hash): delivering the same content twice
// must be a no-op, and a new hash for an existing canonical URL must version
// forward. See entity.Article for field semantics.
type ArticleRepository interface {
	// EnsureIndexes creates, idempotently, the indexes the store depends on:
	// canonical_url, hash, and the composite (source, published_at desc).
	EnsureIndexes(ctx context.Context) error

	// Upsert writes an article by (CanonicalURL, Hash) identity. It returns
	// the stored record, including its assigned ID and Updated timestamp. A
	// matching (CanonicalURL, Hash) pair is a no-op write that still returns
	// the existing Updated value unchanged.
	Upsert(ctx context.Context, article *entity.Article) (*entity.Article, error)

	// ListUpdatedSince returns articles whose Updated timestamp is strictly
	// greater than since, ordered ascending by Updated, capped at limit.
	// Used by the indexer to page through new work each tick.
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*entity.Article, error)
}
