package db

import (
	"database/sql"
)

// MigrateUp creates the article store schema (§3's Article, §4.2's upsert
// identity and the indexer's scan index), plus the article_embeddings
// diagnostic side-table that mirrors whatever vector the indexer last
// computed, independent of the search engine's own copy.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL,
    canonical_url TEXT NOT NULL,
    source        TEXT NOT NULL,
    title         TEXT NOT NULL,
    body          TEXT NOT NULL,
    author        TEXT NOT NULL DEFAULT '',
    tags          JSONB NOT NULL DEFAULT '[]',
    published_at  TIMESTAMPTZ,
    has_published BOOLEAN NOT NULL DEFAULT FALSE,
    fetched_at    TIMESTAMPTZ NOT NULL,
    hash          TEXT NOT NULL,
    updated       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	indexes := []string{
		// Upsert identity (§4.2): same (canonical_url, hash) is a no-op write.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_canonical_hash ON articles(canonical_url, hash)`,
		// Source-scoped recency browsing.
		`CREATE INDEX IF NOT EXISTS idx_articles_source_published ON articles(source, published_at DESC)`,
		// Indexer's ListUpdatedSince scan.
		`CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// pgvector extension backing the embeddings side-table; ignored if the
	// role lacks superuser or the extension is already present.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_embeddings (
    id         SERIAL PRIMARY KEY,
    article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    provider   VARCHAR(50) NOT NULL,
    model      VARCHAR(100) NOT NULL,
    embedding  vector(384) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(article_id, provider, model)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_article_embeddings_article_id ON article_embeddings(article_id)`); err != nil {
		return err
	}

	// IVFFlat cosine-similarity index; skipped silently without pgvector.
	_, _ = db.Exec(`
CREATE INDEX IF NOT EXISTS idx_article_embeddings_vector
    ON article_embeddings USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100)`)

	return nil
}

// MigrateDown drops the embeddings side-table, leaving the article store
// itself intact: articles is the pipeline's durable record and is never
// dropped by an automated rollback.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_article_embeddings_vector`,
		`DROP INDEX IF EXISTS idx_article_embeddings_article_id`,
		`DROP TABLE IF EXISTS article_embeddings CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
