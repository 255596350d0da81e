package repository

import (
	"context"

	"newsfeed/internal/domain/entity"
)

// SearchHit is one row of a search or vector query result, in the search
// engine's native shape plus an optional blended Score (present only when
// the search usecase has computed a personalization blend).
type SearchHit struct {
	Document entity.SearchDocument
	Score    float64
	HasScore bool
}

// SearchResult is the base shape returned by a text or vector query:
// enough to build a SearchResponse and, for text queries, to page further
// with Cursor.
type SearchResult struct {
	Found     int
	Hits      []SearchHit
	Page      int
	SearchMS  int64
	Cursor    string
	HasCursor bool
}

// SearchEngine is the hybrid text+vector collection behind C3 (bulk upsert)
// and C4 (query). Collection bootstrap, bulk import and querying follow the
// newline-delimited-JSON, action=upsert contract of the external interface.
type SearchEngine interface {
	// EnsureCollection creates the "news" collection with its schema if
	// absent; it is a no-op if the collection already exists.
	EnsureCollection(ctx context.Context) error

	// BulkUpsert imports docs via action=upsert. All-or-nothing: a partial
	// failure must not be reported as partial success.
	BulkUpsert(ctx context.Context, docs []entity.SearchDocument) error

	// Search runs a keyword query over title and body, sorted descending by
	// published_at, honoring cursor (opaque, may be empty) for paging.
	Search(ctx context.Context, q string, limit int, cursor string) (*SearchResult, error)

	// VectorQuery runs a nearest-neighbor query against vec, returning the
	// top k hits by similarity score.
	VectorQuery(ctx context.Context, vec []float32, k int) (*SearchResult, error)

	// GetDocument fetches a single document by id. Returns entity.ErrNotFound
	// when absent.
	GetDocument(ctx context.Context, id string) (*entity.SearchDocument, error)

	// Health reports the engine's own health string (mirrored verbatim into
	// the HTTP health response).
	Health(ctx context.Context) (string, error)
}
