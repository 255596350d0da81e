// Package typesense implements repository.SearchEngine over a Typesense
// collection, grounded on original_source/crawler/indexer.py's
// COLLECTION_SCHEMA/ensure-or-create bootstrap and batch-upsert import, and
// original_source/crawler/api.py's /search, /latest and /health query shapes.
package typesense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/typesense/typesense-go/v3/typesense"
	"github.com/typesense/typesense-go/v3/typesense/api"
	"github.com/typesense/typesense-go/v3/typesense/api/pointer"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/repository"
)

// CollectionName is the single collection this pipeline indexes into,
// matching indexer.py's COLLECTION_SCHEMA["name"].
const CollectionName = "news"

// Config names the Typesense node and credentials.
type Config struct {
	Host           string
	Port           int
	Protocol       string // "http" or "https"
	APIKey         string
	ConnectTimeout time.Duration
}

// Engine implements repository.SearchEngine against a Typesense node.
type Engine struct {
	client *typesense.Client
}

// New builds an Engine connected to cfg.
func New(cfg Config) *Engine {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	url := fmt.Sprintf("%s://%s:%d", cfg.Protocol, cfg.Host, cfg.Port)
	client := typesense.NewClient(
		typesense.WithServer(url),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(timeout),
	)
	return &Engine{client: client}
}

// EnsureCollection creates the "news" collection with its schema if absent;
// a no-op if the collection already exists, matching indexer.py's
// try/retrieve-except-ObjectNotFound/create pattern.
func (e *Engine) EnsureCollection(ctx context.Context) error {
	_, err := e.client.Collection(CollectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("retrieving collection %s: %w", CollectionName, err)
	}

	schema := &api.CollectionSchema{
		Name: CollectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "body", Type: "string"},
			{Name: "source", Type: "string", Facet: pointer.True()},
			{Name: "tags", Type: "string[]", Facet: pointer.True()},
			{Name: "published_at", Type: "int64", Facet: pointer.True()},
			{Name: "vec", Type: "float[]", NumDim: pointer.Int(384)},
		},
		DefaultSortingField: pointer.String("published_at"),
	}

	if _, err := e.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("creating collection %s: %w", CollectionName, err)
	}
	return nil
}

// BulkUpsert imports docs via action=upsert. All-or-nothing: any single
// document failure fails the whole call, matching §4.3's "partial batch
// failure is treated as full tick failure" invariant.
func (e *Engine) BulkUpsert(ctx context.Context, docs []entity.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}

	documents := make([]interface{}, len(docs))
	for i, d := range docs {
		documents[i] = d
	}

	params := &api.ImportDocumentsParams{
		Action: pointer.String("upsert"),
	}

	results, err := e.client.Collection(CollectionName).Documents().Import(ctx, documents, params)
	if err != nil {
		return fmt.Errorf("bulk importing %d documents: %w", len(docs), err)
	}

	for i, r := range results {
		if r.Success != nil && !*r.Success {
			msg := "unknown error"
			if r.Error != nil {
				msg = *r.Error
			}
			return fmt.Errorf("importing document %d of %d: %s", i+1, len(docs), msg)
		}
	}
	return nil
}

// Search runs a keyword query over title and body, sorted descending by
// published_at, honoring cursor (opaque, may be empty) for paging.
func (e *Engine) Search(ctx context.Context, q string, limit int, cursor string) (*repository.SearchResult, error) {
	params := &api.SearchCollectionParams{
		Q:       q,
		QueryBy: "title,body",
		SortBy:  pointer.String("published_at:desc"),
		PerPage: pointer.Int(limit),
	}
	page := 1
	if cursor != "" {
		if p, err := strconv.Atoi(cursor); err == nil && p > 0 {
			page = p
		}
	}
	params.Page = pointer.Int(page)

	result, err := e.client.Collection(CollectionName).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", q, err)
	}
	return toSearchResult(result, page, limit)
}

// VectorQuery runs a nearest-neighbor query against vec, returning the top k
// hits by similarity score.
func (e *Engine) VectorQuery(ctx context.Context, vec []float32, k int) (*repository.SearchResult, error) {
	if k <= 0 {
		k = 10
	}

	vecParam := make([]string, len(vec))
	for i, f := range vec {
		vecParam[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	vectorQuery := fmt.Sprintf("vec:(%s, k:%d)", joinCSV(vecParam), k)

	params := &api.SearchCollectionParams{
		Q:           "*",
		QueryBy:     "title",
		VectorQuery: pointer.String(vectorQuery),
		PerPage:     pointer.Int(k),
	}

	result, err := e.client.Collection(CollectionName).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	return toSearchResult(result, 1, k)
}

// GetDocument fetches a single document by id.
func (e *Engine) GetDocument(ctx context.Context, id string) (*entity.SearchDocument, error) {
	raw, err := e.client.Collection(CollectionName).Document(id).Retrieve(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("retrieving document %s: %w", id, err)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", id, err)
	}
	return doc, nil
}

// Health reports the Typesense node's health string, mirrored verbatim into
// the HTTP health response per api.py's {"typesense": status}.
func (e *Engine) Health(ctx context.Context) (string, error) {
	result, err := e.client.Health(ctx, 2)
	if err != nil {
		return "", fmt.Errorf("health check: %w", err)
	}
	if !result {
		return "unavailable", fmt.Errorf("typesense reports unhealthy")
	}
	return "ok", nil
}

func toSearchResult(result *api.SearchResult, page, limit int) (*repository.SearchResult, error) {
	out := &repository.SearchResult{Page: page}
	if result.Found != nil {
		out.Found = *result.Found
	}
	if result.SearchTimeMs != nil {
		out.SearchMS = int64(*result.SearchTimeMs)
	}
	if result.Page != nil {
		out.Page = *result.Page
	}

	if result.Hits == nil {
		return out, nil
	}

	hits := make([]repository.SearchHit, 0, len(*result.Hits))
	for _, h := range *result.Hits {
		if h.Document == nil {
			continue
		}
		doc, err := decodeDocument(*h.Document)
		if err != nil {
			return nil, fmt.Errorf("decoding hit document: %w", err)
		}
		hit := repository.SearchHit{Document: *doc}
		if h.VectorDistance != nil {
			hit.Score = 1 - float64(*h.VectorDistance)
			hit.HasScore = true
		} else if h.TextMatch != nil {
			hit.Score = float64(*h.TextMatch)
			hit.HasScore = true
		}
		hits = append(hits, hit)
	}
	out.Hits = hits

	if len(hits) == limit {
		out.Cursor = strconv.Itoa(page + 1)
		out.HasCursor = true
	}
	return out, nil
}

func decodeDocument(raw map[string]interface{}) (*entity.SearchDocument, error) {
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var doc entity.SearchDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func isNotFound(err error) bool {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusNotFound
	}
	return false
}

func joinCSV(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
