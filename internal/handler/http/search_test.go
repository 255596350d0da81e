package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/repository"
	"newsfeed/internal/usecase/search"
)

type stubEngine struct {
	searchResult *repository.SearchResult
	searchErr    error
	vectorResult *repository.SearchResult
	vectorErr    error
	docs         map[string]*entity.SearchDocument
}

func (e *stubEngine) EnsureCollection(context.Context) error { return nil }

func (e *stubEngine) BulkUpsert(context.Context, []entity.SearchDocument) error { return nil }

func (e *stubEngine) Search(context.Context, string, int, string) (*repository.SearchResult, error) {
	return e.searchResult, e.searchErr
}

func (e *stubEngine) VectorQuery(context.Context, []float32, int) (*repository.SearchResult, error) {
	return e.vectorResult, e.vectorErr
}

func (e *stubEngine) GetDocument(_ context.Context, id string) (*entity.SearchDocument, error) {
	doc, ok := e.docs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return doc, nil
}

func (e *stubEngine) Health(context.Context) (string, error) { return "ok", nil }

type stubProfiles struct {
	interests map[string]*entity.UserInterest
}

func (p *stubProfiles) Get(_ context.Context, userID string) (*entity.UserInterest, error) {
	if i, ok := p.interests[userID]; ok {
		return i, nil
	}
	return nil, entity.ErrNotFound
}

func (p *stubProfiles) UpsertClick(_ context.Context, userID string, vec []float32) (*entity.UserInterest, error) {
	return &entity.UserInterest{UserID: userID, Interest: vec, Count: 1}, nil
}

type stubEmbedder struct{ vec []float32 }

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) { return e.vec, nil }

func TestSearchHandler_ServeHTTP_MissingQueryReturns400(t *testing.T) {
	svc := search.NewService(&stubEngine{}, &stubProfiles{}, &stubEmbedder{}, search.Config{})
	handler := &SearchHandler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_ServeHTTP_InvalidLimitReturns400(t *testing.T) {
	svc := search.NewService(&stubEngine{}, &stubProfiles{}, &stubEmbedder{}, search.Config{})
	handler := &SearchHandler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/search?q=golang&limit=0", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_ServeHTTP_KeywordSearchReturnsHits(t *testing.T) {
	engine := &stubEngine{searchResult: &repository.SearchResult{
		Found: 1,
		Hits:  []repository.SearchHit{{Document: entity.SearchDocument{ID: "a", Title: "T"}, Score: 1.0, HasScore: true}},
		Page:  1,
	}}
	svc := search.NewService(engine, &stubProfiles{}, &stubEmbedder{}, search.Config{})
	handler := &SearchHandler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/search?q=golang&limit=5", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Found)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "a", resp.Hits[0].Document.ID)
	assert.Equal(t, 5, resp.RequestParams["limit"])
}

func TestSearchHandler_ServeHTTP_SemanticMode(t *testing.T) {
	engine := &stubEngine{vectorResult: &repository.SearchResult{
		Hits: []repository.SearchHit{{Document: entity.SearchDocument{ID: "a"}, Score: 0.5, HasScore: true}},
	}}
	embedder := &stubEmbedder{vec: []float32{0.1}}
	svc := search.NewService(engine, &stubProfiles{}, embedder, search.Config{})
	handler := &SearchHandler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/search?q=golang&semantic=true", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp.RequestParams["semantic"])
}

func TestSearchHandler_ServeHTTP_EngineFailureReturns500(t *testing.T) {
	engine := &stubEngine{searchErr: errors.New("engine down")}
	svc := search.NewService(engine, &stubProfiles{}, &stubEmbedder{}, search.Config{})
	handler := &SearchHandler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
