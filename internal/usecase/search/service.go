// Package search implements C4: keyword/semantic article search with
// per-user personalization blending, and the click-feedback loop that
// maintains each user's interest vector in C5.
package search

import (
	"context"
	"fmt"
	"sort"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/observability/metrics"
	"newsfeed/internal/repository"
)

// Embedder computes the L2-normalized embedding for a query string,
// matching internal/infra/embedder.Embedder's signature. Accepted as an
// interface, duplicated rather than imported, for the same decoupling
// reason as the other usecase packages.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config controls the personalization blend weights (§4.4, §9 Open
// Question 2).
type Config struct {
	BlendBaseWeight float64
	BlendUserWeight float64
}

// Service implements C4's search and click endpoints over the search engine
// and the user profile store.
type Service struct {
	Engine   repository.SearchEngine
	Profiles repository.UserProfileStore
	Embedder Embedder
	Config   Config
}

// NewService builds a Service, defaulting the blend weights to 0.8/0.2 when
// both are left zero.
func NewService(engine repository.SearchEngine, profiles repository.UserProfileStore, embedder Embedder, cfg Config) *Service {
	if cfg.BlendBaseWeight == 0 && cfg.BlendUserWeight == 0 {
		cfg.BlendBaseWeight, cfg.BlendUserWeight = 0.8, 0.2
	}
	return &Service{Engine: engine, Profiles: profiles, Embedder: embedder, Config: cfg}
}

// Params is one GET /search request, already validated by the HTTP layer
// (Limit clamped to [1,100], Query non-empty).
type Params struct {
	Query    string
	Limit    int
	Cursor   string
	Semantic bool
	UserID   string
}

// Hit is one result row: the search document plus an optional blended or
// raw score.
type Hit struct {
	Document entity.SearchDocument
	Score    float64
	HasScore bool
}

// Result is the base shape behind SearchResponse (§6); the HTTP handler
// adds request_params and formats the JSON body.
type Result struct {
	Found     int
	Hits      []Hit
	Page      int
	SearchMS  int64
	Cursor    string
	HasCursor bool
	Mode      string // "keyword", "semantic", or "blended" for metrics
}

// Search runs the base query (keyword or semantic per p.Semantic), then
// applies the personalization blend described in §4.4 if p.UserID names a
// user with a stored interest vector.
func (s *Service) Search(ctx context.Context, p Params) (*Result, error) {
	base, mode, err := s.baseSearch(ctx, p)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Found:     base.Found,
		Hits:      toHits(base.Hits),
		Page:      base.Page,
		SearchMS:  base.SearchMS,
		Cursor:    base.Cursor,
		HasCursor: base.HasCursor,
		Mode:      mode,
	}

	if p.UserID == "" || len(result.Hits) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues(mode).Inc()
		return result, nil
	}

	interest, err := s.Profiles.Get(ctx, p.UserID)
	if err != nil {
		// entity.ErrNotFound (unknown user) simply skips the blend (§7); a
		// profile-store outage degrades the same way rather than failing
		// the whole search, since personalization is additive to the base
		// result set.
		metrics.SearchRequestsTotal.WithLabelValues(mode).Inc()
		return result, nil
	}

	userHits, err := s.Engine.VectorQuery(ctx, interest.Interest, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("user-vector query: %w", err)
	}

	userScores := make(map[string]float64, len(userHits.Hits))
	for _, h := range userHits.Hits {
		if h.HasScore {
			userScores[h.Document.ID] = h.Score
		}
	}

	for i := range result.Hits {
		baseScore := 0.0
		if result.Hits[i].HasScore {
			baseScore = result.Hits[i].Score
		}
		userScore := userScores[result.Hits[i].Document.ID]
		result.Hits[i].Score = s.Config.BlendBaseWeight*baseScore + s.Config.BlendUserWeight*userScore
		result.Hits[i].HasScore = true
	}

	sort.SliceStable(result.Hits, func(i, j int) bool {
		return result.Hits[i].Score > result.Hits[j].Score
	})
	result.Mode = "blended"
	metrics.SearchRequestsTotal.WithLabelValues("blended").Inc()
	return result, nil
}

func (s *Service) baseSearch(ctx context.Context, p Params) (*repository.SearchResult, string, error) {
	if !p.Semantic {
		res, err := s.Engine.Search(ctx, p.Query, p.Limit, p.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("keyword search: %w", err)
		}
		return res, "keyword", nil
	}

	qVec, err := s.Embedder.Embed(ctx, p.Query)
	if err != nil {
		return nil, "", fmt.Errorf("embedding query: %w", err)
	}
	res, err := s.Engine.VectorQuery(ctx, qVec, p.Limit)
	if err != nil {
		return nil, "", fmt.Errorf("semantic search: %w", err)
	}
	return res, "semantic", nil
}

func toHits(hits []repository.SearchHit) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{Document: h.Document, Score: h.Score, HasScore: h.HasScore}
	}
	return out
}

// Click implements POST /click/{user_id}/{doc_id} (§4.4, §4.5): fetch the
// document, require it carry a vector, and fold that vector into the
// user's running-mean interest vector. Returns entity.ErrNotFound if the
// document is absent and entity.ErrMissingVector if it has no vec; the
// HTTP layer maps these to 404 and 500 respectively.
func (s *Service) Click(ctx context.Context, userID, docID string) error {
	doc, err := s.Engine.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	if len(doc.Vec) == 0 {
		return entity.ErrMissingVector
	}

	if _, err := s.Profiles.UpsertClick(ctx, userID, doc.Vec); err != nil {
		return fmt.Errorf("upserting click for user %s: %w", userID, err)
	}
	metrics.ClickUpdatesTotal.Inc()
	return nil
}
