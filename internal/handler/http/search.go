package http

import (
	"errors"
	"net/http"
	"strconv"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/handler/http/respond"
	"newsfeed/internal/usecase/search"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// SearchHitView is one entry of a SearchResponse's hits array, passing the
// search engine's document shape through augmented with an optional score
// (§6).
type SearchHitView struct {
	Document entity.SearchDocument `json:"document"`
	Score    float64               `json:"score,omitempty"`
}

// SearchResponse is the body of GET /search (§6).
type SearchResponse struct {
	Found         int             `json:"found"`
	Hits          []SearchHitView `json:"hits"`
	Page          int             `json:"page"`
	RequestParams map[string]any  `json:"request_params"`
	SearchTimeMS  int64           `json:"search_time_ms"`
	Cursor        string          `json:"cursor,omitempty"`
}

// SearchHandler implements GET /search over a search usecase Service.
type SearchHandler struct {
	Service *search.Service
}

// ServeHTTP parses and validates query parameters per §4.4, runs the
// search, and writes a SearchResponse.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("q is required"))
		return
	}

	limit := defaultSearchLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSearchLimit {
			respond.Error(w, http.StatusBadRequest, errors.New("limit must be an integer in [1,100]"))
			return
		}
		limit = parsed
	}

	semantic := false
	if raw := q.Get("semantic"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, errors.New("semantic must be a boolean"))
			return
		}
		semantic = parsed
	}

	cursor := q.Get("cursor")
	userID := q.Get("user_id")

	result, err := h.Service.Search(r.Context(), search.Params{
		Query:    query,
		Limit:    limit,
		Cursor:   cursor,
		Semantic: semantic,
		UserID:   userID,
	})
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := SearchResponse{
		Found: result.Found,
		Hits:  make([]SearchHitView, len(result.Hits)),
		Page:  result.Page,
		RequestParams: map[string]any{
			"q":        query,
			"limit":    limit,
			"semantic": semantic,
			"user_id":  userID,
		},
		SearchTimeMS: result.SearchMS,
	}
	if result.HasCursor {
		resp.Cursor = result.Cursor
	}
	if cursor != "" {
		resp.RequestParams["cursor"] = cursor
	}
	for i, hit := range result.Hits {
		view := SearchHitView{Document: hit.Document}
		if hit.HasScore {
			view.Score = hit.Score
		}
		resp.Hits[i] = view
	}

	respond.JSON(w, http.StatusOK, resp)
}
