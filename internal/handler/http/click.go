package http

import (
	"errors"
	"net/http"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/handler/http/respond"
	"newsfeed/internal/usecase/search"
)

// ClickResponse is the body of a successful POST /click/{user_id}/{doc_id}
// (§6).
type ClickResponse struct {
	Status string `json:"status"`
}

// ClickHandler implements POST /click/{user_id}/{doc_id} over a search
// usecase Service. Routed via net/http.ServeMux's {user_id}/{doc_id}
// wildcards (Go 1.22+ pattern matching).
type ClickHandler struct {
	Service *search.Service
}

// ServeHTTP records a click per §4.4's contract: 404 if the document is
// absent, 500 if it carries no vector, 200 {"status":"ok"} on success.
func (h *ClickHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	docID := r.PathValue("doc_id")
	if userID == "" || docID == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("user_id and doc_id are required"))
		return
	}

	err := h.Service.Click(r.Context(), userID, docID)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, ClickResponse{Status: "ok"})
	case errors.Is(err, entity.ErrNotFound):
		respond.Error(w, http.StatusNotFound, err)
	case errors.Is(err, entity.ErrMissingVector):
		// Not a sensitive internal detail; §7 asks for "a clear signal" here.
		respond.Error(w, http.StatusInternalServerError, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
