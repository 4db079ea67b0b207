package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	repository "github.com/mszinte/locEMexp/internal/adapters/repository"
	service "github.com/mszinte/locEMexp/internal/app"
	"github.com/mszinte/locEMexp/internal/domain/types"
)

// ResultsHandler serves stored analysis results.
type ResultsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies, maxLimit int) *ResultsHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	return &ResultsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetResult handles GET /results/{window_id}.
func (h *ResultsHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_window_id", NewKind(op, ErrBadRequest))
		return
	}

	res, err := h.deps.Result(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, types.FromResult(res))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// HandleListResults handles GET /results?limit=&subject=.
func (h *ResultsHandler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit %q must be a positive integer", raw)))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit %d exceeds maximum %d", n, h.maxLimit)))
			return
		}
		limit = n
	}
	limit = min(limit, h.maxLimit)

	results, err := h.deps.Results(r.Context(), repository.Query{
		Subject: r.URL.Query().Get("subject"),
		Limit:   limit,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	out := make([]types.ResultEntry, 0, len(results))
	for _, res := range results {
		out = append(out, types.FromResult(res))
	}
	writeJSON(w, http.StatusOK, out)
}
