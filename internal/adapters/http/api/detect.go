package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/internal/domain/types"
	"github.com/mszinte/locEMexp/pkg/logger"
)

// DetectHandler runs detection synchronously. Nothing it computes is stored.
type DetectHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	maxBatch     int
}

// NewDetectHandler creates a new detect handler.
func NewDetectHandler(deps Dependencies, maxBodyBytes int64, maxBatch int) *DetectHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	return &DetectHandler{deps: deps, maxBodyBytes: maxBodyBytes, maxBatch: maxBatch}
}

type batchRequest struct {
	Windows []types.WindowEntry `json:"windows"`
}

type batchResponse struct {
	Results []types.ResultEntry `json:"results"`
}

// HandleDetect handles POST /detect. Invalid windows answer 400 and
// degenerate ones 422; both bodies still carry the result.
func (h *DetectHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	const op = "api.detect"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req windowRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_window", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.WindowID == "" {
		req.WindowID = uuid.NewString()
	}

	res, err := h.deps.Detect(r.Context(), req.ToWindow())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, types.FromResult(res))
	case res.Status == model.StatusInvalid:
		writeJSON(w, http.StatusBadRequest, types.FromResult(res))
	case res.Status == model.StatusDegenerate:
		logger.Get().Named("http").Info(r.Context(), "window not analyzed",
			logger.String("window_id", res.WindowID),
			logger.Error(WrapKind(op, ErrUnprocessable, err)),
		)
		writeJSON(w, http.StatusUnprocessableEntity, types.FromResult(res))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// HandleDetectBatch handles POST /detect/batch. Per-window failures are
// reported in each result; the batch itself only fails on bad input.
func (h *DetectHandler) HandleDetectBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.detect_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind(op, ErrBadRequest, err))
		return
	}
	switch {
	case len(req.Windows) == 0:
		writeError(w, http.StatusBadRequest, "empty_batch", WrapKind(op, ErrBadRequest, errors.New("no windows")))
		return
	case len(req.Windows) > h.maxBatch:
		writeError(w, http.StatusBadRequest, "batch_too_large",
			WrapKind(op, ErrBadRequest, fmt.Errorf("%d windows, at most %d allowed", len(req.Windows), h.maxBatch)))
		return
	}

	windows := make([]model.Window, len(req.Windows))
	for i, entry := range req.Windows {
		if err := (windowRequest{entry}).validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window",
				WrapKind(op, ErrBadRequest, fmt.Errorf("window %d: %w", i, err)))
			return
		}
		if entry.WindowID == "" {
			entry.WindowID = uuid.NewString()
		}
		windows[i] = entry.ToWindow()
	}

	results, err := h.deps.AnalyzeAll(r.Context(), windows)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "cancelled", WrapKind(op, ErrUnavailable, err))
		return
	}
	resp := batchResponse{Results: make([]types.ResultEntry, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, types.FromResult(res))
	}
	writeJSON(w, http.StatusOK, resp)
}
