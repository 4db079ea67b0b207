package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mszinte/locEMexp/internal/domain/types"
)

// Ack statuses for POST /windows.
const (
	ackAccepted  = "accepted"
	ackDuplicate = "duplicate"
)

// WindowsHandler accepts windows for asynchronous analysis.
type WindowsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewWindowsHandler creates a new windows handler.
func NewWindowsHandler(deps Dependencies, maxBodyBytes int64) *WindowsHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &WindowsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostWindow handles POST /windows. Windows are deduplicated by id;
// a window without an id is assigned one, which the ack returns.
func (h *WindowsHandler) HandlePostWindow(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_window"
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

	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, req.WindowID) {
		writeJSON(w, http.StatusOK, types.AckEntry{Status: ackDuplicate, WindowID: req.WindowID, Duplicate: true})
		return
	}
	if !h.deps.Enqueue(ctx, req.ToWindow()) {
		// Forget the id so the client can retry.
		h.deps.Unrecord(ctx, req.WindowID)
		if !h.deps.Started() {
			writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
			return
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, types.AckEntry{Status: ackAccepted, WindowID: req.WindowID})
}
