package handlers

import (
	"net/http"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

// GetChunks handles requests for the set of known chunk names
func (h *Handler) GetChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.store.GetKnownChunks(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"chunks": chunks}, http.StatusOK)
}

// GetPushStats handles requests for one build's measured chunk sizes
func (h *Handler) GetPushStats(w http.ResponseWriter, r *http.Request) {
	sha := r.URL.Query().Get("sha")
	if sha == "" {
		h.writeAppError(w, errors.InvalidRequest("'sha' query parameter is required"))
		return
	}

	stats, err := h.store.GetPushStats(r.Context(), sha)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"stats": stats}, http.StatusOK)
}

// GetPushDelta handles requests for the comparison between two builds
func (h *Handler) GetPushDelta(w http.ResponseWriter, r *http.Request) {
	first := r.URL.Query().Get("first")
	second := r.URL.Query().Get("second")
	if first == "" || second == "" {
		h.writeAppError(w, errors.InvalidRequest("'first' and 'second' query parameters are required"))
		return
	}

	delta, err := h.store.GetPushDelta(r.Context(), first, second, models.DeltaOptions{})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"delta": delta}, http.StatusOK)
}

// GetChart handles requests for a chunk's size history on a branch
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	chunk := r.URL.Query().Get("chunk")
	branch := r.URL.Query().Get("branch")
	if chunk == "" || branch == "" {
		h.writeAppError(w, errors.InvalidRequest("'chunk' and 'branch' query parameters are required"))
		return
	}
	count := queryCount(r, 200)

	data, err := h.store.GetChartData(r.Context(), count, chunk, branch)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"data": data}, http.StatusOK)
}

// GetBuildLog handles requests for the recent CI build log
func (h *Handler) GetBuildLog(w http.ResponseWriter, r *http.Request) {
	count := queryCount(r, 20)
	branch := r.URL.Query().Get("branch")

	buildlog, err := h.store.GetCIBuildLog(r.Context(), count, branch)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"buildlog": buildlog}, http.StatusOK)
}
