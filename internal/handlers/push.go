package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

// GetPush handles requests to look up a single push by sha
func (h *Handler) GetPush(w http.ResponseWriter, r *http.Request) {
	sha := r.URL.Query().Get("sha")
	if sha == "" {
		h.writeAppError(w, errors.InvalidRequest("'sha' query parameter is required"))
		return
	}

	push, err := h.store.GetPush(r.Context(), sha)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"push": push}, http.StatusOK)
}

// InsertPush handles requests to record a new push
func (h *Handler) InsertPush(w http.ResponseWriter, r *http.Request) {
	var push models.Push
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid request body: "+err.Error()))
		return
	}

	if appErr := h.validator.ValidatePush(&push); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	if err := h.store.InsertPush(r.Context(), &push); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, &models.StatusResponse{Status: "ok"}, http.StatusOK)
}

// GetPushes handles requests to list the pushes on a branch
func (h *Handler) GetPushes(w http.ResponseWriter, r *http.Request) {
	branch := r.URL.Query().Get("branch")
	if branch == "" {
		h.writeAppError(w, errors.InvalidRequest("'branch' query parameter is required"))
		return
	}

	pushes, err := h.store.GetPushesForBranch(r.Context(), branch)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"pushes": pushes}, http.StatusOK)
}

// GetPushLog handles requests for the recent push log
func (h *Handler) GetPushLog(w http.ResponseWriter, r *http.Request) {
	count := queryCount(r, 20)
	branch := r.URL.Query().Get("branch")

	pushlog, err := h.store.GetPushLog(r.Context(), count, branch)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, map[string]interface{}{"pushlog": pushlog}, http.StatusOK)
}

// RemovePush handles requests to delete a push and its build data
func (h *Handler) RemovePush(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sha string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid request body: "+err.Error()))
		return
	}
	if req.Sha == "" {
		h.writeAppError(w, errors.ValidationError("'sha' field is required"))
		return
	}

	if err := h.store.RemovePush(r.Context(), req.Sha); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, &models.StatusResponse{Status: "ok"}, http.StatusOK)
}
