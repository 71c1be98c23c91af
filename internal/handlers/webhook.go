package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

const (
	// signatureHeader carries the HMAC-SHA256 signature of the webhook body.
	signatureHeader = "X-Sizebot-Signature"
	signaturePrefix = "sha256="
)

// SubmitStats handles the CI webhook that delivers one successful build's
// chunk stats. The build data is stored and a comment synchronization pass
// is kicked off in the background.
func (h *Handler) SubmitStats(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerifiedBody(w, r)
	if !ok {
		return
	}

	var payload models.SubmitStatsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid webhook payload: "+err.Error()))
		return
	}

	if appErr := h.validator.ValidateSubmitStats(&payload); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	h.log.Infof("Received CI stats for %s on %s (%d chunks, %d groups)",
		payload.Sha, payload.Branch, len(payload.Chunks), len(payload.Groups))

	ctx := r.Context()
	push := &models.Push{
		Sha:      payload.Sha,
		Ancestor: payload.Ancestor,
		Branch:   payload.Branch,
		Message:  payload.Message,
	}
	if err := h.store.InsertPush(ctx, push); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.InsertChunkStats(ctx, payload.Sha, payload.Chunks); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.InsertChunkGroups(ctx, payload.Sha, payload.Groups); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.store.InsertCIBuild(ctx, &models.CIBuild{
		BuildNum: payload.BuildNum,
		Sha:      payload.Sha,
		Branch:   payload.Branch,
		Success:  true,
	}); err != nil {
		h.writeError(w, err)
		return
	}

	// The synchronization pass talks to GitHub; run it detached from the
	// request so a slow API call does not hold the webhook response. A
	// concurrent pass for the same PR at worst leaves a duplicate comment
	// that the next pass prunes.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := h.reporter.ReportOnPush(ctx, payload.Sha); err != nil {
			h.log.Errorf("Failed to comment on push %s: %v", payload.Sha, err)
		}
	}()

	h.writeJSON(w, &models.StatusResponse{Status: "accepted"}, http.StatusAccepted)
}

// SubmitStatsFailed handles the CI webhook for failed builds; only the
// build log entry is recorded.
func (h *Handler) SubmitStatsFailed(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerifiedBody(w, r)
	if !ok {
		return
	}

	var payload models.SubmitStatsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid webhook payload: "+err.Error()))
		return
	}

	if appErr := h.validator.ValidateBuildNotification(&payload); appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	h.log.Infof("Received CI failure notification for %s on %s", payload.Sha, payload.Branch)

	if err := h.store.InsertCIBuild(r.Context(), &models.CIBuild{
		BuildNum: payload.BuildNum,
		Sha:      payload.Sha,
		Branch:   payload.Branch,
		Success:  false,
	}); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, &models.StatusResponse{Status: "ok"}, http.StatusOK)
}

// readVerifiedBody reads the request body and checks its HMAC-SHA256
// signature. It writes the error response itself when verification fails.
func (h *Handler) readVerifiedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	headerSignature := r.Header.Get(signatureHeader)
	if headerSignature == "" {
		h.log.Warn("CI webhook received without signature header")
		h.writeAppError(w, errors.New(errors.ErrCodeUnauthorized, "Missing "+signatureHeader+" header"))
		return nil, false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeAppError(w, errors.InvalidRequest("Failed to read request body: "+err.Error()))
		return nil, false
	}

	if !h.verifySignature(body, headerSignature) {
		h.log.Warn("Invalid CI webhook signature")
		h.writeAppError(w, errors.New(errors.ErrCodeUnauthorized, "Invalid webhook signature"))
		return nil, false
	}

	return body, true
}

// verifySignature verifies the HMAC SHA256 signature of the webhook payload
func (h *Handler) verifySignature(payload []byte, headerSignature string) bool {
	if h.webhookSecret == "" {
		// If no secret is configured, skip signature verification
		h.log.Warn("Webhook secret not configured, skipping signature verification")
		return true
	}

	if !strings.HasPrefix(headerSignature, signaturePrefix) {
		return false
	}
	providedSignature := strings.TrimPrefix(headerSignature, signaturePrefix)

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(payload)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	// Constant time comparison to prevent timing attacks
	return hmac.Equal([]byte(providedSignature), []byte(expectedSignature))
}
