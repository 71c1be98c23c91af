package handlers

import (
	"context"

	"github.com/icfy/sizebot/internal/logger"
	"github.com/icfy/sizebot/internal/store"
	"github.com/icfy/sizebot/internal/validation"
)

// ReportTrigger starts a comment synchronization pass for a push.
type ReportTrigger interface {
	ReportOnPush(ctx context.Context, sha string) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store         *store.Store
	reporter      ReportTrigger
	log           *logger.Logger
	validator     *validation.Validator
	webhookSecret string
}

// New creates a new handler instance
func New(st *store.Store, reporter ReportTrigger, log *logger.Logger, webhookSecret string) *Handler {
	return &Handler{
		store:         st,
		reporter:      reporter,
		log:           log,
		validator:     validation.New(),
		webhookSecret: webhookSecret,
	}
}
