package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

// shaPattern matches a full or abbreviated git commit sha.
var shaPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Validator provides validation methods
type Validator struct{}

// New creates a new validator instance
func New() *Validator {
	return &Validator{}
}

// ValidatePush validates a push submitted through the API.
func (v *Validator) ValidatePush(push *models.Push) *errors.AppError {
	if push == nil {
		return errors.InvalidRequest("Request body is required")
	}

	if appErr := v.validateSha(push.Sha, "sha"); appErr != nil {
		return appErr
	}

	if push.Ancestor != "" {
		if appErr := v.validateSha(push.Ancestor, "ancestor"); appErr != nil {
			return appErr
		}
	}

	if strings.TrimSpace(push.Branch) == "" {
		return errors.ValidationError("'branch' field is required")
	}

	return nil
}

// ValidateSubmitStats validates a CI stats webhook payload.
func (v *Validator) ValidateSubmitStats(payload *models.SubmitStatsPayload) *errors.AppError {
	if payload == nil {
		return errors.InvalidRequest("Request body is required")
	}

	if appErr := v.validateSha(payload.Sha, "sha"); appErr != nil {
		return appErr
	}

	if payload.Ancestor != "" {
		if appErr := v.validateSha(payload.Ancestor, "ancestor"); appErr != nil {
			return appErr
		}
	}

	if strings.TrimSpace(payload.Branch) == "" {
		return errors.ValidationError("'branch' field is required")
	}

	if len(payload.Chunks) == 0 {
		return errors.ValidationError("'chunks' must not be empty")
	}

	for i, stat := range payload.Chunks {
		if strings.TrimSpace(stat.Chunk) == "" {
			return errors.ValidationError(fmt.Sprintf("chunks[%d]: chunk name is required", i))
		}
		if stat.Sizes.StatSize < 0 || stat.Sizes.ParsedSize < 0 || stat.Sizes.GzipSize < 0 {
			return errors.ValidationError(fmt.Sprintf("chunks[%d]: measured sizes must not be negative", i))
		}
	}

	seen := make(map[string]bool, len(payload.Groups))
	for i, group := range payload.Groups {
		if strings.TrimSpace(group.Name) == "" {
			return errors.ValidationError(fmt.Sprintf("chunk_groups[%d]: group name is required", i))
		}
		if seen[group.Name] {
			return errors.ValidationError(fmt.Sprintf("chunk_groups[%d]: duplicate group %q", i, group.Name))
		}
		seen[group.Name] = true
	}

	return nil
}

// ValidateBuildNotification validates a CI failure webhook payload, which
// carries only the build's identity and no stats.
func (v *Validator) ValidateBuildNotification(payload *models.SubmitStatsPayload) *errors.AppError {
	if payload == nil {
		return errors.InvalidRequest("Request body is required")
	}

	if appErr := v.validateSha(payload.Sha, "sha"); appErr != nil {
		return appErr
	}

	if strings.TrimSpace(payload.Branch) == "" {
		return errors.ValidationError("'branch' field is required")
	}

	return nil
}

func (v *Validator) validateSha(sha, field string) *errors.AppError {
	if strings.TrimSpace(sha) == "" {
		return errors.ValidationError(fmt.Sprintf("'%s' field is required", field))
	}
	if !shaPattern.MatchString(sha) {
		return errors.ValidationError(fmt.Sprintf("'%s' is not a valid commit sha: %q", field, sha))
	}
	return nil
}
