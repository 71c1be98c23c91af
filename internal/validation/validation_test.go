package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

func validPayload() *models.SubmitStatsPayload {
	return &models.SubmitStatsPayload{
		Sha:      "abc123f",
		Ancestor: "def456a",
		Branch:   "my-feature",
		Chunks: []models.ChunkStat{
			{Chunk: "vendor", Sizes: models.SizeMetrics{GzipSize: 1000}},
		},
		Groups: []models.ChunkGroup{
			{Name: "entry", Chunks: []string{"vendor"}},
		},
	}
}

func TestValidateSubmitStatsOK(t *testing.T) {
	require.Nil(t, New().ValidateSubmitStats(validPayload()))
}

func TestValidateSubmitStats(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.SubmitStatsPayload)
	}{
		{"missing sha", func(p *models.SubmitStatsPayload) { p.Sha = "" }},
		{"malformed sha", func(p *models.SubmitStatsPayload) { p.Sha = "not a sha!" }},
		{"uppercase sha", func(p *models.SubmitStatsPayload) { p.Sha = "ABC123F" }},
		{"malformed ancestor", func(p *models.SubmitStatsPayload) { p.Ancestor = "xyz" }},
		{"missing branch", func(p *models.SubmitStatsPayload) { p.Branch = "  " }},
		{"no chunks", func(p *models.SubmitStatsPayload) { p.Chunks = nil }},
		{"unnamed chunk", func(p *models.SubmitStatsPayload) { p.Chunks[0].Chunk = "" }},
		{"negative size", func(p *models.SubmitStatsPayload) { p.Chunks[0].Sizes.GzipSize = -1 }},
		{"unnamed group", func(p *models.SubmitStatsPayload) { p.Groups[0].Name = "" }},
		{"duplicate group", func(p *models.SubmitStatsPayload) {
			p.Groups = append(p.Groups, models.ChunkGroup{Name: "entry"})
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			tc.mutate(payload)

			appErr := New().ValidateSubmitStats(payload)
			require.NotNil(t, appErr)
			require.Equal(t, errors.ErrCodeValidationFailed, appErr.Code)
		})
	}
}

func TestValidateSubmitStatsNil(t *testing.T) {
	appErr := New().ValidateSubmitStats(nil)
	require.NotNil(t, appErr)
	require.Equal(t, errors.ErrCodeInvalidRequest, appErr.Code)
}

func TestValidateBuildNotification(t *testing.T) {
	v := New()

	require.Nil(t, v.ValidateBuildNotification(&models.SubmitStatsPayload{
		Sha:    "abc123f",
		Branch: "my-feature",
	}))

	require.NotNil(t, v.ValidateBuildNotification(nil))
	require.NotNil(t, v.ValidateBuildNotification(&models.SubmitStatsPayload{Branch: "my-feature"}))
	require.NotNil(t, v.ValidateBuildNotification(&models.SubmitStatsPayload{Sha: "???", Branch: "x"}))
	require.NotNil(t, v.ValidateBuildNotification(&models.SubmitStatsPayload{Sha: "abc123f", Branch: " "}))
}

func TestValidatePush(t *testing.T) {
	v := New()

	require.Nil(t, v.ValidatePush(&models.Push{Sha: "abc123f", Branch: "my-feature"}))
	require.Nil(t, v.ValidatePush(&models.Push{Sha: "abc123f", Ancestor: "def456a", Branch: "my-feature"}))

	require.NotNil(t, v.ValidatePush(nil))
	require.NotNil(t, v.ValidatePush(&models.Push{Branch: "my-feature"}))
	require.NotNil(t, v.ValidatePush(&models.Push{Sha: "abc123f"}))
	require.NotNil(t, v.ValidatePush(&models.Push{Sha: "abc123f", Ancestor: "???", Branch: "x"}))
}

func TestValidateShaLengths(t *testing.T) {
	v := New()

	// Anything between an abbreviated and a full sha is accepted.
	require.Nil(t, v.ValidatePush(&models.Push{Sha: "abcdef0", Branch: "b"}))
	require.Nil(t, v.ValidatePush(&models.Push{
		Sha:    "0123456789abcdef0123456789abcdef01234567",
		Branch: "b",
	}))
	require.NotNil(t, v.ValidatePush(&models.Push{Sha: "abcdef", Branch: "b"}))
	require.NotNil(t, v.ValidatePush(&models.Push{
		Sha:    "0123456789abcdef0123456789abcdef012345678",
		Branch: "b",
	}))
}
