package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icfy/sizebot/internal/models"
)

func TestDeltaTable(t *testing.T) {
	area := AreaDelta{
		{Name: "entry-home", DeltaSizes: models.SizeMetrics{StatSize: 2048, ParsedSize: 1024, GzipSize: 200}},
		{Name: "entry-login", DeltaSizes: models.SizeMetrics{StatSize: -512, ParsedSize: -256, GzipSize: -100}},
	}

	out := DeltaTable(area)

	require.Contains(t, out, "CHUNK GROUP")
	require.Contains(t, out, "entry-home")
	require.Contains(t, out, "entry-login")

	// One row per group plus header and borders.
	homeLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "entry-home") {
			homeLine = line
		}
	}
	require.NotEmpty(t, homeLine)
	require.Contains(t, homeLine, "+")
	require.Contains(t, out, "-")
}

func TestSignedBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{200, "+200 B"},
		{-300, "-300 B"},
		{2000, "+2.0 kB"},
		{-1500000, "-1.5 MB"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, signedBytes(tc.in))
	}
}
