package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icfy/sizebot/internal/config"
	"github.com/icfy/sizebot/internal/models"
)

func testRenderer() *Renderer {
	return NewRenderer(config.ReportConfig{
		BotLogin:      "sizebot",
		Watermark:     "c52822",
		TrunkBranches: []string{"master", "trunk"},
		FooterURL:     "http://iscalypsofastyet.com",
	})
}

func TestRenderWatermarkFirstLine(t *testing.T) {
	r := testRenderer()
	out := r.Render(&models.Delta{})

	lines := strings.Split(out, "\n")
	require.Equal(t, "<!-- sizebot-watermark: c52822 -->", lines[0])
	require.Contains(t, lines[0], r.WatermarkString())
}

func TestRenderNoEffect(t *testing.T) {
	out := testRenderer().Render(&models.Delta{})

	require.Contains(t, out,
		"This PR does not affect the size of JS and CSS bundles shipped to the user's browser.")
	require.NotContains(t, out, "**Legend**")
}

func TestRenderEndToEndExample(t *testing.T) {
	delta := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{
				Name:         "entry-home",
				FirstChunks:  []string{"vendor"},
				SecondChunks: []string{"vendor", "home-extra"},
				DeltaSizes:   gz(200),
			},
		},
		AllChunks: []models.Chunk{
			{Name: "vendor", FirstSizes: gz(1000), SecondSizes: gz(1000)},
			{Name: "home-extra", FirstSizes: gz(0), SecondSizes: gz(200)},
		},
	}

	out := testRenderer().Render(delta)

	require.Contains(t, out, "**App Entrypoints** (~200 bytes added 📈")
	require.Contains(t, out, "entry-home")
	require.Contains(t, out, "**Legend**")
	require.Contains(t, out, "iscalypsofastyet.com")
}

func TestRenderDeterministic(t *testing.T) {
	delta := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{Name: "reader", SecondChunks: []string{"reader"}, DeltaSizes: gz(42)},
		},
		AllChunks: []models.Chunk{
			{Name: "reader", SecondSizes: gz(42)},
		},
	}

	r := testRenderer()
	require.Equal(t, r.Render(delta), r.Render(delta))
}

func TestRenderRemovedSuffix(t *testing.T) {
	delta := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{
				Name:         "reader",
				FirstChunks:  []string{"reader"},
				SecondChunks: []string{"reader"},
				DeltaSizes:   gz(-300),
			},
		},
		AllChunks: []models.Chunk{
			{Name: "reader", FirstSizes: gz(1000), SecondSizes: gz(700)},
		},
	}

	out := testRenderer().Render(delta)
	require.Contains(t, out, "**Sections** (~300 bytes removed 📉")
}

func TestRenderCatalogOrder(t *testing.T) {
	// Areas appear in the fixed catalog order, not the order the groups
	// appear in the data.
	delta := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{Name: "reader", SecondChunks: []string{"reader"}, DeltaSizes: gz(10)},
			{Name: "manifest", SecondChunks: []string{"manifest"}, DeltaSizes: gz(10)},
		},
		AllChunks: []models.Chunk{
			{Name: "reader", SecondSizes: gz(10)},
			{Name: "manifest", SecondSizes: gz(10)},
		},
	}

	out := testRenderer().Render(delta)

	runtimePos := strings.Index(out, "**Webpack Runtime**")
	sectionPos := strings.Index(out, "**Sections**")
	require.Greater(t, runtimePos, -1)
	require.Greater(t, sectionPos, -1)
	require.Less(t, runtimePos, sectionPos)
}

func TestRenderRemarkRequiresUniversalSign(t *testing.T) {
	r := testRenderer()
	r.areas = []AreaDefinition{
		{
			ID:      AreaSection,
			Title:   "Sections",
			Desc:    "Route-specific code.",
			DescInc: "remark: every group grew",
			DescDec: "remark: every group shrank",
		},
	}

	mixed := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{Name: "reader", DeltaSizes: gz(5)},
			{Name: "plans", DeltaSizes: gz(-3)},
		},
	}
	out := r.Render(mixed)
	require.NotContains(t, out, "remark: every group grew")
	require.NotContains(t, out, "remark: every group shrank")

	allDown := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{Name: "reader", DeltaSizes: gz(-5)},
			{Name: "plans", DeltaSizes: gz(-3)},
		},
	}
	out = r.Render(allDown)
	require.Contains(t, out, "remark: every group shrank")

	allUp := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{Name: "reader", DeltaSizes: gz(5)},
			{Name: "plans", DeltaSizes: gz(3)},
		},
	}
	out = r.Render(allUp)
	require.Contains(t, out, "remark: every group grew")
}

func TestRenderZeroDeltaCountsAsAdded(t *testing.T) {
	delta := &models.Delta{
		Groups: []models.ChunkGroupDelta{
			{Name: "reader", FirstChunks: []string{"a"}, SecondChunks: []string{"b"}},
		},
		AllChunks: []models.Chunk{
			{Name: "a", FirstSizes: gz(100)},
			{Name: "b", SecondSizes: gz(100)},
		},
	}

	out := testRenderer().Render(delta)
	require.Contains(t, out, "(~0 bytes added 📈")
}
