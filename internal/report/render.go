package report

import (
	"fmt"
	"strings"

	"github.com/icfy/sizebot/internal/config"
	"github.com/icfy/sizebot/internal/models"
)

// AreaDefinition describes one reportable area: its title, the static
// description shown under the detail table, and optional remarks emitted
// when every group in the area moved in the same direction.
type AreaDefinition struct {
	ID      AreaID
	Title   string
	Desc    string
	DescInc string
	DescDec string
}

// Areas is the fixed, hand-ordered catalog the renderer iterates. The report
// always lists areas in this order, not the order they appear in the data.
var Areas = []AreaDefinition{
	{
		ID:    AreaRuntime,
		Title: "Webpack Runtime",
		Desc: "Webpack runtime for loading modules. It is included in the HTML page as an inline script. " +
			"Is downloaded and parsed every time the app is loaded.",
	},
	{
		ID:    AreaEntry,
		Title: "App Entrypoints",
		Desc:  "Common code that is always downloaded and parsed every time the app is loaded, no matter which route is used.",
	},
	{
		ID:    AreaStyleCSS,
		Title: "Legacy SCSS Stylesheet",
		Desc:  "The monolithic CSS stylesheet that is downloaded on every app load.",
		DescInc: "👎 This PR increases the size of the stylesheet, which is a bad news. " +
			"Please consider migrating the CSS styles you modified to webpack imports.",
		DescDec: "👍 Thanks for making the stylesheet smaller in this PR!",
	},
	{
		ID:    AreaSection,
		Title: "Sections",
		Desc: "Sections contain code specific for a given set of routes. " +
			"Is downloaded and parsed only when a particular route is navigated to.",
	},
	{
		ID:    AreaAsyncLoad,
		Title: "Async-loaded Components",
		Desc:  "React components that are loaded lazily, when a certain part of UI is displayed for the first time.",
	},
	{
		ID:    AreaGridicons,
		Title: "Gridicons",
		Desc: "Set of SVG icons that is loaded asynchronously to not delay the initial load. " +
			"Unless you are modifying Gridicons, you should not see any change here.",
	},
	{
		ID:    AreaMomentLocale,
		Title: "Moment.js Locales",
		Desc:  "Locale data for moment.js. Unless you are upgrading the moment.js library, changes in these chunks are suspicious.",
	},
}

// Renderer turns a Delta into the report text posted as a PR comment. The
// output is deterministic: identical inputs produce byte-identical reports.
type Renderer struct {
	cfg   config.ReportConfig
	areas []AreaDefinition
}

// NewRenderer creates a renderer bound to an immutable report configuration.
func NewRenderer(cfg config.ReportConfig) *Renderer {
	return &Renderer{cfg: cfg, areas: Areas}
}

// WatermarkString returns the machine-readable marker embedded in every
// report. The comment synchronizer uses it to recognize the bot's own
// previous comments, so it must stay byte-stable for a given watermark tag.
func (r *Renderer) WatermarkString() string {
	return fmt.Sprintf("sizebot-watermark: %s", r.cfg.Watermark)
}

// Render produces the full report for one push comparison.
func (r *Renderer) Render(delta *models.Delta) string {
	byArea := GroupByArea(delta.Groups)

	var message []string

	message = append(message, fmt.Sprintf("<!-- %s -->", r.WatermarkString()))
	if len(byArea) == 0 {
		message = append(message,
			"This PR does not affect the size of JS and CSS bundles shipped to the user's browser.")
	} else {
		message = append(message,
			"Here is how your PR affects size of JS and CSS bundles shipped to the user's browser:")

		for _, area := range r.areas {
			areaDelta, ok := byArea[area.ID]
			if !ok {
				continue
			}

			bytesDelta := TotalDeltaForArea(areaDelta, delta).GzipSize
			changedBytes := bytesDelta
			suffix := "added 📈"
			if bytesDelta < 0 {
				changedBytes = -bytesDelta
				suffix = "removed 📉"
			}

			message = append(message, "")
			message = append(message, fmt.Sprintf("**%s** (~%d bytes %s [gzipped])", area.Title, changedBytes, suffix))
			message = append(message, "<details>")
			message = append(message, "")

			message = append(message, "```")
			message = append(message, DeltaTable(areaDelta))
			message = append(message, "```")

			message = append(message, "")
			message = append(message, area.Desc)
			if area.DescInc != "" && everyGroup(areaDelta, func(s models.SizeMetrics) bool { return s.GzipSize > 0 }) {
				message = append(message, area.DescInc)
			} else if area.DescDec != "" && everyGroup(areaDelta, func(s models.SizeMetrics) bool { return s.GzipSize < 0 }) {
				message = append(message, area.DescDec)
			}

			message = append(message, "</details>")
		}

		message = append(message, "")
		message = append(message, "**Legend**")
		message = append(message, "<details>")
		message = append(message, "<summary>What is parsed and gzip size?</summary>")
		message = append(message, "")
		message = append(message,
			"**Parsed Size:** Uncompressed size of the JS and CSS files. This much code needs to be parsed and stored in memory.")
		message = append(message,
			"**Gzip Size:** Compressed size of the JS and CSS files. This much data needs to be downloaded over network.")
		message = append(message, "</details>")
	}
	message = append(message, "")
	message = append(message, r.footer())

	return strings.Join(message, "\n")
}

// everyGroup reports whether pred holds for every group's own delta in the
// area. This is the strict universal rule for the increase/decrease remarks:
// a mixed-sign area gets neither.
func everyGroup(areaDelta AreaDelta, pred func(models.SizeMetrics) bool) bool {
	for _, g := range areaDelta {
		if !pred(g.DeltaSizes) {
			return false
		}
	}
	return true
}

func (r *Renderer) footer() string {
	if r.cfg.FooterURL == "" {
		return "Generated by performance advisor bot."
	}
	return fmt.Sprintf("Generated by performance advisor bot at [%s](%s).",
		strings.TrimPrefix(strings.TrimPrefix(r.cfg.FooterURL, "https://"), "http://"), r.cfg.FooterURL)
}
