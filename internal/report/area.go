// Package report implements the bundle-size delta reporting engine: it
// classifies chunk-groups into semantic areas, aggregates byte-size deltas
// per area across two builds, and renders the report posted on pull
// requests.
package report

import (
	"strings"

	"github.com/icfy/sizebot/internal/models"
)

// AreaID identifies a semantic category of chunk-groups.
type AreaID string

const (
	AreaRuntime      AreaID = "runtime"
	AreaEntry        AreaID = "entry"
	AreaStyleCSS     AreaID = "style.css"
	AreaSection      AreaID = "section"
	AreaAsyncLoad    AreaID = "async-load"
	AreaGridicons    AreaID = "gridicons"
	AreaMomentLocale AreaID = "moment-locale"
)

// entrypointNames are the chunk-group names always loaded on app start,
// besides the entry- prefix.
var entrypointNames = map[string]bool{
	"build":          true,
	"domainsLanding": true,
	"entry":          true,
}

// ClassifyGroup maps a chunk-group name to its area. The rules are ordered
// and the first match wins: prefixes overlap, so e.g. moment-locale- must be
// checked before the generic fallthrough.
func ClassifyGroup(name string) AreaID {
	switch {
	case strings.HasPrefix(name, "moment-locale-"):
		return AreaMomentLocale
	case strings.HasPrefix(name, "async-load-"):
		return AreaAsyncLoad
	case entrypointNames[name] || strings.HasPrefix(name, "entry-"):
		return AreaEntry
	case name == "gridicons":
		return AreaGridicons
	case name == "manifest" || name == "runtime":
		return AreaRuntime
	case name == "style.css":
		return AreaStyleCSS
	default:
		return AreaSection
	}
}

// AreaDelta collects all chunk-group deltas classified into one area,
// preserving their relative order in the source sequence.
type AreaDelta []models.ChunkGroupDelta

// GroupByArea partitions chunk-group deltas by area. Areas with no members
// are absent from the map, never present with an empty slice.
func GroupByArea(groups []models.ChunkGroupDelta) map[AreaID]AreaDelta {
	byArea := make(map[AreaID]AreaDelta)
	for _, g := range groups {
		area := ClassifyGroup(g.Name)
		byArea[area] = append(byArea[area], g)
	}
	return byArea
}
