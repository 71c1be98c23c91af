package report

import (
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// DeltaTable renders the per-chunk-group detail of one area as a plain-text
// table, one row per group with its signed size deltas.
func DeltaTable(areaDelta AreaDelta) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.AppendHeader(table.Row{"Chunk group", "Stat", "Parsed", "Gzip"})

	for _, g := range areaDelta {
		t.AppendRow(table.Row{
			g.Name,
			signedBytes(g.DeltaSizes.StatSize),
			signedBytes(g.DeltaSizes.ParsedSize),
			signedBytes(g.DeltaSizes.GzipSize),
		})
	}

	return t.Render()
}

// signedBytes formats a byte delta with an explicit sign, e.g. "+1.2 kB".
func signedBytes(n int64) string {
	switch {
	case n < 0:
		return "-" + humanize.Bytes(uint64(-n))
	case n > 0:
		return "+" + humanize.Bytes(uint64(n))
	default:
		return "0 B"
	}
}
