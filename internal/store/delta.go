package store

import (
	"context"
	"sort"

	apperrors "github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

// runtimeChunks are the chunk names the webpack runtime is emitted under.
var runtimeChunks = map[string]bool{
	"manifest": true,
	"runtime":  true,
}

// GetPushDelta derives the comparison between two stored builds: per
// chunk-group the chunk sets active on each side and the group's own size
// delta, plus every chunk seen on either side with its first/second sizes.
// Groups whose chunk sets and sizes did not change are omitted, so a no-op
// comparison yields an empty group list. Missing build data for either sha
// is a NOT_FOUND error.
func (s *Store) GetPushDelta(ctx context.Context, first, second string, opts models.DeltaOptions) (*models.Delta, error) {
	firstStats, err := s.statsMap(ctx, first)
	if err != nil {
		return nil, err
	}
	secondStats, err := s.statsMap(ctx, second)
	if err != nil {
		return nil, err
	}

	firstGroups, err := s.groupMap(ctx, first)
	if err != nil {
		return nil, err
	}
	secondGroups, err := s.groupMap(ctx, second)
	if err != nil {
		return nil, err
	}

	if opts.ExtractManifestGroup {
		firstGroups.extractManifest(firstStats)
		secondGroups.extractManifest(secondStats)
	}

	delta := &models.Delta{
		AllChunks: allChunks(firstStats, secondStats),
	}

	for _, name := range unionNames(secondGroups, firstGroups) {
		group := models.ChunkGroupDelta{
			Name:         name,
			FirstChunks:  firstGroups.chunks[name],
			SecondChunks: secondGroups.chunks[name],
		}
		group.DeltaSizes = sumSizes(secondStats, group.SecondChunks).Sub(sumSizes(firstStats, group.FirstChunks))

		if group.DeltaSizes.IsZero() && sameChunkSet(group.FirstChunks, group.SecondChunks) {
			continue
		}
		delta.Groups = append(delta.Groups, group)
	}

	return delta, nil
}

// statsMap loads one build's chunk sizes keyed by chunk name. A build with
// no recorded stats is missing data.
func (s *Store) statsMap(ctx context.Context, sha string) (map[string]models.SizeMetrics, error) {
	var rows []chunkStatRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT chunk, stat_size, parsed_size, gzip_size
		FROM chunk_stats WHERE sha = ?`, sha)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("no build data for sha: " + sha)
	}

	stats := make(map[string]models.SizeMetrics, len(rows))
	for _, r := range rows {
		stats[r.Chunk] = r.sizes()
	}
	return stats, nil
}

// groupList holds one build's chunk-group membership in recorded order.
type groupList struct {
	names  []string
	chunks map[string][]string
}

func (s *Store) groupMap(ctx context.Context, sha string) (*groupList, error) {
	type row struct {
		Grp   string `db:"grp"`
		Chunk string `db:"chunk"`
	}

	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		`SELECT grp, chunk FROM chunk_groups WHERE sha = ? ORDER BY seq`, sha)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	groups := &groupList{chunks: make(map[string][]string)}
	for _, r := range rows {
		if _, seen := groups.chunks[r.Grp]; !seen {
			groups.names = append(groups.names, r.Grp)
		}
		groups.chunks[r.Grp] = append(groups.chunks[r.Grp], r.Chunk)
	}
	return groups, nil
}

// extractManifest pulls the webpack runtime chunk out of every group into a
// synthetic "manifest" group, so runtime size changes are reported under the
// runtime area instead of inflating every entrypoint.
func (g *groupList) extractManifest(stats map[string]models.SizeMetrics) {
	var extracted []string
	for name := range runtimeChunks {
		if _, ok := stats[name]; ok {
			extracted = append(extracted, name)
		}
	}
	if len(extracted) == 0 {
		return
	}
	sort.Strings(extracted)

	for name, chunks := range g.chunks {
		kept := chunks[:0]
		for _, c := range chunks {
			if !runtimeChunks[c] {
				kept = append(kept, c)
			}
		}
		g.chunks[name] = kept
	}

	// A build may already name a group "manifest"; its surviving members
	// keep their place and the runtime chunks join them.
	if _, seen := g.chunks["manifest"]; !seen {
		g.names = append(g.names, "manifest")
	}
	g.chunks["manifest"] = append(g.chunks["manifest"], extracted...)
}

// unionNames returns primary's group names in order, followed by names only
// present in secondary.
func unionNames(primary, secondary *groupList) []string {
	names := make([]string, 0, len(primary.names))
	names = append(names, primary.names...)
	for _, name := range secondary.names {
		if _, ok := primary.chunks[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// sumSizes sums the recorded sizes of the named chunks; unknown chunks
// contribute zero.
func sumSizes(stats map[string]models.SizeMetrics, chunks []string) models.SizeMetrics {
	total := models.ZeroSize
	for _, c := range chunks {
		total = total.Add(stats[c])
	}
	return total
}

// sameChunkSet reports whether two chunk name lists contain the same set of
// names, ignoring order.
func sameChunkSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, name := range a {
		set[name] = true
	}
	for _, name := range b {
		if !set[name] {
			return false
		}
	}
	return true
}

// allChunks merges both sides' stats into the chunk list the aggregator
// resolves names against, sorted by name for determinism.
func allChunks(firstStats, secondStats map[string]models.SizeMetrics) []models.Chunk {
	names := make(map[string]bool, len(firstStats)+len(secondStats))
	for name := range firstStats {
		names[name] = true
	}
	for name := range secondStats {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	chunks := make([]models.Chunk, 0, len(sorted))
	for _, name := range sorted {
		chunks = append(chunks, models.Chunk{
			Name:        name,
			FirstSizes:  firstStats[name],
			SecondSizes: secondStats[name],
		})
	}
	return chunks
}
