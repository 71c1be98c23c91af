package report

import (
	"github.com/icfy/sizebot/internal/models"
)

// TotalDeltaForArea computes the aggregate size delta for one area: the sum
// of the sizes of every chunk active after the change minus the sum of the
// sizes of every chunk active before it.
//
// The chunk sets are unioned across all groups in the area before summing.
// The same physical chunk can be shared by several groups (e.g. multiple
// async-loaded sections sharing a vendor chunk) and must be counted once,
// not once per referencing group.
//
// A nil areaDelta and chunk names with no match in delta.AllChunks both
// contribute zero rather than erroring.
func TotalDeltaForArea(areaDelta AreaDelta, delta *models.Delta) models.SizeMetrics {
	if len(areaDelta) == 0 {
		return models.ZeroSize
	}

	first := chunksInUse(areaDelta, func(g models.ChunkGroupDelta) []string { return g.FirstChunks })
	second := chunksInUse(areaDelta, func(g models.ChunkGroupDelta) []string { return g.SecondChunks })

	sizeBefore := models.ZeroSize
	for _, name := range first {
		if chunk, ok := delta.FindChunk(name); ok {
			sizeBefore = sizeBefore.Add(chunk.FirstSizes)
		}
	}

	sizeAfter := models.ZeroSize
	for _, name := range second {
		if chunk, ok := delta.FindChunk(name); ok {
			sizeAfter = sizeAfter.Add(chunk.SecondSizes)
		}
	}

	return sizeAfter.Sub(sizeBefore)
}

// chunksInUse collects the deduplicated union of chunk names referenced by
// every group in the area on one side, in first-seen order.
func chunksInUse(areaDelta AreaDelta, side func(models.ChunkGroupDelta) []string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range areaDelta {
		for _, name := range side(g) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
