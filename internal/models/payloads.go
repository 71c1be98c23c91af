package models

// SubmitStatsPayload is the body of the CI stats webhook: one build's push
// metadata plus its measured chunk sizes and chunk-group membership.
type SubmitStatsPayload struct {
	Sha      string       `json:"sha"`
	Branch   string       `json:"branch"`
	Ancestor string       `json:"ancestor"`
	Message  string       `json:"message"`
	BuildNum int          `json:"build_num"`
	Chunks   []ChunkStat  `json:"chunks"`
	Groups   []ChunkGroup `json:"chunk_groups"`
}

// ChartPoint is one sample of a chunk's size history on a branch.
type ChartPoint struct {
	Sha       string      `json:"sha"`
	CreatedAt string      `json:"created_at"`
	Sizes     SizeMetrics `json:"sizes"`
}
