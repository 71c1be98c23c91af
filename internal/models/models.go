package models

import "time"

// SizeMetrics holds the three size measurements tracked for every bundle
// artifact. All fields may be negative after subtraction.
type SizeMetrics struct {
	StatSize   int64 `json:"stat_size" db:"stat_size"`
	ParsedSize int64 `json:"parsed_size" db:"parsed_size"`
	GzipSize   int64 `json:"gzip_size" db:"gzip_size"`
}

// ZeroSize is the additive identity for SizeMetrics.
var ZeroSize = SizeMetrics{}

// Add returns the componentwise sum of two size metrics.
func (s SizeMetrics) Add(o SizeMetrics) SizeMetrics {
	return SizeMetrics{
		StatSize:   s.StatSize + o.StatSize,
		ParsedSize: s.ParsedSize + o.ParsedSize,
		GzipSize:   s.GzipSize + o.GzipSize,
	}
}

// Sub returns the componentwise difference s - o. Negative results are
// meaningful: the size decreased.
func (s SizeMetrics) Sub(o SizeMetrics) SizeMetrics {
	return SizeMetrics{
		StatSize:   s.StatSize - o.StatSize,
		ParsedSize: s.ParsedSize - o.ParsedSize,
		GzipSize:   s.GzipSize - o.GzipSize,
	}
}

// IsZero reports whether all components are zero.
func (s SizeMetrics) IsZero() bool {
	return s == ZeroSize
}

// Chunk is an individually-downloadable bundle artifact with its size as it
// existed in the ancestor build ("first") and the head build ("second"). A
// chunk absent from one side carries ZeroSize on that side.
type Chunk struct {
	Name        string      `json:"name"`
	FirstSizes  SizeMetrics `json:"firstSizes"`
	SecondSizes SizeMetrics `json:"secondSizes"`
}

// ChunkGroupDelta is one row of raw comparison data: a named chunk-group's
// own size delta plus the set of child chunk names active in each build.
type ChunkGroupDelta struct {
	Name         string      `json:"name"`
	FirstChunks  []string    `json:"firstChunks"`
	SecondChunks []string    `json:"secondChunks"`
	DeltaSizes   SizeMetrics `json:"deltaSizes"`
}

// DeltaOptions controls how a push delta is assembled.
type DeltaOptions struct {
	// ExtractManifestGroup splits the webpack runtime chunk out of every
	// group into its own synthetic "manifest" group.
	ExtractManifestGroup bool
}

// Delta is the full comparison result between two builds.
type Delta struct {
	Groups    []ChunkGroupDelta `json:"groups"`
	AllChunks []Chunk           `json:"allChunks"`
}

// FindChunk resolves a chunk name against AllChunks by exact match. The
// second return value is false when no chunk with that name exists.
func (d *Delta) FindChunk(name string) (Chunk, bool) {
	for _, c := range d.AllChunks {
		if c.Name == name {
			return c, true
		}
	}
	return Chunk{}, false
}

// Push identifies a build event. Ancestor is the merge-base commit used as
// the "before" side of a size comparison; an empty ancestor means the push
// is not comparable.
type Push struct {
	Sha       string    `json:"sha" db:"sha"`
	Ancestor  string    `json:"ancestor" db:"ancestor"`
	Branch    string    `json:"branch" db:"branch"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RemoteComment is an existing comment on a pull request. It is owned by the
// reporting bot when Author matches the bot identity and Body contains the
// current watermark tag.
type RemoteComment struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// ChunkStat is one chunk's measured sizes in a single build, as submitted by
// the CI stats webhook.
type ChunkStat struct {
	Chunk string      `json:"chunk"`
	Sizes SizeMetrics `json:"sizes"`
}

// ChunkGroup names the chunks a logical group loads in a single build.
type ChunkGroup struct {
	Name   string   `json:"name"`
	Chunks []string `json:"chunks"`
}

// CIBuild records one CI build notification received from the stats webhook.
type CIBuild struct {
	BuildNum  int       `json:"build_num" db:"build_num"`
	Sha       string    `json:"sha" db:"sha"`
	Branch    string    `json:"branch" db:"branch"`
	Success   bool      `json:"success" db:"success"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
