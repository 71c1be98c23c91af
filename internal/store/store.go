// Package store persists pushes, per-build chunk stats, and chunk-group
// membership, and derives the comparison Delta between two stored builds.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS pushes (
	sha        TEXT PRIMARY KEY,
	ancestor   TEXT NOT NULL DEFAULT '',
	branch     TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chunk_stats (
	sha         TEXT NOT NULL,
	chunk       TEXT NOT NULL,
	stat_size   INTEGER NOT NULL,
	parsed_size INTEGER NOT NULL,
	gzip_size   INTEGER NOT NULL,
	PRIMARY KEY (sha, chunk)
);

CREATE TABLE IF NOT EXISTS chunk_groups (
	sha   TEXT NOT NULL,
	grp   TEXT NOT NULL,
	chunk TEXT NOT NULL,
	seq   INTEGER NOT NULL,
	PRIMARY KEY (sha, grp, chunk)
);

CREATE TABLE IF NOT EXISTS ci_builds (
	build_num  INTEGER NOT NULL,
	sha        TEXT NOT NULL,
	branch     TEXT NOT NULL,
	success    BOOLEAN NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Store wraps the stats database.
type Store struct {
	db *sqlx.DB
}

// New opens the database and creates the tables when missing.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError(err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertPush records a push, replacing any previous record for the same sha
// so a rebuilt commit updates its metadata.
func (s *Store) InsertPush(ctx context.Context, push *models.Push) error {
	if push.CreatedAt.IsZero() {
		push.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO pushes (sha, ancestor, branch, message, created_at)
		VALUES (:sha, :ancestor, :branch, :message, :created_at)
		ON CONFLICT (sha) DO UPDATE SET
			ancestor = excluded.ancestor,
			branch   = excluded.branch,
			message  = excluded.message`,
		push)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// GetPush looks up a push by sha. A missing push is a NOT_FOUND error.
func (s *Store) GetPush(ctx context.Context, sha string) (*models.Push, error) {
	var push models.Push
	err := s.db.GetContext(ctx, &push, `SELECT * FROM pushes WHERE sha = ?`, sha)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("push not found: " + sha)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &push, nil
}

// GetPushesForBranch returns all pushes on a branch, oldest first.
func (s *Store) GetPushesForBranch(ctx context.Context, branch string) ([]models.Push, error) {
	var pushes []models.Push
	err := s.db.SelectContext(ctx, &pushes,
		`SELECT * FROM pushes WHERE branch = ? ORDER BY created_at`, branch)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return pushes, nil
}

// GetPushLog returns the most recent pushes, newest first, optionally
// filtered by branch.
func (s *Store) GetPushLog(ctx context.Context, count int, branch string) ([]models.Push, error) {
	var (
		pushes []models.Push
		err    error
	)
	if branch == "" {
		err = s.db.SelectContext(ctx, &pushes,
			`SELECT * FROM pushes ORDER BY created_at DESC LIMIT ?`, count)
	} else {
		err = s.db.SelectContext(ctx, &pushes,
			`SELECT * FROM pushes WHERE branch = ? ORDER BY created_at DESC LIMIT ?`, branch, count)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return pushes, nil
}

// RemovePush deletes a push together with its stats and group membership.
func (s *Store) RemovePush(ctx context.Context, sha string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM pushes WHERE sha = ?`,
		`DELETE FROM chunk_stats WHERE sha = ?`,
		`DELETE FROM chunk_groups WHERE sha = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, sha); err != nil {
			return apperrors.DatabaseError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// InsertChunkStats records one build's measured chunk sizes, replacing any
// previous rows for the same sha.
func (s *Store) InsertChunkStats(ctx context.Context, sha string, stats []models.ChunkStat) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_stats WHERE sha = ?`, sha); err != nil {
		return apperrors.DatabaseError(err)
	}

	for _, stat := range stats {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunk_stats (sha, chunk, stat_size, parsed_size, gzip_size)
			VALUES (?, ?, ?, ?, ?)`,
			sha, stat.Chunk, stat.Sizes.StatSize, stat.Sizes.ParsedSize, stat.Sizes.GzipSize)
		if err != nil {
			return apperrors.DatabaseError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// InsertChunkGroups records one build's chunk-group membership, replacing
// any previous rows for the same sha. Insertion order within each group is
// preserved through the seq column.
func (s *Store) InsertChunkGroups(ctx context.Context, sha string, groups []models.ChunkGroup) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunk_groups WHERE sha = ?`, sha); err != nil {
		return apperrors.DatabaseError(err)
	}

	seq := 0
	for _, group := range groups {
		for _, chunk := range group.Chunks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO chunk_groups (sha, grp, chunk, seq) VALUES (?, ?, ?, ?)`,
				sha, group.Name, chunk, seq)
			if err != nil {
				return apperrors.DatabaseError(err)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

type chunkStatRow struct {
	Chunk      string `db:"chunk"`
	StatSize   int64  `db:"stat_size"`
	ParsedSize int64  `db:"parsed_size"`
	GzipSize   int64  `db:"gzip_size"`
}

func (r chunkStatRow) sizes() models.SizeMetrics {
	return models.SizeMetrics{StatSize: r.StatSize, ParsedSize: r.ParsedSize, GzipSize: r.GzipSize}
}

// GetPushStats returns the measured chunk sizes for one build.
func (s *Store) GetPushStats(ctx context.Context, sha string) ([]models.ChunkStat, error) {
	var rows []chunkStatRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT chunk, stat_size, parsed_size, gzip_size
		FROM chunk_stats WHERE sha = ? ORDER BY chunk`, sha)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	stats := make([]models.ChunkStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, models.ChunkStat{Chunk: r.Chunk, Sizes: r.sizes()})
	}
	return stats, nil
}

// GetKnownChunks returns the distinct chunk names ever recorded.
func (s *Store) GetKnownChunks(ctx context.Context) ([]string, error) {
	var chunks []string
	err := s.db.SelectContext(ctx, &chunks,
		`SELECT DISTINCT chunk FROM chunk_stats ORDER BY chunk`)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return chunks, nil
}

// GetChartData returns a chunk's size history over the last count pushes on
// a branch, oldest first.
func (s *Store) GetChartData(ctx context.Context, count int, chunk, branch string) ([]models.ChartPoint, error) {
	type row struct {
		Sha       string    `db:"sha"`
		CreatedAt time.Time `db:"created_at"`
		chunkStatRow
	}

	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.sha, p.created_at, c.chunk, c.stat_size, c.parsed_size, c.gzip_size
		FROM pushes p JOIN chunk_stats c ON c.sha = p.sha
		WHERE p.branch = ? AND c.chunk = ?
		ORDER BY p.created_at DESC LIMIT ?`, branch, chunk, count)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	points := make([]models.ChartPoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		points = append(points, models.ChartPoint{
			Sha:       rows[i].Sha,
			CreatedAt: rows[i].CreatedAt.Format(time.RFC3339),
			Sizes:     rows[i].sizes(),
		})
	}
	return points, nil
}

// InsertCIBuild records one CI build notification.
func (s *Store) InsertCIBuild(ctx context.Context, build *models.CIBuild) error {
	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO ci_builds (build_num, sha, branch, success, created_at)
		VALUES (:build_num, :sha, :branch, :success, :created_at)`, build)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// GetCIBuildLog returns the most recent CI builds, newest first, optionally
// filtered by branch.
func (s *Store) GetCIBuildLog(ctx context.Context, count int, branch string) ([]models.CIBuild, error) {
	var (
		builds []models.CIBuild
		err    error
	)
	if branch == "" {
		err = s.db.SelectContext(ctx, &builds,
			`SELECT * FROM ci_builds ORDER BY created_at DESC LIMIT ?`, count)
	} else {
		err = s.db.SelectContext(ctx, &builds,
			`SELECT * FROM ci_builds WHERE branch = ? ORDER BY created_at DESC LIMIT ?`, branch, count)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return builds, nil
}
