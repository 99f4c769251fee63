package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite ledger with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	articles_in INTEGER NOT NULL DEFAULT 0,
	articles_unique INTEGER NOT NULL DEFAULT 0,
	groups_found INTEGER NOT NULL DEFAULT 0,
	files_written INTEGER NOT NULL DEFAULT 0,
	method TEXT,
	threshold REAL,
	status TEXT,
	message TEXT
);

CREATE TABLE IF NOT EXISTS run_groups (
	group_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	path TEXT NOT NULL,
	label TEXT,
	size INTEGER NOT NULL,
	similarity REAL,
	created_at TEXT NOT NULL,
	seq INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS run_groups_run_idx ON run_groups(run_id, seq);

CREATE TABLE IF NOT EXISTS group_links (
	group_id TEXT NOT NULL,
	pos INTEGER NOT NULL,
	link TEXT NOT NULL,
	PRIMARY KEY(group_id, pos),
	FOREIGN KEY(group_id) REFERENCES run_groups(group_id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// RecordRun inserts or updates a run
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is required", internalerr.ErrInvalidInput)
	}
	const stmt = `
INSERT INTO runs (id, started_at, finished_at, articles_in, articles_unique,
	groups_found, files_written, method, threshold, status, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	finished_at=excluded.finished_at,
	articles_in=excluded.articles_in,
	articles_unique=excluded.articles_unique,
	groups_found=excluded.groups_found,
	files_written=excluded.files_written,
	method=excluded.method,
	threshold=excluded.threshold,
	status=excluded.status,
	message=excluded.message;
`
	_, err := s.db.ExecContext(ctx, stmt,
		r.ID,
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		r.ArticlesIn,
		r.ArticlesUnique,
		r.GroupsFound,
		r.FilesWritten,
		r.Method,
		r.Threshold,
		r.Status,
		r.Message,
	)
	return err
}

var runColumns = []string{
	"id", "started_at", "finished_at", "articles_in", "articles_unique",
	"groups_found", "files_written", "method", "threshold", "status", "message",
}

// GetRun returns a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	query, args, err := sq.Select(runColumns...).From("runs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return store.Run{}, err
	}
	r, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		r                   store.Run
		started             string
		finished            sql.NullString
		method, status, msg sql.NullString
		threshold           sql.NullFloat64
	)
	err := sc.Scan(&r.ID, &started, &finished, &r.ArticlesIn, &r.ArticlesUnique,
		&r.GroupsFound, &r.FilesWritten, &method, &threshold, &status, &msg)
	if err != nil {
		return store.Run{}, err
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished.String)
	r.Method = method.String
	r.Threshold = threshold.Float64
	r.Status = status.String
	r.Message = msg.String
	return r, nil
}

// RecordGroup appends a group with its links
func (s *sqliteStore) RecordGroup(ctx context.Context, g store.GroupRecord) error {
	if g.RunID == "" || g.GroupID == "" {
		return fmt.Errorf("%w: run id and group id are required", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertGroup = `
INSERT INTO run_groups (group_id, run_id, path, label, size, similarity, created_at, seq)
VALUES (?, ?, ?, ?, ?, ?, ?,
	(SELECT COALESCE(MAX(seq), 0) + 1 FROM run_groups WHERE run_id = ?));
`
	if _, err := tx.ExecContext(ctx, insertGroup,
		g.GroupID, g.RunID, g.Path, g.Label, g.Size, g.Similarity,
		formatTime(g.CreatedAt), g.RunID,
	); err != nil {
		return err
	}

	if len(g.Links) > 0 {
		ins := sq.Insert("group_links").Columns("group_id", "pos", "link")
		for i, link := range g.Links {
			ins = ins.Values(g.GroupID, i, link)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GroupsForRun returns the groups of a run in insertion order
func (s *sqliteStore) GroupsForRun(ctx context.Context, runID string) ([]store.GroupRecord, error) {
	query, args, err := sq.Select("group_id", "run_id", "path", "label", "size", "similarity", "created_at").
		From("run_groups").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var groups []store.GroupRecord
	for rows.Next() {
		var (
			g       store.GroupRecord
			label   sql.NullString
			sim     sql.NullFloat64
			created string
		)
		if err := rows.Scan(&g.GroupID, &g.RunID, &g.Path, &label, &g.Size, &sim, &created); err != nil {
			rows.Close()
			return nil, err
		}
		g.Label = label.String
		g.Similarity = sim.Float64
		g.CreatedAt = parseTime(created)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range groups {
		links, err := s.groupLinks(ctx, groups[i].GroupID)
		if err != nil {
			return nil, err
		}
		groups[i].Links = links
	}
	return groups, nil
}

func (s *sqliteStore) groupLinks(ctx context.Context, groupID string) ([]string, error) {
	query, args, err := sq.Select("link").
		From("group_links").
		Where(sq.Eq{"group_id": groupID}).
		OrderBy("pos").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// timeLayout has a fixed width so that stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
