package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"filesort/internal/buckets"
	"filesort/internal/config"
	"filesort/internal/prefixindex"
	"filesort/internal/services"
)

const (
	minRunIDPrefix = 4
	// timeLayout has fixed-width fractional seconds so stored values sort
	// lexically in time order.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.CatalogPath())
}

// OpenPath initializes or connects to the catalog database at path.
func OpenPath(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run and its entries in one transaction. Entry order is kept.
func (s *Store) SaveRun(ctx context.Context, run Run, entries []Entry) error {
	if strings.TrimSpace(run.ID) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "save run", "run id missing", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, source_dir, destination_dir, no_extension_folder, status,
            started_at, finished_at, moved_count, skipped_count, conflict_count
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Source,
		run.Destination,
		run.NoExtensionFolder,
		string(run.Status),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.MovedCount,
		run.SkippedCount,
		run.ConflictCount,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (
            run_id, position, filename, extension, outcome, target_path, caption, detail
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, entry.Filename, entry.Extension, string(entry.Outcome),
			entry.Target, entry.Caption, entry.Detail,
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", entry.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, source_dir, destination_dir, no_extension_folder, status,
    started_at, finished_at, moved_count, skipped_count, conflict_count`

// LatestRun returns the most recent completed run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		string(StatusCompleted),
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "latest run", "no completed organize run recorded; run 'filesort organize' first", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// GetRun fetches a run by id or by an unambiguous id prefix of at least four
// characters.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if len(id) < minRunIDPrefix {
		return nil, services.Wrap(services.ErrValidation, "catalog", "get run", fmt.Sprintf("run id %q is too short", id), nil)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`,
		id, len(id), id,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(found) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get run", fmt.Sprintf("no run matches %q", id), nil)
	case 1:
		return found[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "catalog", "get run", fmt.Sprintf("run id %q is ambiguous", id), nil)
	}
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Entries returns the files of a run in listing order.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, extension, outcome, target_path, caption, detail
         FROM entries WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		if err := rows.Scan(&e.Filename, &e.Extension, &outcome, &e.Target, &e.Caption, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Snapshot rebuilds the prefix index and bucket map for runID, or for the
// latest completed run when runID is empty.
func (s *Store) Snapshot(ctx context.Context, runID string) (*Snapshot, error) {
	var (
		run *Run
		err error
	)
	if strings.TrimSpace(runID) == "" {
		run, err = s.LatestRun(ctx)
	} else {
		run, err = s.GetRun(ctx, runID)
	}
	if err != nil {
		return nil, err
	}
	entries, err := s.Entries(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Filename)
	}
	return &Snapshot{
		Run:     *run,
		Index:   prefixindex.FromNames(names),
		Buckets: buckets.Build(names),
	}, nil
}

// DeleteRun removes a run and its entries.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "delete run", fmt.Sprintf("no run %q", id), nil)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                 Run
		status              string
		startedAt, finished string
	)
	if err := row.Scan(
		&run.ID, &run.Source, &run.Destination, &run.NoExtensionFolder, &status,
		&startedAt, &finished, &run.MovedCount, &run.SkippedCount, &run.ConflictCount,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
