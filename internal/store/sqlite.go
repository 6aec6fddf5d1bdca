package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps run history in a local modernc.org/sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLite opens the database at dsn in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS placement_runs (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL DEFAULT '',
	flow_gpd    REAL NOT NULL DEFAULT 0,
	config_type TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	result      TEXT NOT NULL,
	footprint   BLOB,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_placement_runs_property ON placement_runs(property_id);
CREATE INDEX IF NOT EXISTS idx_placement_runs_created ON placement_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteInsertRun = `INSERT INTO placement_runs
	(id, property_id, flow_gpd, config_type, status, result, footprint, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) SaveRun(ctx context.Context, r *Run) error {
	_, err := s.db.ExecContext(ctx, sqliteInsertRun, sqliteRunArgs(r)...)
	return eris.Wrapf(err, "sqlite: insert run %s", r.ID)
}

// SaveRuns inserts runs in one transaction.
func (s *SQLiteStore) SaveRuns(ctx context.Context, runs []Run) (int64, error) {
	if len(runs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertRun)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert run")
	}
	defer func() { _ = stmt.Close() }()

	for i := range runs {
		if _, err := stmt.ExecContext(ctx, sqliteRunArgs(&runs[i])...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert run %s", runs[i].ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return int64(len(runs)), nil
}

func sqliteRunArgs(r *Run) []any {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return []any{
		r.ID.String(), r.PropertyID, r.FlowGPD, r.ConfigType, r.Status,
		string(r.Result), r.Footprint, r.CreatedAt,
	}
}

const sqliteRunColumns = `id, property_id, flow_gpd, config_type, status, result, footprint, created_at`

func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM placement_runs WHERE id = ?`, id.String())
	r, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", id)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM placement_runs WHERE 1=1`
	var args []any
	if filter.PropertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, filter.PropertyID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scannable) (*Run, error) {
	var (
		r      Run
		id     string
		result string
	)
	err := row.Scan(&id, &r.PropertyID, &r.FlowGPD, &r.ConfigType, &r.Status, &result, &r.Footprint, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse run id %q", id)
	}
	r.Result = []byte(result)
	return &r, nil
}
