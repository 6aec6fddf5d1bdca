package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/redbay-eng/drainfield-placer/internal/db"
	"github.com/redbay-eng/drainfield-placer/internal/resilience"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const runsTable = "placement_runs"

var runColumns = []string{"id", "property_id", "flow_gpd", "config_type", "status", "result", "footprint", "created_at"}

// PostgresStore keeps run history in Postgres. Writes retry transient
// failures.
type PostgresStore struct {
	pool    db.Pool
	retry   resilience.RetryConfig
	closeFn func()
}

var _ RunStore = (*PostgresStore)(nil)

// NewPool opens and pings a pgx pool.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, nil
}

// NewPostgres connects a PostgresStore.
func NewPostgres(ctx context.Context, connString string, retry resilience.RetryConfig) (*PostgresStore, error) {
	pool, err := NewPool(ctx, connString)
	if err != nil {
		return nil, err
	}
	s := NewPostgresWithPool(pool, retry)
	s.closeFn = pool.Close
	return s, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool, retry resilience.RetryConfig) *PostgresStore {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("postgres.runs")
	}
	return &PostgresStore{pool: pool, retry: retry}
}

// Pool returns the underlying pool.
func (s *PostgresStore) Pool() db.Pool { return s.pool }

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, s.pool, migrationFS, "migrations")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func runValues(r *Run) []any {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return []any{r.ID.String(), r.PropertyID, r.FlowGPD, r.ConfigType, r.Status, []byte(r.Result), r.Footprint, r.CreatedAt}
}

func (s *PostgresStore) SaveRun(ctx context.Context, r *Run) error {
	args := runValues(r)
	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO placement_runs (id, property_id, flow_gpd, config_type, status, result, footprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			args...,
		)
		return err
	})
	return eris.Wrapf(err, "postgres: insert run %s", r.ID)
}

// SaveRuns bulk-inserts runs with COPY.
func (s *PostgresStore) SaveRuns(ctx context.Context, runs []Run) (int64, error) {
	rows := make([][]any, len(runs))
	for i := range runs {
		rows[i] = runValues(&runs[i])
	}
	return resilience.DoVal(ctx, s.retry, func(ctx context.Context) (int64, error) {
		return db.CopyFrom(ctx, s.pool, runsTable, runColumns, rows)
	})
}

const pgRunColumns = `id, property_id, flow_gpd, config_type, status, result, footprint, created_at`

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgRunColumns+` FROM placement_runs WHERE id = $1`, id.String())
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + pgRunColumns + ` FROM placement_runs WHERE true`
	args := []any{}
	if filter.PropertyID != "" {
		args = append(args, filter.PropertyID)
		query += fmt.Sprintf(` AND property_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	args = append(args, filter.limit())
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*Run, error) {
	var (
		r      Run
		id     string
		result []byte
	)
	if err := row.Scan(&id, &r.PropertyID, &r.FlowGPD, &r.ConfigType, &r.Status, &result, &r.Footprint, &r.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: parse run id %q", id)
	}
	r.ID = parsed
	r.Result = result
	return &r, nil
}
