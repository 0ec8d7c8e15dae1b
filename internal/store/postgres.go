package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/aries-import/internal/aries"
	"github.com/sells-group/aries-import/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO import_runs (id, scenario, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"complete_run": `UPDATE import_runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
	"get_run":      `SELECT id, scenario, status, summary, created_at, updated_at FROM import_runs WHERE id = $1`,
	"list_errors":  `SELECT row_ref, message, scenario, well, model, section, severity FROM import_errors WHERE run_id = $1 ORDER BY seq`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool, mainly for tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for use by subsystems that
// need direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	scenario   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	name       TEXT,
	content    JSONB NOT NULL,
	wells      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_errors (
	seq      BIGSERIAL PRIMARY KEY,
	id       TEXT NOT NULL,
	run_id   TEXT NOT NULL REFERENCES import_runs(id),
	row_ref  TEXT,
	message  TEXT NOT NULL,
	scenario TEXT,
	well     TEXT,
	model    TEXT,
	section  INTEGER,
	severity TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
CREATE INDEX IF NOT EXISTS idx_import_runs_scenario ON import_runs(scenario);
CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind);
CREATE INDEX IF NOT EXISTS idx_documents_wells ON documents USING GIN (wells);
CREATE INDEX IF NOT EXISTS idx_import_errors_run_id ON import_errors(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, scenario string) (*ImportRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, scenario, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, scenario, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &ImportRun{
		ID:        id,
		Scenario:  scenario,
		Status:    RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status RunStatus, summary *RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_runs SET status = $1, summary = $2, updated_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*ImportRun, error) {
	var r ImportRun
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, scenario, status, summary, created_at, updated_at FROM import_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Scenario, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if len(summaryJSON) > 0 && string(summaryJSON) != "null" {
		r.Summary = &RunSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]ImportRun, error) {
	query := `SELECT id, scenario, status, summary, created_at, updated_at FROM import_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Scenario != "" {
		query += fmt.Sprintf(` AND scenario = $%d`, argIdx)
		args = append(args, filter.Scenario)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		var summaryJSON []byte
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if len(summaryJSON) > 0 && string(summaryJSON) != "null" {
			r.Summary = &RunSummary{}
			if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// UpsertDocuments bulk-upserts the flattened documents through a temp
// table and COPY, which keeps large batches to a single round trip.
func (s *PostgresStore) UpsertDocuments(ctx context.Context, docs []PersistedDocument) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		wellsJSON, err := json.Marshal(d.Wells)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal wells for %s", d.ID)
		}
		rows = append(rows, []any{
			d.ID, d.Kind, d.Name, []byte(d.Content), wellsJSON, d.CreatedAt, d.UpdatedAt,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "documents",
		Columns:      []string{"id", "kind", "name", "content", "wells", "created_at", "updated_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"name", "content", "wells", "updated_at"},
	}, rows)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]PersistedDocument, error) {
	query := `SELECT id, kind, name, content, wells, created_at, updated_at FROM documents WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}
	if filter.WellID != "" {
		wellJSON, err := json.Marshal([]map[string]string{{"well_id": filter.WellID}})
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal well filter")
		}
		query += fmt.Sprintf(` AND wells @> $%d::jsonb`, argIdx)
		args = append(args, wellJSON)
		argIdx++
	}
	query += ` ORDER BY kind, created_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []PersistedDocument
	for rows.Next() {
		var d PersistedDocument
		var name *string
		var content, wellsJSON []byte
		if err := rows.Scan(&d.ID, &d.Kind, &name, &content, &wellsJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if name != nil {
			d.Name = *name
		}
		d.Content = json.RawMessage(content)
		if err := json.Unmarshal(wellsJSON, &d.Wells); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal wells for %s", d.ID)
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

// SaveImportErrors streams the report in with COPY. Entries are append
// only; a rerun gets a fresh run id.
func (s *PostgresStore) SaveImportErrors(ctx context.Context, runID string, entries []aries.ImportError) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			uuid.New().String(), runID, e.Row, e.Message, e.Scenario, e.Well, e.Model, e.Section, string(e.Severity),
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "import_errors",
		[]string{"id", "run_id", "row_ref", "message", "scenario", "well", "model", "section", "severity"},
		rows,
	)
	return eris.Wrapf(err, "postgres: save import errors for run %s", runID)
}

func (s *PostgresStore) ListImportErrors(ctx context.Context, runID string) ([]aries.ImportError, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_ref, message, scenario, well, model, section, severity
		 FROM import_errors WHERE run_id = $1 ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list import errors")
	}
	defer rows.Close()

	var entries []aries.ImportError
	for rows.Next() {
		var e aries.ImportError
		var row, scenario, well, modelName *string
		var severity string
		if err := rows.Scan(&row, &e.Message, &scenario, &well, &modelName, &e.Section, &severity); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import error")
		}
		if row != nil {
			e.Row = *row
		}
		if scenario != nil {
			e.Scenario = *scenario
		}
		if well != nil {
			e.Well = *well
		}
		if modelName != nil {
			e.Model = *modelName
		}
		e.Severity = aries.Severity(severity)
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list import errors iterate")
}
