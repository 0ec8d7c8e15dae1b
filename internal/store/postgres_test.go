package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aries-import/internal/aries"
	"github.com/sells-group/aries-import/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO import_runs`).
		WithArgs(pgxmock.AnyArg(), "DEFAULT", "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "DEFAULT")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, scenario, status, summary, created_at, updated_at FROM import_runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE import_runs SET status`).
		WithArgs("complete", pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	summary := &RunSummary{Wells: 2, Documents: 9}
	err := s.CompleteRun(context.Background(), "run-1", RunStatusComplete, summary)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE import_runs SET status`).
		WithArgs("failed", pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", RunStatusFailed, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertDocuments(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"id", "kind", "name", "content", "wells", "created_at", "updated_at"}
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_documents"}, cols).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "documents"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	w1 := model.WellKey{ScenarioID: "S1", WellID: "W1"}
	n, err := s.UpsertDocuments(context.Background(), []PersistedDocument{
		testDoc("d1", model.KindPricing, "PRI 1", w1),
		testDoc("d2", model.KindExpenses, "EXP 1", w1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertDocuments_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.UpsertDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveImportErrors(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"id", "run_id", "row_ref", "message", "scenario", "well", "model", "section", "severity"}
	mock.ExpectCopyFrom(pgx.Identifier{"import_errors"}, cols).
		WillReturnResult(2)

	entries := []aries.ImportError{
		{Row: "NET 80", Message: "bad ownership", Well: "W1", Section: 7, Severity: aries.SeverityError},
		{Message: "orphan differential", Well: "W2", Severity: aries.SeverityWarning},
	}
	err := s.SaveImportErrors(context.Background(), "run-1", entries)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveImportErrors_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.SaveImportErrors(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
