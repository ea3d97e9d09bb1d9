package executor

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
)

func newMockExecutor(t *testing.T) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return New(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func testContracts(t *testing.T) map[string]*contract.ResourceContract {
	t.Helper()
	set, ok := contract.NewRegistry().ForRole(contract.DefaultRole)
	require.True(t, ok)
	return set
}

func TestExecuteRead(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT case_id, client_name FROM cases WHERE status = $1 LIMIT $2")).
		WithArgs("OPEN", 10).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "client_name"}).
			AddRow("0d1e3a5c-1111-4222-8333-444455556666", "Acme Holdings").
			AddRow("1e2f4b6d-2222-4333-9444-555566667777", "Globex"))

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.ReadOperation{
		Resource: "cases",
		Select:   []string{"case_id", "client_name"},
		Where:    []dsl.WhereClause{{Field: "status", Op: "=", Value: "OPEN"}},
		Limit:    10,
	}}}

	result, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.Equal(t, "READ", result.Operation)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "Acme Holdings", result.Data[0]["client_name"])
	require.NotNil(t, result.PageInfo, "limit under max_rows carries page info")
	assert.Equal(t, 10, result.PageInfo.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteReadFullClauses(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT document_id FROM documents WHERE status IN ($1, $2) AND original_file_size > $3 "+
			"ORDER BY created_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("PENDING", "FAILED", float64(1024), 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}))

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.ReadOperation{
		Resource: "documents",
		Select:   []string{"document_id"},
		Where: []dsl.WhereClause{
			{Field: "status", Op: "IN", Value: []interface{}{"PENDING", "FAILED"}},
			{Field: "original_file_size", Op: ">", Value: float64(1024)},
		},
		OrderBy: []dsl.OrderByClause{{Field: "created_at", Dir: "desc"}},
		Limit:   20,
		Offset:  40,
	}}}

	result, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	require.NotNil(t, result.PageInfo)
	assert.Equal(t, 40, result.PageInfo.Offset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteReadBetweenCoercesTemporal(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT case_id FROM cases WHERE created_at BETWEEN $1 AND $2 LIMIT $3")).
		WithArgs(from, to, 100).
		WillReturnRows(sqlmock.NewRows([]string{"case_id"}))

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.ReadOperation{
		Resource: "cases",
		Select:   []string{"case_id"},
		Where: []dsl.WhereClause{{
			Field: "created_at", Op: "BETWEEN",
			Value: []interface{}{"2026-08-01", "2026-08-31"},
		}},
		Limit: 100,
	}}}

	result, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.Nil(t, result.PageInfo, "default limit without offset has no page info")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteReadJoin(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT cases.case_id, cases.client_name FROM cases "+
			"INNER JOIN client_communications ON cases.case_id = client_communications.case_id "+
			"WHERE cases.status = $1 LIMIT $2")).
		WithArgs("OPEN", 50).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "client_name"}))

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.ReadOperation{
		Resource: "cases",
		Select:   []string{"case_id", "client_name"},
		Where:    []dsl.WhereClause{{Field: "status", Op: "=", Value: "OPEN"}},
		Joins: []dsl.JoinClause{{
			TargetResource: "client_communications",
			On:             []contract.JoinOn{{LeftField: "case_id", RightField: "case_id"}},
		}},
		Limit: 50,
	}}}

	_, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteReadRendersTimestamps(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	created := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT case_id, created_at FROM cases LIMIT $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "created_at"}).
			AddRow([]byte("0d1e3a5c-1111-4222-8333-444455556666"), created))

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.ReadOperation{
		Resource: "cases", Select: []string{"case_id", "created_at"}, Limit: 100,
	}}}

	result, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30T12:30:00Z", result.Data[0]["created_at"])
	assert.Equal(t, "0d1e3a5c-1111-4222-8333-444455556666", result.Data[0]["case_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteUpdate(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	docID := "0d1e3a5c-1111-4222-8333-444455556666"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE documents SET status = $1 WHERE document_id = $2 RETURNING *")).
		WithArgs("COMPLETED", docID).
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "status"}).
			AddRow(docID, "COMPLETED"))
	mock.ExpectCommit()

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.UpdateOperation{
		Resource: "documents",
		Where:    []dsl.WhereClause{{Field: "document_id", Op: "=", Value: docID}},
		Update:   map[string]interface{}{"status": "COMPLETED"},
		Limit:    1,
	}}}

	result, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE", result.Operation)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "COMPLETED", result.Data[0]["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteUpdateNotFound(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	docID := "0d1e3a5c-1111-4222-8333-444455556666"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE documents SET status = $1 WHERE document_id = $2 RETURNING *")).
		WithArgs("COMPLETED", docID).
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "status"}))
	mock.ExpectRollback()

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.UpdateOperation{
		Resource: "documents",
		Where:    []dsl.WhereClause{{Field: "document_id", Op: "=", Value: docID}},
		Update:   map[string]interface{}{"status": "COMPLETED"},
		Limit:    1,
	}}}

	_, err := e.Execute(context.Background(), plan, contracts)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindNotFound, execErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteUpdateConflict(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	caseID := "0d1e3a5c-1111-4222-8333-444455556666"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE cases SET client_email = $1 WHERE case_id = $2 RETURNING *")).
		WithArgs("kyc@acme.example", caseID).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.UpdateOperation{
		Resource: "cases",
		Where:    []dsl.WhereClause{{Field: "case_id", Op: "=", Value: caseID}},
		Update:   map[string]interface{}{"client_email": "kyc@acme.example"},
		Limit:    1,
	}}}

	_, err := e.Execute(context.Background(), plan, contracts)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindConflict, execErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteInsert(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	newID := "9f8e7d6c-5555-4666-b777-888899990000"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO cases (client_email, client_name, status, created_at) "+
			"VALUES ($1, $2, $3, NOW()) RETURNING *")).
		WithArgs("kyc@acme.example", "Acme Holdings", "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "client_name", "status"}).
			AddRow(newID, "Acme Holdings", "OPEN"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM cases WHERE case_id = $1")).
		WithArgs(newID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectCommit()

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.InsertOperation{
		Resource: "cases",
		Values: map[string]interface{}{
			"client_name":  "Acme Holdings",
			"client_email": "kyc@acme.example",
			"status":       "OPEN",
		},
	}}}

	result, err := e.Execute(context.Background(), plan, contracts)
	require.NoError(t, err)
	assert.Equal(t, "INSERT", result.Operation)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, newID, result.Data[0]["case_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteInsertVerificationFails(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	newID := "9f8e7d6c-5555-4666-b777-888899990000"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO cases (client_email, client_name, status, created_at) "+
			"VALUES ($1, $2, $3, NOW()) RETURNING *")).
		WithArgs("kyc@acme.example", "Acme Holdings", "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"case_id"}).AddRow(newID))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM cases WHERE case_id = $1")).
		WithArgs(newID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.InsertOperation{
		Resource: "cases",
		Values: map[string]interface{}{
			"client_name":  "Acme Holdings",
			"client_email": "kyc@acme.example",
			"status":       "OPEN",
		},
	}}}

	_, err := e.Execute(context.Background(), plan, contracts)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindDatabase, execErr.Kind)
	assert.Contains(t, execErr.Message, "verification")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteInsertConflict(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO cases (client_email, client_name, status, created_at) "+
			"VALUES ($1, $2, $3, NOW()) RETURNING *")).
		WithArgs("kyc@acme.example", "Acme Holdings", "OPEN").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	plan := &dsl.DSL{Steps: []dsl.Operation{&dsl.InsertOperation{
		Resource: "cases",
		Values: map[string]interface{}{
			"client_name":  "Acme Holdings",
			"client_email": "kyc@acme.example",
			"status":       "OPEN",
		},
	}}}

	_, err := e.Execute(context.Background(), plan, contracts)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindConflict, execErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	caseID := "0d1e3a5c-1111-4222-8333-444455556666"

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cases WHERE case_id = $1")).
		WithArgs(caseID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, e.Delete(context.Background(), "cases", caseID, contracts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotFound(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cases WHERE case_id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := e.Delete(context.Background(), "cases", "missing", contracts)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindNotFound, execErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForeignKeyViolation(t *testing.T) {
	e, mock := newMockExecutor(t)
	contracts := testContracts(t)
	caseID := "0d1e3a5c-1111-4222-8333-444455556666"

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cases WHERE case_id = $1")).
		WithArgs(caseID).
		WillReturnError(&pq.Error{Code: "23503"})

	err := e.Delete(context.Background(), "cases", caseID, contracts)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindForeignKey, execErr.Kind)
	assert.Contains(t, execErr.Message, "dependent records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoerceTemporal(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		check func(t *testing.T, out interface{})
	}{
		{"plain date", "2026-08-01", func(t *testing.T, out interface{}) {
			ts, ok := out.(time.Time)
			require.True(t, ok)
			assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), ts)
		}},
		{"iso with zulu", "2026-08-01T12:00:00Z", func(t *testing.T, out interface{}) {
			ts, ok := out.(time.Time)
			require.True(t, ok)
			assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), ts)
		}},
		{"iso with offset suffix", "2026-08-01T12:00:00+00:00", func(t *testing.T, out interface{}) {
			_, ok := out.(time.Time)
			assert.True(t, ok)
		}},
		{"space separated", "2026-08-01 12:00:00", func(t *testing.T, out interface{}) {
			_, ok := out.(time.Time)
			assert.True(t, ok)
		}},
		{"unparsable passes through", "about a week ago", func(t *testing.T, out interface{}) {
			assert.Equal(t, "about a week ago", out)
		}},
		{"non-string untouched", 42, func(t *testing.T, out interface{}) {
			assert.Equal(t, 42, out)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, CoerceTemporal(tt.in))
		})
	}
}
