// Package executor compiles validated plans into parameterized PostgreSQL
// and runs them. It assumes plans have already passed validation; it still
// never interpolates values into SQL text.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
)

// PageInfo is attached to READ results when the caller paginates.
type PageInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Result is the post-image of one executed operation.
type Result struct {
	Operation string
	Resource  string
	Data      []map[string]interface{}
	Count     int
	PageInfo  *PageInfo
}

// Executor runs plans against a pooled database handle.
type Executor struct {
	db *sqlx.DB
}

// New builds an executor over db.
func New(db *sqlx.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs the primary operation of a validated plan. All failures are
// returned as *ExecError.
func (e *Executor) Execute(ctx context.Context, plan *dsl.DSL, contracts map[string]*contract.ResourceContract) (*Result, error) {
	op := plan.Primary()
	if op == nil {
		return nil, &ExecError{Kind: KindExecution, Message: "plan has no steps"}
	}
	c, ok := contracts[op.ResourceName()]
	if !ok {
		return nil, &ExecError{
			Kind:    KindExecution,
			Message: fmt.Sprintf("no contract for resource %q", op.ResourceName()),
		}
	}

	switch v := op.(type) {
	case *dsl.ReadOperation:
		return e.executeRead(ctx, v, c)
	case *dsl.UpdateOperation:
		return e.executeUpdate(ctx, v, c)
	case *dsl.InsertOperation:
		return e.executeInsert(ctx, v, c)
	default:
		return nil, &ExecError{
			Kind:    KindExecution,
			Message: fmt.Sprintf("unsupported operation kind %s", op.Kind()),
		}
	}
}

func (e *Executor) executeRead(ctx context.Context, op *dsl.ReadOperation, c *contract.ResourceContract) (*Result, error) {
	query, params, err := buildReadQuery(op, c)
	if err != nil {
		return nil, &ExecError{Kind: KindExecution, Message: err.Error()}
	}
	log.Printf("executing read on %s: %s", op.Resource, query)

	rows, err := e.db.QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, translateDBError(err, "query")
	}
	defer func() { _ = rows.Close() }()

	data := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, translateDBError(err, "scan")
		}
		data = append(data, renderRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError(err, "query")
	}

	var pageInfo *PageInfo
	if op.Offset > 0 || op.Limit < c.Limits.MaxRows {
		pageInfo = &PageInfo{Limit: op.Limit, Offset: op.Offset}
	}

	return &Result{
		Operation: string(contract.OpRead),
		Resource:  op.Resource,
		Data:      data,
		Count:     len(data),
		PageInfo:  pageInfo,
	}, nil
}

func (e *Executor) executeUpdate(ctx context.Context, op *dsl.UpdateOperation, c *contract.ResourceContract) (*Result, error) {
	query, params, err := buildUpdateQuery(op, c)
	if err != nil {
		return nil, &ExecError{Kind: KindExecution, Message: err.Error()}
	}
	log.Printf("executing update on %s", op.Resource)

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, translateDBError(err, "transaction begin")
	}
	defer func() { _ = tx.Rollback() }()

	row := map[string]interface{}{}
	if err := tx.QueryRowxContext(ctx, query, params...).MapScan(row); err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("no record found with the specified identifier")
		}
		return nil, translateDBError(err, "update")
	}

	if err := tx.Commit(); err != nil {
		return nil, translateDBError(err, "transaction commit")
	}

	return &Result{
		Operation: string(contract.OpUpdate),
		Resource:  op.Resource,
		Data:      []map[string]interface{}{renderRow(row)},
		Count:     1,
	}, nil
}

func (e *Executor) executeInsert(ctx context.Context, op *dsl.InsertOperation, c *contract.ResourceContract) (*Result, error) {
	query, params := buildInsertQuery(op, c)
	log.Printf("executing insert on %s", op.Resource)

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, translateDBError(err, "transaction begin")
	}
	defer func() { _ = tx.Rollback() }()

	row := map[string]interface{}{}
	if err := tx.QueryRowxContext(ctx, query, params...).MapScan(row); err != nil {
		return nil, translateDBError(err, "insert")
	}

	// Independent existence check on the returned primary key. A RETURNING
	// row from a broken driver or connection must not be reported as
	// success.
	if pk, ok := c.PrimaryKey(); ok {
		pkValue, present := row[pk]
		if !present {
			return nil, &ExecError{
				Kind:    KindDatabase,
				Message: fmt.Sprintf("inserted row is missing primary key %q", pk),
			}
		}
		var one int
		check := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = $1", op.Resource, pk)
		if err := tx.QueryRowxContext(ctx, check, pkValue).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return nil, &ExecError{
					Kind:    KindDatabase,
					Message: "insert verification failed, row not found after insert",
				}
			}
			return nil, translateDBError(err, "insert verification")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateDBError(err, "transaction commit")
	}

	return &Result{
		Operation: string(contract.OpInsert),
		Resource:  op.Resource,
		Data:      []map[string]interface{}{renderRow(row)},
		Count:     1,
	}, nil
}

// Delete removes one row by primary key. It is a maintenance path for
// internal services; nothing planned through the DSL can reach it.
func (e *Executor) Delete(ctx context.Context, resource string, id interface{}, contracts map[string]*contract.ResourceContract) error {
	c, ok := contracts[resource]
	if !ok {
		return &ExecError{
			Kind:    KindExecution,
			Message: fmt.Sprintf("no contract for resource %q", resource),
		}
	}
	pk, ok := c.PrimaryKey()
	if !ok {
		return &ExecError{
			Kind:    KindExecution,
			Message: fmt.Sprintf("resource %q has no resolvable primary key", resource),
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", resource, pk)
	res, err := e.db.ExecContext(ctx, query, id)
	if err != nil {
		execErr := translateDBError(err, "delete")
		if execErr.Kind == KindForeignKey {
			execErr.Message = "cannot delete due to dependent records"
		}
		return execErr
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return translateDBError(err, "delete")
	}
	if affected == 0 {
		return notFound("no record found with the specified identifier")
	}
	return nil
}

// renderRow converts driver values into JSON-friendly forms. Temporal
// columns become RFC 3339 strings, byte slices become strings.
func renderRow(row map[string]interface{}) map[string]interface{} {
	for key, value := range row {
		switch v := value.(type) {
		case time.Time:
			row[key] = v.Format(time.RFC3339)
		case []byte:
			row[key] = string(v)
		}
	}
	return row
}
