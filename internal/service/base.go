// Package service exposes the caller-facing surface of the gateway: typed
// CRUD helpers per resource plus the envelope the route layer serializes.
// Every path goes through contract validation before touching the executor.
package service

import (
	"context"
	"errors"
	"fmt"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/executor"
	"agent-gw-poc/internal/validator"
)

// Result is the caller-facing envelope. Error and ErrorType are set only on
// failure; PageInfo only on paginated reads.
type Result struct {
	Success   bool                     `json:"success"`
	Data      []map[string]interface{} `json:"data"`
	Count     int                      `json:"count"`
	Error     string                   `json:"error,omitempty"`
	ErrorType string                   `json:"error_type,omitempty"`
	PageInfo  *executor.PageInfo       `json:"page_info,omitempty"`
}

func failure(errType, message string) *Result {
	return &Result{Success: false, Data: []map[string]interface{}{}, Error: message, ErrorType: errType}
}

// resultFromError maps pipeline errors onto the envelope without leaking
// driver details.
func resultFromError(err error) *Result {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return failure(string(verr.ErrorType), verr.Message)
	}
	var execErr *executor.ExecError
	if errors.As(err, &execErr) {
		return failure(string(execErr.Kind), execErr.Message)
	}
	return failure(string(executor.KindExecution), err.Error())
}

// BaseService provides contract-checked CRUD over one resource. Concrete
// services embed it and add domain helpers.
type BaseService struct {
	resource  string
	role      string
	contracts map[string]*contract.ResourceContract
	exec      *executor.Executor
}

// NewBaseService resolves the role's contract snapshot and binds it to one
// resource. Unknown roles and resources are configuration errors.
func NewBaseService(reg *contract.Registry, role, resource string, exec *executor.Executor) (*BaseService, error) {
	contracts, ok := reg.ForRole(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if _, ok := contracts[resource]; !ok {
		return nil, fmt.Errorf("role %q has no contract for resource %q", role, resource)
	}
	return &BaseService{
		resource:  resource,
		role:      role,
		contracts: contracts,
		exec:      exec,
	}, nil
}

// Resource returns the resource this service operates on.
func (s *BaseService) Resource() string { return s.resource }

func (s *BaseService) contract() *contract.ResourceContract {
	return s.contracts[s.resource]
}

// run validates then executes a single-step plan, collapsing all outcomes
// into the envelope.
func (s *BaseService) run(ctx context.Context, op dsl.Operation) *Result {
	plan := &dsl.DSL{Steps: []dsl.Operation{op}}
	if verr := validator.Validate(plan, s.contracts, s.role); verr != nil {
		return resultFromError(verr)
	}
	res, err := s.exec.Execute(ctx, plan, s.contracts)
	if err != nil {
		return resultFromError(err)
	}
	return &Result{
		Success:  true,
		Data:     res.Data,
		Count:    res.Count,
		PageInfo: res.PageInfo,
	}
}

// Create inserts one row.
func (s *BaseService) Create(ctx context.Context, values map[string]interface{}) *Result {
	return s.run(ctx, &dsl.InsertOperation{Resource: s.resource, Values: values})
}

// Read selects rows. Empty fields means all readable fields; a non-positive
// limit takes the contract maximum.
func (s *BaseService) Read(ctx context.Context, fields []string, filters []dsl.WhereClause, orderBy []dsl.OrderByClause, limit, offset int) *Result {
	c := s.contract()
	if len(fields) == 0 {
		fields = c.ReadableFields()
	}
	if limit <= 0 {
		limit = c.Limits.MaxRows
	}
	return s.run(ctx, &dsl.ReadOperation{
		Resource: s.resource,
		Select:   fields,
		Where:    filters,
		OrderBy:  orderBy,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetByID fetches one row by primary key.
func (s *BaseService) GetByID(ctx context.Context, id interface{}) *Result {
	pk, ok := s.contract().PrimaryKey()
	if !ok {
		return failure(string(validator.ErrInvalidQuery),
			fmt.Sprintf("resource %s has no resolvable primary key", s.resource))
	}
	return s.Read(ctx, nil, []dsl.WhereClause{{Field: pk, Op: "=", Value: id}}, nil, 1, 0)
}

// GetByField fetches rows matching an equality filter.
func (s *BaseService) GetByField(ctx context.Context, field string, value interface{}, limit int) *Result {
	return s.Read(ctx, nil, []dsl.WhereClause{{Field: field, Op: "=", Value: value}}, nil, limit, 0)
}

// Update modifies one row addressed by primary key.
func (s *BaseService) Update(ctx context.Context, id interface{}, data map[string]interface{}) *Result {
	pk, ok := s.contract().PrimaryKey()
	if !ok {
		return failure(string(validator.ErrInvalidQuery),
			fmt.Sprintf("resource %s has no resolvable primary key", s.resource))
	}
	return s.run(ctx, &dsl.UpdateOperation{
		Resource: s.resource,
		Where:    []dsl.WhereClause{{Field: pk, Op: "=", Value: id}},
		Update:   data,
		Limit:    1,
	})
}

// Delete removes one row by primary key. This is a maintenance path that
// bypasses the DSL, which can never express a delete.
func (s *BaseService) Delete(ctx context.Context, id interface{}) *Result {
	if err := s.exec.Delete(ctx, s.resource, id, s.contracts); err != nil {
		return resultFromError(err)
	}
	return &Result{Success: true, Data: []map[string]interface{}{}, Count: 1}
}
