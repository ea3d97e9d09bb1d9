// Package dsl defines the typed intermediate representation produced by the
// planner and consumed by the validator and executor. The operation set is a
// closed union: nothing outside this package can introduce a new kind.
package dsl

import (
	"encoding/json"
	"fmt"
	"strings"

	"agent-gw-poc/internal/contract"
)

// DefaultLimit is applied to READ operations that omit a limit.
const DefaultLimit = 100

// Operation is one step of a plan. Implementations are ReadOperation,
// InsertOperation, UpdateOperation, and DeleteOperation.
type Operation interface {
	Kind() contract.Operation
	ResourceName() string

	// isOperation keeps the union closed.
	isOperation()
}

// WhereClause is a single predicate. Value is interface{} because the planner
// emits raw JSON values; the validator pins down what is acceptable per
// operator and field type.
type WhereClause struct {
	Field string         `json:"field"`
	Op    string         `json:"op"`
	Value interface{}    `json:"value"`
}

// OrderByClause names a sort field and direction ("asc" or "desc").
type OrderByClause struct {
	Field string `json:"field"`
	Dir   string `json:"dir,omitempty"`
}

// Direction returns the clause direction, defaulting to ascending.
func (o OrderByClause) Direction() string {
	if o.Dir == "" {
		return "asc"
	}
	return o.Dir
}

// JoinClause requests an inner join to another resource.
type JoinClause struct {
	TargetResource string            `json:"target_resource"`
	On             []contract.JoinOn `json:"on"`
	Type           string            `json:"type,omitempty"`
}

// JoinType returns the clause type, defaulting to inner.
func (j JoinClause) JoinType() string {
	if j.Type == "" {
		return "inner"
	}
	return j.Type
}

// ReadOperation selects rows from one resource.
type ReadOperation struct {
	Resource string          `json:"resource"`
	Select   []string        `json:"select"`
	Where    []WhereClause   `json:"where,omitempty"`
	OrderBy  []OrderByClause `json:"order_by,omitempty"`
	Joins    []JoinClause    `json:"joins,omitempty"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset,omitempty"`
}

func (r *ReadOperation) Kind() contract.Operation { return contract.OpRead }
func (r *ReadOperation) ResourceName() string     { return r.Resource }
func (r *ReadOperation) isOperation()             {}

// InsertOperation creates exactly one row.
type InsertOperation struct {
	Resource string                 `json:"resource"`
	Values   map[string]interface{} `json:"values"`
}

func (i *InsertOperation) Kind() contract.Operation { return contract.OpInsert }
func (i *InsertOperation) ResourceName() string     { return i.Resource }
func (i *InsertOperation) isOperation()             {}

// UpdateOperation modifies rows matched by Where. Authorization constrains it
// to a single row addressed by primary key; Limit must be exactly 1.
type UpdateOperation struct {
	Resource string                 `json:"resource"`
	Where    []WhereClause          `json:"where"`
	Update   map[string]interface{} `json:"update"`
	Limit    int                    `json:"limit"`
}

func (u *UpdateOperation) Kind() contract.Operation { return contract.OpUpdate }
func (u *UpdateOperation) ResourceName() string     { return u.Resource }
func (u *UpdateOperation) isOperation()             {}

// DeleteOperation exists so that a plan requesting a delete parses cleanly
// and is then rejected by validation. No contract can grant it.
type DeleteOperation struct {
	Resource string        `json:"resource"`
	Where    []WhereClause `json:"where,omitempty"`
}

func (d *DeleteOperation) Kind() contract.Operation { return contract.Operation("DELETE") }
func (d *DeleteOperation) ResourceName() string     { return d.Resource }
func (d *DeleteOperation) isOperation()             {}

// DSL is a complete plan. Current plans hold exactly one step; the slice form
// leaves room for multi-step transactions later.
type DSL struct {
	Steps []Operation
}

// Primary returns the first step, or nil for an empty plan.
func (d *DSL) Primary() Operation {
	if len(d.Steps) == 0 {
		return nil
	}
	return d.Steps[0]
}

// IsReadOnly reports whether every step is a READ.
func (d *DSL) IsReadOnly() bool {
	for _, step := range d.Steps {
		if _, ok := step.(*ReadOperation); !ok {
			return false
		}
	}
	return len(d.Steps) > 0
}

// Resources returns the distinct resource names touched, in step order.
func (d *DSL) Resources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, step := range d.Steps {
		name := step.ResourceName()
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// envelope is the wire shape of a plan step before dispatch.
type envelope struct {
	Op string `json:"op"`
}

// DecodeOperation parses one step from its JSON form, dispatching on the
// "op" tag. Unknown tags and malformed bodies are errors.
func DecodeOperation(raw json.RawMessage) (Operation, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("reading operation tag: %w", err)
	}
	// Planners emit "READ", hand-written plans tend to use "read".
	switch strings.ToLower(env.Op) {
	case "read":
		op := &ReadOperation{Limit: DefaultLimit}
		if err := json.Unmarshal(raw, op); err != nil {
			return nil, fmt.Errorf("parsing read operation: %w", err)
		}
		return op, nil
	case "insert":
		op := &InsertOperation{}
		if err := json.Unmarshal(raw, op); err != nil {
			return nil, fmt.Errorf("parsing insert operation: %w", err)
		}
		return op, nil
	case "update":
		op := &UpdateOperation{}
		if err := json.Unmarshal(raw, op); err != nil {
			return nil, fmt.Errorf("parsing update operation: %w", err)
		}
		return op, nil
	case "delete":
		op := &DeleteOperation{}
		if err := json.Unmarshal(raw, op); err != nil {
			return nil, fmt.Errorf("parsing delete operation: %w", err)
		}
		return op, nil
	case "":
		return nil, fmt.Errorf("operation missing op tag")
	default:
		return nil, fmt.Errorf("unknown operation %q", env.Op)
	}
}

// Decode parses a full plan from the planner's JSON output. The accepted
// shapes are {"steps": [...]} and a bare single operation object.
func Decode(data []byte) (*DSL, error) {
	var wrapper struct {
		Steps []json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if wrapper.Steps == nil {
		// Bare operation object.
		op, err := DecodeOperation(data)
		if err != nil {
			return nil, err
		}
		return &DSL{Steps: []Operation{op}}, nil
	}
	plan := &DSL{Steps: make([]Operation, 0, len(wrapper.Steps))}
	for i, raw := range wrapper.Steps {
		op, err := DecodeOperation(raw)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		plan.Steps = append(plan.Steps, op)
	}
	return plan, nil
}

// opTag returns the wire tag for an operation.
func opTag(op Operation) string {
	switch op.(type) {
	case *ReadOperation:
		return "read"
	case *InsertOperation:
		return "insert"
	case *UpdateOperation:
		return "update"
	case *DeleteOperation:
		return "delete"
	}
	return ""
}

// MarshalJSON encodes the plan back into its wire form.
func (d *DSL) MarshalJSON() ([]byte, error) {
	steps := make([]map[string]interface{}, 0, len(d.Steps))
	for _, op := range d.Steps {
		body, err := json.Marshal(op)
		if err != nil {
			return nil, err
		}
		var m map[string]interface{}
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, err
		}
		m["op"] = opTag(op)
		steps = append(steps, m)
	}
	return json.Marshal(map[string]interface{}{"steps": steps})
}
