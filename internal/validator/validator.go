// Package validator enforces resource contracts over planned operations. It
// is pure and deterministic: no I/O, no hidden state, the same verdict for
// the same inputs every time.
package validator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
)

// ErrorType classifies a validation rejection.
type ErrorType string

const (
	ErrInvalidQuery          ErrorType = "INVALID_QUERY"
	ErrResourceNotFound      ErrorType = "RESOURCE_NOT_FOUND"
	ErrUnauthorizedOperation ErrorType = "UNAUTHORIZED_OPERATION"
	ErrUnauthorizedField     ErrorType = "UNAUTHORIZED_FIELD"
)

// ValidationError is the typed rejection returned by Validate. A nil
// *ValidationError means the plan is authorized.
type ValidationError struct {
	ErrorType ErrorType
	Message   string
	Field     string
	Resource  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Message)
}

func invalid(resource, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		ErrorType: ErrInvalidQuery,
		Message:   fmt.Sprintf(format, args...),
		Field:     field,
		Resource:  resource,
	}
}

// Validate checks every step of plan against the contract set for role.
// It never panics and never performs I/O.
func Validate(plan *dsl.DSL, contracts map[string]*contract.ResourceContract, role string) *ValidationError {
	if plan == nil || len(plan.Steps) == 0 {
		return &ValidationError{ErrorType: ErrInvalidQuery, Message: "plan has no steps"}
	}
	if len(plan.Steps) != 1 {
		return &ValidationError{
			ErrorType: ErrInvalidQuery,
			Message:   fmt.Sprintf("plan must contain exactly one step, got %d", len(plan.Steps)),
		}
	}
	for _, step := range plan.Steps {
		if verr := ValidateOperation(step, contracts); verr != nil {
			return verr
		}
	}
	return validateCrossOperation(plan)
}

// ValidateOperation checks a single step. The planner runs this eagerly on
// parsed LLM output; Validate runs it again before execution.
func ValidateOperation(op dsl.Operation, contracts map[string]*contract.ResourceContract) *ValidationError {
	if _, ok := op.(*dsl.DeleteOperation); ok {
		// Categorical: no contract can grant DELETE.
		return invalid(op.ResourceName(), "", "DELETE operations are not allowed")
	}

	resource := op.ResourceName()
	c, ok := contracts[resource]
	if !ok {
		return &ValidationError{
			ErrorType: ErrResourceNotFound,
			Message:   fmt.Sprintf("unknown resource %q", resource),
			Resource:  resource,
		}
	}

	switch v := op.(type) {
	case *dsl.ReadOperation:
		return validateRead(v, c, contracts)
	case *dsl.UpdateOperation:
		return validateUpdate(v, c)
	case *dsl.InsertOperation:
		return validateInsert(v, c)
	}
	return invalid(resource, "", "unsupported operation kind")
}

// validateCrossOperation is the extension point for multi-step plans. With
// plans fixed at one step there is nothing to check yet.
func validateCrossOperation(_ *dsl.DSL) *ValidationError {
	return nil
}

func validateRead(op *dsl.ReadOperation, c *contract.ResourceContract, contracts map[string]*contract.ResourceContract) *ValidationError {
	if !c.IsOperationAllowed(contract.OpRead) {
		return &ValidationError{
			ErrorType: ErrUnauthorizedOperation,
			Message:   fmt.Sprintf("READ is not permitted on %s", c.Resource),
			Resource:  c.Resource,
		}
	}

	if len(op.Select) == 0 {
		return invalid(c.Resource, "", "select list must not be empty")
	}
	for _, name := range op.Select {
		if verr := checkReadable(c, name); verr != nil {
			return verr
		}
	}

	if len(op.Where) > c.Limits.MaxPredicates {
		return invalid(c.Resource, "", "too many predicates: %d exceeds limit of %d",
			len(op.Where), c.Limits.MaxPredicates)
	}
	for _, clause := range op.Where {
		if verr := validateWhereClause(c, clause); verr != nil {
			return verr
		}
	}

	for _, ob := range op.OrderBy {
		if !containsString(c.OrderAllowed, ob.Field) {
			return invalid(c.Resource, ob.Field, "ordering by %q is not permitted", ob.Field)
		}
		dir := ob.Direction()
		if dir != "asc" && dir != "desc" {
			return invalid(c.Resource, ob.Field, "order direction must be asc or desc, got %q", ob.Dir)
		}
	}

	if len(op.Joins) > c.Limits.MaxJoins {
		return invalid(c.Resource, "", "too many joins: %d exceeds limit of %d",
			len(op.Joins), c.Limits.MaxJoins)
	}
	for _, join := range op.Joins {
		if verr := validateJoin(c, join, contracts); verr != nil {
			return verr
		}
	}

	if op.Limit <= 0 {
		return invalid(c.Resource, "", "limit must be positive, got %d", op.Limit)
	}
	if op.Limit > c.Limits.MaxRows {
		return invalid(c.Resource, "", "limit %d exceeds maximum of %d", op.Limit, c.Limits.MaxRows)
	}
	if op.Offset < 0 {
		return invalid(c.Resource, "", "offset must not be negative, got %d", op.Offset)
	}
	return nil
}

func validateUpdate(op *dsl.UpdateOperation, c *contract.ResourceContract) *ValidationError {
	if !c.IsOperationAllowed(contract.OpUpdate) {
		return &ValidationError{
			ErrorType: ErrUnauthorizedOperation,
			Message:   fmt.Sprintf("UPDATE is not permitted on %s", c.Resource),
			Resource:  c.Resource,
		}
	}

	// UPDATE is a single-row operation, always.
	if op.Limit != 1 {
		return invalid(c.Resource, "", "UPDATE limit must be exactly 1, got %d", op.Limit)
	}

	if len(op.Where) == 0 {
		return invalid(c.Resource, "", "UPDATE requires a WHERE clause")
	}
	pk, ok := c.PrimaryKey()
	if !ok {
		return invalid(c.Resource, "", "resource %s has no resolvable primary key", c.Resource)
	}
	hasPKEquality := false
	for _, clause := range op.Where {
		if clause.Field == pk && clause.Op == string(contract.OpEq) {
			hasPKEquality = true
		}
		if verr := validateWhereClause(c, clause); verr != nil {
			return verr
		}
	}
	if !hasPKEquality {
		return invalid(c.Resource, pk, "UPDATE requires primary key equality")
	}

	if len(op.Update) == 0 {
		return invalid(c.Resource, "", "UPDATE has no fields to set")
	}
	if len(op.Update) > c.Limits.MaxUpdateFields {
		return invalid(c.Resource, "", "too many update fields: %d exceeds limit of %d",
			len(op.Update), c.Limits.MaxUpdateFields)
	}
	for name, value := range op.Update {
		if verr := checkWritable(c, name); verr != nil {
			return verr
		}
		if verr := validateValue(c, name, value); verr != nil {
			return verr
		}
	}
	return nil
}

func validateInsert(op *dsl.InsertOperation, c *contract.ResourceContract) *ValidationError {
	if !c.IsOperationAllowed(contract.OpInsert) {
		return &ValidationError{
			ErrorType: ErrUnauthorizedOperation,
			Message:   fmt.Sprintf("INSERT is not permitted on %s", c.Resource),
			Resource:  c.Resource,
		}
	}

	if len(op.Values) == 0 {
		return invalid(c.Resource, "", "INSERT has no values")
	}

	pk, hasPK := c.PrimaryKey()
	if hasPK {
		if _, present := op.Values[pk]; present {
			return invalid(c.Resource, pk, "cannot specify primary key field in INSERT")
		}
	}

	for name, value := range op.Values {
		if verr := checkWritable(c, name); verr != nil {
			return verr
		}
		if verr := validateValue(c, name, value); verr != nil {
			return verr
		}
	}

	// Required fields: non-nullable and writable, minus the auto-managed ones.
	for _, f := range c.Fields {
		if f.Nullable || !f.Writable {
			continue
		}
		if f.Name == "created_at" || f.Name == "updated_at" || (hasPK && f.Name == pk) {
			continue
		}
		if _, present := op.Values[f.Name]; !present {
			return invalid(c.Resource, f.Name, "missing required field %q", f.Name)
		}
	}
	return nil
}

func validateWhereClause(c *contract.ResourceContract, clause dsl.WhereClause) *ValidationError {
	if verr := checkReadable(c, clause.Field); verr != nil {
		return verr
	}
	op, ok := contract.ParseFilterOperator(clause.Op)
	if !ok {
		return invalid(c.Resource, clause.Field, "unknown operator %q", clause.Op)
	}
	allowed := false
	for _, a := range c.AllowedOperators(clause.Field) {
		if a == op {
			allowed = true
			break
		}
	}
	if !allowed {
		return invalid(c.Resource, clause.Field, "operator %q is not permitted on %q", clause.Op, clause.Field)
	}

	switch op {
	case contract.OpIn:
		values, ok := clause.Value.([]interface{})
		if !ok || len(values) == 0 {
			return invalid(c.Resource, clause.Field, "IN requires a non-empty list of values")
		}
		for _, v := range values {
			if verr := validateValue(c, clause.Field, v); verr != nil {
				return verr
			}
		}
	case contract.OpBetween:
		values, ok := clause.Value.([]interface{})
		if !ok || len(values) != 2 {
			return invalid(c.Resource, clause.Field, "BETWEEN requires exactly two values")
		}
		for _, v := range values {
			if verr := validateValue(c, clause.Field, v); verr != nil {
				return verr
			}
		}
	case contract.OpLike, contract.OpILike:
		if _, ok := clause.Value.(string); !ok {
			return invalid(c.Resource, clause.Field, "%s requires a string pattern", clause.Op)
		}
	default:
		if verr := validateValue(c, clause.Field, clause.Value); verr != nil {
			return verr
		}
	}
	return nil
}

func validateJoin(c *contract.ResourceContract, join dsl.JoinClause, contracts map[string]*contract.ResourceContract) *ValidationError {
	if join.JoinType() != "inner" {
		return invalid(c.Resource, "", "join type %q is not supported, only inner joins", join.Type)
	}
	target, ok := contracts[join.TargetResource]
	if !ok {
		return &ValidationError{
			ErrorType: ErrResourceNotFound,
			Message:   fmt.Sprintf("unknown join target %q", join.TargetResource),
			Resource:  join.TargetResource,
		}
	}
	if !c.IsJoinAllowed(join.TargetResource, join.On) {
		return invalid(c.Resource, "", "join from %s to %s is not permitted", c.Resource, join.TargetResource)
	}
	for _, on := range join.On {
		if verr := checkReadable(c, on.LeftField); verr != nil {
			return verr
		}
		if verr := checkReadable(target, on.RightField); verr != nil {
			return verr
		}
	}
	return nil
}

func checkReadable(c *contract.ResourceContract, name string) *ValidationError {
	f := c.GetField(name)
	if f == nil {
		return invalid(c.Resource, name, "unknown field %q on %s", name, c.Resource)
	}
	if !f.Readable {
		return &ValidationError{
			ErrorType: ErrUnauthorizedField,
			Message:   fmt.Sprintf("field %q on %s is not readable", name, c.Resource),
			Field:     name,
			Resource:  c.Resource,
		}
	}
	return nil
}

func checkWritable(c *contract.ResourceContract, name string) *ValidationError {
	f := c.GetField(name)
	if f == nil {
		return invalid(c.Resource, name, "unknown field %q on %s", name, c.Resource)
	}
	if !f.Writable {
		return &ValidationError{
			ErrorType: ErrUnauthorizedField,
			Message:   fmt.Sprintf("field %q on %s is not writable", name, c.Resource),
			Field:     name,
			Resource:  c.Resource,
		}
	}
	return nil
}

// validateValue checks a single value against its field spec. Enum membership
// wins over type checks; nil always passes since nullability is enforced
// elsewhere.
func validateValue(c *contract.ResourceContract, name string, value interface{}) *ValidationError {
	if value == nil {
		return nil
	}
	f := c.GetField(name)
	if f == nil {
		return invalid(c.Resource, name, "unknown field %q on %s", name, c.Resource)
	}

	if len(f.EnumValues) > 0 {
		s, ok := value.(string)
		if !ok || !containsString(f.EnumValues, s) {
			return invalid(c.Resource, name, "value %v is not valid for %q, valid options: %s",
				value, name, strings.Join(f.EnumValues, ", "))
		}
		return nil
	}

	switch f.Type {
	case contract.TypeUUID:
		s, ok := value.(string)
		if !ok {
			return badValue(c, f, value)
		}
		if _, err := uuid.Parse(s); err != nil {
			return badValue(c, f, value)
		}
	case contract.TypeInteger, contract.TypeNumber:
		if !isNumeric(value) {
			return badValue(c, f, value)
		}
	case contract.TypeBoolean:
		if !isBoolean(value) {
			return badValue(c, f, value)
		}
	case contract.TypeDate:
		s, ok := value.(string)
		if !ok || !isISODate(s) {
			return badValue(c, f, value)
		}
	case contract.TypeTimestamp:
		s, ok := value.(string)
		if !ok || !isISOTimestamp(s) {
			return badValue(c, f, value)
		}
	case contract.TypeString, contract.TypeText, contract.TypeJSON:
		// Any JSON value is acceptable.
	}
	return nil
}

func badValue(c *contract.ResourceContract, f *contract.Field, value interface{}) *ValidationError {
	return invalid(c.Resource, f.Name, "value %v is not a valid %s for field %q", value, f.Type, f.Name)
}

func isNumeric(value interface{}) bool {
	switch v := value.(type) {
	case int, int32, int64, float32, float64, json.Number:
		return true
	case string:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	}
	return false
}

func isBoolean(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return true
	case string:
		lower := strings.ToLower(v)
		return lower == "true" || lower == "false"
	}
	return false
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func isISOTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
