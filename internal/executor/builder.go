package executor

import (
	"fmt"
	"sort"
	"strings"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
)

// paramList accumulates bind values with strictly incrementing $n
// placeholders.
type paramList struct {
	values []interface{}
}

// next binds value and returns its placeholder.
func (p *paramList) next(value interface{}) string {
	p.values = append(p.values, value)
	return fmt.Sprintf("$%d", len(p.values))
}

// bindValue coerces temporal strings for date-ish fields before binding.
func (p *paramList) bindValue(c *contract.ResourceContract, field string, value interface{}) string {
	if isTemporalField(c, field) {
		value = CoerceTemporal(value)
	}
	return p.next(value)
}

func buildReadQuery(op *dsl.ReadOperation, c *contract.ResourceContract) (string, []interface{}, error) {
	params := &paramList{}
	qualified := len(op.Joins) > 0

	sel := make([]string, len(op.Select))
	for i, field := range op.Select {
		sel[i] = qualify(op.Resource, field, qualified)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(sel, ", "), op.Resource)

	for _, join := range op.Joins {
		conds := make([]string, len(join.On))
		for i, on := range join.On {
			conds[i] = fmt.Sprintf("%s.%s = %s.%s",
				op.Resource, on.LeftField, join.TargetResource, on.RightField)
		}
		fmt.Fprintf(&sb, " INNER JOIN %s ON %s", join.TargetResource, strings.Join(conds, " AND "))
	}

	if len(op.Where) > 0 {
		parts := make([]string, 0, len(op.Where))
		for _, clause := range op.Where {
			sql, err := buildWhereClause(clause, c, params, op.Resource, qualified)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
		}
		fmt.Fprintf(&sb, " WHERE %s", strings.Join(parts, " AND "))
	}

	if len(op.OrderBy) > 0 {
		parts := make([]string, len(op.OrderBy))
		for i, ob := range op.OrderBy {
			parts[i] = fmt.Sprintf("%s %s",
				qualify(op.Resource, ob.Field, qualified), strings.ToUpper(ob.Direction()))
		}
		fmt.Fprintf(&sb, " ORDER BY %s", strings.Join(parts, ", "))
	}

	fmt.Fprintf(&sb, " LIMIT %s", params.next(op.Limit))
	if op.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %s", params.next(op.Offset))
	}

	return sb.String(), params.values, nil
}

func buildUpdateQuery(op *dsl.UpdateOperation, c *contract.ResourceContract) (string, []interface{}, error) {
	params := &paramList{}

	// Deterministic SET order keeps queries stable for mocks and logs.
	fields := sortedKeys(op.Update)
	setParts := make([]string, len(fields))
	for i, field := range fields {
		setParts[i] = fmt.Sprintf("%s = %s", field, params.bindValue(c, field, op.Update[field]))
	}

	whereParts := make([]string, 0, len(op.Where))
	for _, clause := range op.Where {
		sql, err := buildWhereClause(clause, c, params, op.Resource, false)
		if err != nil {
			return "", nil, err
		}
		whereParts = append(whereParts, sql)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING *",
		op.Resource, strings.Join(setParts, ", "), strings.Join(whereParts, " AND "))
	return query, params.values, nil
}

func buildInsertQuery(op *dsl.InsertOperation, c *contract.ResourceContract) (string, []interface{}) {
	params := &paramList{}

	fields := sortedKeys(op.Values)
	placeholders := make([]string, len(fields))
	for i, field := range fields {
		placeholders[i] = params.bindValue(c, field, op.Values[field])
	}

	// created_at is auto-managed when the caller omits it.
	if _, present := op.Values["created_at"]; !present {
		fields = append(fields, "created_at")
		placeholders = append(placeholders, "NOW()")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		op.Resource, strings.Join(fields, ", "), strings.Join(placeholders, ", "))
	return query, params.values
}

func buildWhereClause(clause dsl.WhereClause, c *contract.ResourceContract, params *paramList, table string, qualified bool) (string, error) {
	field := qualify(table, clause.Field, qualified)
	bindField := clause.Field

	switch clause.Op {
	case "=", "!=", ">", ">=", "<", "<=", "LIKE", "ILIKE":
		return fmt.Sprintf("%s %s %s", field, clause.Op, params.bindValue(c, bindField, clause.Value)), nil
	case "IN":
		values, ok := clause.Value.([]interface{})
		if !ok {
			// Single value degrades to equality.
			return fmt.Sprintf("%s = %s", field, params.bindValue(c, bindField, clause.Value)), nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = params.bindValue(c, bindField, v)
		}
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")), nil
	case "BETWEEN":
		values, ok := clause.Value.([]interface{})
		if !ok || len(values) != 2 {
			return "", fmt.Errorf("BETWEEN requires exactly two values, got %v", clause.Value)
		}
		low := params.bindValue(c, bindField, values[0])
		high := params.bindValue(c, bindField, values[1])
		return fmt.Sprintf("%s BETWEEN %s AND %s", field, low, high), nil
	default:
		return "", fmt.Errorf("unsupported WHERE operator %q", clause.Op)
	}
}

func qualify(table, field string, qualified bool) string {
	if qualified {
		return table + "." + field
	}
	return field
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
