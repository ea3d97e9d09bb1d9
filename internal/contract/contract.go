package contract

import "strings"

// FieldType enumerates the declared types a contract field can carry.
type FieldType string

const (
	TypeUUID      FieldType = "uuid"
	TypeString    FieldType = "string"
	TypeText      FieldType = "text"
	TypeNumber    FieldType = "number"
	TypeInteger   FieldType = "integer"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeTimestamp FieldType = "timestamp"
	TypeJSON      FieldType = "json"
)

// FilterOperator enumerates the operators a contract can allow per field.
type FilterOperator string

const (
	OpEq      FilterOperator = "="
	OpNeq     FilterOperator = "!="
	OpGt      FilterOperator = ">"
	OpGte     FilterOperator = ">="
	OpLt      FilterOperator = "<"
	OpLte     FilterOperator = "<="
	OpIn      FilterOperator = "IN"
	OpBetween FilterOperator = "BETWEEN"
	OpLike    FilterOperator = "LIKE"
	OpILike   FilterOperator = "ILIKE"
)

// ParseFilterOperator returns the operator for s, or false when s is not a
// recognized operator.
func ParseFilterOperator(s string) (FilterOperator, bool) {
	switch FilterOperator(s) {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpBetween, OpLike, OpILike:
		return FilterOperator(s), true
	}
	return "", false
}

// Operation enumerates the operation kinds a contract can permit.
// DELETE is deliberately absent: it can never be granted.
type Operation string

const (
	OpRead   Operation = "READ"
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
)

// Field is one column-level entry in a resource contract.
type Field struct {
	Name       string    `yaml:"name" json:"name"`
	Type       FieldType `yaml:"type" json:"type"`
	Nullable   bool      `yaml:"nullable" json:"nullable"`
	PII        bool      `yaml:"pii" json:"pii"`
	Readable   bool      `yaml:"readable" json:"readable"`
	Writable   bool      `yaml:"writable" json:"writable"`
	EnumValues []string  `yaml:"enum_values,omitempty" json:"enum_values,omitempty"`
}

// Limits bounds what a single operation may do against a resource.
type Limits struct {
	MaxRows         int `yaml:"max_rows" json:"max_rows"`
	MaxPredicates   int `yaml:"max_predicates" json:"max_predicates"`
	MaxUpdateFields int `yaml:"max_update_fields" json:"max_update_fields"`
	MaxJoins        int `yaml:"max_joins" json:"max_joins"`
}

// DefaultLimits mirrors the defaults applied when a contract omits limits.
func DefaultLimits() Limits {
	return Limits{MaxRows: 100, MaxPredicates: 10, MaxUpdateFields: 10, MaxJoins: 1}
}

// JoinOn names one left/right field pair of a join condition.
type JoinOn struct {
	LeftField  string `yaml:"leftField" json:"leftField"`
	RightField string `yaml:"rightField" json:"rightField"`
}

// JoinDefinition declares one join a contract permits. Only inner joins are
// supported.
type JoinDefinition struct {
	TargetResource string   `yaml:"target_resource" json:"target_resource"`
	On             []JoinOn `yaml:"on" json:"on"`
	Type           string   `yaml:"type" json:"type"`
}

// ResourceContract is the per-resource, per-role authorization surface: which
// fields exist, what may be read or written, which filters and joins are
// allowed, and how large an operation may be. Contracts are immutable after
// registry construction.
type ResourceContract struct {
	Version        string                      `yaml:"version" json:"version"`
	Resource       string                      `yaml:"resource" json:"resource"`
	PrimaryKeyName string                      `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	OpsAllowed     []Operation                 `yaml:"ops_allowed" json:"ops_allowed"`
	Fields         []Field                     `yaml:"fields" json:"fields"`
	FiltersAllowed map[string][]FilterOperator `yaml:"filters_allowed" json:"filters_allowed"`
	OrderAllowed   []string                    `yaml:"order_allowed" json:"order_allowed"`
	Limits         Limits                      `yaml:"limits" json:"limits"`
	JoinsAllowed   []JoinDefinition            `yaml:"joins_allowed,omitempty" json:"joins_allowed,omitempty"`
}

// GetField returns the field definition for name, or nil.
func (c *ResourceContract) GetField(name string) *Field {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// IsFieldReadable reports whether name exists and is readable.
func (c *ResourceContract) IsFieldReadable(name string) bool {
	f := c.GetField(name)
	return f != nil && f.Readable
}

// IsFieldWritable reports whether name exists and is writable.
func (c *ResourceContract) IsFieldWritable(name string) bool {
	f := c.GetField(name)
	return f != nil && f.Writable
}

// IsOperationAllowed reports whether op is granted by this contract.
func (c *ResourceContract) IsOperationAllowed(op Operation) bool {
	for _, allowed := range c.OpsAllowed {
		if allowed == op {
			return true
		}
	}
	return false
}

// AllowedOperators returns the filter operators granted for field name.
// An absent field yields an empty set.
func (c *ResourceContract) AllowedOperators(name string) []FilterOperator {
	return c.FiltersAllowed[name]
}

// IsJoinAllowed reports whether a join to target on the given field pairs is
// declared by the contract. The pairs must match a declared join exactly.
func (c *ResourceContract) IsJoinAllowed(target string, on []JoinOn) bool {
	for _, def := range c.JoinsAllowed {
		if def.TargetResource != target {
			continue
		}
		if len(def.On) != len(on) {
			continue
		}
		match := true
		for i := range on {
			if def.On[i] != on[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// PrimaryKey resolves the resource's primary key field name. The explicit
// primary_key attribute wins when present; otherwise the legacy heuristic
// applies: a non-writable field ending in "_id", then "id" or
// "<singular>_id" provided it is non-writable. Returns false when no
// candidate exists. Validator, planner, and executor all resolve through
// this single function.
func (c *ResourceContract) PrimaryKey() (string, bool) {
	if c.PrimaryKeyName != "" {
		return c.PrimaryKeyName, true
	}
	for i := range c.Fields {
		f := &c.Fields[i]
		if strings.HasSuffix(f.Name, "_id") && !f.Writable {
			return f.Name, true
		}
	}
	singular := strings.TrimSuffix(c.Resource, "s")
	for i := range c.Fields {
		f := &c.Fields[i]
		if (f.Name == "id" || f.Name == singular+"_id") && !f.Writable {
			return f.Name, true
		}
	}
	return "", false
}

// ReadableFields returns the names of all readable fields, in contract order.
func (c *ResourceContract) ReadableFields() []string {
	out := make([]string, 0, len(c.Fields))
	for i := range c.Fields {
		if c.Fields[i].Readable {
			out = append(out, c.Fields[i].Name)
		}
	}
	return out
}

// WritableFields returns the names of all writable fields, in contract order.
func (c *ResourceContract) WritableFields() []string {
	out := make([]string, 0, len(c.Fields))
	for i := range c.Fields {
		if c.Fields[i].Writable {
			out = append(out, c.Fields[i].Name)
		}
	}
	return out
}
