package planner

import (
	"sort"

	"agent-gw-poc/internal/contract"
)

// FieldProjection is the schema-only view of one field. No PII flag, no enum
// of sensitive values beyond what the field itself declares.
type FieldProjection struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Nullable   bool     `json:"nullable"`
	Readable   bool     `json:"readable"`
	Writable   bool     `json:"writable"`
	EnumValues []string `json:"enum_values,omitempty"`
}

// ContractProjection is the stripped-down contract view sent to the LLM. It
// carries only readable fields and the policy surface needed to plan.
type ContractProjection struct {
	Resource       string              `json:"resource"`
	Fields         []FieldProjection   `json:"fields"`
	FiltersAllowed map[string][]string `json:"filters_allowed"`
	OrderAllowed   []string            `json:"order_allowed"`
	Limits         contract.Limits     `json:"limits"`
}

// Project builds the LLM-safe projection for the named resources, in sorted
// order for prompt stability. Unreadable fields never leave this function.
func Project(contracts map[string]*contract.ResourceContract, resources []string) []ContractProjection {
	names := append([]string(nil), resources...)
	sort.Strings(names)

	out := make([]ContractProjection, 0, len(names))
	for _, name := range names {
		c, ok := contracts[name]
		if !ok {
			continue
		}
		p := ContractProjection{
			Resource:       c.Resource,
			FiltersAllowed: make(map[string][]string, len(c.FiltersAllowed)),
			OrderAllowed:   append([]string(nil), c.OrderAllowed...),
			Limits:         c.Limits,
		}
		for _, f := range c.Fields {
			if !f.Readable {
				continue
			}
			p.Fields = append(p.Fields, FieldProjection{
				Name:       f.Name,
				Type:       string(f.Type),
				Nullable:   f.Nullable,
				Readable:   f.Readable,
				Writable:   f.Writable,
				EnumValues: append([]string(nil), f.EnumValues...),
			})
		}
		for field, ops := range c.FiltersAllowed {
			if !c.IsFieldReadable(field) {
				continue
			}
			strs := make([]string, 0, len(ops))
			for _, op := range ops {
				strs = append(strs, string(op))
			}
			p.FiltersAllowed[field] = strs
		}
		out = append(out, p)
	}
	return out
}
