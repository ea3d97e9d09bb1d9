package contract

import (
	"fmt"
	"sort"
)

// Registry holds the per-role contract snapshots. It is built once at startup
// and never mutated afterwards, so lookups need no locking.
type Registry struct {
	roles map[string]map[string]*ResourceContract
}

// DefaultRole is the role used when a caller does not specify one.
const DefaultRole = "agent"

// NewRegistry builds a registry containing only the built-in contracts under
// DefaultRole.
func NewRegistry() *Registry {
	return &Registry{
		roles: map[string]map[string]*ResourceContract{
			DefaultRole: builtinContracts(),
		},
	}
}

// NewRegistryFromDir builds a registry seeded with the built-ins, then applies
// role overlays loaded from dir. An empty dir yields the built-ins only.
func NewRegistryFromDir(dir string) (*Registry, error) {
	reg := NewRegistry()
	if dir == "" {
		return reg, nil
	}
	overlays, err := loadOverlayDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading contract dir %s: %w", dir, err)
	}
	for _, o := range overlays {
		reg.apply(o)
	}
	return reg, nil
}

// apply merges one overlay into the registry. The overlay's contracts replace
// the built-ins wholesale for that role and resource; merging at field
// granularity invites silent permission drift.
func (r *Registry) apply(o *roleOverlay) {
	role := o.Role
	if role == "" {
		role = DefaultRole
	}
	set, ok := r.roles[role]
	if !ok {
		// New roles start from the built-in baseline.
		set = builtinContracts()
		r.roles[role] = set
	}
	for i := range o.Contracts {
		c := o.Contracts[i]
		normalize(&c)
		set[c.Resource] = &c
	}
	for _, name := range o.Revoke {
		delete(set, name)
	}
}

// normalize fills defaulted contract attributes after a YAML load.
func normalize(c *ResourceContract) {
	if c.Limits == (Limits{}) {
		c.Limits = DefaultLimits()
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
}

// ForRole returns the contract set visible to role, or false when the role is
// unknown. The returned map must be treated as read-only.
func (r *Registry) ForRole(role string) (map[string]*ResourceContract, bool) {
	set, ok := r.roles[role]
	return set, ok
}

// Roles returns the known role names, sorted.
func (r *Registry) Roles() []string {
	out := make([]string, 0, len(r.roles))
	for name := range r.roles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resources returns the resource names visible to role, sorted.
func (r *Registry) Resources(role string) []string {
	set, ok := r.roles[role]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
