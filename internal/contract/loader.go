package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// roleOverlay is the on-disk shape of a contract override file. Each file
// names a role, the contracts it replaces or adds, and any built-in resources
// it revokes entirely.
type roleOverlay struct {
	Role      string             `yaml:"role"`
	Contracts []ResourceContract `yaml:"contracts"`
	Revoke    []string           `yaml:"revoke"`
}

// loadOverlayDir reads every .yaml/.yml file in dir, in lexical order so that
// later files win deterministically.
func loadOverlayDir(dir string) ([]*roleOverlay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	out := make([]*roleOverlay, 0, len(paths))
	for _, p := range paths {
		o, err := loadOverlayFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func loadOverlayFile(path string) (*roleOverlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var o roleOverlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := checkOverlay(&o); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &o, nil
}

// checkOverlay rejects overlays that would produce an unusable contract set.
func checkOverlay(o *roleOverlay) error {
	for i := range o.Contracts {
		c := &o.Contracts[i]
		if c.Resource == "" {
			return fmt.Errorf("contract %d: missing resource name", i)
		}
		if len(c.Fields) == 0 {
			return fmt.Errorf("contract %q: no fields", c.Resource)
		}
		for _, op := range c.OpsAllowed {
			switch op {
			case OpRead, OpInsert, OpUpdate:
			default:
				return fmt.Errorf("contract %q: operation %q cannot be granted", c.Resource, op)
			}
		}
		for field, ops := range c.FiltersAllowed {
			if c.GetField(field) == nil {
				return fmt.Errorf("contract %q: filter on unknown field %q", c.Resource, field)
			}
			for _, op := range ops {
				if _, ok := ParseFilterOperator(string(op)); !ok {
					return fmt.Errorf("contract %q: unknown filter operator %q on %q", c.Resource, op, field)
				}
			}
		}
		for _, name := range c.OrderAllowed {
			if c.GetField(name) == nil {
				return fmt.Errorf("contract %q: order on unknown field %q", c.Resource, name)
			}
		}
		for _, j := range c.JoinsAllowed {
			if j.Type != "" && j.Type != "inner" {
				return fmt.Errorf("contract %q: join type %q not supported", c.Resource, j.Type)
			}
		}
	}
	return nil
}
