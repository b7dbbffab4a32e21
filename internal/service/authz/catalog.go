package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"newsroom/internal/domain/models"
	"newsroom/internal/domain/services"

	"gopkg.in/yaml.v3"
)

//go:embed config/catalog.yaml
var embeddedCatalog []byte

// Catalog is the immutable role → resource → action permission matrix.
// It is safe for concurrent use; nothing mutates it after loading.
type Catalog struct {
	matrix map[models.Role]map[models.Resource]map[models.Action]models.PermissionValue
}

var _ services.PermissionCatalog = (*Catalog)(nil)

// catalogFile mirrors the YAML layout. Values stay strings so every problem
// can be reported, not just the first one yaml.v3 trips on.
type catalogFile struct {
	Roles map[string]map[string]map[string]string `yaml:"roles"`
}

// LoadCatalog parses the embedded permission matrix.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// MustLoadCatalog is LoadCatalog for process start-up; it panics on an invalid matrix.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(fmt.Sprintf("authz.MustLoadCatalog: %v", err))
	}
	return c
}

// ParseCatalog builds a Catalog from YAML and checks it is exhaustive:
// every role lists every resource, and every resource lists exactly the
// actions it supports, each with a known value.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var problems []error
	matrix := make(map[models.Role]map[models.Resource]map[models.Action]models.PermissionValue, len(models.Roles))

	for name := range file.Roles {
		if !models.Role(name).Valid() {
			problems = append(problems, fmt.Errorf("unknown role %q", name))
		}
	}

	for _, role := range models.Roles {
		resources, ok := file.Roles[string(role)]
		if !ok {
			problems = append(problems, fmt.Errorf("role %s: missing", role))
			continue
		}

		for name := range resources {
			if !models.Resource(name).Valid() {
				problems = append(problems, fmt.Errorf("role %s: unknown resource %q", role, name))
			}
		}

		matrix[role] = make(map[models.Resource]map[models.Action]models.PermissionValue, len(models.Resources))
		for _, res := range models.Resources {
			actions, ok := resources[string(res)]
			if !ok {
				problems = append(problems, fmt.Errorf("role %s: resource %s missing", role, res))
				continue
			}

			row := make(map[models.Action]models.PermissionValue, len(actions))
			for name, raw := range actions {
				action := models.Action(name)
				if !res.Supports(action) {
					problems = append(problems, fmt.Errorf("role %s: %s does not define action %q", role, res, name))
					continue
				}
				value, err := models.ParsePermissionValue(raw)
				if err != nil {
					problems = append(problems, fmt.Errorf("role %s: %s.%s: %w", role, res, name, err))
					continue
				}
				row[action] = value
			}

			for _, action := range models.SupportedActions(res) {
				if _, ok := actions[string(action)]; !ok {
					problems = append(problems, fmt.Errorf("role %s: %s.%s missing", role, res, action))
				}
			}
			matrix[role][res] = row
		}
	}

	if len(problems) > 0 {
		sort.Slice(problems, func(i, j int) bool { return problems[i].Error() < problems[j].Error() })
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(problems...))
	}

	return &Catalog{matrix: matrix}, nil
}

// PermissionFor looks up one cell of the matrix.
// Unknown roles, resources and undefined actions resolve to PermissionDeny.
func (c *Catalog) PermissionFor(role models.Role, resource models.Resource, action models.Action) models.PermissionValue {
	if c == nil {
		return models.PermissionDeny
	}
	// Missing keys yield the zero value, which is PermissionDeny.
	return c.matrix[role][resource][action]
}

// Row returns a copy of one role's permissions, keyed by resource and action.
// Unknown roles yield an empty map.
func (c *Catalog) Row(role models.Role) map[models.Resource]map[models.Action]models.PermissionValue {
	out := make(map[models.Resource]map[models.Action]models.PermissionValue)
	if c == nil {
		return out
	}
	for res, actions := range c.matrix[role] {
		row := make(map[models.Action]models.PermissionValue, len(actions))
		for a, v := range actions {
			row[a] = v
		}
		out[res] = row
	}
	return out
}
