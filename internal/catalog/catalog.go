// Package catalog holds the schemas of every kind of record keeper knows:
// the built-in kinds and any kinds defined in a YAML schema file.
package catalog

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// kindName restricts kind names to what is safe as a snapshot file name.
var kindName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Catalog is a registry of schemas keyed by kind.
type Catalog struct {
	schemas map[string]types.Schema
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{schemas: make(map[string]types.Schema)}
}

// Register adds a schema after checking that it is well formed. A kind may
// only be registered once; references must name kinds already registered or
// the kind itself.
func (c *Catalog) Register(s types.Schema) error {
	if err := c.check(s); err != nil {
		return fmt.Errorf("register %q: %w", s.Kind, err)
	}
	c.schemas[s.Kind] = s
	return nil
}

// Get returns the schema for kind, or ErrKindUnknown.
func (c *Catalog) Get(kind string) (types.Schema, error) {
	s, ok := c.schemas[kind]
	if !ok {
		return types.Schema{}, fmt.Errorf("%w: %q", types.ErrKindUnknown, kind)
	}
	return s, nil
}

// Kinds lists registered kinds in lexical order.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.schemas))
	for k := range c.schemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (c *Catalog) check(s types.Schema) error {
	if s.Kind == "" {
		return fmt.Errorf("%w: kind must not be empty", types.ErrInvalidSchema)
	}
	if !kindName.MatchString(s.Kind) {
		return fmt.Errorf("%w: kind %q must be lower-case letters, digits, '-' or '_', starting with a letter", types.ErrInvalidSchema, s.Kind)
	}
	if _, dup := c.schemas[s.Kind]; dup {
		return fmt.Errorf("%w: kind already registered", types.ErrInvalidSchema)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: no fields", types.ErrInvalidSchema)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" || f.Name == types.OrderByKey {
			return fmt.Errorf("%w: invalid field name %q", types.ErrInvalidSchema, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", types.ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %q has unknown type %q", types.ErrInvalidSchema, f.Name, f.Type)
		}
		if f.Ref != "" && f.Ref != s.Kind {
			if _, ok := c.schemas[f.Ref]; !ok {
				return fmt.Errorf("%w: field %q references unknown kind %q", types.ErrInvalidSchema, f.Name, f.Ref)
			}
		}
		if f.Ref != "" && f.Type != types.TypeText && f.Type != types.TypeList {
			return fmt.Errorf("%w: reference field %q must be text or list", types.ErrInvalidSchema, f.Name)
		}
	}
	switch {
	case s.GeneratedKey && s.Key != "":
		return fmt.Errorf("%w: generated keys cannot name a key field", types.ErrInvalidSchema)
	case !s.GeneratedKey:
		key, ok := s.Field(s.Key)
		if !ok {
			return fmt.Errorf("%w: key field %q not declared", types.ErrInvalidSchema, s.Key)
		}
		if !key.Required {
			return fmt.Errorf("%w: key field %q must be required", types.ErrInvalidSchema, s.Key)
		}
		if key.Type == types.TypeList {
			return fmt.Errorf("%w: key field %q cannot be a list", types.ErrInvalidSchema, s.Key)
		}
	}
	if s.OrderBy != "" && s.OrderBy != types.OrderByKey && !seen[s.OrderBy] {
		return fmt.Errorf("%w: order_by names unknown field %q", types.ErrInvalidSchema, s.OrderBy)
	}
	return nil
}
