package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

// schemaFile is the layout of a YAML schema file:
//
//	kinds:
//	  - kind: pets
//	    key: chip
//	    fields:
//	      - {name: chip, type: text, required: true, pattern: '\d{15}'}
//	      - {name: weight, type: decimal, min: 0, max: 120}
type schemaFile struct {
	Kinds []kindSpec `yaml:"kinds"`
}

type kindSpec struct {
	Kind         string      `yaml:"kind"`
	Description  string      `yaml:"description"`
	Key          string      `yaml:"key"`
	GeneratedKey bool        `yaml:"generated_key"`
	OrderBy      string      `yaml:"order_by"`
	Fields       []fieldSpec `yaml:"fields"`
}

type fieldSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Required    bool     `yaml:"required"`
	Default     string   `yaml:"default"`
	Ref         string   `yaml:"ref"`
	Description string   `yaml:"description"`
	NonEmpty    bool     `yaml:"non_empty"`
	Pattern     string   `yaml:"pattern"`
	Hint        string   `yaml:"hint"`
	MinLen      *int     `yaml:"min_len"`
	MaxLen      *int     `yaml:"max_len"`
	Min         *float64 `yaml:"min"`
	Max         *float64 `yaml:"max"`
	OneOf       []string `yaml:"one_of"`
	Email       bool     `yaml:"email"`
	Digits      bool     `yaml:"digits"`
}

// Parse decodes schema definitions from YAML. Unknown keys are rejected.
func Parse(data []byte) ([]types.Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file schemaFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidSchema, err)
	}

	schemas := make([]types.Schema, 0, len(file.Kinds))
	for _, ks := range file.Kinds {
		s := types.Schema{
			Kind:         ks.Kind,
			Description:  ks.Description,
			Key:          ks.Key,
			GeneratedKey: ks.GeneratedKey,
			OrderBy:      ks.OrderBy,
		}
		for _, fs := range ks.Fields {
			f, err := fs.field()
			if err != nil {
				return nil, fmt.Errorf("kind %q: %w", ks.Kind, err)
			}
			s.Fields = append(s.Fields, f)
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// LoadFile registers the kinds defined in the YAML file at path.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}
	schemas, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, s := range schemas {
		if err := c.Register(s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (fs fieldSpec) field() (types.Field, error) {
	f := types.Field{
		Name:        fs.Name,
		Type:        types.FieldType(fs.Type),
		Required:    fs.Required,
		Default:     fs.Default,
		Ref:         fs.Ref,
		Description: fs.Description,
	}
	if f.Type == "" {
		f.Type = types.TypeText
	}
	if fs.NonEmpty {
		f.Rules = append(f.Rules, validate.NonEmpty())
	}
	if fs.Pattern != "" {
		r, err := validate.CompilePattern(fs.Pattern, fs.Hint)
		if err != nil {
			return types.Field{}, fmt.Errorf("%w: field %q: %v", types.ErrInvalidSchema, fs.Name, err)
		}
		f.Rules = append(f.Rules, r)
	}
	if fs.MinLen != nil || fs.MaxLen != nil {
		lo, hi := 0, 0
		if fs.MinLen != nil {
			lo = *fs.MinLen
		}
		if fs.MaxLen != nil {
			hi = *fs.MaxLen
		}
		if hi > 0 && hi < lo {
			return types.Field{}, fmt.Errorf("%w: field %q: max_len below min_len", types.ErrInvalidSchema, fs.Name)
		}
		f.Rules = append(f.Rules, validate.Length(lo, hi))
	}
	if fs.Min != nil || fs.Max != nil {
		if !f.Type.Numeric() {
			return types.Field{}, fmt.Errorf("%w: field %q: min/max need a numeric type", types.ErrInvalidSchema, fs.Name)
		}
		lo, hi := math.Inf(-1), math.Inf(1)
		if fs.Min != nil {
			lo = *fs.Min
		}
		if fs.Max != nil {
			hi = *fs.Max
		}
		if hi < lo {
			return types.Field{}, fmt.Errorf("%w: field %q: max below min", types.ErrInvalidSchema, fs.Name)
		}
		if fs.Max == nil {
			f.Rules = append(f.Rules, validate.Min(lo))
		} else {
			f.Rules = append(f.Rules, validate.DecimalRange(lo, hi))
		}
	}
	if len(fs.OneOf) > 0 {
		f.Rules = append(f.Rules, validate.OneOf(fs.OneOf...))
	}
	if fs.Email {
		f.Rules = append(f.Rules, validate.Email())
	}
	if fs.Digits {
		f.Rules = append(f.Rules, validate.Digits())
	}
	return f, nil
}
