package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

// List returns copies of the records ordered by opts. With no OrderBy the
// records come back in insertion order. Sorting is stable, so records with
// equal sort values keep their insertion order.
func (s *Store) List(opts types.ListOptions) ([]types.Record, error) {
	return s.Fetch(nil, opts)
}

// Fetch returns copies of the records matching every entry of filter,
// ordered and limited by opts. The key is matched with the name "key".
func (s *Store) Fetch(filter types.Filter, opts types.ListOptions) ([]types.Record, error) {
	match, err := s.matcher(filter)
	if err != nil {
		return nil, err
	}
	less, err := s.comparator(opts.OrderBy)
	if err != nil {
		return nil, err
	}

	var out []types.Record
	for _, key := range s.order {
		rec := s.records[key]
		ok, err := match(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec.Clone())
		}
	}
	switch {
	case less != nil && opts.Descending:
		slices.SortStableFunc(out, func(a, b types.Record) int { return less(b, a) })
	case less != nil:
		slices.SortStableFunc(out, less)
	case opts.Descending:
		slices.Reverse(out)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Search returns the records, in insertion order, where any of fields
// contains term, ignoring case. With no fields every text and list field is
// searched.
func (s *Store) Search(term string, fields ...string) ([]types.Record, error) {
	if len(fields) == 0 {
		for _, f := range s.schema.Fields {
			if f.Type == types.TypeText || f.Type == types.TypeList {
				fields = append(fields, f.Name)
			}
		}
	}
	for _, name := range fields {
		if _, ok := s.schema.Field(name); !ok {
			return nil, unknownField(s.schema.Kind, name)
		}
	}

	term = strings.ToLower(strings.TrimSpace(term))
	var out []types.Record
	for _, key := range s.order {
		rec := s.records[key]
		for _, name := range fields {
			f, _ := s.schema.Field(name)
			text := strings.ToLower(validate.Format(f.Type, rec.Fields[name]))
			if strings.Contains(text, term) {
				out = append(out, rec.Clone())
				break
			}
		}
	}
	return out, nil
}

// Stats summarizes a numeric field across the records that have a value
// for it.
func (s *Store) Stats(field string) (types.Summary, error) {
	f, ok := s.schema.Field(field)
	if !ok {
		return types.Summary{}, unknownField(s.schema.Kind, field)
	}
	if !f.Type.Numeric() {
		return types.Summary{}, fmt.Errorf("%s.%s: %w", s.schema.Kind, field, types.ErrNotNumeric)
	}

	sum := types.Summary{Field: field}
	for _, key := range s.order {
		v, ok := validate.ToFloat(s.records[key].Fields[field])
		if !ok {
			continue
		}
		if sum.Count == 0 || v < sum.Min {
			sum.Min = v
		}
		if sum.Count == 0 || v > sum.Max {
			sum.Max = v
		}
		sum.Sum += v
		sum.Count++
	}
	if sum.Count > 0 {
		sum.Mean = sum.Sum / float64(sum.Count)
	}
	return sum, nil
}

func (s *Store) matcher(filter types.Filter) (func(*types.Record) (bool, error), error) {
	for name := range filter {
		if name == types.OrderByKey {
			continue
		}
		if _, ok := s.schema.Field(name); !ok {
			return nil, unknownField(s.schema.Kind, name)
		}
	}
	return func(rec *types.Record) (bool, error) {
		for name, want := range filter {
			if name == types.OrderByKey {
				if rec.Key != strings.TrimSpace(want) {
					return false, nil
				}
				continue
			}
			f, _ := s.schema.Field(name)
			ok, err := validate.Equal(f, rec.Fields[name], want)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}, nil
}

// comparator returns the sort function for orderBy, or nil for insertion
// order. Ordering by key on a natural-key kind compares the typed key field.
func (s *Store) comparator(orderBy string) (func(a, b types.Record) int, error) {
	if orderBy == "" {
		return nil, nil
	}
	if orderBy == types.OrderByKey {
		kf, natural := s.schema.KeyField()
		if !natural {
			return func(a, b types.Record) int { return strings.Compare(a.Key, b.Key) }, nil
		}
		orderBy = kf.Name
	}
	f, ok := s.schema.Field(orderBy)
	if !ok {
		return nil, unknownField(s.schema.Kind, orderBy)
	}
	return func(a, b types.Record) int {
		return validate.Compare(f.Type, a.Fields[f.Name], b.Fields[f.Name])
	}, nil
}
