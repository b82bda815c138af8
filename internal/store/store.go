// Package store implements the entity store: an in-memory, keyed,
// insertion-ordered collection of validated records of one kind, together
// with whole-collection save and load through a types.Snapshotter.
//
// A Store is owned by a single goroutine; it does no locking.
package store

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/keeper/pkg/types"
	"github.com/mesh-intelligence/keeper/pkg/validate"
)

// Resolver reports whether a record with key exists in the store for kind.
type Resolver func(kind, key string) (bool, error)

// Store holds the records of one kind.
type Store struct {
	schema    types.Schema
	validator *validate.Validator
	records   map[string]*types.Record
	order     []string // keys in insertion order
	dirty     bool

	now     func() time.Time
	newKey  func() (string, error)
	resolve Resolver
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for timestamps and date defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKeyGenerator sets the key generator for kinds with generated keys.
func WithKeyGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.newKey = gen }
}

// WithResolver enables reference checks for fields that name another kind.
// Without a resolver, reference fields are only checked against this store
// when they point at its own kind.
func WithResolver(r Resolver) Option {
	return func(s *Store) { s.resolve = r }
}

// New returns an empty store for schema.
func New(schema types.Schema, opts ...Option) *Store {
	s := &Store{
		schema:  schema,
		records: make(map[string]*types.Record),
		now:     time.Now,
		newKey:  generateUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validate.New(validate.WithClock(s.now))
	return s
}

// generateUUID generates a UUID v7 key.
func generateUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// Schema returns the schema the store validates against.
func (s *Store) Schema() types.Schema { return s.schema }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.order) }

// Dirty reports whether the store changed since it was loaded or saved.
func (s *Store) Dirty() bool { return s.dirty }

// MarkClean records that the current contents are persisted.
func (s *Store) MarkClean() { s.dirty = false }

// Keys returns every key in insertion order.
func (s *Store) Keys() []string { return slices.Clone(s.order) }

// Insert validates rec and adds it. For kinds with a natural key, rec.Key may
// be empty and is derived from the key field. Insert fails with
// ErrDuplicateKey when the key is taken; the store is unchanged on failure.
func (s *Store) Insert(rec types.Record) error {
	return s.insert(rec, true)
}

// Create validates raw field input, assigns the key (generating one when the
// kind has no natural key) and inserts the record.
func (s *Store) Create(raw map[string]string) (types.Record, error) {
	fields, err := s.validator.Record(s.schema, raw)
	if err != nil {
		return types.Record{}, err
	}
	rec := types.Record{Fields: fields}
	if !s.schema.GeneratedKey {
		if err := s.insert(rec, true); err != nil {
			return types.Record{}, err
		}
		return s.Find(s.keyFor(rec))
	}

	// A key is drawn only for a record that will be stored.
	if err := s.checkRefs(fields); err != nil {
		return types.Record{}, err
	}
	if rec.Key, err = s.newKey(); err != nil {
		return types.Record{}, err
	}
	if err := s.insert(rec, false); err != nil {
		return types.Record{}, err
	}
	return s.Find(s.keyFor(rec))
}

// Find returns a copy of the record with key.
func (s *Store) Find(key string) (types.Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return types.Record{}, s.notFound(key)
	}
	return rec.Clone(), nil
}

// Remove deletes the record with key. Other records keep their order.
func (s *Store) Remove(key string) error {
	if _, ok := s.records[key]; !ok {
		return s.notFound(key)
	}
	delete(s.records, key)
	if i := slices.Index(s.order, key); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.dirty = true
	return nil
}

// Update merges raw field input into the record with key, validates the
// result and replaces the record in place. The key field cannot change.
func (s *Store) Update(key string, raw map[string]string) (types.Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return types.Record{}, s.notFound(key)
	}
	if kf, ok := s.schema.KeyField(); ok {
		if in, given := raw[kf.Name]; given {
			val, err := s.validator.Parse(kf, in)
			if err != nil {
				return types.Record{}, err
			}
			if validate.Format(kf.Type, val) != key {
				return types.Record{}, keyImmutable(kf.Name, in)
			}
		}
	}
	fields, err := s.validator.Merge(s.schema, rec.Fields, raw)
	if err != nil {
		return types.Record{}, err
	}
	if err := s.checkRefs(fields); err != nil {
		return types.Record{}, err
	}
	rec.Fields = fields
	rec.UpdatedAt = s.now().UTC()
	s.dirty = true
	return rec.Clone(), nil
}

// Adjust adds delta to a numeric field of the record with key and validates
// the result, so range rules bound the adjustment. Integer and duration
// fields require a whole delta.
func (s *Store) Adjust(key, field string, delta float64) (types.Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return types.Record{}, s.notFound(key)
	}
	f, ok := s.schema.Field(field)
	if !ok {
		return types.Record{}, unknownField(s.schema.Kind, field)
	}
	if !f.Type.Numeric() {
		return types.Record{}, fmt.Errorf("%s.%s: %w", s.schema.Kind, field, types.ErrNotNumeric)
	}
	if f.Name == s.schema.Key {
		return types.Record{}, keyImmutable(f.Name, validate.Format(f.Type, delta))
	}

	var next any
	if f.Type == types.TypeDecimal {
		current, _ := validate.ToFloat(rec.Fields[field])
		next = current + delta
	} else {
		current, _ := rec.Fields[field].(int64)
		sum, err := addWhole(current, delta)
		if err != nil {
			return types.Record{}, &types.ValidationError{
				Field:  field,
				Value:  validate.Format(types.TypeDecimal, delta),
				Rule:   "type",
				Reason: err.Error(),
			}
		}
		next = sum
	}
	val, err := s.validator.Coerce(f, next)
	if err != nil {
		return types.Record{}, err
	}
	rec.Fields[field] = val
	rec.UpdatedAt = s.now().UTC()
	s.dirty = true
	return rec.Clone(), nil
}

// addWhole adds a whole-number delta to n without passing n through
// float64.
func addWhole(n int64, delta float64) (int64, error) {
	if delta != math.Trunc(delta) || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0, errors.New("adjustment must be a whole number")
	}
	if delta >= math.MaxInt64 || delta < math.MinInt64 {
		return 0, errors.New("adjustment is out of range")
	}
	d := int64(delta)
	if (d > 0 && n > math.MaxInt64-d) || (d < 0 && n < math.MinInt64-d) {
		return 0, errors.New("adjustment is out of range")
	}
	return n + d, nil
}

func (s *Store) insert(rec types.Record, checkRefs bool) error {
	fields, err := s.validator.Values(s.schema, rec.Fields)
	if err != nil {
		return err
	}
	rec.Fields = fields

	key, err := s.deriveKey(rec)
	if err != nil {
		return err
	}
	if _, taken := s.records[key]; taken {
		return fmt.Errorf("%s %q: %w", s.schema.Kind, key, types.ErrDuplicateKey)
	}
	if checkRefs {
		if err := s.checkRefs(fields); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	rec.Key = key
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	stored := rec.Clone()
	s.records[key] = &stored
	s.order = append(s.order, key)
	s.dirty = true
	return nil
}

// deriveKey returns the key of a validated record.
func (s *Store) deriveKey(rec types.Record) (string, error) {
	kf, natural := s.schema.KeyField()
	if !natural {
		if rec.Key == "" {
			return "", &types.ValidationError{Field: types.OrderByKey, Rule: "required", Reason: "is required", Err: types.ErrMissingField}
		}
		return rec.Key, nil
	}
	key := validate.Format(kf.Type, rec.Fields[kf.Name])
	if rec.Key != "" && rec.Key != key {
		return "", &types.ValidationError{
			Field:  kf.Name,
			Value:  rec.Key,
			Rule:   "key",
			Reason: fmt.Sprintf("record key %q does not match field value %q", rec.Key, key),
		}
	}
	return key, nil
}

func (s *Store) keyFor(rec types.Record) string {
	key, _ := s.deriveKey(rec)
	return key
}

// checkRefs verifies that every reference field names existing records.
func (s *Store) checkRefs(fields map[string]any) error {
	for _, f := range s.schema.References() {
		var keys []string
		switch v := fields[f.Name].(type) {
		case string:
			keys = []string{v}
		case []string:
			keys = v
		}
		for _, key := range keys {
			ok, err := s.exists(f.Ref, key)
			if err != nil {
				return fmt.Errorf("resolve %s %q: %w", f.Ref, key, err)
			}
			if !ok {
				return &types.ValidationError{
					Field:  f.Name,
					Value:  key,
					Rule:   "ref",
					Reason: fmt.Sprintf("no %s with key %q", f.Ref, key),
					Err:    types.ErrDanglingReference,
				}
			}
		}
	}
	return nil
}

func (s *Store) exists(kind, key string) (bool, error) {
	if s.resolve != nil {
		return s.resolve(kind, key)
	}
	if kind == s.schema.Kind {
		_, ok := s.records[key]
		return ok, nil
	}
	return true, nil
}

func (s *Store) notFound(key string) error {
	return fmt.Errorf("%s %q: %w", s.schema.Kind, key, types.ErrNotFound)
}

func unknownField(kind, field string) error {
	return &types.ValidationError{
		Field:  field,
		Rule:   "schema",
		Reason: fmt.Sprintf("unknown field for %s", kind),
		Err:    types.ErrUnknownField,
	}
}

func keyImmutable(field, value string) error {
	return &types.ValidationError{
		Field:  field,
		Value:  value,
		Rule:   "key",
		Reason: "key field cannot be changed",
		Err:    types.ErrKeyImmutable,
	}
}
