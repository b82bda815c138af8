package store

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Save writes the whole store to path through codec, replacing any previous
// snapshot, and marks the store clean.
func Save(s *Store, path string, codec types.Snapshotter) error {
	if err := codec.Write(path, s.Snapshot()); err != nil {
		return fmt.Errorf("saving %s to %s: %w", s.schema.Kind, path, err)
	}
	s.MarkClean()
	return nil
}

// Load reads the snapshot at path through codec. An absent file yields an
// empty store and no error. Any other failure also yields a usable empty
// store, together with an error describing what went wrong; callers report
// it and carry on.
func Load(path string, schema types.Schema, codec types.Snapshotter, opts ...Option) (*Store, error) {
	snap, err := codec.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(schema, opts...), nil
	}
	if err != nil {
		return New(schema, opts...), fmt.Errorf("loading %s from %s: %w", schema.Kind, path, err)
	}
	s, err := FromSnapshot(schema, snap, opts...)
	if err != nil {
		return New(schema, opts...), fmt.Errorf("loading %s from %s: %w", schema.Kind, path, err)
	}
	return s, nil
}
