package store

import (
	"fmt"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Snapshot returns a copy of every record in insertion order.
func (s *Store) Snapshot() types.Snapshot {
	snap := types.Snapshot{
		Kind:    s.schema.Kind,
		Version: types.SnapshotVersion,
		SavedAt: s.now().UTC(),
		Records: make([]types.Record, 0, len(s.order)),
	}
	for _, key := range s.order {
		snap.Records = append(snap.Records, s.records[key].Clone())
	}
	return snap
}

// FromSnapshot rebuilds a store from snap. Every record is re-validated
// against schema; the first invalid or duplicate record fails the whole
// restore with an error matching ErrDecode. References to other kinds are
// not checked on restore. The returned store is clean.
func FromSnapshot(schema types.Schema, snap types.Snapshot, opts ...Option) (*Store, error) {
	if snap.Version != types.SnapshotVersion {
		return nil, fmt.Errorf("%w: %w: got %d, want %d",
			types.ErrDecode, types.ErrSnapshotVersion, snap.Version, types.SnapshotVersion)
	}
	if snap.Kind != schema.Kind {
		return nil, fmt.Errorf("%w: %w: got %q, want %q",
			types.ErrDecode, types.ErrSnapshotKind, snap.Kind, schema.Kind)
	}
	s := New(schema, opts...)
	for i, rec := range snap.Records {
		if err := s.insert(rec, false); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", types.ErrDecode, i+1, err)
		}
	}
	s.MarkClean()
	return s, nil
}
