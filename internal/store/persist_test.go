package store

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/internal/catalog"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// memCodec keeps snapshots in memory, keyed by path.
type memCodec struct {
	files   map[string]types.Snapshot
	readErr error
}

func newMemCodec() *memCodec { return &memCodec{files: make(map[string]types.Snapshot)} }

func (c *memCodec) Write(path string, snap types.Snapshot) error {
	c.files[path] = snap
	return nil
}

func (c *memCodec) Read(path string) (types.Snapshot, error) {
	if c.readErr != nil {
		return types.Snapshot{}, c.readErr
	}
	snap, ok := c.files[path]
	if !ok {
		return types.Snapshot{}, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return snap, nil
}

func (c *memCodec) Ext() string { return ".mem" }

func TestSaveLoadRoundTrip(t *testing.T) {
	codec := newMemCodec()
	path := filepath.Join(t.TempDir(), "products.mem")
	s := newStore(t, catalog.KindProducts)
	for _, code := range []string{"ZZZZZ", "AAAAA", "MMMMM"} {
		_, err := s.Create(map[string]string{"code": code, "name": "item", "quantity": "4"})
		require.NoError(t, err)
	}

	require.NoError(t, Save(s, path, codec))
	assert.False(t, s.Dirty())

	loaded, err := Load(path, s.Schema(), codec, WithClock(clock))
	require.NoError(t, err)
	assert.False(t, loaded.Dirty())
	assert.Equal(t, []string{"ZZZZZ", "AAAAA", "MMMMM"}, loaded.Keys())

	want, err := s.List(types.ListOptions{})
	require.NoError(t, err)
	got, err := loaded.List(types.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadAbsentFileGivesEmptyStore(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.mem"), schema(t, catalog.KindUsers), newMemCodec())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Dirty())
}

func TestLoadFailuresGiveEmptyStore(t *testing.T) {
	users := schema(t, catalog.KindUsers)

	tests := []struct {
		name    string
		snap    types.Snapshot
		readErr error
		wantErr error
	}{
		{
			name:    "undecodable file",
			readErr: errors.Join(types.ErrDecode, errors.New("unexpected end of JSON input")),
			wantErr: types.ErrDecode,
		},
		{
			name:    "wrong version",
			snap:    types.Snapshot{Kind: catalog.KindUsers, Version: 99},
			wantErr: types.ErrSnapshotVersion,
		},
		{
			name:    "wrong kind",
			snap:    types.Snapshot{Kind: catalog.KindBooks, Version: types.SnapshotVersion},
			wantErr: types.ErrSnapshotKind,
		},
		{
			name: "invalid record",
			snap: types.Snapshot{Kind: catalog.KindUsers, Version: types.SnapshotVersion, Records: []types.Record{
				{Key: "ana", Fields: map[string]any{"name": "ana"}},
				{Key: "", Fields: map[string]any{"name": "  "}},
			}},
			wantErr: types.ErrInvalidField,
		},
		{
			name: "duplicate record",
			snap: types.Snapshot{Kind: catalog.KindUsers, Version: types.SnapshotVersion, Records: []types.Record{
				{Key: "ana", Fields: map[string]any{"name": "ana"}},
				{Key: "ana", Fields: map[string]any{"name": "ana"}},
			}},
			wantErr: types.ErrDuplicateKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := newMemCodec()
			codec.readErr = tt.readErr
			codec.files["users.mem"] = tt.snap

			s, err := Load("users.mem", users, codec)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, types.ErrDecode)
			assert.Equal(t, types.KindDecode, types.KindOf(err))
			require.NotNil(t, s)
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestSnapshotRestoresTimestamps(t *testing.T) {
	s := newStore(t, catalog.KindUsers)
	_, err := s.Create(map[string]string{"name": "ana"})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, catalog.KindUsers, snap.Kind)
	assert.Equal(t, types.SnapshotVersion, snap.Version)
	assert.Equal(t, clock(), snap.SavedAt)

	restored, err := FromSnapshot(s.Schema(), snap)
	require.NoError(t, err)
	rec, err := restored.Find("ana")
	require.NoError(t, err)
	assert.Equal(t, clock(), rec.CreatedAt)
	assert.Equal(t, clock(), rec.UpdatedAt)
}
