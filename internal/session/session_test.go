package session

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/internal/catalog"
	"github.com/mesh-intelligence/keeper/internal/logging"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

var clock = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

func attached(t *testing.T, cfg types.Config, opts ...Option) *Session {
	t.Helper()
	s := New(catalog.Builtin(), append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, s.Attach(cfg))
	return s
}

func TestAttach(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	s := New(catalog.Builtin())
	_, err := s.Store(catalog.KindUsers)
	require.ErrorIs(t, err, types.ErrSessionClosed)

	require.NoError(t, s.Attach(types.Config{Backend: types.BackendJSONL, DataDir: dir}))
	assert.DirExists(t, dir)
	require.ErrorIs(t, s.Attach(types.Config{Backend: types.BackendJSONL, DataDir: dir}), types.ErrAlreadyAttached)

	require.NoError(t, s.Detach())
	require.NoError(t, s.Detach(), "detach is idempotent")
	require.ErrorIs(t, s.Save(), types.ErrSessionClosed)

	require.ErrorIs(t, New(catalog.Builtin()).Attach(types.Config{Backend: "csv", DataDir: dir}), types.ErrBackendUnknown)
	require.ErrorIs(t, New(catalog.Builtin()).Attach(types.Config{DataDir: dir}), types.ErrBackendEmpty)
}

func TestUnknownKind(t *testing.T) {
	s := attached(t, types.Config{Backend: types.BackendJSONL, DataDir: t.TempDir()})
	_, err := s.Store("spaceships")
	require.ErrorIs(t, err, types.ErrKindUnknown)
	_, err = s.Path("spaceships")
	require.ErrorIs(t, err, types.ErrKindUnknown)
}

func TestPersistAcrossSessions(t *testing.T) {
	for _, backend := range []string{types.BackendJSONL, types.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := types.Config{Backend: backend, DataDir: t.TempDir()}

			s := attached(t, cfg)
			products, err := s.Store(catalog.KindProducts)
			require.NoError(t, err)
			for _, code := range []string{"12345ABCD", "ZZZZZ", "AAAAA"} {
				_, err := products.Create(map[string]string{"code": code, "name": "item " + code, "quantity": "2"})
				require.NoError(t, err)
			}
			require.NoError(t, s.Detach())

			path, err := attached(t, cfg).Path(catalog.KindProducts)
			require.NoError(t, err)
			assert.FileExists(t, path)

			again := attached(t, cfg)
			products, err = again.Store(catalog.KindProducts)
			require.NoError(t, err)
			assert.Equal(t, []string{"12345ABCD", "ZZZZZ", "AAAAA"}, products.Keys())
			assert.False(t, products.Dirty())
		})
	}
}

func TestCorruptSnapshotIsLoggedAndKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, catalog.KindProducts+".jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	var logs bytes.Buffer
	logger, err := logging.New(&logs, slog.LevelInfo, logging.FormatText)
	require.NoError(t, err)
	s := attached(t, types.Config{Backend: types.BackendJSONL, DataDir: dir}, WithLogger(logger))

	products, err := s.Store(catalog.KindProducts)
	require.NoError(t, err)
	assert.Equal(t, 0, products.Len())
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "kind=products")
	assert.Contains(t, logs.String(), "error_kind=decode")

	require.NoError(t, s.Detach())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not json\n", string(data), "clean store must not overwrite the file")
}

func TestAbsentSnapshotIsLoggedAtInfo(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(&logs, slog.LevelInfo, logging.FormatText)
	require.NoError(t, err)
	s := attached(t, types.Config{Backend: types.BackendJSONL, DataDir: t.TempDir()}, WithLogger(logger))

	users, err := s.Store(catalog.KindUsers)
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())
	assert.Contains(t, logs.String(), "level=INFO")
	assert.NotContains(t, logs.String(), "level=WARN")
}

func TestReferencesAcrossStores(t *testing.T) {
	n := 0
	keys := WithKeyGenerator(func() (string, error) {
		n++
		return fmt.Sprintf("m%d", n), nil
	})
	s := attached(t, types.Config{Backend: types.BackendJSONL, DataDir: t.TempDir()}, keys)

	messages, err := s.Store(catalog.KindMessages)
	require.NoError(t, err)
	_, err = messages.Create(map[string]string{"sender": "ana", "receiver": "bea", "text": "hi"})
	require.ErrorIs(t, err, types.ErrDanglingReference)

	users, err := s.Store(catalog.KindUsers)
	require.NoError(t, err)
	for _, name := range []string{"ana", "bea"} {
		_, err := users.Create(map[string]string{"name": name})
		require.NoError(t, err)
	}

	rec, err := messages.Create(map[string]string{"sender": "ana", "receiver": "bea", "text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.Key)
	assert.Equal(t, "2025-03-14T09:30:00Z", rec.Fields["sent_at"])
}

func TestSaveOnDemand(t *testing.T) {
	dir := t.TempDir()
	s := attached(t, types.Config{Backend: types.BackendJSONL, DataDir: dir})

	users, err := s.Store(catalog.KindUsers)
	require.NoError(t, err)
	_, err = users.Create(map[string]string{"name": "ana"})
	require.NoError(t, err)

	require.NoError(t, s.Save())
	assert.False(t, users.Dirty())
	assert.FileExists(t, filepath.Join(dir, "users.jsonl"))

	require.NoError(t, s.Save(catalog.KindBooks), "explicit kinds are written even when clean")
	assert.FileExists(t, filepath.Join(dir, "books.jsonl"))
}

func TestSaveFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	s := attached(t, types.Config{Backend: types.BackendJSONL, DataDir: dir})

	users, err := s.Store(catalog.KindUsers)
	require.NoError(t, err)
	_, err = users.Create(map[string]string{"name": "ana"})
	require.NoError(t, err)

	// A non-empty directory where the snapshot should go cannot be replaced.
	blocker := filepath.Join(dir, "users.jsonl")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "inner"), 0o755))

	require.Error(t, s.Save())
	assert.True(t, users.Dirty())

	require.Error(t, s.Detach())
	require.NoError(t, s.Detach())
}
