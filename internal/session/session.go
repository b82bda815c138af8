// Package session owns the stores used during one run of keeper. Stores are
// loaded from their snapshot files on first use and written back on demand
// or when the session is detached. A Session is used from one goroutine.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/mesh-intelligence/keeper/internal/catalog"
	"github.com/mesh-intelligence/keeper/internal/jsonl"
	"github.com/mesh-intelligence/keeper/internal/logging"
	"github.com/mesh-intelligence/keeper/internal/paths"
	"github.com/mesh-intelligence/keeper/internal/sqlite"
	"github.com/mesh-intelligence/keeper/internal/store"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Session holds the stores of one run.
type Session struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
	newKey  func() (string, error)

	attached bool
	config   types.Config
	codec    types.Snapshotter
	stores   map[string]*store.Store
	loaded   []string // kinds in load order
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock sets the clock handed to every store.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithKeyGenerator sets the key generator handed to every store.
func WithKeyGenerator(gen func() (string, error)) Option {
	return func(s *Session) { s.newKey = gen }
}

// New creates a detached session over the kinds in cat.
func New(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		catalog: cat,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the snapshot codec for a backend name.
func Codec(backend string) (types.Snapshotter, error) {
	switch backend {
	case types.BackendJSONL:
		return jsonl.New(), nil
	case types.BackendSQLite:
		return sqlite.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
}

// Attach validates cfg, creates the data directory and readies the session.
// Returns ErrAlreadyAttached if already attached.
func (s *Session) Attach(cfg types.Config) error {
	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	codec, err := Codec(cfg.Backend)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	s.config = cfg
	s.codec = codec
	s.stores = make(map[string]*store.Store)
	s.loaded = nil
	s.attached = true
	s.logger.Debug("session attached", "backend", cfg.Backend, "data_dir", cfg.DataDir)
	return nil
}

// Catalog returns the catalog of kinds the session serves.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Config returns the configuration the session was attached with.
func (s *Session) Config() types.Config { return s.config }

// Path returns the snapshot file of kind.
func (s *Session) Path(kind string) (string, error) {
	if !s.attached {
		return "", types.ErrSessionClosed
	}
	if _, err := s.catalog.Get(kind); err != nil {
		return "", err
	}
	return paths.SnapshotFile(s.config.DataDir, kind, s.codec.Ext()), nil
}

// Store returns the store for kind, loading it from its snapshot file on
// first use. An unreadable snapshot is logged and the store starts empty.
func (s *Session) Store(kind string) (*store.Store, error) {
	if !s.attached {
		return nil, types.ErrSessionClosed
	}
	if st, ok := s.stores[kind]; ok {
		return st, nil
	}
	schema, err := s.catalog.Get(kind)
	if err != nil {
		return nil, err
	}
	path := paths.SnapshotFile(s.config.DataDir, kind, s.codec.Ext())

	opts := []store.Option{store.WithClock(s.now), store.WithResolver(s.resolve)}
	if s.newKey != nil {
		opts = append(opts, store.WithKeyGenerator(s.newKey))
	}
	st, err := store.Load(path, schema, s.codec, opts...)
	switch {
	case err != nil:
		s.logger.Warn("snapshot unreadable, starting empty",
			"kind", kind, "path", path, "error_kind", types.KindOf(err).String(), "error", err)
	case st.Len() == 0 && absent(path):
		s.logger.Info("no snapshot, starting empty", "kind", kind, "path", path)
	default:
		s.logger.Debug("snapshot loaded", "kind", kind, "path", path, "records", st.Len())
	}

	s.stores[kind] = st
	s.loaded = append(s.loaded, kind)
	return st, nil
}

// Save writes the named stores to their snapshot files. With no kinds it
// writes every loaded store that has unsaved changes. Failures are joined;
// a failed store stays dirty.
func (s *Session) Save(kinds ...string) error {
	if !s.attached {
		return types.ErrSessionClosed
	}
	if len(kinds) == 0 {
		for _, kind := range s.loaded {
			if s.stores[kind].Dirty() {
				kinds = append(kinds, kind)
			}
		}
	}

	var errs []error
	for _, kind := range kinds {
		st, err := s.Store(kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		path := paths.SnapshotFile(s.config.DataDir, kind, s.codec.Ext())
		if err := store.Save(st, path, s.codec); err != nil {
			s.logger.Error("save failed", "kind", kind, "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("snapshot saved", "kind", kind, "path", path, "records", st.Len())
	}
	return errors.Join(errs...)
}

// Detach saves every dirty store and releases the session. Detach is
// idempotent. The session is detached even when saving fails.
func (s *Session) Detach() error {
	if !s.attached {
		return nil
	}
	err := s.Save()
	s.attached = false
	s.stores = nil
	s.loaded = nil
	return err
}

// resolve reports whether kind holds a record with key. It backs reference
// checks between stores.
func (s *Session) resolve(kind, key string) (bool, error) {
	st, err := s.Store(kind)
	if err != nil {
		return false, err
	}
	_, err = st.Find(key)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func absent(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
