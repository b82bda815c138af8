// Shared helpers for keeper CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/keeper/internal/catalog"
	"github.com/mesh-intelligence/keeper/internal/session"
	"github.com/mesh-intelligence/keeper/internal/store"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// exitCode maps an error to the process exit code. Storage, decode and
// configuration failures are system errors; everything else, including
// usage mistakes, is a user error.
func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.KindIO, types.KindDecode, types.KindConfig:
		return exitSysError
	}
	return exitUserError
}

// loadCatalog returns the built-in kinds plus those of the configured
// schemas file.
func loadCatalog() (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	if settings.SchemasFile != "" {
		if err := cat.LoadFile(settings.SchemasFile); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// withSession attaches a session for the duration of fn and detaches it
// afterwards, saving every store fn changed.
func withSession(fn func(*session.Session) error) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	sess := session.New(cat, session.WithLogger(logger))
	cfg := types.Config{Backend: settings.Backend, DataDir: dataDir, SchemasFile: settings.SchemasFile}
	if err := sess.Attach(cfg); err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	err = fn(sess)
	if derr := sess.Detach(); derr != nil {
		err = errors.Join(err, fmt.Errorf("save: %w", derr))
	}
	return err
}

// openStore returns the store for kind, naming the valid kinds when kind is
// unknown.
func openStore(sess *session.Session, kind string) (*store.Store, error) {
	st, err := sess.Store(kind)
	if errors.Is(err, types.ErrKindUnknown) {
		return nil, fmt.Errorf("%w %q (valid: %s)", types.ErrKindUnknown, kind, strings.Join(sess.Catalog().Kinds(), ", "))
	}
	return st, err
}

// parseAssignments turns field=value arguments into raw field input.
func parseAssignments(args []string) (map[string]string, error) {
	raw := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected field=value)", arg)
		}
		if _, dup := raw[name]; dup {
			return nil, fmt.Errorf("field %q given more than once", name)
		}
		raw[name] = value
	}
	return raw, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
