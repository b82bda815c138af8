// Package sqlite provides the public API for the SQLite snapshot backend.
// This package exposes the factory function for the snapshot codec while
// keeping the table layout internal.
package sqlite

import (
	"github.com/mesh-intelligence/keeper/internal/sqlite"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// NewSnapshotter returns a codec that stores one snapshot per SQLite
// database file.
//
// Example:
//
//	codec := sqlite.NewSnapshotter()
//	err := codec.Write(filepath.Join(dir, "products"+codec.Ext()), snap)
func NewSnapshotter() types.Snapshotter {
	return sqlite.New()
}
