package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Ext is the extension of snapshot files written by Codec.
const Ext = ".db"

// Codec reads and writes SQLite snapshots. It implements types.Snapshotter.
type Codec struct{}

// New returns a SQLite codec.
func New() Codec { return Codec{} }

// Ext returns the snapshot file extension.
func (Codec) Ext() string { return Ext }

// Write replaces the contents of the database at path with snap. The file
// and its directory are created when missing.
func (Codec) Write(path string, snap types.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema in %s: %w", path, err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM snapshot_meta"); err != nil {
		return fmt.Errorf("clearing snapshot metadata: %w", err)
	}
	if _, err := tx.Exec(insertMeta, snap.Kind, snap.Version,
		snap.SavedAt.UTC().Format(time.RFC3339), len(snap.Records)); err != nil {
		return fmt.Errorf("writing snapshot metadata: %w", err)
	}

	stmt, err := tx.Prepare(insertRecord)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snap.Records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("encoding record %q: %w", rec.Key, err)
		}
		if _, err := stmt.Exec(i+1, rec.Key, string(fields),
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			rec.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("writing record %q: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save transaction: %w", err)
	}
	return nil
}

// Read loads the snapshot stored at path. A missing file yields an error
// matching fs.ErrNotExist; anything that is not a readable snapshot database
// yields an error matching types.ErrDecode.
func (Codec) Read(path string) (types.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return types.Snapshot{}, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	snap, count, err := readMeta(db)
	if err != nil {
		return types.Snapshot{}, decodeError(path, err)
	}
	if snap.Records, err = readRecords(db); err != nil {
		return types.Snapshot{}, decodeError(path, err)
	}
	if len(snap.Records) != count {
		return types.Snapshot{}, decodeError(path,
			fmt.Errorf("metadata promises %d records, found %d", count, len(snap.Records)))
	}
	return snap, nil
}

func readMeta(db *sql.DB) (types.Snapshot, int, error) {
	var (
		snap    types.Snapshot
		savedAt string
		count   int
	)
	err := db.QueryRow(selectMeta).Scan(&snap.Kind, &snap.Version, &savedAt, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, 0, errors.New("missing snapshot metadata")
	}
	if err != nil {
		return snap, 0, fmt.Errorf("reading snapshot metadata: %w", err)
	}
	if snap.SavedAt, err = time.Parse(time.RFC3339, savedAt); err != nil {
		return snap, 0, fmt.Errorf("parsing saved_at: %w", err)
	}
	return snap, count, nil
}

func readRecords(db *sql.DB) ([]types.Record, error) {
	rows, err := db.Query(selectAll)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			rec                  types.Record
			fields               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&rec.Key, &fields, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(fields)))
		dec.UseNumber()
		if err := dec.Decode(&rec.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %q: %w", rec.Key, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %q: %w", rec.Key, err)
		}
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at of %q: %w", rec.Key, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func decodeError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrDecode, path, err)
}
