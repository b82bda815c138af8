// Package jsonl stores snapshots as JSON Lines files: one header line
// describing the snapshot followed by one line per record, in insertion
// order. Files are replaced atomically.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Ext is the extension of snapshot files written by Codec.
const Ext = ".jsonl"

// maxLine bounds a single record line.
const maxLine = 4 << 20

// header is the first line of every snapshot file.
type header struct {
	Kind    string `json:"kind"`
	Version int    `json:"version"`
	SavedAt string `json:"saved_at"`
	Count   int    `json:"count"`
}

// Codec reads and writes JSONL snapshots. It implements types.Snapshotter.
type Codec struct{}

// New returns a JSONL codec.
func New() Codec { return Codec{} }

// Ext returns the snapshot file extension.
func (Codec) Ext() string { return Ext }

// Write encodes snap and atomically replaces the file at path.
func (Codec) Write(path string, snap types.Snapshot) error {
	lines := make([]json.RawMessage, 0, len(snap.Records)+1)
	h, err := json.Marshal(header{
		Kind:    snap.Kind,
		Version: snap.Version,
		SavedAt: snap.SavedAt.UTC().Format(time.RFC3339),
		Count:   len(snap.Records),
	})
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	lines = append(lines, h)
	for _, rec := range snap.Records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %q: %w", rec.Key, err)
		}
		lines = append(lines, line)
	}
	return writeJSONL(path, lines)
}

// Read decodes the snapshot at path. Every line must decode; a malformed
// line, a missing header or a record count that disagrees with the header
// fails the whole read with an error matching types.ErrDecode.
func (Codec) Read(path string) (types.Snapshot, error) {
	lines, err := readJSONL(path)
	if err != nil {
		return types.Snapshot{}, err
	}
	if len(lines) == 0 {
		return types.Snapshot{}, decodeError(path, 0, errors.New("missing header"))
	}

	var h header
	if err := strictUnmarshal(lines[0], &h); err != nil {
		return types.Snapshot{}, decodeError(path, 1, err)
	}
	savedAt, err := time.Parse(time.RFC3339, h.SavedAt)
	if err != nil {
		return types.Snapshot{}, decodeError(path, 1, err)
	}
	snap := types.Snapshot{
		Kind:    h.Kind,
		Version: h.Version,
		SavedAt: savedAt,
		Records: make([]types.Record, 0, len(lines)-1),
	}
	for i, line := range lines[1:] {
		var rec types.Record
		if err := strictUnmarshal(line, &rec); err != nil {
			return types.Snapshot{}, decodeError(path, i+2, err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if len(snap.Records) != h.Count {
		return types.Snapshot{}, decodeError(path, len(lines),
			fmt.Errorf("header promises %d records, found %d", h.Count, len(snap.Records)))
	}
	return snap, nil
}

func decodeError(path string, line int, err error) error {
	return fmt.Errorf("%w: %s line %d: %w", types.ErrDecode, path, line, err)
}

// strictUnmarshal decodes one line, rejecting unknown fields and keeping
// numbers exact.
func strictUnmarshal(line []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	return dec.Decode(v)
}

// readJSONL returns every non-empty line of the file at path. A missing file
// yields an error matching fs.ErrNotExist.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %w", types.ErrDecode, path, err)
	}
	return lines, nil
}

// writeJSONL writes lines to path through a temp file in the same directory,
// syncing before the rename so a crash leaves either the old or the new file.
func writeJSONL(path string, lines []json.RawMessage) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
