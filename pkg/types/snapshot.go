package types

import "time"

// SnapshotVersion is written into every snapshot. Readers reject other values.
const SnapshotVersion = 1

// Snapshot is the full contents of one store at one point in time. Records
// are in insertion order.
type Snapshot struct {
	Kind    string
	Version int
	SavedAt time.Time
	Records []Record
}

// Snapshotter writes and reads whole snapshots to and from one file.
// Read returns an error matching fs.ErrNotExist when the file is absent and
// one matching ErrDecode when the contents cannot be decoded.
type Snapshotter interface {
	Write(path string, snap Snapshot) error
	Read(path string) (Snapshot, error)
	// Ext is the file extension used for snapshot files, with the dot.
	Ext() string
}
