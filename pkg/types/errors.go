package types

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies an error for reporting. Kinds are flat; there is no
// hierarchy between them.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindDuplicate
	KindNotFound
	KindDecode
	KindIO
	KindConfig
)

var kindNames = map[ErrorKind]string{
	KindUnknown:    "unknown",
	KindValidation: "validation",
	KindDuplicate:  "duplicate",
	KindNotFound:   "not_found",
	KindDecode:     "decode",
	KindIO:         "io",
	KindConfig:     "config",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Store operation errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("key already exists")
	ErrKeyImmutable      = errors.New("key field cannot be changed")
	ErrInvalidField      = errors.New("invalid field value")
	ErrUnknownField      = errors.New("unknown field")
	ErrMissingField      = errors.New("required field missing")
	ErrDanglingReference = errors.New("referenced record does not exist")
	ErrNotNumeric        = errors.New("field is not numeric")
)

// Catalog and session errors.
var (
	ErrKindUnknown     = errors.New("unknown kind")
	ErrInvalidSchema   = errors.New("invalid schema")
	ErrSessionClosed   = errors.New("session is detached")
	ErrAlreadyAttached = errors.New("session is already attached")
)

// Snapshot errors.
var (
	ErrDecode          = errors.New("snapshot decode failed")
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
	ErrSnapshotKind    = errors.New("snapshot belongs to another kind")
)

// kindTable maps sentinels to their kind. Order matters: the first sentinel
// found in the chain wins.
var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrDecode, KindDecode},
	{ErrSnapshotVersion, KindDecode},
	{ErrSnapshotKind, KindDecode},
	{ErrDuplicateKey, KindDuplicate},
	{ErrNotFound, KindNotFound},
	{ErrKindUnknown, KindNotFound},
	{ErrInvalidField, KindValidation},
	{ErrUnknownField, KindValidation},
	{ErrMissingField, KindValidation},
	{ErrKeyImmutable, KindValidation},
	{ErrDanglingReference, KindValidation},
	{ErrNotNumeric, KindValidation},
	{ErrInvalidSchema, KindConfig},
	{ErrBackendEmpty, KindConfig},
	{ErrBackendUnknown, KindConfig},
	{ErrInvalidConfig, KindConfig},
}

// KindOf reports the kind of err by walking its wrap chain. Errors carrying
// none of the package sentinels are KindIO when a *fs.PathError is in the
// chain and KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return KindIO
	}
	return KindUnknown
}

// ValidationError reports a field value rejected by a rule. It matches
// ErrInvalidField with errors.Is unless Err names a more specific sentinel.
type ValidationError struct {
	Field  string // Field name.
	Value  string // Offending input, as given.
	Rule   string // Rule that rejected the value.
	Reason string // Human-readable reason.
	Err    error  // Sentinel; ErrInvalidField when nil.
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns the sentinel carried by the error.
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidField
	}
	return e.Err
}
