package types

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "duplicate", err: ErrDuplicateKey, want: KindDuplicate},
		{name: "wrapped not found", err: fmt.Errorf("find 1234ABC: %w", ErrNotFound), want: KindNotFound},
		{name: "unknown kind is not found", err: ErrKindUnknown, want: KindNotFound},
		{name: "validation error", err: &ValidationError{Field: "code", Reason: "too short"}, want: KindValidation},
		{name: "dangling reference", err: &ValidationError{Field: "sender", Err: ErrDanglingReference}, want: KindValidation},
		{name: "decode", err: fmt.Errorf("load: %w", ErrDecode), want: KindDecode},
		{name: "decode wins over record errors", err: fmt.Errorf("%w: record 2: %w", ErrDecode, ErrDuplicateKey), want: KindDecode},
		{name: "config", err: ErrBackendUnknown, want: KindConfig},
		{name: "path error", err: &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, want: KindIO},
		{name: "plain error", err: errors.New("boom"), want: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "code", Value: "AB", Rule: "length", Reason: "must be 5-10 characters"}
	assert.Equal(t, "code: must be 5-10 characters", err.Error())
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.NotErrorIs(t, err, ErrMissingField)

	missing := &ValidationError{Field: "name", Reason: "required", Err: ErrMissingField}
	assert.ErrorIs(t, missing, ErrMissingField)
	assert.NotErrorIs(t, missing, ErrInvalidField)

	var ve *ValidationError
	assert.True(t, errors.As(fmt.Errorf("insert: %w", err), &ve))
	assert.Equal(t, "length", ve.Rule)
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "kind(42)", ErrorKind(42).String())
}
