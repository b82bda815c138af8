package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "empty backend", config: Config{DataDir: "/tmp/data"}, wantErr: ErrBackendEmpty},
		{name: "unknown backend", config: Config{Backend: "postgres", DataDir: "/tmp/data"}, wantErr: ErrBackendUnknown},
		{name: "jsonl", config: Config{Backend: BackendJSONL, DataDir: "/tmp/data"}},
		{name: "sqlite with schemas file", config: Config{Backend: BackendSQLite, DataDir: "/tmp/data", SchemasFile: "kinds.yaml"}},
		{name: "empty data dir left to the session", config: Config{Backend: BackendJSONL}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, KindConfig, KindOf(err))
		})
	}
}
