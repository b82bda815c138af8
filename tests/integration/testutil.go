// Package integration provides CLI integration tests for keeper. The tests
// build the keeper binary once and run it against isolated directories.
package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var (
	// keeperBin is the path to the built keeper binary.
	keeperBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// buildKeeper compiles the keeper binary into dir.
func buildKeeper(dir string) (string, error) {
	root, err := FindProjectRoot()
	if err != nil {
		return "", err
	}
	bin := filepath.Join(dir, "keeper")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/keeper")
	cmd.Dir = root
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", &BuildError{Err: err, Output: string(output)}
	}
	return bin, nil
}

// TestEnv provides an isolated test environment with its own config and data directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment using the given
// backend. It is skipped in -short mode.
func NewTestEnv(t *testing.T, backend string) *TestEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	if buildErr != nil {
		t.Fatalf("failed to build keeper: %v", buildErr)
	}
	if keeperBin == "" {
		t.Fatal("keeper binary not built (keeperBin is empty)")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  filepath.Join(tempDir, "config"),
		DataDir: filepath.Join(tempDir, "data"),
	}
	env.WriteConfig("backend: " + backend + "\n")
	return env
}

// WriteConfig replaces config.yaml.
func (e *TestEnv) WriteConfig(content string) {
	e.t.Helper()
	if err := os.MkdirAll(e.Config, 0o755); err != nil {
		e.t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.Config, "config.yaml"), []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write config: %v", err)
	}
}

// CmdResult holds the result of a keeper command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunKeeper executes the keeper CLI with the given arguments.
func (e *TestEnv) RunKeeper(args ...string) CmdResult {
	e.t.Helper()
	return e.RunKeeperWithInput("", args...)
}

// RunKeeperWithInput executes the keeper CLI feeding input on stdin.
func (e *TestEnv) RunKeeperWithInput(input string, args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(keeperBin, allArgs...)
	cmd.Env = append(os.Environ(), "KEEPER_BACKEND=", "KEEPER_LOG_LEVEL=")
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.t.Fatalf("failed to run keeper: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunKeeper executes the keeper CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunKeeper(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunKeeper(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("keeper %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// Record is a record as printed by --json.
type Record struct {
	Key       string         `json:"key"`
	Fields    map[string]any `json:"fields"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// Keys returns the keys of records in order.
func Keys(records []Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}
