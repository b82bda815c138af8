// Init command for the keeper CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/paths"
	"github.com/mesh-intelligence/keeper/internal/session"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write config.yaml and create the data directory",
	Long: `Init writes config.yaml to the configuration directory, recording the
current backend and, when --data-dir is given, the data directory. An
existing config.yaml is left alone unless --force is given.

Example:
  keeper init
  keeper init --backend sqlite --data-dir ~/records`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := (types.Config{Backend: settings.Backend}).Validate(); err != nil {
			return err
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}

		path := filepath.Join(configDir, paths.ConfigFileName)
		written, err := writeConfigFile(path)
		if err != nil {
			return err
		}

		dataDir, err := resolveDataDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		if err := withSession(func(*session.Session) error { return nil }); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if written {
			fmt.Fprintln(out, "Keeper initialized")
		} else {
			fmt.Fprintln(out, "Keeper already initialized (use --force to rewrite config.yaml)")
		}
		fmt.Fprintln(out, "  config: ", path)
		fmt.Fprintln(out, "  data:   ", dataDir)
		fmt.Fprintln(out, "  backend:", settings.Backend)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
}

// writeConfigFile writes the current settings to path unless the file exists
// and --force is not set. It reports whether the file was written.
func writeConfigFile(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil && !initForce:
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := settings
	if flagDataDir != "" {
		abs, err := filepath.Abs(flagDataDir)
		if err != nil {
			return false, err
		}
		cfg.DataDir = abs
	}
	if cfg.SchemasFile != "" {
		if rel, err := filepath.Rel(configDir, cfg.SchemasFile); err == nil {
			cfg.SchemasFile = rel
		}
	}

	data, err := renderConfig(cfg)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
