// Root command for the keeper CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/logging"
	"github.com/mesh-intelligence/keeper/internal/paths"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagBackend   string
	flagLogLevel  string
	flagJSON      bool
)

// Settings loaded by PersistentPreRunE for all subcommands.
var (
	configDir string
	settings  fileConfig
	logger    = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Keeper keeps validated records in local files",
	Long: `Keeper stores records of several kinds (contacts, products, vehicles,
tasks, ...) in local snapshot files. Every record is validated against the
schema of its kind before it is stored.

Run "keeper kinds" to see the available kinds and their fields.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(dir, cmd)
		if err != nil {
			return err
		}
		configDir, settings = dir, cfg

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return configError(err)
		}
		l, err := logging.New(os.Stderr, level, cfg.LogFormat)
		if err != nil {
			return configError(err)
		}
		logger = l
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir, or $"+paths.EnvConfigDir+")")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "snapshot backend: "+types.BackendJSONL+" or "+types.BackendSQLite)
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(adjustCmd)
	rootCmd.AddCommand(shellCmd)
}

// resolveConfigDir returns the configuration directory:
// --config-dir flag > KEEPER_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory:
// --data-dir flag > config.yaml data_dir > KEEPER_DATA_DIR env > $(CWD)/.keeper-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, settings.DataDir)
}
