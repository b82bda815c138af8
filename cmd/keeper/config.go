// Config loading for the keeper CLI.
package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/keeper/internal/logging"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "KEEPER"

	// Config keys.
	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeySchemasFile = "schemas_file"
	cfgKeyLogLevel    = "log_level"
	cfgKeyLogFormat   = "log_format"

	defaultBackend  = types.BackendJSONL
	defaultLogLevel = "warn"
)

// fileConfig mirrors config.yaml.
type fileConfig struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir,omitempty"`
	SchemasFile string `yaml:"schemas_file,omitempty"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// configComments are written above each key by keeper init.
var configComments = map[string]string{
	cfgKeyBackend:     "Snapshot backend: jsonl or sqlite.",
	cfgKeyDataDir:     "Data directory (overridable by --data-dir).",
	cfgKeySchemasFile: "YAML file with additional kinds, relative to this directory.",
	cfgKeyLogLevel:    "Log level: debug, info, warn or error.",
	cfgKeyLogFormat:   "Log format: text or json.",
}

// loadConfig reads config.yaml from configDir using Viper. Values come from,
// in order of precedence, command line flags, KEEPER_* environment
// variables, config.yaml and built-in defaults. A missing config.yaml is
// not an error. The data directory is resolved separately by
// resolveDataDir.
func loadConfig(configDir string, cmd *cobra.Command) (fileConfig, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, logging.FormatText)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyBackend, cfgKeySchemasFile, cfgKeyLogLevel, cfgKeyLogFormat} {
		if err := v.BindEnv(key); err != nil {
			return fileConfig{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag(cfgKeyBackend, flags.Lookup("backend")); err != nil {
		return fileConfig{}, fmt.Errorf("bind flag backend: %w", err)
	}
	if err := v.BindPFlag(cfgKeyLogLevel, flags.Lookup("log-level")); err != nil {
		return fileConfig{}, fmt.Errorf("bind flag log-level: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fileConfig{}, configError(fmt.Errorf("read config: %w", err))
		}
	}

	cfg := fileConfig{
		Backend:     v.GetString(cfgKeyBackend),
		DataDir:     v.GetString(cfgKeyDataDir),
		SchemasFile: v.GetString(cfgKeySchemasFile),
		LogLevel:    v.GetString(cfgKeyLogLevel),
		LogFormat:   v.GetString(cfgKeyLogFormat),
	}
	if cfg.SchemasFile != "" && !filepath.IsAbs(cfg.SchemasFile) {
		cfg.SchemasFile = filepath.Join(configDir, cfg.SchemasFile)
	}
	return cfg, nil
}

// renderConfig encodes cfg as config.yaml content with a comment above
// each key.
func renderConfig(cfg fileConfig) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	node.HeadComment = "keeper configuration"
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		key.HeadComment = configComments[key.Value]
	}
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

func configError(err error) error {
	return fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
}
