// Config loading for the docket CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/docket/internal/paths"
	"github.com/mesh-intelligence/docket/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyLogLevel      = "log_level"
	cfgKeyStoreKind     = "store.kind"
	cfgKeyRetryAttempts = "store.retry.max_attempts"
	cfgKeyRetryInterval = "store.retry.initial_interval_ms"

	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "info"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# docket configuration

# Catalog backend
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# trace, debug, info, warn or error
log_level: info

# Artifact store that holds the evidence files
store:
  kind: local
  # root defaults to the working directory
  # root: .
  retry:
    max_attempts: 3
    initial_interval_ms: 200
  # s3:
  #   bucket: evidence
  #   region: us-east-1
  #   endpoint: http://localhost:9000
  #   prefix: case-17
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyStoreKind, types.StoreLocal)
	v.SetDefault(cfgKeyRetryAttempts, 3)
	v.SetDefault(cfgKeyRetryInterval, 200)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// buildConfig turns the loaded settings and global flags into a validated
// types.Config. Directory settings follow flag > config > env > default.
func buildConfig(v *viper.Viper, f rootFlags) (types.Config, error) {
	// Unmarshal merges defaults into a partially written store section.
	var file struct {
		Store types.StoreConfig `mapstructure:"store"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg := types.Config{Backend: v.GetString(cfgKeyBackend), Store: file.Store}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = types.StoreLocal
	}

	dataDir, err := paths.ResolveDataDir(f.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return cfg, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if cfg.Store.Kind == types.StoreLocal {
		root, err := paths.ResolveStoreRoot(f.storeRoot, cfg.Store.Root)
		if err != nil {
			return cfg, fmt.Errorf("resolve store root: %w", err)
		}
		cfg.Store.Root = root
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
