package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/docket/internal/paths"
	"github.com/mesh-intelligence/docket/pkg/types"
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend  string      `yaml:"backend"`
	DataDir  string      `yaml:"data_dir,omitempty"`
	LogLevel string      `yaml:"log_level"`
	Store    configStore `yaml:"store"`
}

type configStore struct {
	Kind  string            `yaml:"kind"`
	Root  string            `yaml:"root,omitempty"`
	Retry types.RetryConfig `yaml:"retry"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize docket storage",
		Long:  "Create the configuration and data directories, then initialize the catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr("resolve config dir: %w", err)
	}
	if err := ensureConfigDir(configDir); err != nil {
		return sysErr("create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, configFile{
		Backend:  defaultBackend,
		DataDir:  a.flags.dataDir,
		LogLevel: defaultLogLevel,
		Store: configStore{
			Kind:  types.StoreLocal,
			Root:  a.flags.storeRoot,
			Retry: types.RetryConfig{MaxAttempts: 3, InitialIntervalMS: 200},
		},
	}); err != nil {
		return sysErr("write config: %w", err)
	}

	s, err := a.open(cmd)
	if err != nil {
		return err
	}
	if err := s.close(); err != nil {
		return sysErr("finalize storage: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "docket initialized in %s\n", s.config.DataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. An existing file is left alone.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
