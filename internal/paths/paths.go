// Package paths resolves configuration, data and artifact store directory
// locations.
//
// Every location follows the same rule: the first non-empty source in its
// precedence chain wins and is made absolute; otherwise a default applies.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".docket"
	DefaultDataDirName   = ".docket-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DOCKET_CONFIG_DIR"
	EnvDataDir   = "DOCKET_DATA_DIR"
	EnvStoreRoot = "DOCKET_STORE_ROOT"
)

const appName = "docket"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/docket (fallback ~/.config/docket)
// macOS:   ~/Library/Application Support/docket
// Windows: %APPDATA%/docket
func DefaultConfigDir() (string, error) {
	return platformDefault("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/docket (fallback ~/.local/share/docket)
// macOS:   ~/Library/Application Support/docket
// Windows: %APPDATA%/docket
func DefaultDataDir() (string, error) {
	return platformDefault("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformDefault(xdgVar, homeFallback string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > DOCKET_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok || err != nil {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config value > DOCKET_DATA_DIR env > $(CWD)/.docket-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configValue, os.Getenv(EnvDataDir)); ok || err != nil {
		return dir, err
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveStoreRoot returns the local artifact store root following the
// precedence chain: flag > config value > DOCKET_STORE_ROOT env > $(CWD).
func ResolveStoreRoot(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configValue, os.Getenv(EnvStoreRoot)); ok || err != nil {
		return dir, err
	}
	return platformDir.getwd()
}

// firstAbs returns the first non-empty candidate as an absolute path.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		abs, err := filepath.Abs(c)
		return abs, true, err
	}
	return "", false, nil
}
