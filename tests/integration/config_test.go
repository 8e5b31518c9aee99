package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runDocketWith executes the docket binary with explicit control over flags,
// environment and working directory. Unlike RunDocket it passes args
// unchanged so callers can test the full precedence chain.
func runDocketWith(t *testing.T, env []string, workDir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	require.NoError(t, buildErr, "build docket binary")
	cmd := exec.Command(docketBin, args...)
	cmd.Env = append(cleanEnv(), env...)
	cmd.Dir = workDir
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("run docket: %v", err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func TestConfigLoading_CWDDefaults(t *testing.T) {
	work := t.TempDir()
	configDir := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(filepath.Join(work, "scan.pdf"), []byte("x"), 0o644))

	_, stderr, code := runDocketWith(t, nil, work, "--config-dir", configDir, "init")
	require.Equal(t, 0, code, stderr)
	assert.DirExists(t, filepath.Join(work, ".docket-db"))
	assert.FileExists(t, filepath.Join(configDir, "config.yaml"))

	_, stderr, code = runDocketWith(t, nil, work, "--config-dir", configDir, "intake", "scan.pdf")
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(work, "TMP-E-0001_scan.pdf"))
}

func TestConfigLoading_EnvDataDir(t *testing.T) {
	work := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "env-data")

	_, stderr, code := runDocketWith(t,
		[]string{"DOCKET_CONFIG_DIR=" + filepath.Join(work, "cfg"), "DOCKET_DATA_DIR=" + dataDir},
		work, "init")
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(dataDir, "records.jsonl"))
	assert.NoDirExists(t, filepath.Join(work, ".docket-db"))
}

func TestConfigLoading_FlagOverridesConfig(t *testing.T) {
	work := t.TempDir()
	configDir := filepath.Join(work, "cfg")
	configData := filepath.Join(work, "config-data")
	flagData := filepath.Join(work, "flag-data")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("backend: sqlite\ndata_dir: "+configData+"\n"), 0o644))

	_, stderr, code := runDocketWith(t, nil, work, "--config-dir", configDir, "--data-dir", flagData, "init")
	require.Equal(t, 0, code, stderr)
	assert.DirExists(t, flagData)
	assert.NoDirExists(t, configData)
}

func TestConfigLoading_InvalidStore(t *testing.T) {
	work := t.TempDir()
	configDir := filepath.Join(work, "cfg")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("backend: sqlite\nstore:\n  kind: ftp\n"), 0o644))

	_, stderr, code := runDocketWith(t, nil, work, "--config-dir", configDir, "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid store configuration")
}

func TestVersion(t *testing.T) {
	stdout, _, code := runDocketWith(t, nil, t.TempDir(), "--config-dir", t.TempDir(), "version")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "docket v"))
}
