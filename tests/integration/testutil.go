// Package integration provides CLI integration tests for docket.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

var (
	// docketBin is the path to the built docket binary.
	docketBin string
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

// SetDocketBin sets the path to the docket binary (called from TestMain).
func SetDocketBin(path string) {
	docketBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config, data
// and artifact store directories.
type TestEnv struct {
	t        *testing.T
	TempDir  string
	Config   string
	DataDir  string
	StoreDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build docket: %v", buildErr)
	}
	if docketBin == "" {
		t.Fatal("docket binary not built (docketBin is empty)")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:        t,
		TempDir:  tempDir,
		Config:   filepath.Join(tempDir, "config"),
		DataDir:  filepath.Join(tempDir, "data"),
		StoreDir: filepath.Join(tempDir, "store"),
	}
	for _, dir := range []string{env.Config, env.StoreDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	configContent := "backend: sqlite\nlog_level: warn\nstore:\n  kind: local\n  retry:\n    max_attempts: 1\n"
	if err := os.WriteFile(filepath.Join(env.Config, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// CmdResult holds the result of a docket command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunDocket executes the docket CLI with the environment's directories.
func (e *TestEnv) RunDocket(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{
		"--config-dir", e.Config,
		"--data-dir", e.DataDir,
		"--store-root", e.StoreDir,
	}, args...)
	cmd := exec.Command(docketBin, allArgs...)
	cmd.Env = cleanEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run docket: %v", err)
		}
	}
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// MustRunDocket executes the docket CLI and fails the test on a non-zero exit.
func (e *TestEnv) MustRunDocket(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunDocket(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("docket %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// WriteArtifact creates a file in the store. A non-empty date is written
// to the file's date sidecar as a curated value.
func (e *TestEnv) WriteArtifact(name, date string) string {
	e.t.Helper()
	p := filepath.Join(e.StoreDir, name)
	if err := os.WriteFile(p, []byte("content of "+name), 0o644); err != nil {
		e.t.Fatalf("write %s: %v", p, err)
	}
	if date != "" {
		sidecar := "curated:\n  - \"" + date + "\"\n"
		if err := os.WriteFile(p+".dates.yaml", []byte(sidecar), 0o644); err != nil {
			e.t.Fatalf("write sidecar for %s: %v", p, err)
		}
	}
	return p
}

// StoreNames returns the artifact names in the store, sorted, without
// sidecars.
func (e *TestEnv) StoreNames() []string {
	e.t.Helper()
	entries, err := os.ReadDir(e.StoreDir)
	if err != nil {
		e.t.Fatalf("read store: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".dates.yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// Records lists records through the CLI.
func (e *TestEnv) Records(args ...string) []Record {
	e.t.Helper()
	result := e.MustRunDocket(append([]string{"list", "--json"}, args...)...)
	return ParseJSON[[]Record](e.t, result.Stdout)
}

// cleanEnv returns os.Environ() with all DOCKET_* and XDG_* variables removed.
func cleanEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "DOCKET_") || strings.HasPrefix(e, "XDG_") {
			continue
		}
		env = append(env, e)
	}
	return env
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

// Record represents a catalog record for JSON parsing.
type Record struct {
	RecordID       string `json:"record_id"`
	Namespace      string `json:"namespace"`
	Status         string `json:"status"`
	TempID         string `json:"temp_id"`
	FinalID        string `json:"final_id"`
	DisplayNumber  string `json:"display_number"`
	SequenceNumber int    `json:"sequence_number"`
	Removed        bool   `json:"removed"`
	MergedInto     string `json:"merged_into"`
	Artifact       struct {
		Handle string `json:"handle"`
		Name   string `json:"name"`
	} `json:"artifact"`
	ResolvedDate *struct {
		Year      int    `json:"year"`
		Precision string `json:"precision"`
	} `json:"resolved_date"`
}

// Report represents a cascade report for JSON parsing.
type Report struct {
	Operation string `json:"operation"`
	Namespace string `json:"namespace"`
	Completed bool   `json:"completed"`
	Error     string `json:"error"`
	Outcomes  []struct {
		OldID   string `json:"old_id"`
		NewID   string `json:"new_id"`
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
		State   string `json:"state"`
	} `json:"outcomes"`
}

// States maps each outcome's old id to its state.
func (r Report) States() map[string]string {
	m := make(map[string]string, len(r.Outcomes))
	for _, o := range r.Outcomes {
		m[o.OldID] = o.State
	}
	return m
}
