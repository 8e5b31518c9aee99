package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery_ConfirmStopsAtFailedRename(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunDocket("init")
	env.MustRunDocket("intake",
		env.WriteArtifact("a.pdf", ""),
		env.WriteArtifact("b.pdf", ""),
		env.WriteArtifact("c.pdf", ""),
	)

	// A stray file occupies the name the second record needs.
	stray := filepath.Join(env.StoreDir, "E-002_b.pdf")
	require.NoError(t, os.WriteFile(stray, []byte("stray"), 0o644))

	result := env.RunDocket("confirm", "--json")
	assert.Equal(t, 1, result.ExitCode)
	report := ParseJSON[Report](t, result.Stdout)
	assert.False(t, report.Completed)
	assert.Equal(t, map[string]string{
		"TMP-E-0001": "shifted",
		"TMP-E-0002": "shift_failed",
		"TMP-E-0003": "stable",
	}, report.States())

	// The catalog matches the files that were actually renamed.
	recs := env.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "E-001", recs[0].FinalID)
	assert.Equal(t, "pending", recs[1].Status)
	assert.Equal(t, "TMP-E-0002_b.pdf", recs[1].Artifact.Name)

	require.NoError(t, os.Remove(stray))
	env.MustRunDocket("confirm")
	assert.Equal(t, []string{"E-001_a.pdf", "E-002_b.pdf", "E-003_c.pdf"}, env.StoreNames())
	env.MustRunDocket("validate")
}

func TestRecovery_InsertRejectedBeforeAnyRename(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunDocket("init")
	env.MustRunDocket("intake", env.WriteArtifact("a.pdf", ""), env.WriteArtifact("b.pdf", ""))
	env.MustRunDocket("confirm")
	env.MustRunDocket("intake", env.WriteArtifact("c.pdf", ""))

	result := env.RunDocket("insert", "TMP-E-0003", "--at", "9")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "sequence invariant violated")
	assert.Equal(t, []string{"E-001_a.pdf", "E-002_b.pdf", "TMP-E-0003_c.pdf"}, env.StoreNames())
}

func TestRecovery_InsertResumesAfterFailedShift(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunDocket("init")
	env.MustRunDocket("intake",
		env.WriteArtifact("a.pdf", ""),
		env.WriteArtifact("b.pdf", ""),
		env.WriteArtifact("c.pdf", ""),
	)
	env.MustRunDocket("confirm")
	env.MustRunDocket("intake", env.WriteArtifact("d.pdf", ""))

	// c moves to 4, then b cannot take E-003.
	stray := filepath.Join(env.StoreDir, "E-003_b.pdf")
	require.NoError(t, os.WriteFile(stray, []byte("stray"), 0o644))

	result := env.RunDocket("insert", "TMP-E-0004", "--at", "2")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, env.StoreNames(), "E-004_c.pdf")

	require.NoError(t, os.Remove(stray))
	env.MustRunDocket("insert", "TMP-E-0004", "--at", "2")
	assert.Equal(t, []string{"E-001_a.pdf", "E-002_d.pdf", "E-003_b.pdf", "E-004_c.pdf"}, env.StoreNames())
	env.MustRunDocket("validate")
}
