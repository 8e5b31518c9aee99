package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_IntakeConfirmInsert(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunDocket("init")

	env.MustRunDocket("intake",
		env.WriteArtifact("contract.pdf", "2023-05-12"),
		env.WriteArtifact("letter.pdf", "2021年3月4日"),
		env.WriteArtifact("invoice.pdf", "2022"),
	)
	assert.Equal(t, []string{"TMP-E-0001_contract.pdf", "TMP-E-0002_letter.pdf", "TMP-E-0003_invoice.pdf"}, env.StoreNames())

	env.MustRunDocket("resolve-dates")
	for _, r := range env.Records("--status", "pending") {
		require.NotNil(t, r.ResolvedDate, r.TempID)
	}

	result := env.MustRunDocket("confirm", "--json")
	report := ParseJSON[Report](t, result.Stdout)
	assert.True(t, report.Completed)
	assert.Equal(t, []string{"E-001_letter.pdf", "E-002_invoice.pdf", "E-003_contract.pdf"}, env.StoreNames())

	late := env.WriteArtifact("receipt.pdf", "2022-01-15")
	env.MustRunDocket("intake", late)
	result = env.MustRunDocket("insert", "TMP-E-0004", "--at", "2", "--json")
	report = ParseJSON[Report](t, result.Stdout)
	require.True(t, report.Completed)
	// The last record moves first.
	require.GreaterOrEqual(t, len(report.Outcomes), 3)
	assert.Equal(t, "E-003", report.Outcomes[0].OldID)
	assert.Equal(t, "E-002", report.Outcomes[1].OldID)
	assert.Equal(t, "TMP-E-0004", report.Outcomes[2].OldID)

	assert.Equal(t, []string{
		"E-001_letter.pdf",
		"E-002_receipt.pdf",
		"E-003_invoice.pdf",
		"E-004_contract.pdf",
	}, env.StoreNames())
	env.MustRunDocket("validate")

	recs := env.Records()
	require.Len(t, recs, 4)
	for i, r := range recs {
		assert.Equal(t, i+1, r.SequenceNumber)
		assert.Equal(t, "confirmed", r.Status)
	}
}

func TestLifecycle_Namespaces(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunDocket("init")

	env.MustRunDocket("intake", env.WriteArtifact("photo.jpg", ""))
	env.MustRunDocket("intake", "--namespace", "attachment", env.WriteArtifact("annex.pdf", ""))
	env.MustRunDocket("confirm", "--namespace", "evidence")
	env.MustRunDocket("confirm", "--namespace", "attachment")

	assert.Equal(t, []string{"A-001_annex.pdf", "E-001_photo.jpg"}, env.StoreNames())
	assert.Len(t, env.Records("--namespace", "attachment"), 1)
	assert.Len(t, env.Records("--namespace", "evidence"), 1)
}

func TestLifecycle_DedupAndCompact(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunDocket("init")

	env.MustRunDocket("intake", "--display-number", "12", "--completed", env.WriteArtifact("scan-good.pdf", ""))
	env.MustRunDocket("intake", "--display-number", "12", env.WriteArtifact("scan-blurry.pdf", ""))
	env.MustRunDocket("intake", env.WriteArtifact("memo.pdf", ""))
	env.MustRunDocket("confirm")

	result := env.MustRunDocket("dedup")
	assert.Contains(t, result.Stdout, "compact")

	all := env.Records("--all")
	require.Len(t, all, 3)
	var removed []Record
	for _, r := range all {
		if r.Removed {
			removed = append(removed, r)
		}
	}
	require.Len(t, removed, 1)
	assert.Equal(t, "E-002_scan-blurry.pdf", removed[0].Artifact.Name)
	assert.NotEmpty(t, removed[0].MergedInto)

	result = env.RunDocket("validate")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "sequence gap")

	env.MustRunDocket("compact")
	env.MustRunDocket("validate")
	_, err := os.Stat(filepath.Join(env.StoreDir, "E-002_memo.pdf"))
	assert.NoError(t, err)

	// Merging again finds nothing new.
	before := env.Records("--all")
	env.MustRunDocket("dedup")
	assert.Equal(t, before, env.Records("--all"))
}
