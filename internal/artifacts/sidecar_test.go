package artifacts

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/dates"
	"github.com/mesh-intelligence/docket/pkg/types"
)

func TestSidecarProvider(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in/a.pdf"+SidecarSuffix, []byte(`
curated:
  - not a date
  - 2023年5月
extracted:
  - 2023-05-12
embedded:
  - "2021:01:02 10:00:00"
`), 0o644))
	p := NewSidecarProvider(fs)
	rec := &types.EvidenceRecord{Artifact: types.ArtifactRef{Handle: "in/a.pdf"}}

	got, err := p.Candidates(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, types.DateCandidate{Raw: "not a date", Source: "curated", SourceRank: 0, Weight: 1.0}, got[0])
	assert.Equal(t, "extracted", got[2].Source)
	assert.Equal(t, 1, got[2].SourceRank)
	assert.Equal(t, 2, got[3].SourceRank)

	// The curated month beats the more precise extracted day.
	rd := dates.Resolve(got)
	require.NotNil(t, rd)
	assert.Equal(t, "2023-05", rd.String())
	assert.Equal(t, "curated", rd.Source)
}

func TestSidecarProviderMissingFile(t *testing.T) {
	p := NewSidecarProvider(afero.NewMemMapFs())
	got, err := p.Candidates(context.Background(), &types.EvidenceRecord{Artifact: types.ArtifactRef{Handle: "x.pdf"}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSidecarProviderBadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "x.pdf"+SidecarSuffix, []byte("curated: [unclosed"), 0o644))
	_, err := NewSidecarProvider(fs).Candidates(context.Background(), &types.EvidenceRecord{Artifact: types.ArtifactRef{Handle: "x.pdf"}})
	assert.Error(t, err)
}

func TestWriteSidecarRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteSidecar(fs, "d/x.pdf", Sidecar{Extracted: []string{"2020"}}))
	got, err := NewSidecarProvider(fs).Candidates(context.Background(), &types.EvidenceRecord{Artifact: types.ArtifactRef{Handle: "d/x.pdf"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2020", got[0].Raw)
	assert.Equal(t, "extracted", got[0].Source)
}
