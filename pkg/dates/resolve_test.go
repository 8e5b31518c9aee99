package dates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/types"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		candidates []types.DateCandidate
		want       string
		precision  types.Precision
		source     string
		wantNil    bool
	}{
		{
			name:    "empty list resolves to nil",
			wantNil: true,
		},
		{
			name: "first source by rank wins",
			candidates: []types.DateCandidate{
				{Raw: "2020-01-01", Source: "embedded", SourceRank: 2},
				{Raw: "2023年5月", Source: "curated", SourceRank: 1},
			},
			want:      "2023-05",
			precision: types.PrecisionMonth,
			source:    "curated",
		},
		{
			name: "lower precision from a higher ranked source is not replaced",
			candidates: []types.DateCandidate{
				{Raw: "2023", Source: "curated", SourceRank: 1},
				{Raw: "2023-05-12", Source: "embedded", SourceRank: 2},
			},
			want:      "2023",
			precision: types.PrecisionYear,
			source:    "curated",
		},
		{
			name: "malformed source falls through to the next",
			candidates: []types.DateCandidate{
				{Raw: "not a date", Source: "curated", SourceRank: 1},
				{Raw: "2023-13-01", Source: "ocr", SourceRank: 2},
				{Raw: "2022:11:03 08:00:00", Source: "exif", SourceRank: 3},
			},
			want:      "2022-11-03",
			precision: types.PrecisionDay,
			source:    "exif",
		},
		{
			name: "equal ranks keep input order",
			candidates: []types.DateCandidate{
				{Raw: "2021-01-01", Source: "a", SourceRank: 1},
				{Raw: "2022-01-01", Source: "b", SourceRank: 1},
			},
			want:      "2021-01-01",
			precision: types.PrecisionDay,
			source:    "a",
		},
		{
			name: "nothing parses",
			candidates: []types.DateCandidate{
				{Raw: "n/a", SourceRank: 1},
				{Raw: "", SourceRank: 2},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.candidates)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.precision, got.Precision)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestResolveDoesNotReorderInput(t *testing.T) {
	candidates := []types.DateCandidate{
		{Raw: "2020", SourceRank: 3},
		{Raw: "2021", SourceRank: 1},
	}
	Resolve(candidates)
	assert.Equal(t, 3, candidates[0].SourceRank)
}

func TestResolveConfidence(t *testing.T) {
	day := Resolve([]types.DateCandidate{{Raw: "2023-05-12"}})
	require.NotNil(t, day)
	assert.Equal(t, 1.0, day.Confidence)

	weighted := Resolve([]types.DateCandidate{{Raw: "2023-05", Weight: 0.5}})
	require.NotNil(t, weighted)
	assert.InDelta(t, 0.35, weighted.Confidence, 0.0001)

	year := Resolve([]types.DateCandidate{{Raw: "2023"}})
	require.NotNil(t, year)
	assert.InDelta(t, 0.4, year.Confidence, 0.0001)
}

type failingProvider struct {
	fail map[string]bool
	next StaticProvider
	hits int
}

func (p *failingProvider) Candidates(ctx context.Context, rec *types.EvidenceRecord) ([]types.DateCandidate, error) {
	p.hits++
	if p.fail[rec.RecordID] {
		return nil, errors.New("analysis unavailable")
	}
	return p.next.Candidates(ctx, rec)
}

func TestResolveRecords(t *testing.T) {
	snap := types.NewSnapshot()
	a, err := snap.Intake(types.NamespaceEvidence, types.ArtifactRef{Handle: "a", Name: "a"})
	require.NoError(t, err)
	b, err := snap.Intake(types.NamespaceEvidence, types.ArtifactRef{Handle: "b", Name: "b"})
	require.NoError(t, err)
	c, err := snap.Intake(types.NamespaceEvidence, types.ArtifactRef{Handle: "c", Name: "c"})
	require.NoError(t, err)
	d, err := snap.Intake(types.NamespaceEvidence, types.ArtifactRef{Handle: "d", Name: "d"})
	require.NoError(t, err)
	other, err := snap.Intake(types.NamespaceAttachment, types.ArtifactRef{Handle: "x", Name: "x"})
	require.NoError(t, err)
	d.ResolvedDate = &types.ResolvedDate{Year: 1999, Precision: types.PrecisionYear}

	provider := &failingProvider{
		fail: map[string]bool{c.RecordID: true},
		next: StaticProvider{
			a.RecordID:     {{Raw: "2023-05-12", SourceRank: 1}},
			b.RecordID:     {{Raw: "unknown", SourceRank: 1}},
			other.RecordID: {{Raw: "2001", SourceRank: 1}},
		},
	}

	report, err := ResolveRecords(context.Background(), snap, types.NamespaceEvidence, provider, ResolveOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis unavailable")

	assert.Equal(t, []string{a.RecordID}, report.Resolved)
	assert.Equal(t, []string{b.RecordID}, report.Unresolved)
	assert.Equal(t, []string{c.RecordID}, report.Failed)
	assert.Equal(t, []string{d.RecordID}, report.Skipped)

	require.NotNil(t, a.ResolvedDate)
	assert.Equal(t, "2023-05-12", a.ResolvedDate.String())
	assert.Nil(t, b.ResolvedDate)
	assert.Equal(t, 1999, d.ResolvedDate.Year, "existing date kept without Force")
	assert.Nil(t, other.ResolvedDate, "other namespace untouched")
	assert.Equal(t, 3, provider.hits)
}

func TestResolveRecordsInvalidNamespace(t *testing.T) {
	_, err := ResolveRecords(context.Background(), types.NewSnapshot(), "bogus", StaticProvider{}, ResolveOptions{})
	assert.ErrorIs(t, err, types.ErrInvalidNamespace)
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Candidates(_ context.Context, _ *types.EvidenceRecord) ([]types.DateCandidate, error) {
	p.calls++
	return []types.DateCandidate{{Raw: "2023-01-01"}}, nil
}

func TestCachedProvider(t *testing.T) {
	next := &countingProvider{}
	p := NewCachedProvider(next, time.Minute)
	rec := &types.EvidenceRecord{RecordID: "r1", Artifact: types.ArtifactRef{Handle: "h", Name: "n"}}

	first, err := p.Candidates(context.Background(), rec)
	require.NoError(t, err)
	first[0].Raw = "mutated"

	second, err := p.Candidates(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", second[0].Raw)
	assert.Equal(t, 1, next.calls)

	renamed := &types.EvidenceRecord{RecordID: "r1", Artifact: types.ArtifactRef{Handle: "h", Name: "E-001_n"}}
	_, err = p.Candidates(context.Background(), renamed)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)

	p.Invalidate()
	_, err = p.Candidates(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}
