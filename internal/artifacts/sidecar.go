package artifacts

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// SidecarSuffix is appended to an artifact handle to find its date sidecar.
const SidecarSuffix = ".dates.yaml"

// Sidecar is the YAML document stored next to an artifact. Each list holds
// raw date strings in the order they should be tried.
//
//	curated:
//	  - 2023年5月12日
//	extracted:
//	  - 2023-05
//	embedded:
//	  - "2023:05:12 10:00:00"
type Sidecar struct {
	Curated   []string `yaml:"curated"`
	Extracted []string `yaml:"extracted"`
	Embedded  []string `yaml:"embedded"`
}

// Source names and their ranks and confidence weights.
var sidecarSources = []struct {
	name   string
	weight float64
	get    func(*Sidecar) []string
}{
	{"curated", 1.0, func(s *Sidecar) []string { return s.Curated }},
	{"extracted", 0.9, func(s *Sidecar) []string { return s.Extracted }},
	{"embedded", 0.8, func(s *Sidecar) []string { return s.Embedded }},
}

// SidecarProvider implements types.DatePayloadProvider by reading the
// sidecar file of each record's artifact. A missing sidecar yields no
// candidates.
type SidecarProvider struct {
	fs afero.Fs
}

// NewSidecarProvider returns a provider reading from fs.
func NewSidecarProvider(fs afero.Fs) *SidecarProvider {
	return &SidecarProvider{fs: fs}
}

// Candidates implements types.DatePayloadProvider.
func (p *SidecarProvider) Candidates(ctx context.Context, rec *types.EvidenceRecord) ([]types.DateCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := cleanHandle(rec.Artifact.Handle) + SidecarSuffix
	ok, err := afero.Exists(p.fs, name)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	data, err := afero.ReadFile(p.fs, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	var out []types.DateCandidate
	for rank, src := range sidecarSources {
		for _, raw := range src.get(&sc) {
			out = append(out, types.DateCandidate{
				Raw:        raw,
				Source:     src.name,
				SourceRank: rank,
				Weight:     src.weight,
			})
		}
	}
	return out, nil
}

// WriteSidecar stores sc next to the artifact at handle.
func WriteSidecar(fs afero.Fs, handle string, sc Sidecar) error {
	data, err := yaml.Marshal(&sc)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	name := cleanHandle(handle) + SidecarSuffix
	if err := afero.WriteFile(fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
