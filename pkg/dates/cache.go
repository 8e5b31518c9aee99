package dates

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// CachedProvider memoizes candidate lists per artifact so repeated
// resolution passes do not re-run content analysis for unchanged artifacts.
type CachedProvider struct {
	next  types.DatePayloadProvider
	cache *cache.Cache
}

// NewCachedProvider wraps next with a cache whose entries expire after ttl.
func NewCachedProvider(next types.DatePayloadProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Candidates returns the cached candidates for the record's artifact or
// asks the wrapped provider. Errors are not cached.
func (p *CachedProvider) Candidates(ctx context.Context, rec *types.EvidenceRecord) ([]types.DateCandidate, error) {
	key := rec.Artifact.Handle + "\x00" + rec.Artifact.Name
	if v, ok := p.cache.Get(key); ok {
		return clone(v.([]types.DateCandidate)), nil
	}
	candidates, err := p.next.Candidates(ctx, rec)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, clone(candidates))
	return candidates, nil
}

// Invalidate drops every cached entry.
func (p *CachedProvider) Invalidate() {
	p.cache.Flush()
}

func clone(c []types.DateCandidate) []types.DateCandidate {
	out := make([]types.DateCandidate, len(c))
	copy(out, c)
	return out
}

// StaticProvider serves fixed candidate lists keyed by record id.
type StaticProvider map[string][]types.DateCandidate

// Candidates returns the list registered for rec.RecordID.
func (p StaticProvider) Candidates(_ context.Context, rec *types.EvidenceRecord) ([]types.DateCandidate, error) {
	return p[rec.RecordID], nil
}
