package dates

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Resolver picks the first parseable candidate by source rank.
type Resolver struct {
	logger hclog.Logger
}

// NewResolver returns a Resolver that logs skipped candidates at trace level.
// A nil logger disables logging.
func NewResolver(logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{logger: logger.Named("dates")}
}

var defaultResolver = NewResolver(nil)

// Resolve is Resolver.Resolve without logging.
func Resolve(candidates []types.DateCandidate) *types.ResolvedDate {
	return defaultResolver.Resolve(candidates)
}

// Resolve tries candidates in ascending SourceRank (ties keep input order)
// and returns the first one that parses, or nil when none does. Malformed
// candidates are skipped; they never abort resolution.
func (r *Resolver) Resolve(candidates []types.DateCandidate) *types.ResolvedDate {
	if len(candidates) == 0 {
		return nil
	}
	ordered := make([]types.DateCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourceRank < ordered[j].SourceRank
	})

	for _, c := range ordered {
		rd, err := Parse(c.Raw)
		if err != nil {
			r.logger.Trace("skipping date candidate", "source", c.Source, "rank", c.SourceRank, "error", err)
			continue
		}
		rd.Source = c.Source
		rd.Confidence = confidence(rd.Confidence, c.Weight)
		return &rd
	}
	return nil
}

func confidence(base, weight float64) float64 {
	if weight <= 0 {
		weight = 1
	}
	return math.Round(math.Min(base*weight, 1)*1000) / 1000
}

// ResolveOptions configure ResolveRecords.
type ResolveOptions struct {
	// Force re-resolves records that already carry a date.
	Force  bool
	Logger hclog.Logger
}

// ResolveReport lists what happened to each pending record.
type ResolveReport struct {
	Resolved   []string `json:"resolved"`
	Unresolved []string `json:"unresolved"`
	Skipped    []string `json:"skipped"`
	Failed     []string `json:"failed"`
}

// ResolveRecords fills ResolvedDate on the pending records of ns using the
// candidates supplied by provider. A provider error for one record is
// collected and the remaining records are still processed; the returned
// error aggregates every provider failure.
func ResolveRecords(ctx context.Context, snap *types.Snapshot, ns types.Namespace, provider types.DatePayloadProvider, opts ResolveOptions) (ResolveReport, error) {
	var report ResolveReport
	if !ns.IsValid() {
		return report, fmt.Errorf("%w: %q", types.ErrInvalidNamespace, ns)
	}
	resolver := NewResolver(opts.Logger)

	var result *multierror.Error
	for _, rec := range snap.Pending(ns) {
		if err := ctx.Err(); err != nil {
			return report, multierror.Append(result, err).ErrorOrNil()
		}
		if rec.ResolvedDate != nil && !opts.Force {
			report.Skipped = append(report.Skipped, rec.RecordID)
			continue
		}
		candidates, err := provider.Candidates(ctx, rec)
		if err != nil {
			report.Failed = append(report.Failed, rec.RecordID)
			result = multierror.Append(result, fmt.Errorf("candidates for %s: %w", rec.ID(), err))
			continue
		}
		rd := resolver.Resolve(candidates)
		rec.ResolvedDate = rd
		if rd == nil {
			report.Unresolved = append(report.Unresolved, rec.RecordID)
			continue
		}
		report.Resolved = append(report.Resolved, rec.RecordID)
	}
	return report, result.ErrorOrNil()
}
