package dedup

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Options configures Merge.
type Options struct {
	// DryRun computes the report on copies and leaves records untouched.
	DryRun bool

	Logger hclog.Logger
}

// GroupOutcome describes the merge of one group.
type GroupOutcome struct {
	Namespace   types.Namespace `json:"namespace"`
	Canonical   string          `json:"canonical"`
	CanonicalID string          `json:"canonical_id"`
	Removed     []string        `json:"removed"`
	Keys        []string        `json:"keys"`
	Filled      []string        `json:"filled,omitempty"`
	// Retired lists sequence numbers freed by removed confirmed members.
	Retired   []int `json:"retired,omitempty"`
	Ambiguous bool  `json:"ambiguous,omitempty"`
	// StaleName is set when the canonical record took over a final id its
	// artifact name does not carry yet.
	StaleName bool `json:"stale_name,omitempty"`
}

// MergeReport summarizes a Merge call.
type MergeReport struct {
	Groups      []GroupOutcome `json:"groups"`
	Ambiguities []string       `json:"ambiguities,omitempty"`
	// Failures lists members that could not be marked removed.
	Failures []string `json:"failures,omitempty"`
	DryRun   bool     `json:"dry_run,omitempty"`
}

// Retired returns the sequence numbers freed in ns, ascending.
func (r MergeReport) Retired(ns types.Namespace) []int {
	var out []int
	for _, g := range r.Groups {
		if g.Namespace == ns {
			out = append(out, g.Retired...)
		}
	}
	sort.Ints(out)
	return out
}

// StaleNames returns the canonical record ids of ns whose artifact names
// must be renamed to their final ids.
func (r MergeReport) StaleNames(ns types.Namespace) []string {
	var out []string
	for _, g := range r.Groups {
		if g.Namespace == ns && g.StaleName {
			out = append(out, g.Canonical)
		}
	}
	return out
}

// Err returns the recorded ambiguities, wrapping ErrMergeAmbiguity, and
// failures, wrapping ErrInvariantViolation, as one error, or nil.
func (r MergeReport) Err() error {
	var result *multierror.Error
	for _, a := range r.Ambiguities {
		result = multierror.Append(result, fmt.Errorf("%w: %s", types.ErrMergeAmbiguity, a))
	}
	for _, f := range r.Failures {
		result = multierror.Append(result, fmt.Errorf("%w: %s", types.ErrInvariantViolation, f))
	}
	return result.ErrorOrNil()
}

// Merge folds every duplicate group in records into its canonical record.
//
// The canonical record is the member with a completed payload; when none
// or several have one, the lowest intake order wins (record id breaks
// ties). Several payload candidates are an ambiguity: it is logged and
// recorded in the report but does not stop the merge. Identifiers the
// canonical record lacks are copied from the other members in intake
// order and never overwritten. A confirmed status travels with its
// sequence number and final id as one unit; the group then reports a
// stale name until the artifact is renamed. The other members are marked
// removed. Merging an already merged set changes nothing.
func Merge(records []*types.EvidenceRecord, opts Options) MergeReport {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("dedup")

	if opts.DryRun {
		copies := make([]*types.EvidenceRecord, len(records))
		for i, r := range records {
			copies[i] = r.Clone()
		}
		records = copies
	}

	report := MergeReport{DryRun: opts.DryRun}
	for _, g := range GroupRecords(records) {
		outcome, failures := mergeGroup(g, logger)
		report.Failures = append(report.Failures, failures...)
		if outcome.Ambiguous {
			report.Ambiguities = append(report.Ambiguities, fmt.Sprintf("%s: %d members of group %v have completed payloads",
				g.Namespace, countPayloads(g.Members), g.Keys))
		}
		report.Groups = append(report.Groups, outcome)
	}
	return report
}

func mergeGroup(g Group, logger hclog.Logger) (GroupOutcome, []string) {
	canonical, ambiguous := chooseCanonical(g.Members)
	if ambiguous {
		logger.Warn("several duplicates have completed payloads",
			"namespace", g.Namespace.String(), "keys", g.Keys, "canonical", canonical.RecordID)
	}

	outcome := GroupOutcome{
		Namespace: g.Namespace,
		Canonical: canonical.RecordID,
		Keys:      g.Keys,
		Ambiguous: ambiguous,
	}
	for _, m := range g.Members {
		if m == canonical {
			continue
		}
		outcome.Filled = append(outcome.Filled, fill(canonical, m)...)
	}
	var failures []string
	for _, m := range g.Members {
		if m == canonical {
			continue
		}
		if err := m.MarkMerged(canonical.RecordID); err != nil {
			logger.Error("cannot remove duplicate", "record_id", m.RecordID, "canonical", canonical.RecordID, "error", err)
			failures = append(failures, fmt.Sprintf("%s: removing %s into %s: %v", g.Namespace, m.RecordID, canonical.RecordID, err))
			continue
		}
		if m.Status == types.StatusConfirmed && m.SequenceNumber > 0 && m.SequenceNumber != canonical.SequenceNumber {
			outcome.Retired = append(outcome.Retired, m.SequenceNumber)
		}
		outcome.Removed = append(outcome.Removed, m.RecordID)
	}
	sort.Ints(outcome.Retired)
	outcome.CanonicalID = canonical.ID()
	outcome.StaleName = canonical.IsConfirmed() && canonical.Artifact.Name != "" &&
		!types.ContainsIDToken(canonical.Artifact.Name, canonical.FinalID)

	logger.Info("merged duplicates", "namespace", g.Namespace.String(), "canonical", canonical.ID(),
		"removed", len(outcome.Removed), "filled", outcome.Filled)
	return outcome, failures
}

// chooseCanonical picks the canonical member. members are in intake order.
func chooseCanonical(members []*types.EvidenceRecord) (*types.EvidenceRecord, bool) {
	var first *types.EvidenceRecord
	n := 0
	for _, m := range members {
		if m.HasCompletedPayload {
			if first == nil {
				first = m
			}
			n++
		}
	}
	if first != nil {
		return first, n > 1
	}
	return members[0], false
}

func countPayloads(members []*types.EvidenceRecord) int {
	n := 0
	for _, m := range members {
		if m.HasCompletedPayload {
			n++
		}
	}
	return n
}

// fill copies the identifiers dst lacks from src and returns the names of
// the fields it set.
func fill(dst, src *types.EvidenceRecord) []string {
	var filled []string
	if dst.TempID == "" && src.TempID != "" {
		dst.TempID = src.TempID
		filled = append(filled, "temp_id")
	}
	if dst.DisplayNumber == "" && src.DisplayNumber != "" {
		dst.DisplayNumber = src.DisplayNumber
		filled = append(filled, "display_number")
	}
	if dst.Status != types.StatusConfirmed && src.Status == types.StatusConfirmed && src.SequenceNumber > 0 {
		dst.Status = types.StatusConfirmed
		dst.SequenceNumber = src.SequenceNumber
		dst.FinalID = src.FinalID
		filled = append(filled, "sequence_number")
	}
	if dst.ResolvedDate == nil && src.ResolvedDate != nil {
		d := *src.ResolvedDate
		dst.ResolvedDate = &d
		filled = append(filled, "resolved_date")
	}
	if len(filled) > 0 {
		dst.UpdatedAt = time.Now()
	}
	return filled
}
