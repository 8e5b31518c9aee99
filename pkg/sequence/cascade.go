package sequence

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Insert places the pending record newRecordID at sequence k of ns.
//
// Every confirmed record with sequence >= k is shifted up by one, highest
// first, so each rename targets a name that has just been vacated. The new
// record is confirmed into k only after the whole shift succeeded. The
// first rename failure aborts the cascade without rolling back; the
// returned report always lists every confirmed record of the namespace and
// the new record with their terminal states.
//
// A sequence left with a single gap by an earlier Insert that stopped
// partway is resumed rather than refused: only the records between k and
// the gap are shifted, so no applied rename is reversed.
//
// Pre-flight failures return ErrInvariantViolation before any rename.
func (e *Engine) Insert(ctx context.Context, snap *types.Snapshot, ns types.Namespace, k int, newRecordID string) (*CascadeReport, error) {
	report := &CascadeReport{Operation: OpInsert, Namespace: ns, Position: k, RecordID: newRecordID}
	if err := preflight(snap, ns); err != nil {
		report.Error = err.Error()
		return report, err
	}

	steps, stable, err := planInsert(snap, ns, k, newRecordID)
	report.Outcomes = outcomes(steps, stable)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	e.logger.Info("inserting record", "namespace", ns.String(), "position", k,
		"record_id", newRecordID, "shifts", len(steps)-1)
	if err := e.run(ctx, snap, report, steps); err != nil {
		return report, err
	}
	return report, nil
}

func planInsert(snap *types.Snapshot, ns types.Namespace, k int, newRecordID string) ([]step, []*types.EvidenceRecord, error) {
	confirmed := snap.Confirmed(ns)
	var steps []step
	var stable []*types.EvidenceRecord

	gap := interruptedGap(confirmed)
	if err := snap.ValidateNamespaceWithGap(ns, gap); err != nil {
		return nil, confirmed, err
	}
	m := len(confirmed)
	if k < 1 || k > m+1 {
		return nil, confirmed, fmt.Errorf("%w: %w: position %d outside 1..%d",
			types.ErrInvariantViolation, types.ErrInvalidPosition, k, m+1)
	}
	if gap > 0 && k > gap {
		return nil, confirmed, fmt.Errorf("%w: %w: position %d is above the gap at %d left by an interrupted insert",
			types.ErrInvariantViolation, types.ErrInvalidPosition, k, gap)
	}
	rec, err := snap.Find(newRecordID)
	if err != nil {
		return nil, confirmed, fmt.Errorf("%w: record %s: %w", types.ErrInvariantViolation, newRecordID, err)
	}
	if rec.Namespace != ns {
		return nil, confirmed, fmt.Errorf("%w: %w: record %s belongs to %s",
			types.ErrInvariantViolation, types.ErrInvalidNamespace, newRecordID, rec.Namespace)
	}
	if !rec.IsPending() {
		return nil, confirmed, fmt.Errorf("%w: %w: record %s is not a live pending record",
			types.ErrInvariantViolation, types.ErrInvalidTransition, newRecordID)
	}

	// Records above the gap were shifted by the interrupted run.
	for i := m - 1; i >= 0; i-- {
		r := confirmed[i]
		if r.SequenceNumber < k || (gap > 0 && r.SequenceNumber > gap) {
			stable = append(stable, r)
			continue
		}
		next := r.SequenceNumber + 1
		steps = append(steps, step{
			rec:     r,
			newSeq:  next,
			newName: renamedTo(r, types.FormatFinalID(ns, next)),
		})
	}
	steps = append(steps, step{
		rec:     rec,
		newSeq:  k,
		newName: renamedTo(rec, types.FormatFinalID(ns, k)),
		confirm: true,
	})
	reverse(stable)

	if err := checkNames(snap, ns, steps); err != nil {
		return steps, stable, err
	}
	return steps, stable, nil
}

// interruptedGap returns the missing number when the confirmed sequence
// runs 1..N+1 with exactly one number absent, which is what an insert that
// stopped partway leaves behind. It returns 0 otherwise.
func interruptedGap(confirmed []*types.EvidenceRecord) int {
	m := len(confirmed)
	if m == 0 || confirmed[m-1].SequenceNumber != m+1 {
		return 0
	}
	for i, r := range confirmed {
		if r.SequenceNumber != i+1 {
			if r.SequenceNumber != i+2 {
				return 0
			}
			return i + 1
		}
	}
	return 0
}

func outcomes(steps []step, stable []*types.EvidenceRecord) []RecordOutcome {
	out := make([]RecordOutcome, 0, len(steps)+len(stable))
	for _, s := range steps {
		out = append(out, s.outcome())
	}
	for _, r := range stable {
		out = append(out, stableOutcome(r))
	}
	return out
}

func reverse(recs []*types.EvidenceRecord) {
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
}
