package sequence

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Confirm assigns sequence numbers to every pending record of ns, after the
// records already confirmed, and renames each artifact from its temporary
// id to its final id in sequence order. It stops at the first failure.
// Running Confirm again after a partial failure assigns the remaining
// records the same numbers they were given the first time.
func (e *Engine) Confirm(ctx context.Context, snap *types.Snapshot, ns types.Namespace) (*CascadeReport, error) {
	report := &CascadeReport{Operation: OpConfirm, Namespace: ns}
	if err := preflight(snap, ns); err != nil {
		report.Error = err.Error()
		return report, err
	}

	confirmed := snap.Confirmed(ns)
	if err := snap.ValidateNamespace(ns); err != nil {
		report.Outcomes = outcomes(nil, confirmed)
		report.Error = err.Error()
		return report, err
	}

	pending := snap.Pending(ns)
	asg, err := AssignFrom(pending, len(confirmed)+1)
	if err != nil {
		report.Outcomes = outcomes(nil, confirmed)
		report.Error = err.Error()
		return report, fmt.Errorf("%w: %w", types.ErrInvariantViolation, err)
	}

	steps := make([]step, 0, len(asg.Slots))
	for _, slot := range asg.Slots {
		rec, err := snap.Find(slot.RecordID)
		if err != nil {
			return report, err
		}
		steps = append(steps, step{
			rec:     rec,
			newSeq:  slot.Sequence,
			newName: renamedTo(rec, slot.FinalID),
			confirm: true,
		})
	}
	report.Outcomes = outcomes(steps, confirmed)
	if err := checkNames(snap, ns, steps); err != nil {
		report.Error = err.Error()
		return report, err
	}

	e.logger.Info("confirming pending records", "namespace", ns.String(),
		"pending", len(steps), "first_sequence", len(confirmed)+1)
	if err := e.run(ctx, snap, report, steps); err != nil {
		return report, err
	}
	return report, nil
}

// Compact closes gaps in the confirmed sequence of ns, typically left by a
// merge that retired confirmed records. Records move down in ascending
// order so that every target slot is already free.
func (e *Engine) Compact(ctx context.Context, snap *types.Snapshot, ns types.Namespace) (*CascadeReport, error) {
	report := &CascadeReport{Operation: OpCompact, Namespace: ns}
	if err := preflight(snap, ns); err != nil {
		report.Error = err.Error()
		return report, err
	}

	confirmed := snap.Confirmed(ns)
	var steps []step
	var stable []*types.EvidenceRecord
	for i, r := range confirmed {
		want := i + 1
		if i > 0 && confirmed[i-1].SequenceNumber == r.SequenceNumber {
			report.Outcomes = outcomes(nil, confirmed)
			err := fmt.Errorf("%w: %s: sequence %d held by %s and %s",
				types.ErrInvariantViolation, ns, r.SequenceNumber, confirmed[i-1].RecordID, r.RecordID)
			report.Error = err.Error()
			return report, err
		}
		if r.SequenceNumber == want {
			stable = append(stable, r)
			continue
		}
		steps = append(steps, step{
			rec:     r,
			newSeq:  want,
			newName: renamedTo(r, types.FormatFinalID(ns, want)),
		})
	}
	report.Outcomes = outcomes(steps, stable)
	if err := checkNames(snap, ns, steps); err != nil {
		report.Error = err.Error()
		return report, err
	}
	if len(steps) == 0 {
		report.Completed = true
		return report, nil
	}

	e.logger.Info("compacting sequence", "namespace", ns.String(), "moves", len(steps))
	if err := e.run(ctx, snap, report, steps); err != nil {
		return report, err
	}
	return report, nil
}
