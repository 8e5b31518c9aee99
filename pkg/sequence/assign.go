package sequence

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Slot is one record's place in an assignment.
type Slot struct {
	RecordID string `json:"record_id"`
	Sequence int    `json:"sequence"`
	FinalID  string `json:"final_id"`
	Dated    bool   `json:"dated"`
}

// Assignment maps pending records of one namespace to sequence numbers.
type Assignment struct {
	Namespace types.Namespace `json:"namespace"`
	Slots     []Slot          `json:"slots"`
}

// Assign orders pending records chronologically and numbers them 1..N.
func Assign(pending []*types.EvidenceRecord) (Assignment, error) {
	return AssignFrom(pending, 1)
}

// AssignFrom orders pending records chronologically and numbers them
// start..start+N-1. Dated records come first, sorted by (year, month-or-99,
// day-or-99, intake order); undated records follow in intake order. The
// input slice and its records are not modified.
func AssignFrom(pending []*types.EvidenceRecord, start int) (Assignment, error) {
	if start <= 0 {
		return Assignment{}, fmt.Errorf("%w: start %d", types.ErrInvalidPosition, start)
	}
	var asg Assignment
	var dated, undated []*types.EvidenceRecord
	for _, r := range pending {
		if !r.IsPending() {
			return Assignment{}, fmt.Errorf("%w: record %s is not pending", types.ErrInvalidTransition, r.RecordID)
		}
		if asg.Namespace == "" {
			asg.Namespace = r.Namespace
		} else if r.Namespace != asg.Namespace {
			return Assignment{}, fmt.Errorf("%w: mixed namespaces %s and %s", types.ErrInvalidNamespace, asg.Namespace, r.Namespace)
		}
		if r.ResolvedDate != nil && r.ResolvedDate.Precision != types.PrecisionUnknown {
			dated = append(dated, r)
		} else {
			undated = append(undated, r)
		}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		ki, kj := dated[i].ResolvedDate.SortKey(), dated[j].ResolvedDate.SortKey()
		if ki != kj {
			return ki.Less(kj)
		}
		return intakeLess(dated[i], dated[j])
	})
	sort.SliceStable(undated, func(i, j int) bool {
		return intakeLess(undated[i], undated[j])
	})

	seq := start
	for _, group := range [][]*types.EvidenceRecord{dated, undated} {
		for _, r := range group {
			asg.Slots = append(asg.Slots, Slot{
				RecordID: r.RecordID,
				Sequence: seq,
				FinalID:  types.FormatFinalID(r.Namespace, seq),
				Dated:    r.ResolvedDate != nil && r.ResolvedDate.Precision != types.PrecisionUnknown,
			})
			seq++
		}
	}
	return asg, nil
}

// Apply confirms every slotted record in snap without touching artifacts.
// Use Engine.Confirm when artifact names carry the id.
func (a Assignment) Apply(snap *types.Snapshot) error {
	for _, s := range a.Slots {
		rec, err := snap.Find(s.RecordID)
		if err != nil {
			return fmt.Errorf("slot %d: %w", s.Sequence, err)
		}
		if err := rec.Confirm(s.Sequence); err != nil {
			return fmt.Errorf("confirm %s as %s: %w", rec.TempID, s.FinalID, err)
		}
	}
	return nil
}

func intakeLess(a, b *types.EvidenceRecord) bool {
	if a.IntakeOrder != b.IntakeOrder {
		return a.IntakeOrder < b.IntakeOrder
	}
	return a.RecordID < b.RecordID
}
