package sequence

import (
	"github.com/mesh-intelligence/docket/pkg/types"
)

// ShiftState is the terminal (or in-flight) state of one record in a cascade.
type ShiftState string

// Shift states.
const (
	StateStable       ShiftState = "stable"
	StateShiftPending ShiftState = "shift_pending"
	StateShifted      ShiftState = "shifted"
	StateShiftFailed  ShiftState = "shift_failed"
)

// Operation names the engine call that produced a report.
type Operation string

// Operations.
const (
	OpInsert  Operation = "insert"
	OpConfirm Operation = "confirm"
	OpCompact Operation = "compact"
	OpSync    Operation = "sync"
)

// RecordOutcome describes what happened to one record.
//
// Planned records appear in processing order. Records of the namespace
// that the operation never had to move follow with Planned false.
type RecordOutcome struct {
	RecordID    string     `json:"record_id"`
	OldID       string     `json:"old_id"`
	NewID       string     `json:"new_id"`
	OldSequence int        `json:"old_sequence,omitempty"`
	NewSequence int        `json:"new_sequence,omitempty"`
	OldName     string     `json:"old_name"`
	NewName     string     `json:"new_name"`
	Planned     bool       `json:"planned"`
	State       ShiftState `json:"state"`
	Error       string     `json:"error,omitempty"`
}

// CascadeReport enumerates the state of every record an operation touched
// or left in place. It is returned on success, on failure and on
// cancellation alike.
type CascadeReport struct {
	Operation Operation       `json:"operation"`
	Namespace types.Namespace `json:"namespace"`
	Position  int             `json:"position,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
	Outcomes  []RecordOutcome `json:"outcomes"`
	Completed bool            `json:"completed"`
	Error     string          `json:"error,omitempty"`
}

// WithState returns the outcomes currently in state s.
func (r *CascadeReport) WithState(s ShiftState) []RecordOutcome {
	var out []RecordOutcome
	for _, o := range r.Outcomes {
		if o.State == s {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome for recordID.
func (r *CascadeReport) Outcome(recordID string) (RecordOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.RecordID == recordID {
			return o, true
		}
	}
	return RecordOutcome{}, false
}

// Failed returns the failed outcome, if any.
func (r *CascadeReport) Failed() (RecordOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.State == StateShiftFailed {
			return o, true
		}
	}
	return RecordOutcome{}, false
}
