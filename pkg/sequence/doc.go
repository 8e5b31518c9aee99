// Package sequence assigns final sequence numbers to pending evidence
// records and keeps artifact names in step when a finalized sequence is
// renumbered.
//
// Assign is a pure function: the same pending set always yields the same
// assignment, so a caller recovering from a partial failure can recompute
// the targets from persisted state. Engine performs the externally visible
// part (artifact renames) one record at a time and reports the terminal
// state of every record it touched. It never rolls back a rename.
//
// Neither Assign nor Engine lock anything. Callers serialize operations per
// namespace.
package sequence
