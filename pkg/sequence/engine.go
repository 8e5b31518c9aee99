package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Options configures an Engine.
type Options struct {
	// Store renames artifacts. Required.
	Store types.ArtifactStore

	// Checkpoint, when set, receives the snapshot after every successful
	// rename so that an interrupted process leaves a catalog that matches
	// the artifact names.
	Checkpoint types.PersistentCatalog

	Logger hclog.Logger
}

// Engine applies sequence changes to a snapshot and keeps artifact names
// in step. An Engine holds no catalog state between calls.
type Engine struct {
	store      types.ArtifactStore
	checkpoint types.PersistentCatalog
	logger     hclog.Logger
}

// NewEngine returns an Engine. Returns an error if no store is configured.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("sequence: artifact store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{
		store:      opts.Store,
		checkpoint: opts.Checkpoint,
		logger:     logger.Named("sequence"),
	}, nil
}

// step is one planned rename plus the record mutation it implies.
type step struct {
	rec     *types.EvidenceRecord
	newSeq  int
	newName string
	confirm bool
}

func (s step) outcome() RecordOutcome {
	return RecordOutcome{
		RecordID:    s.rec.RecordID,
		OldID:       s.rec.ID(),
		NewID:       types.FormatFinalID(s.rec.Namespace, s.newSeq),
		OldSequence: s.rec.SequenceNumber,
		NewSequence: s.newSeq,
		OldName:     s.rec.Artifact.Name,
		NewName:     s.newName,
		Planned:     true,
		State:       StateStable,
	}
}

func stableOutcome(rec *types.EvidenceRecord) RecordOutcome {
	return RecordOutcome{
		RecordID:    rec.RecordID,
		OldID:       rec.ID(),
		NewID:       rec.ID(),
		OldSequence: rec.SequenceNumber,
		NewSequence: rec.SequenceNumber,
		OldName:     rec.Artifact.Name,
		NewName:     rec.Artifact.Name,
		State:       StateStable,
	}
}

// renamedTo derives the artifact name for rec once it carries newID. A
// merged record whose name still holds its temporary id has that token
// replaced.
func renamedTo(rec *types.EvidenceRecord, newID string) string {
	name := rec.Artifact.Name
	if !types.ContainsIDToken(name, rec.ID()) && types.ContainsIDToken(name, rec.TempID) {
		return types.ReplaceIDToken(name, rec.TempID, newID)
	}
	return types.ReplaceIDToken(name, rec.ID(), newID)
}

// preflight checks the namespace invariants before any plan is built.
func preflight(snap *types.Snapshot, ns types.Namespace) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", types.ErrInvariantViolation)
	}
	if !ns.IsValid() {
		return fmt.Errorf("%w: %w: %q", types.ErrInvariantViolation, types.ErrInvalidNamespace, ns)
	}
	return nil
}

// checkNames replays the plan against the live artifact names of the
// namespace and fails if any rename would land on a name another record
// holds in the same directory at that moment.
func checkNames(snap *types.Snapshot, ns types.Namespace, steps []step) error {
	occupied := make(map[string]string)
	for _, r := range snap.Records {
		if r.Namespace != ns || !r.IsLive() || r.Artifact.Name == "" {
			continue
		}
		key := r.Artifact.Sibling(r.Artifact.Name)
		if _, ok := occupied[key]; !ok {
			occupied[key] = r.RecordID
		}
	}
	current := make(map[string]string)
	for _, s := range steps {
		current[s.rec.RecordID] = s.rec.Artifact.Sibling(s.rec.Artifact.Name)
	}
	for _, s := range steps {
		old := current[s.rec.RecordID]
		if occupied[old] == s.rec.RecordID {
			delete(occupied, old)
		}
		target := s.rec.Artifact.Sibling(s.newName)
		if holder, ok := occupied[target]; ok && holder != s.rec.RecordID {
			return fmt.Errorf("%w: %s: renaming %s to %q collides with record %s",
				types.ErrInvariantViolation, ns, s.rec.ID(), target, holder)
		}
		occupied[target] = s.rec.RecordID
		current[s.rec.RecordID] = target
	}
	return nil
}

// run executes steps in order. It stops at the first rename failure or when
// ctx is done between renames. A rename that has started always finishes.
func (e *Engine) run(ctx context.Context, snap *types.Snapshot, report *CascadeReport, steps []step) error {
	logger := e.logger.With("operation", string(report.Operation), "namespace", report.Namespace.String())
	detached := context.WithoutCancel(ctx)

	for i, s := range steps {
		out := &report.Outcomes[i]
		if err := ctx.Err(); err != nil {
			report.Error = err.Error()
			logger.Warn("cascade cancelled", "done", i, "remaining", len(steps)-i)
			return fmt.Errorf("%s %s cancelled before %s: %w", report.Operation, report.Namespace, out.OldID, err)
		}

		out.State = StateShiftPending
		ref, err := e.store.Rename(detached, s.rec.Artifact, s.newName)
		if err != nil {
			out.State = StateShiftFailed
			out.Error = err.Error()
			report.Error = err.Error()
			logger.Error("rename failed", "record_id", s.rec.RecordID, "from", out.OldName, "to", s.newName, "error", err)
			return fmt.Errorf("%w: %s -> %s: %w", types.ErrRenameFailure, out.OldID, out.NewID, err)
		}

		if s.confirm {
			err = s.rec.Confirm(s.newSeq)
		} else {
			err = s.rec.Renumber(s.newSeq)
		}
		if err != nil {
			// The artifact already carries the new name.
			out.State = StateShiftFailed
			out.Error = err.Error()
			report.Error = err.Error()
			return fmt.Errorf("%w: %s: %w", types.ErrInvariantViolation, out.OldID, err)
		}
		if ref.Handle == "" {
			ref.Handle = s.rec.Artifact.Handle
		}
		if ref.Name == "" {
			ref.Name = s.newName
		}
		s.rec.Artifact = ref
		out.NewName = ref.Name
		out.State = StateShifted
		logger.Debug("renamed artifact", "record_id", s.rec.RecordID, "from", out.OldName, "to", ref.Name)

		if e.checkpoint != nil {
			if err := e.checkpoint.Save(detached, snap); err != nil {
				report.Error = err.Error()
				logger.Error("checkpoint failed", "record_id", s.rec.RecordID, "error", err)
				return fmt.Errorf("checkpoint after %s: %w", out.NewID, err)
			}
		}
	}
	report.Completed = true
	logger.Info("cascade complete", "renamed", len(steps))
	return nil
}
