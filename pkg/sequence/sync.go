package sequence

import (
	"context"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Sync renames the artifact of every confirmed record of ns whose name does
// not carry the record's final id, as happens when a merge hands a confirmed
// number to a pending record. Sequence numbers are left as they are, so Sync
// also runs on a namespace with gaps.
func (e *Engine) Sync(ctx context.Context, snap *types.Snapshot, ns types.Namespace) (*CascadeReport, error) {
	report := &CascadeReport{Operation: OpSync, Namespace: ns}
	if err := preflight(snap, ns); err != nil {
		report.Error = err.Error()
		return report, err
	}

	var steps []step
	var stable []*types.EvidenceRecord
	for _, r := range snap.Confirmed(ns) {
		if r.Artifact.Name == "" || types.ContainsIDToken(r.Artifact.Name, r.FinalID) {
			stable = append(stable, r)
			continue
		}
		steps = append(steps, step{
			rec:     r,
			newSeq:  r.SequenceNumber,
			newName: syncedName(r),
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

	e.logger.Info("syncing artifact names", "namespace", ns.String(), "renames", len(steps))
	if err := e.run(ctx, snap, report, steps); err != nil {
		return report, err
	}
	return report, nil
}

func syncedName(rec *types.EvidenceRecord) string {
	if types.ContainsIDToken(rec.Artifact.Name, rec.TempID) {
		return types.ReplaceIDToken(rec.Artifact.Name, rec.TempID, rec.FinalID)
	}
	return types.PrefixName(rec.FinalID, rec.Artifact.Name)
}
