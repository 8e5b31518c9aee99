package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/docket/pkg/types"
)

type intakeOptions struct {
	namespace     string
	completed     bool
	displayNumber string
	keepName      bool
}

func newIntakeCmd(a *app) *cobra.Command {
	var opts intakeOptions
	cmd := &cobra.Command{
		Use:   "intake <file>...",
		Short: "Register artifacts as pending records",
		Long: `Register each artifact as a pending record with the next temporary id of
its namespace. The artifact is renamed so that its name starts with the
temporary id, unless --keep-name is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespaceFlag(opts.namespace)
			if err != nil {
				return err
			}
			if opts.displayNumber != "" && len(args) > 1 {
				return fmt.Errorf("--display-number applies to a single artifact")
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				return a.runIntake(ctx, cmd, s, ns, opts, args)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", string(types.NamespaceEvidence), "namespace: evidence or attachment")
	cmd.Flags().BoolVar(&opts.completed, "completed", false, "mark the records as carrying a completed payload")
	cmd.Flags().StringVar(&opts.displayNumber, "display-number", "", "number printed on the document itself")
	cmd.Flags().BoolVar(&opts.keepName, "keep-name", false, "do not prefix the artifact name with the temporary id")
	return cmd
}

func (a *app) runIntake(ctx context.Context, cmd *cobra.Command, s *session, ns types.Namespace, opts intakeOptions, args []string) error {
	store, err := s.artifactStore(ctx)
	if err != nil {
		return err
	}
	snap, err := s.catalog.Load(ctx)
	if err != nil {
		return sysErr("load catalog: %w", err)
	}

	var added []*types.EvidenceRecord
	var intakeErr error
	for _, arg := range args {
		rec, err := intakeOne(ctx, s, store, snap, ns, opts, arg)
		if err != nil {
			intakeErr = err
			break
		}
		added = append(added, rec)
	}

	// Artifacts renamed so far must stay bound to their records.
	if err := saveAfterIntake(ctx, s, snap, added); err != nil {
		return err
	}
	if intakeErr != nil {
		return intakeErr
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), added)
	}
	renderRecords(cmd.OutOrStdout(), added)
	return nil
}

// intakeOne registers one artifact and prefixes its name with the new
// temporary id. A failed rename leaves the snapshot without the record.
func intakeOne(ctx context.Context, s *session, store types.ArtifactStore, snap *types.Snapshot, ns types.Namespace, opts intakeOptions, arg string) (*types.EvidenceRecord, error) {
	ref, err := s.ref(ctx, arg)
	if err != nil {
		return nil, err
	}
	rec, err := snap.Intake(ns, ref)
	if err != nil {
		return nil, fmt.Errorf("intake %s: %w", arg, err)
	}
	rec.HasCompletedPayload = opts.completed
	rec.DisplayNumber = opts.displayNumber

	if !opts.keepName && !types.ContainsIDToken(ref.Name, rec.TempID) {
		newRef, err := store.Rename(ctx, ref, types.PrefixName(rec.TempID, ref.Name))
		if err != nil {
			snap.Records = snap.Records[:len(snap.Records)-1]
			return nil, fmt.Errorf("%w: %s: %w", types.ErrRenameFailure, arg, err)
		}
		rec.Artifact = newRef
	}
	s.logger.Info("record registered", "record_id", rec.RecordID, "temp_id", rec.TempID, "artifact", rec.Artifact.Handle)
	return rec, nil
}

func saveAfterIntake(ctx context.Context, s *session, snap *types.Snapshot, added []*types.EvidenceRecord) error {
	if len(added) == 0 {
		return nil
	}
	if err := s.catalog.Save(ctx, snap); err != nil {
		return sysErr("save catalog: %w", err)
	}
	return nil
}
