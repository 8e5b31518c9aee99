package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/docket/pkg/sequence"
	"github.com/mesh-intelligence/docket/pkg/types"
)

// cascadeFunc runs one engine operation against a loaded snapshot.
type cascadeFunc func(ctx context.Context, e *sequence.Engine, snap *types.Snapshot) (*sequence.CascadeReport, error)

// runCascade loads the catalog, runs op and saves the result whether or not
// op failed, so that completed renames are never forgotten.
func (a *app) runCascade(cmd *cobra.Command, op cascadeFunc) error {
	return a.withSession(cmd, func(ctx context.Context, s *session) error {
		engine, err := s.engine(ctx)
		if err != nil {
			return err
		}
		snap, err := s.catalog.Load(ctx)
		if err != nil {
			return sysErr("load catalog: %w", err)
		}

		report, opErr := op(ctx, engine, snap)
		if err := s.catalog.Save(context.WithoutCancel(ctx), snap); err != nil {
			return sysErr("save catalog: %w", err)
		}

		if report != nil {
			if a.flags.jsonMode {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), report)
			}
		}
		return opErr
	})
}

func newConfirmCmd(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Give pending records their sequence numbers",
		Long: `Assign the pending records of a namespace the next sequence numbers in
chronological order, after every confirmed record, and rename their
artifacts to carry the final ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespaceFlag(namespace)
			if err != nil {
				return err
			}
			return a.runCascade(cmd, func(ctx context.Context, e *sequence.Engine, snap *types.Snapshot) (*sequence.CascadeReport, error) {
				return e.Confirm(ctx, snap, ns)
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", string(types.NamespaceEvidence), "namespace: evidence or attachment")
	return cmd
}

func newInsertCmd(a *app) *cobra.Command {
	var (
		namespace string
		at        int
	)
	cmd := &cobra.Command{
		Use:   "insert <record>",
		Short: "Insert a pending record at a sequence position",
		Long: `Confirm one pending record at position --at, shifting every record at or
after that position up by one. The record may be named by its temporary id
or its record id. Shifts run from the end of the namespace backwards and
stop at the first rename that fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespaceFlag(namespace)
			if err != nil {
				return err
			}
			if at <= 0 {
				return fmt.Errorf("%w: --at must be a positive position", types.ErrInvalidPosition)
			}
			return a.runCascade(cmd, func(ctx context.Context, e *sequence.Engine, snap *types.Snapshot) (*sequence.CascadeReport, error) {
				rec, err := lookupRecord(snap, ns, args[0])
				if err != nil {
					return nil, err
				}
				return e.Insert(ctx, snap, ns, at, rec.RecordID)
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", string(types.NamespaceEvidence), "namespace: evidence or attachment")
	cmd.Flags().IntVar(&at, "at", 0, "1-based sequence position")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newCompactCmd(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Close gaps in a namespace's sequence numbers",
		Long:  "Renumber the confirmed records of a namespace to 1..N, keeping their order. Typically run after dedup.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespaceFlag(namespace)
			if err != nil {
				return err
			}
			return a.runCascade(cmd, func(ctx context.Context, e *sequence.Engine, snap *types.Snapshot) (*sequence.CascadeReport, error) {
				return e.Compact(ctx, snap, ns)
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", string(types.NamespaceEvidence), "namespace: evidence or attachment")
	return cmd
}

// lookupRecord finds a live record of ns by its current id or record id.
func lookupRecord(snap *types.Snapshot, ns types.Namespace, ref string) (*types.EvidenceRecord, error) {
	if rec, err := snap.FindByID(ns, ref); err == nil {
		return rec, nil
	}
	rec, err := snap.Find(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, ref)
	}
	if rec.Namespace != ns || !rec.IsLive() {
		return nil, fmt.Errorf("%w: %s in %s", types.ErrNotFound, ref, ns)
	}
	return rec, nil
}
