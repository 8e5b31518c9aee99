package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/docket/pkg/dedup"
	"github.com/mesh-intelligence/docket/pkg/types"
)

func newDedupCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Merge records that share an id",
		Long: `Group live records whose temporary id, final id or display number
coincide within a namespace, keep one canonical record per group and mark
the others removed. Sequence numbers freed by removed records are reported;
run compact afterwards to close the gaps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				snap, err := s.catalog.Load(ctx)
				if err != nil {
					return sysErr("load catalog: %w", err)
				}
				report := dedup.Merge(snap.Records, dedup.Options{DryRun: dryRun, Logger: s.logger})
				if !dryRun && len(report.Groups) > 0 {
					if err := s.catalog.Save(ctx, snap); err != nil {
						return sysErr("save catalog: %w", err)
					}
				}

				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					if err := printJSON(out, report); err != nil {
						return err
					}
				} else {
					renderMerge(out, report)
					for _, amb := range report.Ambiguities {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", amb)
					}
					for _, ns := range types.Namespaces() {
						if retired := report.Retired(ns); len(retired) > 0 {
							fmt.Fprintf(out, "%s has gaps at %v; run: docket compact --namespace %s\n", ns, retired, ns)
						}
					}
				}
				if len(report.Failures) > 0 {
					return fmt.Errorf("merge incomplete: %w", report.Err())
				}
				if dryRun {
					return nil
				}
				return syncStaleNames(ctx, cmd, a, s, snap, report)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the merge without changing the catalog")
	return cmd
}

// syncStaleNames renames the artifacts of canonical records that took over a
// final id during the merge.
func syncStaleNames(ctx context.Context, cmd *cobra.Command, a *app, s *session, snap *types.Snapshot, report dedup.MergeReport) error {
	for _, ns := range types.Namespaces() {
		if len(report.StaleNames(ns)) == 0 {
			continue
		}
		engine, err := s.engine(ctx)
		if err != nil {
			return err
		}
		synced, syncErr := engine.Sync(ctx, snap, ns)
		if err := s.catalog.Save(context.WithoutCancel(ctx), snap); err != nil {
			return sysErr("save catalog: %w", err)
		}
		if a.flags.jsonMode {
			if err := printJSON(cmd.OutOrStdout(), synced); err != nil {
				return err
			}
		} else {
			renderReport(cmd.OutOrStdout(), synced)
		}
		if syncErr != nil {
			return syncErr
		}
	}
	return nil
}
