package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/docket/pkg/dates"
	"github.com/mesh-intelligence/docket/pkg/types"
)

func newResolveDatesCmd(a *app) *cobra.Command {
	var (
		namespace string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "resolve-dates",
		Short: "Resolve the dates of pending records",
		Long: `Read the date sidecar (<artifact>.dates.yaml) of each pending record and
store the best resolved date. Records that already carry a date are skipped
unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := parseNamespaceFlag(namespace)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				provider, err := s.provider(ctx)
				if err != nil {
					return err
				}
				snap, err := s.catalog.Load(ctx)
				if err != nil {
					return sysErr("load catalog: %w", err)
				}
				report, resolveErr := dates.ResolveRecords(ctx, snap, ns, provider, dates.ResolveOptions{
					Force:  force,
					Logger: s.logger,
				})
				if err := s.catalog.Save(ctx, snap); err != nil {
					return sysErr("save catalog: %w", err)
				}

				if a.flags.jsonMode {
					if err := printJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "resolved %d, unresolved %d, skipped %d, failed %d\n",
						len(report.Resolved), len(report.Unresolved), len(report.Skipped), len(report.Failed))
				}
				return resolveErr
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", string(types.NamespaceEvidence), "namespace: evidence or attachment")
	cmd.Flags().BoolVar(&force, "force", false, "re-resolve records that already carry a date")
	return cmd
}
