package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/docket/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var (
		namespace string
		status    string
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog records",
		Long:  "List records ordered by namespace, confirmed records by sequence number, then pending records in intake order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := types.RecordFilter{Status: status, IncludeRemoved: all}
			if namespace != "" {
				ns, err := parseNamespaceFlag(namespace)
				if err != nil {
					return err
				}
				filter.Namespace = ns
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				recs, err := s.catalog.Query(ctx, filter)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					if recs == nil {
						recs = []*types.EvidenceRecord{}
					}
					return printJSON(cmd.OutOrStdout(), recs)
				}
				renderRecords(cmd.OutOrStdout(), recs)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "only records of this namespace")
	cmd.Flags().StringVar(&status, "status", "", "only records with this status: pending or confirmed")
	cmd.Flags().BoolVar(&all, "all", false, "include records removed by dedup")
	return cmd
}
