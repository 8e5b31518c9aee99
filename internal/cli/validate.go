package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalog's numbering invariants",
		Long:  "Check that every namespace is numbered 1..N without gaps and that ids and artifact names agree with sequence numbers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				snap, err := s.catalog.Load(ctx)
				if err != nil {
					return sysErr("load catalog: %w", err)
				}
				if err := snap.Validate(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "catalog is consistent (%d live records)\n", len(snap.Live()))
				return nil
			})
		},
	}
}
