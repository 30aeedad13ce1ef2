package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending schema versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			st, _, err := openStore(cmd, true)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			pending, err := st.Migrations().Pending(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get pending migrations: %w", err)
			}

			if len(pending) == 0 {
				fmt.Fprintln(out, "No pending migrations.")
				return nil
			}

			if dryRun {
				fmt.Fprintln(out, "Pending migrations:")
				for _, mg := range pending {
					fmt.Fprintf(out, "- %s\n", mg)
				}
				return nil
			}

			applied, err := st.Migrations().Apply(cmd.Context())
			for _, version := range applied {
				fmt.Fprintf(out, "Applied version %d\n", version)
			}
			if err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show pending migrations without executing them")

	return cmd
}
