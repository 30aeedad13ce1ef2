package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func HistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show applied schema versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(cmd, true)
			if err != nil {
				return err
			}
			defer st.Close()

			history, err := st.Migrations().History(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration history: %w", err)
			}

			out := cmd.OutOrStdout()
			printed := 0
			for _, status := range history {
				if !status.Applied {
					continue
				}
				if printed == 0 {
					fmt.Fprintf(out, "%-8s  %-40s  %-25s\n", "Version", "Description", "Applied At")
				}
				fmt.Fprintf(out, "%-8d  %-40s  %-25s\n", status.Version, status.Description, status.AppliedAt.Format(time.RFC3339))
				printed++
			}

			if printed == 0 {
				fmt.Fprintln(out, "No migrations have been applied yet.")
			}
			return nil
		},
	}
}
