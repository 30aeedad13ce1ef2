package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of every declared schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(cmd, true)
			if err != nil {
				return err
			}
			defer st.Close()

			history, err := st.Migrations().History(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s  %-40s  %-10s\n", "Version", "Description", "Status")
			for _, status := range history {
				state := "Pending"
				switch {
				case status.Applied && !status.Declared:
					state = "Unknown"
				case status.Applied:
					state = "Applied"
				}
				fmt.Fprintf(out, "%-8d  %-40s  %-10s\n", status.Version, status.Description, state)
			}
			return nil
		},
	}
}
