package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func SchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the declared schema of the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			drift, _ := cmd.Flags().GetBool("drift")

			st, _, err := openStore(cmd, true)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if !drift {
				schema, err := st.Migrations().ExportSchema(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to export schema: %w", err)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(schema)
			}

			drifts, err := st.Migrations().Drift(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compare schema: %w", err)
			}
			if len(drifts) == 0 {
				fmt.Fprintln(out, "Schema matches the applied version.")
				return nil
			}
			for _, d := range drifts {
				fmt.Fprintln(out, d.String())
			}
			return fmt.Errorf("schema drift detected on %d tables", len(drifts))
		},
	}

	cmd.Flags().Bool("drift", false, "Compare the live database with the declared schema")

	return cmd
}
