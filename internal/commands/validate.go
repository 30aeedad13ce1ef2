package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentstore/migration"
)

func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the declared schema versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			declared := migration.Declared()
			if err := migration.Validate(declared); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "All %d migrations are valid\n", len(declared))
			return nil
		},
	}
}
