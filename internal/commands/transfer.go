package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentstore/repository"
)

func ExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the business tables to a JSON export file, or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := repository.NewTransfer(st, cfg.BatchSize).ExportSnapshot(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := repository.WriteSnapshot(w, snap); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			if len(args) == 1 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d properties, %d tenants, %d leases, %d rents to %s\n",
					len(snap.Properties), len(snap.Tenants), len(snap.Leases), len(snap.Rents), args[0])
			}
			return nil
		},
	}
}

func ImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the business tables with the content of an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			snap, err := repository.ReadSnapshot(f)
			if err != nil {
				return err
			}

			st, cfg, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := repository.NewTransfer(st, cfg.BatchSize).ImportSnapshot(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (version %s)\n", args[0], snap.Version)
			return nil
		},
	}
}

func ClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every row of the business tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return errors.New("refusing to clear the store without --yes")
			}

			st, cfg, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := repository.NewTransfer(st, cfg.BatchSize).ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Store cleared.")
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm the deletion")

	return cmd
}
