package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentstore/internal/commands"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "rentstore",
		Short:         "Local rental data store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.Commands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
