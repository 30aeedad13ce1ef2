// Package commands holds the cobra commands of the rentstore CLI. Each command reads
// its settings from the environment and opens its own store.
package commands

import "github.com/spf13/cobra"

// Commands returns every rentstore subcommand.
func Commands() []*cobra.Command {
	return []*cobra.Command{
		MigrateCmd(),
		StatusCmd(),
		HistoryCmd(),
		SchemaCmd(),
		ValidateCmd(),
		ExportCmd(),
		ImportCmd(),
		ClearCmd(),
		OverdueCmd(),
		UpcomingCmd(),
		CalendarCmd(),
		ChargesCmd(),
	}
}
