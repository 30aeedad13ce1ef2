package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentstore/internal/config"
	"github.com/beesaferoot/rentstore/store"
)

// now is the reference time of the derived-state commands.
var now = time.Now

func openStore(cmd *cobra.Command, skipMigrations bool) (*store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.StoreOptions(cfg.NewLogger(cmd.ErrOrStderr()))
	opts.SkipMigrations = skipMigrations

	st, err := store.Open(cmd.Context(), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, cfg, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
