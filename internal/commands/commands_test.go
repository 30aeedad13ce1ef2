package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentstore/models"
	"github.com/beesaferoot/rentstore/repository"
	"github.com/beesaferoot/rentstore/store"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rent.db")
	t.Setenv("RENTSTORE_STORE_PATH", path)
	t.Setenv("RENTSTORE_STORE_DRIVER", "sqlite")
	t.Setenv("RENTSTORE_LOG_LEVEL", "error")
	t.Setenv("RENTSTORE_LOG_FORMAT", "text")
	t.Setenv("RENTSTORE_BATCH_SIZE", "10")

	fixed := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })
	return path
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed stores one active lease with a rent overdue on the reference date.
func seed(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	st, err := store.Open(ctx, store.Options{Path: path, Logger: log})
	require.NoError(t, err)
	defer st.Close()

	property := &models.Property{Name: "Studio Bastille"}
	require.NoError(t, repository.NewPropertyRepository(st).Create(ctx, property))
	tenant := &models.Tenant{FirstName: "Ana", LastName: "Martin", Status: models.TenantActive}
	require.NoError(t, repository.NewTenantRepository(st).Create(ctx, tenant))
	lease := &models.Lease{
		PropertyID: property.ID,
		TenantIDs:  []uint{tenant.ID},
		StartDate:  time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Rent:       1200,
		Charges:    50,
		PaymentDay: 15,
		Status:     models.LeaseActive,
	}
	require.NoError(t, repository.NewLeaseRepository(st).Create(ctx, lease))
	require.NoError(t, repository.NewRentRepository(st).Create(ctx, &models.Rent{
		LeaseID: lease.ID,
		DueDate: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
		Amount:  1200,
		Charges: 50,
	}))
}

func TestValidateCmd(t *testing.T) {
	out, err := run(t, ValidateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "migrations are valid")
}

func TestMigrateCmd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, MigrateCmd(), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending migrations:")
	assert.Contains(t, out, "- v1: ")

	out, err = run(t, StatusCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Pending")
	assert.NotContains(t, out, "Applied")

	out, err = run(t, MigrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Applied version 1")

	out, err = run(t, MigrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No pending migrations.")

	out, err = run(t, HistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Applied At")

	_, err = run(t, SchemaCmd(), "--drift")
	assert.NoError(t, err)
}

func TestHistoryCmdEmpty(t *testing.T) {
	setupEnv(t)

	out, err := run(t, HistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No migrations have been applied yet.")
}

func TestExportImportClear(t *testing.T) {
	path := setupEnv(t)
	seed(t, path)
	exportFile := filepath.Join(t.TempDir(), "export.json")

	_, err := run(t, ExportCmd(), exportFile)
	require.NoError(t, err)
	data, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Studio Bastille")

	_, err = run(t, ClearCmd())
	assert.Error(t, err)

	out, err := run(t, ClearCmd(), "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Store cleared.")

	out, err = run(t, ExportCmd())
	require.NoError(t, err)
	assert.NotContains(t, out, "Studio Bastille")

	_, err = run(t, ImportCmd(), exportFile)
	require.NoError(t, err)

	out, err = run(t, ExportCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Studio Bastille")
}

func TestImportCmdRejectsBadFile(t *testing.T) {
	setupEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"properties": []}`), 0o600))

	_, err := run(t, ImportCmd(), bad)
	assert.Error(t, err)
}

func TestOverdueCmd(t *testing.T) {
	path := setupEnv(t)
	seed(t, path)

	out, err := run(t, OverdueCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "2025-12-15")
	assert.NotContains(t, out, "Marked")

	out, err = run(t, OverdueCmd(), "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked 1 rents late.")

	out, err = run(t, OverdueCmd(), "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked 0 rents late.")
}

func TestUpcomingAndCalendar(t *testing.T) {
	path := setupEnv(t)
	seed(t, path)

	out, err := run(t, UpcomingCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "virtual-1-2026-01")

	out, err = run(t, CalendarCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Studio Bastille")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "virtual-1-2026-01")

	out, err = run(t, UpcomingCmd(), "--materialize")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored virtual-1-2026-01")

	out, err = run(t, UpcomingCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No upcoming rents.")
}

func TestChargesCmd(t *testing.T) {
	path := setupEnv(t)
	seed(t, path)

	out, err := run(t, ChargesCmd(), "1", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "provision due:   200.00")

	_, err = run(t, ChargesCmd(), "x", "2025")
	assert.Error(t, err)
	_, err = run(t, ChargesCmd(), "99", "2025")
	assert.Error(t, err)
}
