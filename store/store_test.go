package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/migration"
	"github.com/beesaferoot/rentstore/models"
)

func openTestStore(t *testing.T, opts Options) *Store {
	log, _ := logtest.NewNullLogger()
	if opts.Logger == nil {
		opts.Logger = log
	}
	st, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenAppliesMigrations(t *testing.T) {
	for _, driver := range []Driver{DriverSQLite, DriverPureGo} {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()
			st := openTestStore(t, Options{Driver: driver})

			require.NoError(t, st.LastMigrationError())
			require.NoError(t, st.Ping(ctx))

			version, err := st.Migrations().CurrentVersion(ctx)
			require.NoError(t, err)
			assert.Equal(t, st.Migrations().Latest(), version)
		})
	}
}

func TestOpenReopensFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rent.db")

	st, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, st.DB(ctx).Create(&models.Tenant{LastName: "Martin", Status: models.TenantActive}).Error)
	require.NoError(t, st.Close())

	st = openTestStore(t, Options{Path: path})
	var count int64
	require.NoError(t, st.DB(ctx).Model(&models.Tenant{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, path, st.Path())
}

func TestOpenKeepsMigrationFailure(t *testing.T) {
	ctx := context.Background()
	declared := migration.Declared()
	broken := &migration.Migration{
		Version:     declared[1].Version + 1,
		Description: "fails",
		Tables:      declared[1].Tables,
		Up:          func(tx *gorm.DB) error { return errors.New("boom") },
	}

	log, hook := logtest.NewNullLogger()
	st := openTestStore(t, Options{Logger: log, Migrations: append(declared[:2], broken)})

	err := st.LastMigrationError()
	require.Error(t, err)
	assert.True(t, errdefs.IsStorage(err))

	version, err := st.Migrations().CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.NotEmpty(t, hook.Entries)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "postgres"})
	assert.Error(t, err)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, Options{})

	err := st.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Property{Name: "Loft", Status: models.PropertyVacant}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, st.DB(ctx).Model(&models.Property{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOpenSkipMigrations(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, Options{SkipMigrations: true})

	pending, err := st.Migrations().Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, len(migration.Declared()))
	assert.False(t, st.DB(ctx).Migrator().HasTable("rents"))

	applied, err := st.Migrations().Apply(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(pending))
	assert.True(t, st.DB(ctx).Migrator().HasTable("rents"))
}
