package migration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/internal/schema"
)

// Manager applies a declared migration list to a store and reports its state.
type Manager struct {
	db         *gorm.DB
	migrations []*Migration
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewManager validates migrations and returns a manager over db. A nil logger
// falls back to the logrus standard logger.
func NewManager(db *gorm.DB, migrations []*Migration, log logrus.FieldLogger) (*Manager, error) {
	if err := Validate(migrations); err != nil {
		return nil, fmt.Errorf("invalid migration list: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		db:         db,
		migrations: migrations,
		log:        log,
		now:        time.Now,
	}, nil
}

// Migrations returns the declared list.
func (m *Manager) Migrations() []*Migration {
	out := make([]*Migration, len(m.migrations))
	copy(out, m.migrations)
	return out
}

// Latest returns the highest declared version, 0 when nothing is declared.
func (m *Manager) Latest() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

func (m *Manager) ensureVersionTable(ctx context.Context) error {
	return m.db.WithContext(ctx).AutoMigrate(&MigrationRecord{})
}

// CurrentVersion returns the highest applied version, 0 for a fresh store.
func (m *Manager) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return 0, errdefs.Storage("current-version", "schema_migrations", err)
	}
	var version int
	err := m.db.WithContext(ctx).Model(&MigrationRecord{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		return 0, errdefs.Storage("current-version", "schema_migrations", err)
	}
	return version, nil
}

// Pending returns the declared versions above the current one, ascending.
func (m *Manager) Pending(ctx context.Context) ([]*Migration, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []*Migration
	for _, mg := range m.migrations {
		if mg.Version > current {
			pending = append(pending, mg)
		}
	}
	return pending, nil
}

// Apply runs every pending version in ascending order, each in its own transaction,
// and returns the versions it applied. The first failure rolls back that version,
// stops the run, and is returned as a *errdefs.StorageError; versions applied before
// it stay applied.
func (m *Manager) Apply(ctx context.Context) ([]int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	applied := make([]int, 0, len(pending))
	for _, mg := range pending {
		entry := m.log.WithFields(logrus.Fields{
			"version":     mg.Version,
			"description": mg.Description,
		})
		entry.Info("applying migration")

		tx := m.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return applied, &errdefs.StorageError{Op: "migrate", Step: mg.String(), Err: tx.Error}
		}

		if err := m.applyVersion(tx, mg); err != nil {
			tx.Rollback()
			entry.WithError(err).Error("migration failed, store stays at the last applied version")
			return applied, &errdefs.StorageError{Op: "migrate", Step: mg.String(), Err: err}
		}

		if err := tx.Commit().Error; err != nil {
			entry.WithError(err).Error("failed to commit migration")
			return applied, &errdefs.StorageError{Op: "migrate", Step: mg.String(), Err: err}
		}

		applied = append(applied, mg.Version)
		entry.Debug("migration applied")
	}
	return applied, nil
}

func (m *Manager) applyVersion(tx *gorm.DB, mg *Migration) error {
	introspector := schema.NewIntrospector(tx)

	for _, table := range mg.Tables {
		if err := tx.Table(table.Name).AutoMigrate(table.Model); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
		if err := syncIndexes(tx, introspector, table); err != nil {
			return err
		}
	}

	if mg.Up != nil {
		if err := mg.Up(tx); err != nil {
			return fmt.Errorf("data step failed: %w", err)
		}
	}

	record := MigrationRecord{
		Version:     mg.Version,
		Description: mg.Description,
		AppliedAt:   m.now(),
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}
	return nil
}

// syncIndexes drops the owned indexes of table the declaration no longer lists, or
// lists with another shape, then creates the declared ones.
func syncIndexes(tx *gorm.DB, introspector *schema.Introspector, table TableSpec) error {
	live, err := introspector.GetIndexes(table.Name)
	if err != nil {
		return err
	}

	declared := make(map[string]schema.Index, len(table.Indexes))
	for _, spec := range table.Indexes {
		declared[spec.Name] = spec.index()
	}

	for _, idx := range live {
		if !isOwned(idx.Name) {
			continue
		}
		want, ok := declared[idx.Name]
		if ok && want.Same(idx) {
			continue
		}
		if err := tx.Exec(idx.DropSQL()).Error; err != nil {
			return fmt.Errorf("failed to drop index %s: %w", idx.Name, err)
		}
	}

	for _, spec := range table.Indexes {
		if err := tx.Exec(spec.index().CreateSQL(table.Name)).Error; err != nil {
			return fmt.Errorf("failed to create index %s on %s: %w", spec.Name, table.Name, err)
		}
	}
	return nil
}

func (s IndexSpec) index() schema.Index {
	columns := make([]string, len(s.Columns))
	copy(columns, s.Columns)
	return schema.Index{Name: s.Name, Columns: columns, Unique: s.Unique}
}

// History lists every declared version with its applied state, followed by applied
// versions the list no longer declares.
func (m *Manager) History(ctx context.Context) ([]VersionStatus, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, errdefs.Storage("history", "schema_migrations", err)
	}

	var records []MigrationRecord
	if err := m.db.WithContext(ctx).Order("version").Find(&records).Error; err != nil {
		return nil, errdefs.Storage("history", "schema_migrations", err)
	}

	byVersion := make(map[int]MigrationRecord, len(records))
	for _, record := range records {
		byVersion[record.Version] = record
	}

	history := make([]VersionStatus, 0, len(m.migrations))
	declared := make(map[int]bool, len(m.migrations))
	for _, mg := range m.migrations {
		declared[mg.Version] = true
		status := VersionStatus{Version: mg.Version, Description: mg.Description, Declared: true}
		if record, ok := byVersion[mg.Version]; ok {
			appliedAt := record.AppliedAt
			status.Applied = true
			status.AppliedAt = &appliedAt
		}
		history = append(history, status)
	}

	for _, record := range records {
		if declared[record.Version] {
			continue
		}
		appliedAt := record.AppliedAt
		history = append(history, VersionStatus{
			Version:     record.Version,
			Description: record.Description,
			Applied:     true,
			AppliedAt:   &appliedAt,
		})
	}

	sort.SliceStable(history, func(i, j int) bool { return history[i].Version < history[j].Version })
	return history, nil
}

// declaration returns the migration describing the structure at version, nil for 0.
func (m *Manager) declaration(version int) *Migration {
	var found *Migration
	for _, mg := range m.migrations {
		if mg.Version > version {
			break
		}
		found = mg
	}
	return found
}
