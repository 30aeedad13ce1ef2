package migration

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// IndexPrefix marks the indexes owned by the migration manager. Indexes with this
// prefix that a version no longer declares are dropped when it is applied.
const IndexPrefix = "idx_"

// IndexSpec declares a secondary index of a table.
type IndexSpec struct {
	Name    string
	Columns []string
	Unique  bool
}

// TableSpec declares one table of a schema version: its model and secondary indexes.
type TableSpec struct {
	Name    string
	Model   any
	Indexes []IndexSpec
}

// Migration is one schema version. Tables is the complete table set at that version;
// Up is an optional data step run after the structural changes, in the same
// transaction.
type Migration struct {
	Version     int
	Description string
	Tables      []TableSpec
	Up          func(tx *gorm.DB) error
}

func (m *Migration) String() string {
	return fmt.Sprintf("v%d: %s", m.Version, m.Description)
}

// Table returns the declaration of the named table, if the version has one.
func (m *Migration) Table(name string) (TableSpec, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

// MigrationRecord is the schema_migrations row written when a version is applied.
type MigrationRecord struct {
	Version     int       `gorm:"primaryKey;autoIncrement:false"`
	Description string    `gorm:"not null"`
	AppliedAt   time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// VersionStatus is one line of the migration history.
type VersionStatus struct {
	Version     int        `json:"version"`
	Description string     `json:"description"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"appliedAt,omitempty"`
	Declared    bool       `json:"declared"`
}

// Validate checks a migration list: versions positive, unique and strictly
// increasing; table and index names unique within each version; index names carry
// IndexPrefix.
func Validate(migrations []*Migration) error {
	previous := 0
	for n, m := range migrations {
		if m == nil {
			return fmt.Errorf("migration at position %d is nil", n)
		}
		if m.Version <= 0 {
			return fmt.Errorf("migration %q has non-positive version %d", m.Description, m.Version)
		}
		if m.Version <= previous {
			return fmt.Errorf("migration version %d is not greater than %d", m.Version, previous)
		}
		previous = m.Version

		tables := make(map[string]bool, len(m.Tables))
		indexes := make(map[string]bool)
		for _, t := range m.Tables {
			if t.Name == "" || t.Model == nil {
				return fmt.Errorf("%s: table declaration needs a name and a model", m)
			}
			if tables[t.Name] {
				return fmt.Errorf("%s: table %s declared twice", m, t.Name)
			}
			tables[t.Name] = true
			for _, idx := range t.Indexes {
				if !strings.HasPrefix(idx.Name, IndexPrefix) {
					return fmt.Errorf("%s: index %s must be named with the %s prefix", m, idx.Name, IndexPrefix)
				}
				if len(idx.Columns) == 0 {
					return fmt.Errorf("%s: index %s on %s has no columns", m, idx.Name, t.Name)
				}
				if indexes[idx.Name] {
					return fmt.Errorf("%s: index %s declared twice", m, idx.Name)
				}
				indexes[idx.Name] = true
			}
		}
	}
	return nil
}
