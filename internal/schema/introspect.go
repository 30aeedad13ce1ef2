package schema

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Introspector reads the live structure of an SQLite store.
type Introspector struct {
	db *gorm.DB
}

func NewIntrospector(db *gorm.DB) *Introspector {
	return &Introspector{db: db}
}

// GetTables lists user tables, sorted, without SQLite's internal ones.
func (i *Introspector) GetTables() ([]string, error) {
	tables, err := i.db.Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	out := make([]string, 0, len(tables))
	for _, name := range tables {
		if strings.HasPrefix(name, "sqlite_") {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (i *Introspector) HasTable(table string) bool {
	return i.db.Migrator().HasTable(table)
}

type indexListRow struct {
	Seq     int
	Name    string
	Unique  int
	Origin  string
	Partial int
}

type indexInfoRow struct {
	Seqno int
	Cid   int
	Name  string
}

// GetIndexes returns the indexes created with CREATE INDEX on table. Indexes backing
// primary keys and inline UNIQUE constraints are left out.
func (i *Introspector) GetIndexes(table string) ([]Index, error) {
	if table == "" {
		return []Index{}, nil
	}

	var rows []indexListRow
	if err := i.db.Raw(fmt.Sprintf("PRAGMA index_list(%s)", Quote(table))).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get indexes for table %s: %w", table, err)
	}

	indexes := make([]Index, 0, len(rows))
	for _, row := range rows {
		if row.Origin != "c" {
			continue
		}
		var info []indexInfoRow
		if err := i.db.Raw(fmt.Sprintf("PRAGMA index_info(%s)", Quote(row.Name))).Scan(&info).Error; err != nil {
			return nil, fmt.Errorf("failed to read index %s: %w", row.Name, err)
		}
		sort.Slice(info, func(a, b int) bool { return info[a].Seqno < info[b].Seqno })
		columns := make([]string, 0, len(info))
		for _, col := range info {
			columns = append(columns, col.Name)
		}
		indexes = append(indexes, Index{Name: row.Name, Columns: columns, Unique: row.Unique == 1})
	}
	sort.Slice(indexes, func(a, b int) bool { return indexes[a].Name < indexes[b].Name })
	return indexes, nil
}

type tableInfoRow struct {
	Cid  int
	Name string
	Type string
}

// GetColumns returns the column names of table in declaration order.
func (i *Introspector) GetColumns(table string) ([]string, error) {
	var rows []tableInfoRow
	if err := i.db.Raw(fmt.Sprintf("PRAGMA table_info(%s)", Quote(table))).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	columns := make([]string, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, row.Name)
	}
	return columns, nil
}
