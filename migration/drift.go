package migration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/beesaferoot/rentstore/errdefs"
	"github.com/beesaferoot/rentstore/internal/schema"
)

// TableSchema describes one table of the exported schema.
type TableSchema struct {
	Name       string              `json:"name"`
	PrimaryKey []string            `json:"primaryKey"`
	Columns    []schema.ColumnInfo `json:"columns"`
	Indexes    []schema.Index      `json:"indexes"`
}

// Schema is the structure of a store at a given version.
type Schema struct {
	Version int           `json:"version"`
	Tables  []TableSchema `json:"tables"`
}

// TableDrift lists the differences between a declared table and the live store.
type TableDrift struct {
	Table             string         `json:"table"`
	MissingTable      bool           `json:"missingTable,omitempty"`
	Undeclared        bool           `json:"undeclared,omitempty"`
	MissingColumns    []string       `json:"missingColumns,omitempty"`
	MissingIndexes    []schema.Index `json:"missingIndexes,omitempty"`
	UnexpectedIndexes []schema.Index `json:"unexpectedIndexes,omitempty"`
}

func (d TableDrift) IsEmpty() bool {
	return !d.MissingTable && !d.Undeclared && len(d.MissingColumns) == 0 &&
		len(d.MissingIndexes) == 0 && len(d.UnexpectedIndexes) == 0
}

func (d TableDrift) String() string {
	var parts []string
	if d.MissingTable {
		parts = append(parts, "table missing")
	}
	if d.Undeclared {
		parts = append(parts, "table not declared")
	}
	if len(d.MissingColumns) > 0 {
		parts = append(parts, "missing columns "+strings.Join(d.MissingColumns, ","))
	}
	for _, idx := range d.MissingIndexes {
		parts = append(parts, "missing index "+idx.Name)
	}
	for _, idx := range d.UnexpectedIndexes {
		parts = append(parts, "unexpected index "+idx.Name)
	}
	return fmt.Sprintf("%s: %s", d.Table, strings.Join(parts, "; "))
}

func isOwned(index string) bool {
	return strings.HasPrefix(index, IndexPrefix)
}

// ExportSchema describes the structure of the current version, tables sorted by
// name.
func (m *Manager) ExportSchema(ctx context.Context) (Schema, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return Schema{}, err
	}

	out := Schema{Version: current, Tables: []TableSchema{}}
	mg := m.declaration(current)
	if mg == nil {
		return out, nil
	}

	for _, table := range mg.Tables {
		parsed, err := schema.CreateTableFromModel(table.Model)
		if err != nil {
			return Schema{}, fmt.Errorf("failed to parse model of %s: %w", table.Name, err)
		}
		indexes := make([]schema.Index, 0, len(table.Indexes))
		for _, spec := range table.Indexes {
			indexes = append(indexes, spec.index())
		}
		out.Tables = append(out.Tables, TableSchema{
			Name:       table.Name,
			PrimaryKey: parsed.PrimaryKey(),
			Columns:    parsed.Describe(),
			Indexes:    indexes,
		})
	}
	sort.Slice(out.Tables, func(i, j int) bool { return out.Tables[i].Name < out.Tables[j].Name })
	return out, nil
}

// Drift compares the declaration of the current version with the live store and
// returns one entry per table that differs. An up-to-date store yields none.
func (m *Manager) Drift(ctx context.Context) ([]TableDrift, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	db := m.db.WithContext(ctx)
	introspector := schema.NewIntrospector(db)
	drifts := make([]TableDrift, 0)

	declared := map[string]bool{MigrationRecord{}.TableName(): true}
	if mg := m.declaration(current); mg != nil {
		for _, table := range mg.Tables {
			declared[table.Name] = true
			drift, err := compareTable(introspector, table)
			if err != nil {
				return nil, errdefs.Storage("drift", table.Name, err)
			}
			if !drift.IsEmpty() {
				drifts = append(drifts, drift)
			}
		}
	}

	live, err := introspector.GetTables()
	if err != nil {
		return nil, errdefs.Storage("drift", "", err)
	}
	for _, name := range live {
		if !declared[name] {
			drifts = append(drifts, TableDrift{Table: name, Undeclared: true})
		}
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Table < drifts[j].Table })
	return drifts, nil
}

func compareTable(introspector *schema.Introspector, table TableSpec) (TableDrift, error) {
	drift := TableDrift{Table: table.Name}
	if !introspector.HasTable(table.Name) {
		drift.MissingTable = true
		return drift, nil
	}

	parsed, err := schema.CreateTableFromModel(table.Model)
	if err != nil {
		return drift, err
	}
	columns, err := introspector.GetColumns(table.Name)
	if err != nil {
		return drift, err
	}
	liveColumns := make(map[string]bool, len(columns))
	for _, name := range columns {
		liveColumns[name] = true
	}
	for _, column := range parsed.Columns {
		if !liveColumns[column.ColumnName()] {
			drift.MissingColumns = append(drift.MissingColumns, column.ColumnName())
		}
	}

	live, err := introspector.GetIndexes(table.Name)
	if err != nil {
		return drift, err
	}
	liveByName := make(map[string]schema.Index, len(live))
	for _, idx := range live {
		liveByName[idx.Name] = idx
	}

	declaredNames := make(map[string]bool, len(table.Indexes))
	for _, spec := range table.Indexes {
		want := spec.index()
		declaredNames[want.Name] = true
		have, ok := liveByName[want.Name]
		if !ok || !have.Same(want) {
			drift.MissingIndexes = append(drift.MissingIndexes, want)
		}
	}
	for _, idx := range live {
		if !declaredNames[idx.Name] {
			drift.UnexpectedIndexes = append(drift.UnexpectedIndexes, idx)
		}
	}
	return drift, nil
}
