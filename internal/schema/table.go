package schema

import (
	"fmt"
	"strings"
	"sync"

	GORMSchema "gorm.io/gorm/schema"
)

// Table is the parsed description of a persisted model.
type Table struct {
	*GORMSchema.Schema
	Columns []*Column
}

func (t *Table) TableName() string {
	return t.Table
}

// PrimaryKey returns the database names of the primary key columns.
func (t *Table) PrimaryKey() []string {
	names := make([]string, 0, len(t.PrimaryFields))
	for _, field := range t.PrimaryFields {
		names = append(names, field.DBName)
	}
	return names
}

// Describe lists the columns in field order.
func (t *Table) Describe() []ColumnInfo {
	out := make([]ColumnInfo, 0, len(t.Columns))
	for _, column := range t.Columns {
		out = append(out, column.Describe())
	}
	return out
}

func CreateTableFromModel(model interface{}) (*Table, error) {
	modelSchema, err := GORMSchema.Parse(model, &sync.Map{}, GORMSchema.NamingStrategy{})
	if err != nil {
		return nil, err
	}

	columns := make([]*Column, 0, len(modelSchema.Fields))
	for _, field := range modelSchema.Fields {
		if field.DBName == "" {
			continue
		}
		columns = append(columns, &Column{Field: field})
	}

	return &Table{Schema: modelSchema, Columns: columns}, nil
}

// Index is a secondary index as declared or as found in the live store.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// Same reports whether both indexes cover the same columns with the same uniqueness.
func (i Index) Same(other Index) bool {
	if i.Unique != other.Unique || len(i.Columns) != len(other.Columns) {
		return false
	}
	for n := range i.Columns {
		if i.Columns[n] != other.Columns[n] {
			return false
		}
	}
	return true
}

// CreateSQL renders the statement creating the index on table.
func (i Index) CreateSQL(table string) string {
	quoted := make([]string, len(i.Columns))
	for n, column := range i.Columns {
		quoted[n] = Quote(column)
	}
	unique := ""
	if i.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, Quote(i.Name), Quote(table), strings.Join(quoted, ", "))
}

func (i Index) DropSQL() string {
	return "DROP INDEX IF EXISTS " + Quote(i.Name)
}

// Quote quotes an SQLite identifier.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
