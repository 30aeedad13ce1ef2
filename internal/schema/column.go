package schema

import (
	GORMSchema "gorm.io/gorm/schema"
)

// Column represents a gorm field mapped to a table column.
type Column struct {
	*GORMSchema.Field
}

func (c *Column) ColumnName() string {
	return c.DBName
}

// Required reports whether the column rejects NULL.
func (c *Column) Required() bool {
	return c.NotNull || c.PrimaryKey
}

// ColumnInfo is a column as listed in an exported schema.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

func (c *Column) Describe() ColumnInfo {
	return ColumnInfo{Name: c.DBName, Type: string(c.DataType), Required: c.Required()}
}
