package db

import (
	"context"
	"slices"
)

// Table describes one introspected database table
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Column describes one table column
type Column struct {
	Name         string
	Type         string
	Nullable     bool
	IsUnique     bool
	DefaultValue *string
}

// ForeignKey is one foreign key constraint. Columns and TargetColumns are
// paired by position.
type ForeignKey struct {
	Name          string
	Columns       []string
	TargetTable   string
	TargetColumns []string
	OnDelete      string
	OnUpdate      string
}

// Index is a secondary index, excluding the primary key
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// Introspector reads table definitions from a live database.
// If tables is empty, every base table is returned.
type Introspector interface {
	Introspect(ctx context.Context, tables []string) ([]Table, error)
}

// Column returns the column with the given name
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsPrimaryKey reports whether name is the table's single-column primary key
func (t Table) IsPrimaryKey(name string) bool {
	return len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == name
}

// IsUnique reports whether the column is unique on its own, either through
// a column constraint or a single-column unique index
func (t Table) IsUnique(name string) bool {
	if c, ok := t.Column(name); ok && c.IsUnique {
		return true
	}
	for _, idx := range t.Indexes {
		if idx.IsUnique && len(idx.Columns) == 1 && idx.Columns[0] == name {
			return true
		}
	}
	return false
}

// FilterTables drops the named tables, keeping order
func FilterTables(tables []Table, exclude []string) []Table {
	if len(exclude) == 0 {
		return tables
	}
	var out []Table
	for _, t := range tables {
		if !slices.Contains(exclude, t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// collect groups rows by key, preserving first-seen order
func collect[T any](keys []string, items map[string]*T) []T {
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, *items[k])
	}
	return out
}
