package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLIntrospector reads table definitions from one MySQL database
type MySQLIntrospector struct {
	db         *sql.DB
	schemaName string
}

// NewMySQLIntrospector creates a new MySQL introspector
func NewMySQLIntrospector(client *MySQLClient, schemaName string) *MySQLIntrospector {
	return &MySQLIntrospector{
		db:         client.GetDB(),
		schemaName: schemaName,
	}
}

// Introspect reads the named tables, or every base table if tables is empty
func (e *MySQLIntrospector) Introspect(ctx context.Context, tables []string) ([]Table, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	var out []Table
	for _, tableName := range tableNames {
		table, err := e.introspectTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", tableName, err)
		}
		out = append(out, *table)
	}
	return out, nil
}

func (e *MySQLIntrospector) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := e.db.QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

func (e *MySQLIntrospector) introspectTable(ctx context.Context, tableName string) (*Table, error) {
	table := &Table{Name: tableName}

	columns, err := e.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s does not exist", e.schemaName, tableName)
	}
	table.Columns = columns

	pk, err := e.introspectPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect primary key: %w", err)
	}
	table.PrimaryKey = pk

	fks, err := e.introspectForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	indexes, err := e.introspectIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

func (e *MySQLIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`
	rows, err := e.db.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultVal); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			col.DefaultValue = &defaultVal.String
		}
		// Enums and sets have no scalar counterpart
		if strings.HasPrefix(col.Type, "enum(") || strings.HasPrefix(col.Type, "set(") {
			col.Type = "text"
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (e *MySQLIntrospector) introspectPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`
	rows, err := e.db.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}
	return pk, rows.Err()
}

func (e *MySQLIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.table_schema
			AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`
	rows, err := e.db.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	byName := map[string]*ForeignKey{}
	for rows.Next() {
		var name, column, targetTable, targetColumn, onUpdate, onDelete string
		if err := rows.Scan(&name, &column, &targetTable, &targetColumn, &onUpdate, &onDelete); err != nil {
			return nil, err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &ForeignKey{Name: name, TargetTable: targetTable, OnUpdate: onUpdate, OnDelete: onDelete}
			byName[name] = fk
			keys = append(keys, name)
		}
		fk.Columns = append(fk.Columns, column)
		fk.TargetColumns = append(fk.TargetColumns, targetColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return collect(keys, byName), nil
}

func (e *MySQLIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]Index, error) {
	query := `
		SELECT
			s.index_name,
			s.non_unique = 0 AS is_unique,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index) AS column_names
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
			AND s.index_name != 'PRIMARY'
		GROUP BY s.index_name, s.non_unique
		ORDER BY s.index_name
	`
	rows, err := e.db.QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var isUnique int
		var columnNames string

		if err := rows.Scan(&idx.Name, &isUnique, &columnNames); err != nil {
			return nil, err
		}
		idx.IsUnique = isUnique == 1
		idx.Columns = strings.Split(columnNames, ",")
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
