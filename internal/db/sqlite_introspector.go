package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SQLiteIntrospector reads table definitions from SQLite
type SQLiteIntrospector struct {
	db *sql.DB
}

// NewSQLiteIntrospector creates a new SQLite introspector
func NewSQLiteIntrospector(client *SQLiteClient) *SQLiteIntrospector {
	return &SQLiteIntrospector{db: client.GetDB()}
}

// Introspect reads the named tables, or every user table if tables is empty
func (e *SQLiteIntrospector) Introspect(ctx context.Context, tables []string) ([]Table, error) {
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

func (e *SQLiteIntrospector) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}
	return tableList, rows.Err()
}

func (e *SQLiteIntrospector) introspectTable(ctx context.Context, tableName string) (*Table, error) {
	table := &Table{Name: tableName}

	columns, pk, err := e.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}
	table.Columns = columns
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

// introspectColumns returns the columns and the primary key columns in key order
func (e *SQLiteIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, []string, error) {
	rows, err := e.db.QueryContext(ctx, "PRAGMA table_info("+quoteSQLiteIdent(tableName)+")")
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	pkOrder := map[int]string{}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0 && pk == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if pk > 0 {
			pkOrder[pk] = name
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var pk []string
	for i := 1; i <= len(pkOrder); i++ {
		pk = append(pk, pkOrder[i])
	}
	return columns, pk, nil
}

func (e *SQLiteIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteSQLiteIdent(tableName)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	byID := map[string]*ForeignKey{}
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		key := strconv.Itoa(id)
		fk, ok := byID[key]
		if !ok {
			fk = &ForeignKey{
				Name:        fmt.Sprintf("%s_fk%d", tableName, id),
				TargetTable: targetTable,
				OnDelete:    onDelete,
				OnUpdate:    onUpdate,
			}
			byID[key] = fk
			keys = append(keys, key)
		}
		fk.Columns = append(fk.Columns, fromCol)
		// A NULL target column references the target's primary key
		fk.TargetColumns = append(fk.TargetColumns, toCol.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fks := collect(keys, byID)
	for i := range fks {
		if err := e.resolveImplicitTargets(ctx, &fks[i]); err != nil {
			return nil, err
		}
	}
	return fks, nil
}

// resolveImplicitTargets fills target columns left empty by a foreign key
// that references the target's primary key without naming it
func (e *SQLiteIntrospector) resolveImplicitTargets(ctx context.Context, fk *ForeignKey) error {
	missing := false
	for _, c := range fk.TargetColumns {
		if c == "" {
			missing = true
		}
	}
	if !missing {
		return nil
	}
	_, pk, err := e.introspectColumns(ctx, fk.TargetTable)
	if err != nil {
		return err
	}
	for i := range fk.TargetColumns {
		if fk.TargetColumns[i] == "" && i < len(pk) {
			fk.TargetColumns[i] = pk[i]
		}
	}
	return nil
}

func (e *SQLiteIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := e.db.QueryContext(ctx, "PRAGMA index_list("+quoteSQLiteIdent(tableName)+")")
	if err != nil {
		return nil, err
	}

	var indexes []Index
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		// Primary key indexes are covered by Table.PrimaryKey
		if origin == "pk" {
			continue
		}
		indexes = append(indexes, Index{Name: name, IsUnique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })

	for i := range indexes {
		columns, err := e.indexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
	}
	return indexes, nil
}

func (e *SQLiteIntrospector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, "PRAGMA index_info("+quoteSQLiteIdent(indexName)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
