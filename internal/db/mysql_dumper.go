package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLDumper renders DDL from the MySQL information_schema.
// Column types are emitted verbatim from COLUMN_TYPE.
type MySQLDumper struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLDumper creates a dumper for one MySQL database
func NewMySQLDumper(client *MySQLClient, schemaName string) *MySQLDumper {
	return &MySQLDumper{
		client:     client,
		schemaName: schemaName,
	}
}

// DumpDDL renders the DDL for the specified tables, or all base tables when empty
func (d *MySQLDumper) DumpDDL(ctx context.Context, tables []string) (string, error) {
	tableNames, err := d.getTableNames(ctx, tables)
	if err != nil {
		return "", fmt.Errorf("failed to get table names: %w", err)
	}

	catalog := make([]catalogTable, 0, len(tableNames))
	for _, tableName := range tableNames {
		table, err := d.readTable(ctx, tableName)
		if err != nil {
			return "", fmt.Errorf("failed to read table %s: %w", tableName, err)
		}
		catalog = append(catalog, *table)
	}

	return renderDDL(catalog), nil
}

func (d *MySQLDumper) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := d.client.db.QueryContext(ctx, query, d.schemaName)
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

func (d *MySQLDumper) readTable(ctx context.Context, tableName string) (*catalogTable, error) {
	table := &catalogTable{Schema: d.schemaName, Name: tableName}

	columns, err := d.readColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	table.Columns = columns

	pk, err := d.readPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key: %w", err)
	}
	table.PrimaryKey = pk

	fks, err := d.readForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	return table, nil
}

func (d *MySQLDumper) readColumns(ctx context.Context, tableName string) ([]catalogColumn, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.data_type,
			c.is_nullable,
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := d.client.db.QueryContext(ctx, query, d.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []catalogColumn
	for rows.Next() {
		var col catalogColumn
		var dataType, nullable string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &dataType, &nullable, &defaultVal); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			value := mysqlDefault(dataType, defaultVal.String)
			col.DefaultValue = &value
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// mysqlDefault quotes literal defaults of string-like columns; MySQL stores
// them without quotes in COLUMN_DEFAULT
func mysqlDefault(dataType, value string) string {
	switch strings.ToLower(dataType) {
	case "char", "varchar", "tinytext", "text", "mediumtext", "longtext", "enum", "set":
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	default:
		return value
	}
}

func (d *MySQLDumper) readPrimaryKey(ctx context.Context, tableName string) (catalogKey, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := d.client.db.QueryContext(ctx, query, d.schemaName, tableName)
	if err != nil {
		return catalogKey{}, err
	}
	defer rows.Close()

	// MySQL names every primary key PRIMARY
	pk := catalogKey{Name: tableName + "_pkey"}
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return catalogKey{}, err
		}
		pk.Columns = append(pk.Columns, colName)
	}

	return pk, rows.Err()
}

func (d *MySQLDumper) readForeignKeys(ctx context.Context, tableName string) ([]catalogForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_schema,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := d.client.db.QueryContext(ctx, query, d.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []catalogForeignKey
	for rows.Next() {
		var name, column, refSchema, refTable, refColumn string
		if err := rows.Scan(&name, &column, &refSchema, &refTable, &refColumn); err != nil {
			return nil, err
		}
		fks = appendForeignKeyColumn(fks, name, column, refSchema, refTable, refColumn)
	}

	return fks, rows.Err()
}
