package db

import (
	"context"
	"fmt"
)

const varcharType = "varchar"

// PostgresDumper renders DDL from the PostgreSQL catalog
type PostgresDumper struct {
	client *PostgresClient
	schema string
}

// NewPostgresDumper creates a dumper for one PostgreSQL schema
func NewPostgresDumper(client *PostgresClient, schemaName string) *PostgresDumper {
	return &PostgresDumper{
		client: client,
		schema: schemaName,
	}
}

// DumpDDL renders the DDL for the specified tables, or all base tables when empty
func (d *PostgresDumper) DumpDDL(ctx context.Context, tables []string) (string, error) {
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

// getTableNames returns the list of tables to dump
func (d *PostgresDumper) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	return d.client.queryStrings(ctx, query, d.schema)
}

// readTable reads columns and keys for a single table
func (d *PostgresDumper) readTable(ctx context.Context, tableName string) (*catalogTable, error) {
	table := &catalogTable{Schema: d.schema, Name: tableName}

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

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[], "_int4" for integer[])
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}

// readColumns reads column definitions in ordinal order
func (d *PostgresDumper) readColumns(ctx context.Context, tableName string) ([]catalogColumn, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.character_maximum_length,
			c.is_nullable,
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := d.client.conn.Query(ctx, query, d.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []catalogColumn
	for rows.Next() {
		var col catalogColumn
		var dataType, udtName, nullable string
		var charMaxLength *int

		if err := rows.Scan(&col.Name, &dataType, &udtName, &charMaxLength, &nullable, &col.DefaultValue); err != nil {
			return nil, err
		}

		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// readPrimaryKey reads the primary key constraint and its columns in key order
func (d *PostgresDumper) readPrimaryKey(ctx context.Context, tableName string) (catalogKey, error) {
	query := `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	rows, err := d.client.conn.Query(ctx, query, d.schema, tableName)
	if err != nil {
		return catalogKey{}, err
	}
	defer rows.Close()

	var pk catalogKey
	for rows.Next() {
		var column string
		if err := rows.Scan(&pk.Name, &column); err != nil {
			return catalogKey{}, err
		}
		pk.Columns = append(pk.Columns, column)
	}

	return pk, rows.Err()
}

// readForeignKeys reads foreign keys with their columns paired in key order.
// information_schema cannot pair multi-column keys reliably, so pg_constraint is used.
func (d *PostgresDumper) readForeignKeys(ctx context.Context, tableName string) ([]catalogForeignKey, error) {
	query := `
		SELECT
			con.conname,
			a.attname,
			fn.nspname,
			ft.relname,
			fa.attname
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class ft ON ft.oid = con.confrelid
		JOIN pg_namespace fn ON fn.oid = ft.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute fa ON fa.attrelid = con.confrelid AND fa.attnum = k.fattnum
		WHERE con.contype = 'f'
			AND n.nspname = $1
			AND t.relname = $2
		ORDER BY con.conname, k.ord
	`

	rows, err := d.client.conn.Query(ctx, query, d.schema, tableName)
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
