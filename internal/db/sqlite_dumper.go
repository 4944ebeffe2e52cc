package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
)

// sqliteSchema is the schema name SQLite gives the main database
const sqliteSchema = "main"

// SQLiteDumper renders DDL from SQLite PRAGMA metadata
type SQLiteDumper struct {
	client *SQLiteClient
}

// NewSQLiteDumper creates a new SQLite dumper
func NewSQLiteDumper(client *SQLiteClient) *SQLiteDumper {
	return &SQLiteDumper{client: client}
}

// DumpDDL renders the DDL for the specified tables, or all tables when empty
func (d *SQLiteDumper) DumpDDL(ctx context.Context, tables []string) (string, error) {
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

func (d *SQLiteDumper) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := d.client.db.QueryContext(ctx, query)
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

func (d *SQLiteDumper) readTable(ctx context.Context, tableName string) (*catalogTable, error) {
	table := &catalogTable{Schema: sqliteSchema, Name: tableName}

	columns, pk, err := d.readColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table not found")
	}
	table.Columns = columns
	table.PrimaryKey = catalogKey{Name: tableName + "_pkey", Columns: pk}

	fks, err := d.readForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	return table, nil
}

// readColumns returns the columns of a table and its primary key columns in key order
func (d *SQLiteDumper) readColumns(ctx context.Context, tableName string) ([]catalogColumn, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := d.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type pkColumn struct {
		position int
		name     string
	}

	var columns []catalogColumn
	var pkColumns []pkColumn

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := catalogColumn{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}

		// pk is the 1-based position within the primary key
		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{position: pk, name: name})
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(pkColumns, func(i, j int) bool {
		return pkColumns[i].position < pkColumns[j].position
	})
	pk := make([]string, 0, len(pkColumns))
	for _, c := range pkColumns {
		pk = append(pk, c.name)
	}

	return columns, pk, nil
}

// readForeignKeys groups PRAGMA foreign_key_list rows by constraint id. A NULL
// target column means the key references the target's primary key.
func (d *SQLiteDumper) readForeignKeys(ctx context.Context, tableName string) ([]catalogForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName))

	rows, err := d.client.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	type fkRow struct {
		id, seq     int
		targetTable string
		fromCol     string
		toCol       sql.NullString
	}

	var fkRows []fkRow
	for rows.Next() {
		var r fkRow
		var onUpdate, onDelete, match string

		if err := rows.Scan(&r.id, &r.seq, &r.targetTable, &r.fromCol, &r.toCol, &onUpdate, &onDelete, &match); err != nil {
			_ = rows.Close()
			return nil, err
		}
		fkRows = append(fkRows, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	sort.SliceStable(fkRows, func(i, j int) bool {
		if fkRows[i].id != fkRows[j].id {
			return fkRows[i].id < fkRows[j].id
		}
		return fkRows[i].seq < fkRows[j].seq
	})

	targetPKs := make(map[string][]string)
	var fks []catalogForeignKey

	for _, r := range fkRows {
		toCol := r.toCol.String
		if !r.toCol.Valid {
			pk, ok := targetPKs[r.targetTable]
			if !ok {
				_, pk, err = d.readColumns(ctx, r.targetTable)
				if err != nil {
					return nil, fmt.Errorf("failed to read primary key of %s: %w", r.targetTable, err)
				}
				targetPKs[r.targetTable] = pk
			}
			if r.seq < len(pk) {
				toCol = pk[r.seq]
			}
		}

		name := tableName + "_fk_" + strconv.Itoa(r.id)
		fks = appendForeignKeyColumn(fks, name, r.fromCol, sqliteSchema, r.targetTable, toCol)
	}

	return fks, nil
}
