// Package db reads table definitions from live PostgreSQL, MySQL and SQLite
// databases and renders them as a DDL script in the "schema"."table" dialect
// understood by package ddl.
//
// Only catalog queries are issued; nothing is created or altered.
package db

import (
	"context"
	"fmt"
	"strings"
)

// Dumper renders the DDL of the selected tables of a database.
// If tables is empty, every base table is dumped.
type Dumper interface {
	DumpDDL(ctx context.Context, tables []string) (string, error)
}

// catalogTable is the dialect-neutral description of a table read from a catalog
type catalogTable struct {
	Schema      string
	Name        string
	Columns     []catalogColumn
	PrimaryKey  catalogKey
	ForeignKeys []catalogForeignKey
}

type catalogColumn struct {
	Name         string
	Type         string
	Nullable     bool
	DefaultValue *string
}

// catalogKey is a named, ordered column list
type catalogKey struct {
	Name    string
	Columns []string
}

type catalogForeignKey struct {
	catalogKey
	RefSchema  string
	RefTable   string
	RefColumns []string
}

// appendForeignKeyColumn adds one key column row to fks. Rows of the same
// constraint must arrive consecutively and in key order.
func appendForeignKeyColumn(fks []catalogForeignKey, name, column, refSchema, refTable, refColumn string) []catalogForeignKey {
	if n := len(fks); n > 0 && fks[n-1].Name == name {
		fks[n-1].Columns = append(fks[n-1].Columns, column)
		fks[n-1].RefColumns = append(fks[n-1].RefColumns, refColumn)
		return fks
	}
	return append(fks, catalogForeignKey{
		catalogKey: catalogKey{Name: name, Columns: []string{column}},
		RefSchema:  refSchema,
		RefTable:   refTable,
		RefColumns: []string{refColumn},
	})
}

// renderDDL writes every CREATE TABLE first, then primary keys, then foreign
// keys, the order pg_dump uses so that references always resolve.
func renderDDL(tables []catalogTable) string {
	var b strings.Builder

	b.WriteString("--\n-- Generated by ddlschema\n--\n\n")

	for _, t := range tables {
		fmt.Fprintf(&b, "CREATE TABLE %s (\n", qualifiedName(t.Schema, t.Name))
		for i, col := range t.Columns {
			b.WriteString("    ")
			b.WriteString(quoteIdent(col.Name))
			if col.Type != "" {
				b.WriteString(" " + col.Type)
			}
			if col.DefaultValue != nil {
				b.WriteString(" DEFAULT " + *col.DefaultValue)
			}
			if !col.Nullable {
				b.WriteString(" NOT NULL")
			}
			if i < len(t.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(");\n\n")
	}

	for _, t := range tables {
		if len(t.PrimaryKey.Columns) == 0 {
			continue
		}
		fmt.Fprintf(&b, "ALTER TABLE %s\n    ADD CONSTRAINT %s PRIMARY KEY (%s);\n\n",
			qualifiedName(t.Schema, t.Name),
			quoteIdent(t.PrimaryKey.Name),
			quoteList(t.PrimaryKey.Columns))
	}

	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(&b, "ALTER TABLE %s\n    ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);\n\n",
				qualifiedName(t.Schema, t.Name),
				quoteIdent(fk.Name),
				quoteList(fk.Columns),
				qualifiedName(fk.RefSchema, fk.RefTable),
				quoteList(fk.RefColumns))
		}
	}

	return b.String()
}

func qualifiedName(schemaName, table string) string {
	return quoteIdent(schemaName) + "." + quoteIdent(table)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}
