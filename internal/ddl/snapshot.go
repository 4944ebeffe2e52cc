package ddl

import (
	"sort"
	"strings"

	"github.com/tordrt/ddlschema/internal/schema"
)

// constraintSeparator joins the ALTER TABLE statements of a table in its snapshot
const constraintSeparator = "\n  "

// Snapshot converts a registry into table snapshots ordered by table name.
// The registry is only read; every slice in the result is a fresh copy.
func Snapshot(tables schema.Registry) []schema.TableSnapshot {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]schema.TableSnapshot, 0, len(names))
	for _, name := range names {
		out = append(out, snapshotTable(tables[name]))
	}
	return out
}

func snapshotTable(table *schema.Table) schema.TableSnapshot {
	primaryKeys := make([]string, len(table.PrimaryKey))
	copy(primaryKeys, table.PrimaryKey)

	foreignKeys := make([]schema.ForeignKeySnapshot, 0, len(table.ForeignKeys))
	for _, fk := range table.ForeignKeys {
		foreignKeys = append(foreignKeys, schema.ForeignKeySnapshot{
			Column:     fk.LocalColumns,
			References: fk.Reference,
		})
	}

	statements := make([]string, 0, len(table.ConstraintStatements))
	for _, stmt := range table.ConstraintStatements {
		statements = append(statements, strings.TrimSpace(stmt))
	}

	return schema.TableSnapshot{
		Name:         table.Name,
		PrimaryKeys:  primaryKeys,
		ForeignKeys:  foreignKeys,
		Schema:       table.Definition,
		Constraints:  strings.Join(statements, constraintSeparator),
		Dependencies: table.SortedDependencies(),
	}
}
