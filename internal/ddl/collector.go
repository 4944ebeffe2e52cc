// Package ddl extracts tables, primary keys, foreign keys and table dependencies
// from SQL DDL dumps.
//
// Extraction is pattern based rather than grammar based: only CREATE TABLE and
// ALTER TABLE statements that name their table as "schema"."table" are
// recognised, and everything else in the dump is ignored. A run goes through
// three stages over the same text:
//
//	tables := ddl.CollectTables(sqlText)
//	tables = ddl.ParseConstraints(sqlText, tables)
//	snapshot := ddl.Snapshot(tables)
//
// Each stage is pure apart from the registry handed to ParseConstraints, which
// belongs to the caller for the duration of the run.
package ddl

import (
	"regexp"

	"github.com/tordrt/ddlschema/internal/schema"
)

// createTablePattern matches up to the first semicolon after the identifier.
// Semicolons inside string literals or comments are not special.
var createTablePattern = regexp.MustCompile(`(?i)CREATE TABLE\s+"(?P<schema>[^"]+)"\."(?P<table>[^"]+)"[\s\S]*?;`)

var (
	createSchemaIdx = createTablePattern.SubexpIndex("schema")
	createTableIdx  = createTablePattern.SubexpIndex("table")
)

// CollectTables builds a registry with one record per CREATE TABLE statement.
// A later statement for the same unqualified name replaces the earlier record.
func CollectTables(sqlText string) schema.Registry {
	tables := make(schema.Registry)

	for _, m := range createTablePattern.FindAllStringSubmatch(sqlText, -1) {
		name := m[createTableIdx]
		tables[name] = schema.NewTable(m[createSchemaIdx], name, m[0])
	}

	return tables
}
