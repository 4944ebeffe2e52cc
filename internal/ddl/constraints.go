package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tordrt/ddlschema/internal/schema"
)

var (
	alterTablePattern = regexp.MustCompile(`(?i)ALTER TABLE\s+"(?P<schema>[^"]+)"\."(?P<table>[^"]+)"[\s\S]*?;`)
	primaryKeyPattern = regexp.MustCompile(`(?i)PRIMARY\s+KEY\s*\((?P<cols>[^)]+)\)`)
	foreignKeyPattern = regexp.MustCompile(
		`(?i)FOREIGN\s+KEY\s*\((?P<local>[^)]+)\)[\s\S]*?` +
			`REFERENCES\s+"(?P<ref_schema>[^"]+)"\."(?P<ref_table>[^"]+)"\s*\((?P<ref_cols>[^)]+)\)`,
	)
)

var (
	alterTableIdx = alterTablePattern.SubexpIndex("table")
	pkColumnsIdx  = primaryKeyPattern.SubexpIndex("cols")
	fkLocalIdx    = foreignKeyPattern.SubexpIndex("local")
	fkRefSchema   = foreignKeyPattern.SubexpIndex("ref_schema")
	fkRefTableIdx = foreignKeyPattern.SubexpIndex("ref_table")
	fkRefColsIdx  = foreignKeyPattern.SubexpIndex("ref_cols")
)

// columnSeparator joins multi-column key lists in emitted records
const columnSeparator = ", "

// ParseConstraints scans ALTER TABLE statements and records their primary and
// foreign key clauses on the matching registry entries. Statements for tables
// missing from the registry are skipped. The registry is mutated in place and
// returned so the caller can hand it to the next stage.
func ParseConstraints(sqlText string, tables schema.Registry) schema.Registry {
	for _, m := range alterTablePattern.FindAllStringSubmatch(sqlText, -1) {
		table, ok := tables[m[alterTableIdx]]
		if !ok {
			continue
		}

		stmt := m[0]
		table.ConstraintStatements = append(table.ConstraintStatements, stmt)

		parsePrimaryKeys(stmt, table)
		parseForeignKeys(stmt, table)
	}

	return tables
}

// parsePrimaryKeys adds the columns of every PRIMARY KEY clause in stmt
func parsePrimaryKeys(stmt string, table *schema.Table) {
	for _, pm := range primaryKeyPattern.FindAllStringSubmatch(stmt, -1) {
		for _, col := range splitColumns(pm[pkColumnsIdx]) {
			if col != "" {
				table.AddPrimaryKeyColumn(col)
			}
		}
	}
}

// parseForeignKeys adds one foreign key per FOREIGN KEY ... REFERENCES clause in stmt
func parseForeignKeys(stmt string, table *schema.Table) {
	for _, fm := range foreignKeyPattern.FindAllStringSubmatch(stmt, -1) {
		refTable := fm[fkRefTableIdx]
		refColumns := strings.Join(splitColumns(fm[fkRefColsIdx]), columnSeparator)

		table.AddForeignKey(schema.ForeignKey{
			LocalColumns: strings.Join(splitColumns(fm[fkLocalIdx]), columnSeparator),
			Reference:    fmt.Sprintf("%s(%s)", refTable, refColumns),
			RefSchema:    fm[fkRefSchema],
			RefTable:     refTable,
		})
	}
}

// splitColumns splits a comma separated column list and strips whitespace and
// surrounding double quotes from each entry. Empty entries are kept.
func splitColumns(list string) []string {
	parts := strings.Split(list, ",")
	columns := make([]string, len(parts))
	for i, part := range parts {
		columns[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	return columns
}
