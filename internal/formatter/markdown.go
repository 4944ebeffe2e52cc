package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/ddlschema/internal/schema"
)

// MarkdownFormatter formats snapshots as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the snapshots in markdown format
func (f *MarkdownFormatter) Format(tables []schema.TableSnapshot) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range tables {
		f.FormatTable(table)
	}
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table schema.TableSnapshot) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	if len(table.PrimaryKeys) > 0 {
		_, _ = fmt.Fprintf(f.writer, "**Primary key:** %s\n\n", strings.Join(table.PrimaryKeys, ", "))
	}

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s\n", fk.Column, fk.References)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Dependencies) > 0 {
		_, _ = fmt.Fprintf(f.writer, "**Depends on:** %s\n\n", strings.Join(table.Dependencies, ", "))
	}

	f.formatSQLBlock("Definition", table.Schema)
	f.formatSQLBlock("Constraints", table.Constraints)
}

func (f *MarkdownFormatter) formatSQLBlock(title, sql string) {
	if sql == "" {
		return
	}
	_, _ = fmt.Fprintf(f.writer, "### %s\n\n", title)
	_, _ = fmt.Fprintf(f.writer, "```sql\n%s\n```\n\n", strings.TrimSpace(sql))
}
