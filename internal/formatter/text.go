package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/ddlschema/internal/schema"
)

// TextFormatter formats snapshots as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the snapshots in compact text format
func (f *TextFormatter) Format(tables []schema.TableSnapshot) error {
	for i, table := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		f.formatTable(table)
	}
	return nil
}

func (f *TextFormatter) formatTable(table schema.TableSnapshot) {
	// Table header with primary key
	pkStr := ""
	if len(table.PrimaryKeys) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKeys, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "  REFERENCES:")
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s\n", fk.Column, fk.References)
		}
	}

	if len(table.Dependencies) > 0 {
		_, _ = fmt.Fprintf(f.writer, "  DEPENDS ON: %s\n", strings.Join(table.Dependencies, ", "))
	}
}
