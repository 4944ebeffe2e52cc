package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tordrt/ddlschema/internal/schema"
)

const overviewName = "_overview"

// MultiFileFormatter writes snapshots to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // json, yaml, text or markdown
	Indent       bool   // JSON only
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
		Indent:       true,
	}
}

// Format writes an overview file plus one file per table
func (f *MultiFileFormatter) Format(tables []schema.TableSnapshot) error {
	if _, err := New(f.OutputFormat, io.Discard, f.Indent); err != nil {
		return err
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeFile(overviewName, func(w io.Writer) error {
		return f.writeOverview(w, tables)
	}); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range tables {
		if err := f.writeFile(table.Name, func(w io.Writer) error {
			return f.writeTable(w, table, tables)
		}); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(w io.Writer) error) error {
	filename := filepath.Join(f.OutputDir, fileName(name)+Extension(f.OutputFormat))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// OverviewEntry summarises one table in the overview file
type OverviewEntry struct {
	Name         string   `json:"name" yaml:"name"`
	File         string   `json:"file" yaml:"file"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	ReferencedBy []string `json:"referenced_by" yaml:"referenced_by"`
}

// Overview builds the overview entries for tables, which are expected in snapshot order
func (f *MultiFileFormatter) Overview(tables []schema.TableSnapshot) []OverviewEntry {
	entries := make([]OverviewEntry, 0, len(tables))
	for _, table := range tables {
		referencedBy := []string{}
		for _, rel := range findIncomingRelations(table.Name, tables) {
			if len(referencedBy) == 0 || referencedBy[len(referencedBy)-1] != rel.SourceTable {
				referencedBy = append(referencedBy, rel.SourceTable)
			}
		}
		entries = append(entries, OverviewEntry{
			Name:         table.Name,
			File:         fileName(table.Name) + Extension(f.OutputFormat),
			Dependencies: table.Dependencies,
			ReferencedBy: referencedBy,
		})
	}
	return entries
}

func (f *MultiFileFormatter) writeOverview(w io.Writer, tables []schema.TableSnapshot) error {
	entries := f.Overview(tables)

	switch f.OutputFormat {
	case FormatJSON:
		return NewJSONFormatter(w, f.Indent).encode(entries)
	case FormatYAML:
		return NewYAMLFormatter(w).encode(entries)
	case FormatMarkdown:
		_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", Extension(f.OutputFormat))
		_, _ = fmt.Fprintf(w, "## Tables\n\n")
		for _, entry := range entries {
			_, _ = fmt.Fprintf(w, "- **%s**", entry.Name)
			if len(entry.Dependencies) > 0 {
				_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(entry.Dependencies, ", "))
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
	default:
		_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", Extension(f.OutputFormat))
		for _, entry := range entries {
			_, _ = fmt.Fprintf(w, "%s", entry.Name)
			if len(entry.Dependencies) > 0 {
				_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(entry.Dependencies, ","))
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	return nil
}

// writeTable writes a single table to its own file
func (f *MultiFileFormatter) writeTable(w io.Writer, table schema.TableSnapshot, tables []schema.TableSnapshot) error {
	switch f.OutputFormat {
	case FormatJSON:
		return NewJSONFormatter(w, f.Indent).encode(table)
	case FormatYAML:
		return NewYAMLFormatter(w).encode(table)
	case FormatMarkdown:
		NewMarkdownFormatter(w).FormatTable(table)

		incoming := findIncomingRelations(table.Name, tables)
		if len(incoming) > 0 {
			_, _ = fmt.Fprintf(w, "### Referenced by\n\n")
			for _, rel := range incoming {
				_, _ = fmt.Fprintf(w, "- %s.%s → %s\n", rel.SourceTable, rel.SourceColumn, rel.References)
			}
			_, _ = fmt.Fprintln(w)
		}
	default:
		NewTextFormatter(w).formatTable(table)

		incoming := findIncomingRelations(table.Name, tables)
		if len(incoming) > 0 {
			_, _ = fmt.Fprintln(w, "  REFERENCED BY:")
			for _, rel := range incoming {
				_, _ = fmt.Fprintf(w, "    %s.%s → %s\n", rel.SourceTable, rel.SourceColumn, rel.References)
			}
		}
	}

	return nil
}

// IncomingRelation represents a foreign key pointing to a table
type IncomingRelation struct {
	SourceTable  string
	SourceColumn string
	References   string
}

// findIncomingRelations finds all foreign keys pointing to tableName
func findIncomingRelations(tableName string, tables []schema.TableSnapshot) []IncomingRelation {
	var incoming []IncomingRelation

	for _, table := range tables {
		if !dependsOn(table, tableName) {
			continue
		}
		for _, fk := range table.ForeignKeys {
			if strings.HasPrefix(fk.References, tableName+"(") {
				incoming = append(incoming, IncomingRelation{
					SourceTable:  table.Name,
					SourceColumn: fk.Column,
					References:   fk.References,
				})
			}
		}
	}

	return incoming
}

func dependsOn(table schema.TableSnapshot, name string) bool {
	for _, dep := range table.Dependencies {
		if dep == name {
			return true
		}
	}
	return false
}

// fileName makes a table name safe to use as a file name
func fileName(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}
