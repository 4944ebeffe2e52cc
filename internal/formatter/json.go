package formatter

import (
	"encoding/json"
	"io"

	"github.com/tordrt/ddlschema/internal/schema"
)

// JSONFormatter formats snapshots as a JSON array
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: indent}
}

// Format writes the snapshots followed by a newline
func (f *JSONFormatter) Format(tables []schema.TableSnapshot) error {
	if tables == nil {
		tables = []schema.TableSnapshot{}
	}
	return f.encode(tables)
}

func (f *JSONFormatter) encode(v any) error {
	enc := json.NewEncoder(f.writer)
	// DDL is full of <, > and & in defaults and checks; keep it readable.
	enc.SetEscapeHTML(false)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
