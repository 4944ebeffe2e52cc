package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ddlschema/internal/schema"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter writes table snapshots in one output format
type Formatter interface {
	Format(tables []schema.TableSnapshot) error
}

// New returns the single-writer formatter for format.
// indent only affects JSON output.
func New(format string, w io.Writer, indent bool) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(w, indent), nil
	case FormatYAML:
		return NewYAMLFormatter(w), nil
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'json', 'yaml', 'text' or 'markdown')", format)
	}
}

// Extension returns the file extension used for format
func Extension(format string) string {
	switch format {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}
