package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/ddlschema/internal/schema"
)

// YAMLFormatter formats snapshots as a YAML sequence
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the snapshots as a YAML document
func (f *YAMLFormatter) Format(tables []schema.TableSnapshot) error {
	if tables == nil {
		tables = []schema.TableSnapshot{}
	}
	return f.encode(tables)
}

func (f *YAMLFormatter) encode(v any) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
