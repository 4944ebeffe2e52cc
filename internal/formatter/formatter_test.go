package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/ddlschema/internal/schema"
)

func sampleTables() []schema.TableSnapshot {
	return []schema.TableSnapshot{
		{
			Name:        "orders",
			PrimaryKeys: []string{"id"},
			ForeignKeys: []schema.ForeignKeySnapshot{
				{Column: "user_id", References: "users(id)"},
			},
			Schema:       `CREATE TABLE "public"."orders" (id int, total numeric CHECK (total >= 0), user_id int);`,
			Constraints:  `ALTER TABLE "public"."orders" ADD CONSTRAINT fk FOREIGN KEY ("user_id") REFERENCES "public"."users" ("id");`,
			Dependencies: []string{"users"},
		},
		{
			Name:         "users",
			PrimaryKeys:  []string{},
			ForeignKeys:  []schema.ForeignKeySnapshot{},
			Schema:       `CREATE TABLE "public"."users" (id int);`,
			Dependencies: []string{},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{format: FormatJSON},
		{format: FormatYAML},
		{format: FormatText},
		{format: FormatMarkdown},
		{format: "html", wantErr: true},
		{format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := New(tt.format, &bytes.Buffer{}, false)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if f == nil {
				t.Fatal("Expected formatter, got nil")
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf, false).Format(sampleTables()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "total >= 0") {
		t.Errorf("Expected HTML characters to be left unescaped, got %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected trailing newline")
	}

	var decoded []schema.TableSnapshot
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ForeignKeys[0].References != "users(id)" {
		t.Errorf("Unexpected decoded output: %+v", decoded)
	}
}

func TestJSONFormatterNilTables(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONFormatter(&buf, true).Format(nil); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("Expected empty array, got %q", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewYAMLFormatter(&buf).Format(sampleTables()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"- name: orders", "primary_keys:", "references: users(id)", "dependencies: []"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}

	var decoded []schema.TableSnapshot
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if decoded[0].Schema != sampleTables()[0].Schema {
		t.Errorf("Expected schema to survive YAML encoding, got %q", decoded[0].Schema)
	}
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextFormatter(&buf).Format(sampleTables()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "TABLE orders (PK: id)\n" +
		"  REFERENCES:\n" +
		"    user_id → users(id)\n" +
		"  DEPENDS ON: users\n" +
		"\n" +
		"TABLE users\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf).Format(sampleTables()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Database Schema",
		"## orders",
		"**Primary key:** id",
		"- user_id → users(id)",
		"**Depends on:** users",
		"### Definition\n\n```sql\nCREATE TABLE \"public\".\"users\" (id int);\n```",
		"### Constraints",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	if strings.Count(output, "### Constraints") != 1 {
		t.Error("Expected constraints section only for tables with constraints")
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		FormatJSON:     ".json",
		FormatYAML:     ".yaml",
		FormatMarkdown: ".md",
		FormatText:     ".txt",
	}
	for format, want := range tests {
		if got := Extension(format); got != want {
			t.Errorf("Extension(%s) = %s, want %s", format, got, want)
		}
	}
}
