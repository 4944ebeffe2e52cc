package db

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tordrt/ddlschema/internal/ddl"
	"github.com/tordrt/ddlschema/internal/schema"
)

func strPtr(s string) *string {
	return &s
}

func exampleCatalog() []catalogTable {
	return []catalogTable{
		{
			Schema: "public",
			Name:   "users",
			Columns: []catalogColumn{
				{Name: "id", Type: "integer"},
				{Name: "email", Type: "varchar(255)", Nullable: true},
			},
			PrimaryKey: catalogKey{Name: "users_pkey", Columns: []string{"id"}},
		},
		{
			Schema: "public",
			Name:   "order_items",
			Columns: []catalogColumn{
				{Name: "order_id", Type: "integer"},
				{Name: "line_no", Type: "integer"},
				{Name: "user_id", Type: "integer", Nullable: true},
				{Name: "qty", Type: "integer", DefaultValue: strPtr("1")},
			},
			PrimaryKey: catalogKey{Name: "order_items_pkey", Columns: []string{"order_id", "line_no"}},
			ForeignKeys: []catalogForeignKey{
				{
					catalogKey: catalogKey{Name: "order_items_user_fk", Columns: []string{"user_id"}},
					RefSchema:  "public",
					RefTable:   "users",
					RefColumns: []string{"id"},
				},
			},
		},
	}
}

func TestRenderDDL(t *testing.T) {
	got := renderDDL(exampleCatalog())

	wantParts := []string{
		"CREATE TABLE \"public\".\"users\" (\n    \"id\" integer NOT NULL,\n    \"email\" varchar(255)\n);\n",
		"    \"qty\" integer DEFAULT 1 NOT NULL\n);\n",
		"ALTER TABLE \"public\".\"order_items\"\n    ADD CONSTRAINT \"order_items_pkey\" PRIMARY KEY (\"order_id\", \"line_no\");\n",
		"ADD CONSTRAINT \"order_items_user_fk\" FOREIGN KEY (\"user_id\") REFERENCES \"public\".\"users\" (\"id\");\n",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("renderDDL() missing %q in:\n%s", part, got)
		}
	}

	// every CREATE precedes every ALTER
	lastCreate := strings.LastIndex(got, "CREATE TABLE")
	firstAlter := strings.Index(got, "ALTER TABLE")
	if firstAlter < lastCreate {
		t.Errorf("ALTER TABLE at %d before last CREATE TABLE at %d", firstAlter, lastCreate)
	}
}

func TestRenderDDLRoundTrip(t *testing.T) {
	got := ddl.Extract(renderDDL(exampleCatalog()))

	if len(got) != 2 {
		t.Fatalf("Extract() returned %d tables, want 2", len(got))
	}

	items := got[0]
	if items.Name != "order_items" {
		t.Fatalf("first table = %q, want order_items", items.Name)
	}
	if diff := cmp.Diff([]string{"order_id", "line_no"}, items.PrimaryKeys); diff != "" {
		t.Errorf("order_items primary keys mismatch (-want +got):\n%s", diff)
	}
	wantFKs := []schema.ForeignKeySnapshot{{Column: "user_id", References: "users(id)"}}
	if diff := cmp.Diff(wantFKs, items.ForeignKeys); diff != "" {
		t.Errorf("order_items foreign keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"users"}, items.Dependencies); diff != "" {
		t.Errorf("order_items dependencies mismatch (-want +got):\n%s", diff)
	}

	users := got[1]
	if diff := cmp.Diff([]string{"id"}, users.PrimaryKeys); diff != "" {
		t.Errorf("users primary keys mismatch (-want +got):\n%s", diff)
	}
	if len(users.ForeignKeys) != 0 {
		t.Errorf("users foreign keys = %v, want none", users.ForeignKeys)
	}
}

func TestRenderDDLWithoutKeys(t *testing.T) {
	got := renderDDL([]catalogTable{{
		Schema:  "main",
		Name:    "notes",
		Columns: []catalogColumn{{Name: "body", Nullable: true}},
	}})

	if strings.Contains(got, "ALTER TABLE") {
		t.Errorf("renderDDL() emitted ALTER TABLE for a keyless table:\n%s", got)
	}
	if !strings.Contains(got, "CREATE TABLE \"main\".\"notes\" (\n    \"body\"\n);") {
		t.Errorf("renderDDL() did not render typeless column:\n%s", got)
	}
}

func TestAppendForeignKeyColumn(t *testing.T) {
	var fks []catalogForeignKey
	fks = appendForeignKeyColumn(fks, "fk_a", "a1", "public", "parent", "p1")
	fks = appendForeignKeyColumn(fks, "fk_a", "a2", "public", "parent", "p2")
	fks = appendForeignKeyColumn(fks, "fk_b", "b1", "other", "ref", "r1")

	want := []catalogForeignKey{
		{
			catalogKey: catalogKey{Name: "fk_a", Columns: []string{"a1", "a2"}},
			RefSchema:  "public",
			RefTable:   "parent",
			RefColumns: []string{"p1", "p2"},
		},
		{
			catalogKey: catalogKey{Name: "fk_b", Columns: []string{"b1"}},
			RefSchema:  "other",
			RefTable:   "ref",
			RefColumns: []string{"r1"},
		},
	}

	if diff := cmp.Diff(want, fks, cmp.AllowUnexported(catalogForeignKey{})); diff != "" {
		t.Errorf("appendForeignKeyColumn() mismatch (-want +got):\n%s", diff)
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "users", `"users"`},
		{"embedded quote", `we"ird`, `"we""ird"`},
		{"empty", "", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteIdent(tt.input); got != tt.want {
				t.Errorf("quoteIdent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
