package ddl

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tordrt/ddlschema/internal/schema"
)

const exampleDump = `CREATE TABLE "public"."users" (id int);
CREATE TABLE "public"."orders" (id int, user_id int);
ALTER TABLE "public"."orders" ADD CONSTRAINT pk PRIMARY KEY ("id");
ALTER TABLE "public"."orders" ADD CONSTRAINT fk FOREIGN KEY ("user_id") REFERENCES "public"."users" ("id");
`

func TestExtractExampleDump(t *testing.T) {
	want := []schema.TableSnapshot{
		{
			Name:        "orders",
			PrimaryKeys: []string{"id"},
			ForeignKeys: []schema.ForeignKeySnapshot{
				{Column: "user_id", References: "users(id)"},
			},
			Schema: `CREATE TABLE "public"."orders" (id int, user_id int);`,
			Constraints: `ALTER TABLE "public"."orders" ADD CONSTRAINT pk PRIMARY KEY ("id");` + "\n  " +
				`ALTER TABLE "public"."orders" ADD CONSTRAINT fk FOREIGN KEY ("user_id") REFERENCES "public"."users" ("id");`,
			Dependencies: []string{"users"},
		},
		{
			Name:         "users",
			PrimaryKeys:  []string{},
			ForeignKeys:  []schema.ForeignKeySnapshot{},
			Schema:       `CREATE TABLE "public"."users" (id int);`,
			Constraints:  "",
			Dependencies: []string{},
		},
	}

	got := Extract(exampleDump)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotOrdering(t *testing.T) {
	tables := schema.Registry{}
	for _, name := range []string{"zeta", "Alpha", "beta", "alpha", "_tmp"} {
		tables[name] = schema.NewTable("public", name, "")
	}

	got := Snapshot(tables)

	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}

	want := []string{"Alpha", "_tmp", "alpha", "beta", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Snapshot() order mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotConstraintsAreTrimmed(t *testing.T) {
	table := schema.NewTable("public", "t", "CREATE TABLE \"public\".\"t\" (id int);")
	table.ConstraintStatements = []string{"  ALTER TABLE one;\n", "\tALTER TABLE two;  "}

	got := Snapshot(schema.Registry{"t": table})

	want := "ALTER TABLE one;\n  ALTER TABLE two;"
	if got[0].Constraints != want {
		t.Errorf("Expected constraints %q, got %q", want, got[0].Constraints)
	}
}

func TestSnapshotDoesNotAliasRegistry(t *testing.T) {
	tables := ParseConstraints(exampleDump, CollectTables(exampleDump))

	first := Snapshot(tables)
	first[0].PrimaryKeys[0] = "mutated"
	first[0].Dependencies[0] = "mutated"

	second := Snapshot(tables)
	if second[0].PrimaryKeys[0] != "id" {
		t.Errorf("Expected registry primary key to be unchanged, got %s", second[0].PrimaryKeys[0])
	}
	if second[0].Dependencies[0] != "users" {
		t.Errorf("Expected registry dependency to be unchanged, got %s", second[0].Dependencies[0])
	}
}

func TestSnapshotIsIdempotent(t *testing.T) {
	tables := ParseConstraints(exampleDump, CollectTables(exampleDump))

	first, err := json.Marshal(Snapshot(tables))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := json.Marshal(Snapshot(tables))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("Expected identical output, got\n%s\n%s", first, second)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	sql := exampleDump + `
CREATE TABLE "public"."payments" (id int, order_id int);
ALTER TABLE "public"."payments" ADD CONSTRAINT p_o FOREIGN KEY ("order_id") REFERENCES "public"."orders" ("id");
ALTER TABLE "public"."payments" ADD CONSTRAINT p_u FOREIGN KEY ("id") REFERENCES "public"."users" ("id");
`
	want := Extract(sql)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(want, Extract(sql)); diff != "" {
			t.Fatalf("run %d differs (-want +got):\n%s", i, diff)
		}
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	got, err := json.Marshal(Extract(`CREATE TABLE "public"."users" (id int);`))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `[{"name":"users","primary_keys":[],"foreign_keys":[],"schema":"CREATE TABLE \"public\".\"users\" (id int);","constraints":"","dependencies":[]}]`
	if string(got) != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	empty, err := json.Marshal(Extract("SELECT 1;"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(empty) != "[]" {
		t.Errorf("Expected [], got %s", empty)
	}
}

func TestDecodeSQL(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "valid utf-8", raw: []byte("CREATE TABLE \"s\".\"tëst\""), want: "CREATE TABLE \"s\".\"tëst\""},
		{name: "invalid bytes dropped", raw: []byte("CREATE\xff\xfe TABLE"), want: "CREATE TABLE"},
		{name: "truncated sequence dropped", raw: []byte("abc\xe2\x82"), want: "abc"},
		{name: "empty", raw: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeSQL(tt.raw); got != tt.want {
				t.Errorf("DecodeSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
