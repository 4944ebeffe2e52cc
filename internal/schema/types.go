package schema

import "sort"

// Registry maps an unqualified table name to its record for a single parse run
type Registry map[string]*Table

// Table represents a table detected in a DDL script
type Table struct {
	Name                 string
	SchemaName           string
	Definition           string   // verbatim CREATE TABLE statement
	ConstraintStatements []string // verbatim ALTER TABLE statements, source order
	PrimaryKey           []string
	ForeignKeys          []ForeignKey
	Dependencies         map[string]struct{}
}

// NewTable creates a table record with empty constraint state
func NewTable(schemaName, name, definition string) *Table {
	return &Table{
		Name:         name,
		SchemaName:   schemaName,
		Definition:   definition,
		Dependencies: make(map[string]struct{}),
	}
}

// AddPrimaryKeyColumn appends a column to the primary key unless it is already present
func (t *Table) AddPrimaryKeyColumn(column string) {
	for _, existing := range t.PrimaryKey {
		if existing == column {
			return
		}
	}
	t.PrimaryKey = append(t.PrimaryKey, column)
}

// AddForeignKey records a foreign key and the dependency it implies
func (t *Table) AddForeignKey(fk ForeignKey) {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	if t.Dependencies == nil {
		t.Dependencies = make(map[string]struct{})
	}
	t.Dependencies[fk.RefTable] = struct{}{}
}

// SortedDependencies returns the dependency set in ascending order
func (t *Table) SortedDependencies() []string {
	deps := make([]string, 0, len(t.Dependencies))
	for dep := range t.Dependencies {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// ForeignKey represents a foreign key clause found in an ALTER TABLE statement
type ForeignKey struct {
	LocalColumns string // e.g. "order_id, line_no"
	Reference    string // e.g. "orders(id, line_no)"
	RefSchema    string // captured but never emitted
	RefTable     string
}

// TableSnapshot is the serializable view of a table
type TableSnapshot struct {
	Name         string               `json:"name" yaml:"name"`
	PrimaryKeys  []string             `json:"primary_keys" yaml:"primary_keys"`
	ForeignKeys  []ForeignKeySnapshot `json:"foreign_keys" yaml:"foreign_keys"`
	Schema       string               `json:"schema" yaml:"schema"`
	Constraints  string               `json:"constraints" yaml:"constraints"`
	Dependencies []string             `json:"dependencies" yaml:"dependencies"`
}

// ForeignKeySnapshot is the serializable view of a foreign key
type ForeignKeySnapshot struct {
	Column     string `json:"column" yaml:"column"`
	References string `json:"references" yaml:"references"`
}
