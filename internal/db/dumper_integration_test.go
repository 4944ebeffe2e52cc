//go:build integration

package db

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/tordrt/ddlschema/internal/ddl"
)

func TestPostgresDumpDDL(t *testing.T) {
	ctx := context.Background()

	connString := os.Getenv("POSTGRES_TEST_URL")
	if connString == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	client, err := NewPostgresClient(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer client.Close(ctx)

	dump, err := NewPostgresDumper(client, "public").DumpDDL(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to dump DDL: %v", err)
	}

	tables := ddl.Extract(dump)
	if len(tables) == 0 {
		t.Fatal("Expected at least one table")
	}

	for _, table := range tables {
		deps := make(map[string]bool)
		for _, dep := range table.Dependencies {
			deps[dep] = true
		}
		for _, fk := range table.ForeignKeys {
			refTable, _, _ := strings.Cut(fk.References, "(")
			if !deps[refTable] {
				t.Errorf("table %s: reference %s missing from dependencies %v", table.Name, fk.References, table.Dependencies)
			}
		}
	}
}

func TestMySQLDumpDDL(t *testing.T) {
	ctx := context.Background()

	connString := os.Getenv("MYSQL_TEST_URL")
	if connString == "" {
		t.Skip("MYSQL_TEST_URL not set")
	}

	dbName, err := ParseDatabaseName(connString)
	if err != nil {
		t.Fatalf("Failed to parse DSN: %v", err)
	}

	client, err := NewMySQLClient(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer client.Close()

	dump, err := NewMySQLDumper(client, dbName).DumpDDL(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to dump DDL: %v", err)
	}

	if tables := ddl.Extract(dump); len(tables) == 0 {
		t.Error("Expected at least one table")
	}
}
