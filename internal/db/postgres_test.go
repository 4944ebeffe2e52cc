package db

import "testing"

func TestNormalizePostgresType(t *testing.T) {
	length := 120

	tests := []struct {
		name          string
		dataType      string
		udtName       string
		charMaxLength *int
		want          string
	}{
		{"timestamptz", "timestamp with time zone", "timestamptz", nil, "timestamptz"},
		{"varchar with length", "character varying", "varchar", &length, "varchar(120)"},
		{"varchar without length", "character varying", "varchar", nil, "varchar"},
		{"char", "character", "bpchar", &length, "char(120)"},
		{"int array", "ARRAY", "_int4", nil, "integer[]"},
		{"text array", "ARRAY", "_text", nil, "text[]"},
		{"enum", "USER-DEFINED", "order_status", nil, "order_status"},
		{"passthrough", "numeric", "numeric", nil, "numeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePostgresType(tt.dataType, tt.udtName, tt.charMaxLength); got != tt.want {
				t.Errorf("normalizePostgresType(%q, %q) = %q, want %q", tt.dataType, tt.udtName, got, tt.want)
			}
		})
	}
}
