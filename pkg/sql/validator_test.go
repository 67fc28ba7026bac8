package sql

import (
	"testing"
)

func TestValidateSingleStatement_ValidQueries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple select without semicolon",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "simple select with trailing semicolon",
			input:    "SELECT 1;",
			expected: "SELECT 1",
		},
		{
			name:     "select with leading and trailing whitespace",
			input:    "  SELECT * FROM \"Orders\"  ",
			expected: "SELECT * FROM \"Orders\"",
		},
		{
			name:     "semicolon inside single quoted string",
			input:    "SELECT * FROM \"Orders\" WHERE \"Status\" IN ('a;b')",
			expected: "SELECT * FROM \"Orders\" WHERE \"Status\" IN ('a;b')",
		},
		{
			name:     "semicolon inside double quoted identifier",
			input:    `SELECT * FROM "strange;table"`,
			expected: `SELECT * FROM "strange;table"`,
		},
		{
			name:     "escaped single quote",
			input:    "SELECT * FROM \"Customers\" WHERE \"Name\" IN ('O''Brien')",
			expected: "SELECT * FROM \"Customers\" WHERE \"Name\" IN ('O''Brien')",
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSingleStatement(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidateSingleStatement_RejectsMultipleStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "two statements",
			input: "SELECT 1; SELECT 2",
		},
		{
			name:  "piggybacked drop",
			input: "SELECT * FROM \"Orders\"; DROP TABLE \"Orders\"",
		},
		{
			name:  "semicolon after trailing semicolon strip",
			input: "SELECT 1; SELECT 2;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSingleStatement(tt.input)
			if err != ErrMultipleStatements {
				t.Errorf("got error %v, want ErrMultipleStatements", err)
			}
		})
	}
}
