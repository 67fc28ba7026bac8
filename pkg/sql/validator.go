package sql

import (
	"errors"
	"strings"
)

// ErrMultipleStatements indicates the text contains more than one SQL
// statement. The engine only ever emits single SELECT statements, so
// anything else reaching the execution boundary is rejected.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed")

// ValidateSingleStatement normalizes a query (trims whitespace, strips one
// trailing semicolon) and rejects text containing further semicolons
// outside of string literals or quoted identifiers.
func ValidateSingleStatement(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	normalized := strings.TrimSpace(strings.TrimSuffix(query, ";"))
	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}
	return normalized, nil
}

// hasSemicolonOutsideStrings scans with a small state machine tracking
// single-quoted literals (with '' escapes) and double-quoted identifiers.
func hasSemicolonOutsideStrings(query string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch state {
		case stateNormal:
			switch ch {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if ch == '\'' {
				// '' is an escaped quote, stay inside the literal
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++
					continue
				}
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					i++
					continue
				}
				state = stateNormal
			}
		}
	}
	return false
}
