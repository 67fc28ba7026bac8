package sql

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatLiteral renders a scalar value as a SQL literal. Strings are
// single-quoted with embedded quotes doubled, booleans render as
// TRUE/FALSE, temporal values as ISO-8601 string literals, nil as NULL.
// Everything else passes through as its textual form.
func FormatLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(t)
	case []byte:
		return quoteString(string(t))
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return quoteString(t.UTC().Format(time.RFC3339Nano))
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// FormatLiteralList renders a comma-separated literal list for IN clauses.
func FormatLiteralList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatLiteral(v)
	}
	return strings.Join(parts, ", ")
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
