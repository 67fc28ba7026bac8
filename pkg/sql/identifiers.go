// Package sql holds the dialect-boundary utilities: identifier quoting,
// literal rendering, single-statement validation and injection screening.
// The generated dialect is ANSI-ish: double-quoted identifiers,
// single-quoted string literals with doubled-quote escaping, TRUE/FALSE
// booleans and ISO-8601 temporal literals.
package sql

import "strings"

// QuoteIdentifier quotes a single identifier with double quotes, doubling
// any embedded quote.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteQualified quotes a possibly dot-qualified identifier part by part:
// "staging.customers" renders as "staging"."customers".
func QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// TableRef renders a table reference, prefixing the catalog when one is
// configured: catalog "db" and table "staging.customers" render as
// "db"."staging"."customers".
func TableRef(catalog, table string) string {
	if catalog == "" {
		return QuoteQualified(table)
	}
	return QuoteIdentifier(catalog) + "." + QuoteQualified(table)
}
