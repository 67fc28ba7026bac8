package services

import (
	"strconv"
	"strings"

	sqlutil "github.com/skein-data/skein-engine/pkg/sql"
)

// The builder works on a small typed query form and renders it to SQL text
// only at the boundary. Alias assignment and path preference stay testable
// without string surgery, and every value reaches the text through the
// literal formatter.

type selectColumn struct {
	alias  string // table alias; empty in unaliased single-table queries
	column string // column name, "*" for the whole row
	as     string // optional output name
}

type joinClause struct {
	kind        string // "JOIN" or "LEFT JOIN"
	table       string // raw table name, possibly schema-qualified
	alias       string
	leftAlias   string
	leftColumn  string
	rightColumn string
}

type wherePredicate struct {
	alias  string
	column string
	values []any // ordered by canonical key
}

type selectQuery struct {
	distinct bool
	columns  []selectColumn
	table    string // raw base table name
	alias    string // empty when the query needs no aliases
	joins    []joinClause
	where    []wherePredicate
	orderBy  string // raw ORDER BY expression, e.g. "1"
	limit    int
}

func (b *QueryBuilder) render(q *selectQuery) string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if q.distinct {
		sb.WriteString("DISTINCT ")
	}
	for i, col := range q.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(renderColumn(col))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(sqlutil.TableRef(b.catalog, q.table))
	if q.alias != "" {
		sb.WriteString(" ")
		sb.WriteString(q.alias)
	}

	for _, join := range q.joins {
		sb.WriteString(" ")
		sb.WriteString(join.kind)
		sb.WriteString(" ")
		sb.WriteString(sqlutil.TableRef(b.catalog, join.table))
		sb.WriteString(" ")
		sb.WriteString(join.alias)
		sb.WriteString(" ON ")
		sb.WriteString(join.leftAlias)
		sb.WriteString(".")
		sb.WriteString(sqlutil.QuoteIdentifier(join.leftColumn))
		sb.WriteString(" = ")
		sb.WriteString(join.alias)
		sb.WriteString(".")
		sb.WriteString(sqlutil.QuoteIdentifier(join.rightColumn))
	}

	if len(q.where) > 0 {
		sb.WriteString(" WHERE ")
		for i, pred := range q.where {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			if pred.alias != "" {
				sb.WriteString(pred.alias)
				sb.WriteString(".")
			}
			sb.WriteString(sqlutil.QuoteIdentifier(pred.column))
			sb.WriteString(" IN (")
			sb.WriteString(sqlutil.FormatLiteralList(pred.values))
			sb.WriteString(")")
		}
	}

	if q.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.orderBy)
	}

	sb.WriteString(" LIMIT ")
	sb.WriteString(strconv.Itoa(q.limit))

	return sb.String()
}

func renderColumn(col selectColumn) string {
	var rendered string
	switch {
	case col.column == "*" && col.alias == "":
		rendered = "*"
	case col.column == "*":
		rendered = col.alias + ".*"
	case col.alias == "":
		rendered = sqlutil.QuoteIdentifier(col.column)
	default:
		rendered = col.alias + "." + sqlutil.QuoteIdentifier(col.column)
	}
	if col.as != "" {
		rendered += " AS " + sqlutil.QuoteIdentifier(col.as)
	}
	return rendered
}
