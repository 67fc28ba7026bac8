package models

import "fmt"

// Confidence grades how strongly a relationship is believed to be a real
// foreign key. Relationships are inferred from naming conventions, never
// read from constraints, so ambiguity is expressed here instead of as an
// error.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // compatible types and target column is literally "id"
	ConfidenceMedium Confidence = "medium" // compatible types, target is not "id"
	ConfidenceLow    Confidence = "low"    // types are not in the same family
)

// Relationship is an inferred foreign-key-like edge between a column in one
// table and a column in another. The edge is directed (FK side -> id side)
// but traversal treats it as bidirectional.
type Relationship struct {
	ID         string     `json:"id"`
	FromTable  string     `json:"from_table"`
	FromColumn string     `json:"from_column"`
	ToTable    string     `json:"to_table"`
	ToColumn   string     `json:"to_column"`
	Confidence Confidence `json:"confidence"`
}

// RelationshipID derives the deterministic key for a relationship from its
// four endpoints.
func RelationshipID(fromTable, fromColumn, toTable, toColumn string) string {
	return fmt.Sprintf("%s.%s->%s.%s", fromTable, fromColumn, toTable, toColumn)
}

// NewRelationship builds a relationship with its deterministic ID.
func NewRelationship(fromTable, fromColumn, toTable, toColumn string, confidence Confidence) Relationship {
	return Relationship{
		ID:         RelationshipID(fromTable, fromColumn, toTable, toColumn),
		FromTable:  fromTable,
		FromColumn: fromColumn,
		ToTable:    toTable,
		ToColumn:   toColumn,
		Confidence: confidence,
	}
}

// Touches reports whether the relationship has an endpoint on the table.
func (r Relationship) Touches(table string) bool {
	return r.FromTable == table || r.ToTable == table
}

// Other returns the endpoint table opposite to the given one. The second
// return value is false when the relationship does not touch the table.
func (r Relationship) Other(table string) (string, bool) {
	switch table {
	case r.FromTable:
		return r.ToTable, true
	case r.ToTable:
		return r.FromTable, true
	default:
		return "", false
	}
}

// ColumnOn returns the column of the endpoint that sits on the given table.
func (r Relationship) ColumnOn(table string) (string, bool) {
	switch table {
	case r.FromTable:
		return r.FromColumn, true
	case r.ToTable:
		return r.ToColumn, true
	default:
		return "", false
	}
}

// SameEndpoints reports whether two relationships connect the same
// (table, column) pairs, in either direction.
func (r Relationship) SameEndpoints(o Relationship) bool {
	forward := r.FromTable == o.FromTable && r.FromColumn == o.FromColumn &&
		r.ToTable == o.ToTable && r.ToColumn == o.ToColumn
	reverse := r.FromTable == o.ToTable && r.FromColumn == o.ToColumn &&
		r.ToTable == o.FromTable && r.ToColumn == o.FromColumn
	return forward || reverse
}
