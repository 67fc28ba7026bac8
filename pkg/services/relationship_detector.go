package services

import (
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/models"
)

// RelationshipDetector infers foreign-key-like relationships between tables
// from column naming conventions. Detection is a pure function of the
// schema snapshot: the detector holds no state beyond its logger, and it
// never fails - a column that matches no pattern simply yields no edge.
type RelationshipDetector struct {
	logger *zap.Logger
}

// NewRelationshipDetector creates a RelationshipDetector.
func NewRelationshipDetector(logger *zap.Logger) *RelationshipDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationshipDetector{logger: logger.Named("relationship-detector")}
}

// DetectRelationships infers the relationship graph for a schema snapshot.
// Two naming patterns are tested for every column:
//
//   - FK-suffix: a non-"id" column ending in "id" (CustomerID, customer_id)
//     names its referenced table; the stem must match another table's name
//     (underscore-insensitive, singular/plural tolerant) and that table
//     must expose an "id" or "<table>id" column.
//   - Id-reflection: a column literally named "id" on table T is matched
//     against other tables' "<t>id"/"<t>_id" columns, catching references
//     the first pattern's table-name matching missed.
//
// Symmetric duplicates over the same endpoints are dropped.
func (d *RelationshipDetector) DetectRelationships(tables []models.TableSchema) []models.Relationship {
	var relationships []models.Relationship

	for ti := range tables {
		table := &tables[ti]
		for _, column := range table.Columns {
			lower := strings.ToLower(column.Name)

			if lower != "id" && strings.HasSuffix(lower, "id") {
				if rel, ok := d.matchFKSuffix(table, column, tables); ok {
					relationships = appendUnique(relationships, rel)
				}
			}

			if lower == "id" {
				for _, rel := range d.matchIDReflection(table, column, tables) {
					relationships = appendUnique(relationships, rel)
				}
			}
		}
	}

	d.logger.Debug("Relationship detection complete",
		zap.Int("tables", len(tables)),
		zap.Int("relationships", len(relationships)))
	return relationships
}

// matchFKSuffix resolves a column like "CustomerID" to a "customers" table
// carrying an id column.
func (d *RelationshipDetector) matchFKSuffix(table *models.TableSchema, column models.ColumnInfo, tables []models.TableSchema) (models.Relationship, bool) {
	stem := fkStem(column.Name)
	if stem == "" {
		return models.Relationship{}, false
	}

	for oi := range tables {
		other := &tables[oi]
		if other.Name == table.Name {
			continue
		}
		otherNorm := normalizeName(models.BareTableName(other.Name))
		if !stemMatchesTable(stem, otherNorm) {
			continue
		}

		idColumn, ok := findIDColumn(other, otherNorm)
		if !ok {
			continue
		}

		confidence := scoreConfidence(column.Type, idColumn.Type, idColumn.Name)
		return models.NewRelationship(table.Name, column.Name, other.Name, idColumn.Name, confidence), true
	}
	return models.Relationship{}, false
}

// matchIDReflection finds columns on other tables that spell out this
// table's name plus "id".
func (d *RelationshipDetector) matchIDReflection(table *models.TableSchema, idColumn models.ColumnInfo, tables []models.TableSchema) []models.Relationship {
	tableNorm := normalizeName(models.BareTableName(table.Name))
	want := tableNorm + "id"
	wantSingular := inflection.Singular(tableNorm) + "id"

	var matched []models.Relationship
	for oi := range tables {
		other := &tables[oi]
		if other.Name == table.Name {
			continue
		}
		for _, oc := range other.Columns {
			ocNorm := normalizeName(oc.Name)
			if ocNorm != want && ocNorm != wantSingular {
				continue
			}
			confidence := scoreConfidence(oc.Type, idColumn.Type, idColumn.Name)
			matched = append(matched, models.NewRelationship(other.Name, oc.Name, table.Name, idColumn.Name, confidence))
		}
	}
	return matched
}

// appendUnique drops the candidate when a relationship over the same
// endpoints already exists in either direction. Linear scan; schemas small
// enough to browse interactively keep this cheap.
func appendUnique(relationships []models.Relationship, candidate models.Relationship) []models.Relationship {
	for _, existing := range relationships {
		if existing.SameEndpoints(candidate) {
			return relationships
		}
	}
	return append(relationships, candidate)
}

// fkStem strips the trailing "id" (and a separating underscore) from a
// column name and removes remaining underscores: "customer_id" -> "customer".
func fkStem(columnName string) string {
	stem := strings.ToLower(columnName)
	stem = strings.TrimSuffix(stem, "id")
	stem = strings.TrimSuffix(stem, "_")
	return strings.ReplaceAll(stem, "_", "")
}

// normalizeName lowercases and strips underscores for comparison.
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}

// stemMatchesTable matches an FK stem against a normalized table name,
// tolerating a trailing "s" on either side as well as irregular
// singular/plural pairs.
func stemMatchesTable(stem, tableNorm string) bool {
	if stem == tableNorm {
		return true
	}
	if stem+"s" == tableNorm || stem == tableNorm+"s" {
		return true
	}
	if inflection.Plural(stem) == tableNorm || inflection.Singular(tableNorm) == stem {
		return true
	}
	return false
}

// findIDColumn looks for a column literally named "id" or "<table>id" on
// the referenced table. The table name is tried both as-is and singularized,
// so "Customers" resolves a "CustomerID" key.
func findIDColumn(table *models.TableSchema, tableNorm string) (models.ColumnInfo, bool) {
	singular := inflection.Singular(tableNorm)
	for _, c := range table.Columns {
		norm := normalizeName(c.Name)
		if norm == "id" || norm == tableNorm+"id" || norm == singular+"id" {
			return c, true
		}
	}
	return models.ColumnInfo{}, false
}

// scoreConfidence grades a candidate edge. Compatible type families plus a
// target column literally named "id" score high; compatible families alone
// score medium; anything else is low.
func scoreConfidence(fromType, toType, toColumnName string) models.Confidence {
	if !typesCompatible(fromType, toType) {
		return models.ConfidenceLow
	}
	if strings.EqualFold(toColumnName, "id") {
		return models.ConfidenceHigh
	}
	return models.ConfidenceMedium
}

// Type families for compatibility checks. Matching is fragment-based, not
// exact: "BIGINT" and "int8" are both integer-like.
var (
	integerFragments = []string{"integer", "bigint", "smallint", "int4", "int8", "int2", "hugeint", "int"}
	stringFragments  = []string{"varchar", "text", "char", "string"}
)

func typesCompatible(a, b string) bool {
	if inFamily(a, integerFragments) && inFamily(b, integerFragments) {
		return true
	}
	if inFamily(a, stringFragments) && inFamily(b, stringFragments) {
		return true
	}
	return false
}

func inFamily(dataType string, fragments []string) bool {
	lower := strings.ToLower(dataType)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
