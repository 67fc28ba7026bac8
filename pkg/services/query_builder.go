package services

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/apperrors"
	"github.com/skein-data/skein-engine/pkg/models"
)

// Default caps applied when a caller passes no explicit limit.
const (
	DefaultRowLimit   = 100
	DefaultValueLimit = 10000
)

// QueryBuilder compiles the current selection set into SQL. Selections on
// the target table become plain WHERE clauses; selections elsewhere pull in
// one JOIN per relationship edge on the shortest path, with sequential
// aliases and a deterministic tie-break (see prioritizeRelationships).
// A selection whose table cannot be reached is skipped with a warning -
// filtering degrades, queries never fail to compile.
type QueryBuilder struct {
	logger     *zap.Logger
	catalog    string
	valueLimit int
}

// QueryBuilderOption configures a QueryBuilder.
type QueryBuilderOption func(*QueryBuilder)

// WithValueLimit overrides the cap on distinct-value queries.
func WithValueLimit(limit int) QueryBuilderOption {
	return func(b *QueryBuilder) {
		if limit > 0 {
			b.valueLimit = limit
		}
	}
}

// NewQueryBuilder creates a QueryBuilder. A non-empty catalog prefixes
// every compiled table reference.
func NewQueryBuilder(catalog string, logger *zap.Logger, opts ...QueryBuilderOption) *QueryBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &QueryBuilder{
		logger:     logger.Named("query-builder"),
		catalog:    catalog,
		valueLimit: DefaultValueLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildTableQuery compiles the query returning the rows of targetTable that
// remain reachable under the active selections.
func (b *QueryBuilder) BuildTableQuery(targetTable string, selections []*models.FieldSelection, relationships []models.Relationship, limit int) string {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	q := &selectQuery{
		table:   targetTable,
		columns: []selectColumn{{column: "*"}},
		limit:   limit,
	}
	b.applyFilters(q, targetTable, selections, relationships, nil)
	return b.render(q)
}

// BuildPossibleValuesQuery compiles the distinct-values query for one field
// under every active selection except the field's own: a field's selected
// values must not filter itself, or every unselected value would vanish.
func (b *QueryBuilder) BuildPossibleValuesQuery(targetTable, targetColumn string, selections []*models.FieldSelection, relationships []models.Relationship) string {
	q := &selectQuery{
		distinct: true,
		table:    targetTable,
		columns:  []selectColumn{{column: targetColumn}},
		limit:    b.valueLimit,
	}
	exclude := &models.ColumnSelection{Table: targetTable, Column: targetColumn}
	b.applyFilters(q, targetTable, selections, relationships, exclude)
	return b.render(q)
}

// BuildFieldValuesQuery compiles the unfiltered ordered distinct-values
// query for one field.
func (b *QueryBuilder) BuildFieldValuesQuery(table, column string, limit int) string {
	if limit <= 0 || limit > b.valueLimit {
		limit = b.valueLimit
	}
	q := &selectQuery{
		distinct: true,
		table:    table,
		columns:  []selectColumn{{column: column}},
		orderBy:  "1",
		limit:    limit,
	}
	return b.render(q)
}

// BuildCompositeTableQuery compiles a projection whose columns are drawn
// from more than one base table, joined along relationship paths. Display
// tables join with LEFT JOIN so rows missing a related record still show
// (with nulls); tables participating only as filter sources join with
// plain JOIN. The returned mapping relates output column names back to
// their (table, column) origin; callers can reconcile it against the input
// to learn which columns were omitted as unreachable.
func (b *QueryBuilder) BuildCompositeTableQuery(columnSelections []models.ColumnSelection, selections []*models.FieldSelection, relationships []models.Relationship, limit int) (string, map[string]models.ColumnSelection, error) {
	if len(columnSelections) == 0 {
		return "", nil, apperrors.ErrNoColumns
	}
	if limit <= 0 {
		limit = DefaultRowLimit
	}

	base := columnSelections[0].Table
	q := &selectQuery{table: base, alias: "t", limit: limit}
	state := newJoinState(base)

	// Join display tables in first-appearance order.
	for _, cs := range columnSelections {
		if state.joined[cs.Table] {
			continue
		}
		if !b.joinPath(q, state, base, cs.Table, "LEFT JOIN", relationships) {
			b.logger.Warn("No join path to display table; its columns omitted",
				zap.String("base_table", base),
				zap.String("display_table", cs.Table))
		}
	}

	// Join filter-only tables, sorted for deterministic output.
	grouped := models.SelectionsByTable(selections)
	for _, selTable := range sortedTableKeys(grouped) {
		if state.joined[selTable] {
			continue
		}
		if !b.joinPath(q, state, base, selTable, "JOIN", relationships) {
			b.logger.Warn("No join path to selection table; selection skipped",
				zap.String("base_table", base),
				zap.String("selection_table", selTable))
		}
	}

	// Projection and output-name mapping.
	mapping := make(map[string]models.ColumnSelection)
	for _, cs := range columnSelections {
		alias, ok := state.aliases[cs.Table]
		if !ok {
			continue
		}
		out := uniqueOutputName(mapping, cs)
		q.columns = append(q.columns, selectColumn{alias: alias, column: cs.Column, as: out})
		mapping[out] = cs
	}
	if len(q.columns) == 0 {
		return "", nil, apperrors.ErrNoColumns
	}

	for _, selTable := range sortedTableKeys(grouped) {
		alias, ok := state.aliases[selTable]
		if !ok {
			continue
		}
		appendTablePredicates(q, alias, grouped[selTable])
	}

	finalizeAliases(q)
	return b.render(q), mapping, nil
}

// applyFilters attaches the WHERE predicates (and any JOINs needed to reach
// selections on other tables) implied by the active selection set. exclude
// names a field whose own selection is ignored.
func (b *QueryBuilder) applyFilters(q *selectQuery, targetTable string, selections []*models.FieldSelection, relationships []models.Relationship, exclude *models.ColumnSelection) {
	var active []*models.FieldSelection
	for _, sel := range selections {
		if sel == nil || sel.Len() == 0 {
			continue
		}
		if exclude != nil && sel.Table == exclude.Table && sel.Column == exclude.Column {
			continue
		}
		active = append(active, sel)
	}
	grouped := models.SelectionsByTable(active)
	if len(grouped) == 0 {
		return
	}
	tables := sortedTableKeys(grouped)

	if len(tables) == 1 && tables[0] == targetTable {
		appendTablePredicates(q, "", grouped[targetTable])
		return
	}

	q.alias = "t"
	state := newJoinState(targetTable)
	for _, selTable := range tables {
		if state.joined[selTable] {
			continue
		}
		if !b.joinPath(q, state, targetTable, selTable, "JOIN", relationships) {
			b.logger.Warn("No join path to selection table; selection skipped",
				zap.String("target_table", targetTable),
				zap.String("selection_table", selTable))
		}
	}
	for _, selTable := range tables {
		alias, ok := state.aliases[selTable]
		if !ok {
			continue
		}
		appendTablePredicates(q, alias, grouped[selTable])
	}
	finalizeAliases(q)
}

// joinState tracks alias assignment while a query's join tree grows.
type joinState struct {
	aliases map[string]string
	joined  map[string]bool
	seq     int
}

func newJoinState(base string) *joinState {
	return &joinState{
		aliases: map[string]string{base: "t"},
		joined:  map[string]bool{base: true},
	}
}

// joinPath walks the shortest relationship path from base to target and
// emits one join per edge that reaches a table not yet in the tree.
// Returns false when no path exists.
func (b *QueryBuilder) joinPath(q *selectQuery, state *joinState, base, target, kind string, relationships []models.Relationship) bool {
	if state.joined[target] {
		return true
	}
	path := FindPath(base, target, prioritizeRelationships(relationships, state.joined))
	if path == nil {
		return false
	}

	current := base
	for _, edge := range path {
		next, ok := edge.Other(current)
		if !ok {
			// path edges always touch the walk position; a miss means the
			// relationship list changed underneath us, bail out
			return false
		}
		if !state.joined[next] {
			state.seq++
			alias := fmt.Sprintf("t%d", state.seq)
			leftColumn, _ := edge.ColumnOn(current)
			rightColumn, _ := edge.ColumnOn(next)
			q.joins = append(q.joins, joinClause{
				kind:        kind,
				table:       next,
				alias:       alias,
				leftAlias:   state.aliases[current],
				leftColumn:  leftColumn,
				rightColumn: rightColumn,
			})
			state.aliases[next] = alias
			state.joined[next] = true
		}
		current = next
	}
	return true
}

// prioritizeRelationships reorders edges so BFS tie-breaking prefers tables
// already joined in the current query and bare (unqualified) table names.
// The sort is stable, so compilation stays deterministic for identical
// inputs; shortest-by-edge-count still wins overall.
func prioritizeRelationships(relationships []models.Relationship, joined map[string]bool) []models.Relationship {
	scored := make([]models.Relationship, len(relationships))
	copy(scored, relationships)

	score := func(r models.Relationship) int {
		s := 0
		if joined[r.FromTable] || joined[r.ToTable] {
			s += 4
		}
		if !models.IsCompoundTableName(r.FromTable) {
			s++
		}
		if !models.IsCompoundTableName(r.ToTable) {
			s++
		}
		return s
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return score(scored[i]) > score(scored[j])
	})
	return scored
}

// appendTablePredicates emits one IN predicate per selection, ordered by
// column name, values ordered by canonical key.
func appendTablePredicates(q *selectQuery, alias string, selections []*models.FieldSelection) {
	sorted := make([]*models.FieldSelection, len(selections))
	copy(sorted, selections)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Column < sorted[j].Column })

	for _, sel := range sorted {
		q.where = append(q.where, wherePredicate{
			alias:  alias,
			column: sel.Column,
			values: sel.SortedValues(),
		})
	}
}

// finalizeAliases settles the alias story once the join tree is known:
// queries that gained no joins render unaliased, queries with joins select
// DISTINCT (collapsing one-to-many fan-out) and qualify bare columns with
// the base alias.
func finalizeAliases(q *selectQuery) {
	if len(q.joins) == 0 {
		q.alias = ""
		for i := range q.columns {
			q.columns[i].alias = ""
		}
		for i := range q.where {
			q.where[i].alias = ""
		}
		return
	}
	q.distinct = true
	for i := range q.columns {
		if q.columns[i].alias == "" {
			q.columns[i].alias = q.alias
		}
	}
}

func sortedTableKeys(grouped map[string][]*models.FieldSelection) []string {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// uniqueOutputName derives a stable output column name for a composite
// projection: bare table name + "_" + column, suffixed on collision.
func uniqueOutputName(taken map[string]models.ColumnSelection, cs models.ColumnSelection) string {
	base := models.BareTableName(cs.Table) + "_" + cs.Column
	name := base
	for i := 2; ; i++ {
		if _, exists := taken[name]; !exists {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}
