package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/models"
)

// StatsRowCap caps the per-table reachable row count reported by
// GetSelectionStats. The count is computed by requesting one row more than
// the cap and truncating, so "10000" reads as "10000 or more".
const StatsRowCap = 10000

// SelectionStats summarizes the effect of the current selection set.
type SelectionStats struct {
	TotalTables    int            `json:"total_tables"`
	AffectedTables int            `json:"affected_tables"`
	SelectedValues int            `json:"selected_values"`
	TableRowCounts map[string]int `json:"table_row_counts"`
}

// AssociativeEngine is the facade the shell consumes. It is stateless:
// every operation is a pure function of the schema, selections and
// relationships passed to it plus the query-execution capability.
type AssociativeEngine struct {
	builder *QueryBuilder
	states  *StateCalculator
	logger  *zap.Logger
}

// NewAssociativeEngine creates the engine facade.
func NewAssociativeEngine(builder *QueryBuilder, states *StateCalculator, logger *zap.Logger) *AssociativeEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssociativeEngine{
		builder: builder,
		states:  states,
		logger:  logger.Named("associative-engine"),
	}
}

// GetFilteredTableData returns the rows of a table reachable under the
// active selections.
func (e *AssociativeEngine) GetFilteredTableData(ctx context.Context, table string, selections []*models.FieldSelection, relationships []models.Relationship, exec datasource.QueryExecutor, limit int) (*datasource.QueryResult, error) {
	query := e.builder.BuildTableQuery(table, selections, relationships, limit)
	result, err := exec.Execute(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get filtered data for %s: %w", table, err)
	}
	return result, nil
}

// GetCompositeTableData returns the rows of a multi-table projection
// together with the output-name mapping.
func (e *AssociativeEngine) GetCompositeTableData(ctx context.Context, columns []models.ColumnSelection, selections []*models.FieldSelection, relationships []models.Relationship, exec datasource.QueryExecutor, limit int) (*datasource.QueryResult, map[string]models.ColumnSelection, error) {
	query, mapping, err := e.builder.BuildCompositeTableQuery(columns, selections, relationships, limit)
	if err != nil {
		return nil, nil, err
	}
	result, err := exec.Execute(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("get composite data: %w", err)
	}
	return result, mapping, nil
}

// GetFieldValues returns the distinct values of one field, ordered, capped
// at 10000.
func (e *AssociativeEngine) GetFieldValues(ctx context.Context, table, column string, exec datasource.QueryExecutor) ([]any, error) {
	query := e.builder.BuildFieldValuesQuery(table, column, DefaultValueLimit)
	result, err := exec.Execute(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get field values for %s.%s: %w", table, column, err)
	}

	values := make([]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		if v, ok := valueFromRow(row, column); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// PropagateSelection recomputes field states for the current selection set.
// With no active selections it short-circuits to nil: every value defaults
// to "possible" at the presentation boundary.
func (e *AssociativeEngine) PropagateSelection(ctx context.Context, tables []models.TableSchema, selections []*models.FieldSelection, relationships []models.Relationship, exec datasource.QueryExecutor, targetFields []models.ColumnSelection) []*models.FieldState {
	if !hasActiveSelection(selections) {
		return nil
	}
	return e.states.CalculateFieldStates(ctx, tables, selections, relationships, exec, targetFields)
}

// GetSelectionStats reports how far the current selections reach: total
// table count, tables directly carrying a selection, total selected values,
// and the per-table row count still reachable under the filters (capped at
// StatsRowCap). A table whose count query fails records zero rather than
// aborting the pass.
func (e *AssociativeEngine) GetSelectionStats(ctx context.Context, tables []models.TableSchema, selections []*models.FieldSelection, relationships []models.Relationship, exec datasource.QueryExecutor) *SelectionStats {
	stats := &SelectionStats{
		TotalTables:    len(tables),
		TableRowCounts: make(map[string]int, len(tables)),
	}

	affected := make(map[string]bool)
	for _, sel := range selections {
		if sel == nil || sel.Len() == 0 {
			continue
		}
		affected[sel.Table] = true
		stats.SelectedValues += sel.Len()
	}
	stats.AffectedTables = len(affected)

	if stats.SelectedValues == 0 {
		for _, t := range tables {
			count := int(t.RowCount)
			if count > StatsRowCap {
				count = StatsRowCap
			}
			stats.TableRowCounts[t.Name] = count
		}
		return stats
	}

	for _, t := range tables {
		query := e.builder.BuildTableQuery(t.Name, selections, relationships, StatsRowCap+1)
		result, err := exec.Execute(ctx, query)
		if err != nil {
			e.logger.Warn("Row count query failed; recording zero",
				zap.String("table", t.Name),
				zap.Error(err))
			stats.TableRowCounts[t.Name] = 0
			continue
		}
		count := result.RowCount
		if count > StatsRowCap {
			count = StatsRowCap
		}
		stats.TableRowCounts[t.Name] = count
	}
	return stats
}
