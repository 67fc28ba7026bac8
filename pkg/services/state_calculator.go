package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/models"
)

// StateCalculator classifies every observed value of every field relative
// to the current selection set. Each field's computation depends only on
// the snapshot passed in, so fields are computed independently on a bounded
// worker pool; a failing field is left unclassified (callers default it to
// "possible" - the engine fails open, never hiding data behind an error).
type StateCalculator struct {
	builder *QueryBuilder
	logger  *zap.Logger
	workers int
}

// StateCalculatorOption configures a StateCalculator.
type StateCalculatorOption func(*StateCalculator)

// WithStateWorkers bounds concurrent per-field computations.
func WithStateWorkers(n int) StateCalculatorOption {
	return func(c *StateCalculator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewStateCalculator creates a StateCalculator.
func NewStateCalculator(builder *QueryBuilder, logger *zap.Logger, opts ...StateCalculatorOption) *StateCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &StateCalculator{
		builder: builder,
		logger:  logger.Named("state-calculator"),
		workers: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CalculateFieldStates computes the state of every field in targetFields
// (plus every field that itself carries a selection), or of every field in
// every table when targetFields is nil. Results keep input order; fields
// whose computation failed are absent.
func (c *StateCalculator) CalculateFieldStates(ctx context.Context, tables []models.TableSchema, selections []*models.FieldSelection, relationships []models.Relationship, exec datasource.QueryExecutor, targetFields []models.ColumnSelection) []*models.FieldState {
	if !hasActiveSelection(selections) {
		return nil
	}

	fields := c.fieldsToCompute(tables, selections, targetFields)
	results := make([]*models.FieldState, len(fields))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.workers)
	for i, field := range fields {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, field models.ColumnSelection) {
			defer wg.Done()
			defer func() { <-sem }()

			state, err := c.CalculateFieldState(ctx, field.Table, field.Column, selections, relationships, exec)
			if err != nil {
				c.logger.Warn("Field state computation failed; field left unclassified",
					zap.String("table", field.Table),
					zap.String("column", field.Column),
					zap.Error(err))
				return
			}
			results[idx] = state
		}(i, field)
	}
	wg.Wait()

	states := make([]*models.FieldState, 0, len(fields))
	for _, s := range results {
		if s != nil {
			states = append(states, s)
		}
	}
	return states
}

// CalculateFieldState computes the state of one field.
func (c *StateCalculator) CalculateFieldState(ctx context.Context, table, column string, selections []*models.FieldSelection, relationships []models.Relationship, exec datasource.QueryExecutor) (*models.FieldState, error) {
	own := models.FindSelection(selections, table, column)

	allValues, err := c.distinctValues(ctx, table, column, exec)
	if err != nil {
		return nil, fmt.Errorf("query distinct values for %s.%s: %w", table, column, err)
	}

	state := &models.FieldState{
		Table:       table,
		Column:      column,
		ValueStates: make(map[string]models.SelectionState, len(allValues)),
	}

	if own != nil && own.Len() > 0 {
		// Selected values stay selected; everything else observed on the
		// field is an alternative the user could switch to.
		for key := range allValues {
			if own.HasKey(key) {
				state.ValueStates[key] = models.StateSelected
			} else {
				state.ValueStates[key] = models.StateAlternative
			}
		}
		for key := range own.Values {
			state.ValueStates[key] = models.StateSelected
		}
		return state, nil
	}

	possibleSQL := c.builder.BuildPossibleValuesQuery(table, column, selections, relationships)
	possible, err := c.valueSet(ctx, possibleSQL, column, exec)
	if err != nil {
		return nil, fmt.Errorf("query possible values for %s.%s: %w", table, column, err)
	}

	for key := range allValues {
		if _, ok := possible[key]; ok {
			state.ValueStates[key] = models.StatePossible
		} else {
			state.ValueStates[key] = models.StateExcluded
		}
	}
	return state, nil
}

// fieldsToCompute resolves the allow-list: nil means the whole schema;
// otherwise the requested fields plus every field carrying a selection.
func (c *StateCalculator) fieldsToCompute(tables []models.TableSchema, selections []*models.FieldSelection, targetFields []models.ColumnSelection) []models.ColumnSelection {
	if targetFields == nil {
		var fields []models.ColumnSelection
		for _, t := range tables {
			for _, col := range t.Columns {
				fields = append(fields, models.ColumnSelection{Table: t.Name, Column: col.Name})
			}
		}
		return fields
	}

	seen := make(map[models.ColumnSelection]bool, len(targetFields))
	fields := make([]models.ColumnSelection, 0, len(targetFields))
	for _, f := range targetFields {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	for _, sel := range selections {
		if sel == nil || sel.Len() == 0 {
			continue
		}
		f := models.ColumnSelection{Table: sel.Table, Column: sel.Column}
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}

// distinctValues returns the canonical-keyed set of all values observed for
// a field, unfiltered.
func (c *StateCalculator) distinctValues(ctx context.Context, table, column string, exec datasource.QueryExecutor) (map[string]any, error) {
	query := c.builder.BuildPossibleValuesQuery(table, column, nil, nil)
	return c.valueSet(ctx, query, column, exec)
}

// valueSet executes a single-column query and collects its values keyed
// canonically.
func (c *StateCalculator) valueSet(ctx context.Context, query, column string, exec datasource.QueryExecutor) (map[string]any, error) {
	result, err := exec.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(result.Rows))
	for _, row := range result.Rows {
		v, ok := valueFromRow(row, column)
		if !ok {
			continue
		}
		values[models.ValueKey(v)] = v
	}
	return values, nil
}

// valueFromRow pulls the field's value out of a result row, falling back to
// the single entry when the driver reports a differently cased column name.
func valueFromRow(row map[string]any, column string) (any, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	if len(row) == 1 {
		for _, v := range row {
			return v, true
		}
	}
	return nil, false
}

func hasActiveSelection(selections []*models.FieldSelection) bool {
	for _, sel := range selections {
		if sel != nil && sel.Len() > 0 {
			return true
		}
	}
	return false
}
