package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/models"
)

func newTestEngine() *AssociativeEngine {
	builder := NewQueryBuilder("", nil)
	return NewAssociativeEngine(builder, NewStateCalculator(builder, nil), nil)
}

func TestGetFilteredTableData(t *testing.T) {
	engine := newTestEngine()
	exec := newStubExecutor().
		on(`SELECT * FROM "Orders" WHERE "Status" IN ('shipped') LIMIT 100`, &datasource.QueryResult{
			Columns:  []string{"ID", "Status"},
			Rows:     []map[string]any{{"ID": int64(1), "Status": "shipped"}},
			RowCount: 1,
		})
	selections := []*models.FieldSelection{
		models.NewFieldSelection("Orders", "Status", "shipped"),
	}

	result, err := engine.GetFilteredTableData(context.Background(), "Orders", selections, nil, exec, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, "shipped", result.Rows[0]["Status"])
}

func TestGetFilteredTableData_ExecutionError(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.GetFilteredTableData(context.Background(), "Orders", nil, nil, newStubExecutor(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Orders")
}

func TestGetFieldValues(t *testing.T) {
	engine := newTestEngine()
	exec := newStubExecutor().
		on(`SELECT DISTINCT "Status" FROM "Orders" ORDER BY 1 LIMIT 10000`, singleColumnResult("Status", "delivered", "pending", "shipped"))

	values, err := engine.GetFieldValues(context.Background(), "Orders", "Status", exec)
	require.NoError(t, err)
	assert.Equal(t, []any{"delivered", "pending", "shipped"}, values)
}

func TestPropagateSelection_NoSelectionsShortCircuits(t *testing.T) {
	engine := newTestEngine()

	// the executor would error on any query; nil proves nothing ran
	states := engine.PropagateSelection(context.Background(), nil, nil, nil, newStubExecutor(), nil)
	assert.Nil(t, states)
}

func TestGetSelectionStats_NoSelections(t *testing.T) {
	engine := newTestEngine()
	tables := []models.TableSchema{
		{Name: "Orders", RowCount: 50},
		{Name: "Customers", RowCount: 20000},
	}

	stats := engine.GetSelectionStats(context.Background(), tables, nil, nil, newStubExecutor())
	assert.Equal(t, 2, stats.TotalTables)
	assert.Equal(t, 0, stats.AffectedTables)
	assert.Equal(t, 0, stats.SelectedValues)
	assert.Equal(t, 50, stats.TableRowCounts["Orders"])
	// schema row counts above the cap are reported capped
	assert.Equal(t, StatsRowCap, stats.TableRowCounts["Customers"])
}

func TestGetSelectionStats_WithSelections(t *testing.T) {
	engine := newTestEngine()
	tables := []models.TableSchema{
		{Name: "Orders", RowCount: 50},
		{Name: "Customers", RowCount: 10},
	}
	selections := []*models.FieldSelection{
		models.NewFieldSelection("Orders", "Status", "shipped", "pending"),
	}
	exec := newStubExecutor().
		on(`SELECT * FROM "Orders" WHERE "Status" IN ('pending', 'shipped') LIMIT 10001`, &datasource.QueryResult{RowCount: 3}).
		on(`SELECT DISTINCT t.* FROM "Customers" t JOIN "Orders" t1 ON t."ID" = t1."CustomerID" WHERE t1."Status" IN ('pending', 'shipped') LIMIT 10001`, &datasource.QueryResult{RowCount: 10001})

	stats := engine.GetSelectionStats(context.Background(), tables, selections, orderCustomerRels(), exec)
	assert.Equal(t, 2, stats.TotalTables)
	assert.Equal(t, 1, stats.AffectedTables)
	assert.Equal(t, 2, stats.SelectedValues)
	assert.Equal(t, 3, stats.TableRowCounts["Orders"])
	// one row past the cap means "cap or more"
	assert.Equal(t, StatsRowCap, stats.TableRowCounts["Customers"])
}

func TestGetSelectionStats_FailedCountRecordsZero(t *testing.T) {
	engine := newTestEngine()
	tables := []models.TableSchema{{Name: "Orders", RowCount: 50}}
	selections := []*models.FieldSelection{
		models.NewFieldSelection("Orders", "Status", "shipped"),
	}

	stats := engine.GetSelectionStats(context.Background(), tables, selections, nil, newStubExecutor())
	assert.Equal(t, 0, stats.TableRowCounts["Orders"])
}

func TestGetCompositeTableData(t *testing.T) {
	engine := newTestEngine()
	columns := []models.ColumnSelection{
		{Table: "Orders", Column: "ID"},
		{Table: "Customers", Column: "Name"},
	}
	exec := newStubExecutor().
		on(`SELECT DISTINCT t."ID" AS "Orders_ID", t1."Name" AS "Customers_Name" FROM "Orders" t LEFT JOIN "Customers" t1 ON t."CustomerID" = t1."ID" LIMIT 100`, &datasource.QueryResult{
			Columns:  []string{"Orders_ID", "Customers_Name"},
			Rows:     []map[string]any{{"Orders_ID": int64(1), "Customers_Name": "Alice"}},
			RowCount: 1,
		})

	result, mapping, err := engine.GetCompositeTableData(context.Background(), columns, nil, orderCustomerRels(), exec, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, models.ColumnSelection{Table: "Customers", Column: "Name"}, mapping["Customers_Name"])
}

func TestGetCompositeTableData_NoColumns(t *testing.T) {
	engine := newTestEngine()

	_, _, err := engine.GetCompositeTableData(context.Background(), nil, nil, nil, newStubExecutor(), 0)
	assert.Error(t, err)
}
