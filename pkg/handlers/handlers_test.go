package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/services"
)

// fakeDiscoverer serves a fixed Orders/Customers catalog.
type fakeDiscoverer struct{}

func (fakeDiscoverer) DiscoverTables(context.Context) ([]datasource.TableMetadata, error) {
	return []datasource.TableMetadata{
		{Schema: "main", Name: "Customers", RowCount: 2},
		{Schema: "main", Name: "Orders", RowCount: 3},
	}, nil
}

func (fakeDiscoverer) DiscoverColumns(_ context.Context, _, tableName string) ([]datasource.ColumnMetadata, error) {
	switch tableName {
	case "Orders":
		return []datasource.ColumnMetadata{
			{Name: "ID", DataType: "BIGINT"},
			{Name: "CustomerID", DataType: "BIGINT"},
			{Name: "Status", DataType: "VARCHAR"},
		}, nil
	case "Customers":
		return []datasource.ColumnMetadata{
			{Name: "ID", DataType: "BIGINT"},
			{Name: "Name", DataType: "VARCHAR"},
		}, nil
	}
	return nil, nil
}

func (fakeDiscoverer) Close() error { return nil }

// stubExecutor serves canned results keyed by exact SQL text.
type stubExecutor struct {
	results map[string]*datasource.QueryResult
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{results: make(map[string]*datasource.QueryResult)}
}

func (s *stubExecutor) on(sqlText string, result *datasource.QueryResult) *stubExecutor {
	s.results[sqlText] = result
	return s
}

func (s *stubExecutor) Execute(_ context.Context, sqlText string) (*datasource.QueryResult, error) {
	if result, ok := s.results[sqlText]; ok {
		return result, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", sqlText)
}

func (s *stubExecutor) Close() error { return nil }

func singleColumnQueryResult(column string, values ...any) *datasource.QueryResult {
	rows := make([]map[string]any, len(values))
	for i, v := range values {
		rows[i] = map[string]any{column: v}
	}
	return &datasource.QueryResult{Columns: []string{column}, Rows: rows, RowCount: len(rows)}
}

type testEnv struct {
	schemaService *services.SchemaService
	store         *services.SelectionStore
	engine        *services.AssociativeEngine
	executor      *stubExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	schemaService := services.NewSchemaService(fakeDiscoverer{}, services.NewRelationshipDetector(nil), zap.NewNop())
	require.NoError(t, schemaService.Load(context.Background()))

	builder := services.NewQueryBuilder("", nil)
	engine := services.NewAssociativeEngine(builder, services.NewStateCalculator(builder, nil), nil)

	return &testEnv{
		schemaService: schemaService,
		store:         services.NewSelectionStore(),
		engine:        engine,
		executor:      newStubExecutor(),
	}
}
