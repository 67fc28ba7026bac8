package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
)

// fakeDiscoverer serves a fixed catalog.
type fakeDiscoverer struct {
	tables  []datasource.TableMetadata
	columns map[string][]datasource.ColumnMetadata
	err     error
}

func (f *fakeDiscoverer) DiscoverTables(_ context.Context) ([]datasource.TableMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tables, nil
}

func (f *fakeDiscoverer) DiscoverColumns(_ context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	return f.columns[schemaName+"."+tableName], nil
}

func (f *fakeDiscoverer) Close() error { return nil }

func TestSchemaService_Load(t *testing.T) {
	discoverer := &fakeDiscoverer{
		tables: []datasource.TableMetadata{
			{Schema: "main", Name: "customers", RowCount: 3},
			{Schema: "main", Name: "orders", RowCount: 10},
			{Schema: "analytics", Name: "events", RowCount: 5},
		},
		columns: map[string][]datasource.ColumnMetadata{
			"main.customers": {
				{Name: "id", DataType: "integer"},
				{Name: "name", DataType: "varchar", IsNullable: true},
			},
			"main.orders": {
				{Name: "id", DataType: "integer"},
				{Name: "customer_id", DataType: "integer"},
			},
			"analytics.events": {
				{Name: "id", DataType: "integer"},
			},
		},
	}

	svc := NewSchemaService(discoverer, NewRelationshipDetector(nil), nil)
	require.NoError(t, svc.Load(context.Background()))

	tables := svc.Tables()
	require.Len(t, tables, 3)

	// default schemas stay bare, others are qualified
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)
	assert.Equal(t, "analytics.events", tables[2].Name)

	assert.Equal(t, int64(10), tables[1].RowCount)
	require.Len(t, tables[0].Columns, 2)
	assert.True(t, tables[0].Columns[1].Nullable)

	rels := svc.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, "orders", rels[0].FromTable)
	assert.Equal(t, "customer_id", rels[0].FromColumn)
	assert.Equal(t, "customers", rels[0].ToTable)
}

func TestSchemaService_LoadKeepsSnapshotOnError(t *testing.T) {
	discoverer := &fakeDiscoverer{
		tables: []datasource.TableMetadata{{Schema: "main", Name: "orders"}},
		columns: map[string][]datasource.ColumnMetadata{
			"main.orders": {{Name: "id", DataType: "integer"}},
		},
	}
	svc := NewSchemaService(discoverer, NewRelationshipDetector(nil), nil)
	require.NoError(t, svc.Load(context.Background()))
	require.Len(t, svc.Tables(), 1)

	discoverer.err = errors.New("connection lost")
	require.Error(t, svc.Load(context.Background()))

	// the previous snapshot survives a failed reload
	assert.Len(t, svc.Tables(), 1)
}
