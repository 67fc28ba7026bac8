// Package datasource defines the capability boundary between the engine and
// whatever database actually runs the generated SQL. The engine never owns a
// connection; it receives a QueryExecutor per call and returns data only.
package datasource

import "context"

// QueryExecutor executes one SQL text and returns its rows. Implementations
// own their connection and must be closed when done. Timeouts and
// cancellation are the executor's responsibility, via ctx.
type QueryExecutor interface {
	// Execute runs a single SELECT statement and returns all rows.
	Execute(ctx context.Context, sqlText string) (*QueryResult, error)

	// Close releases the underlying connection.
	Close() error
}

// QueryResult holds the rows returned by one query execution. Rows map
// result column name to scalar value, in result order.
type QueryResult struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// SchemaDiscoverer introspects the datasource catalog. Used once per load
// by the schema service; the engine itself never calls it.
type SchemaDiscoverer interface {
	// DiscoverTables returns all user tables (system schemas excluded).
	DiscoverTables(ctx context.Context) ([]TableMetadata, error)

	// DiscoverColumns returns the columns of one table in ordinal order.
	DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]ColumnMetadata, error)

	// Close releases the underlying connection.
	Close() error
}

// TableMetadata describes a discovered table.
type TableMetadata struct {
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

// ColumnMetadata describes a discovered column.
type ColumnMetadata struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"is_nullable"`
}

// Datasource bundles execution and discovery over one connection.
type Datasource interface {
	QueryExecutor
	SchemaDiscoverer
}
