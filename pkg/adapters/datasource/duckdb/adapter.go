// Package duckdb adapts an embedded DuckDB database to the datasource
// capability surface. DuckDB is the engine's default backing store: the
// whole analytical workload runs in-process against a single file (or in
// memory), which matches the interactive, single-user usage pattern.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	sqlutil "github.com/skein-data/skein-engine/pkg/sql"
)

// Adapter executes queries and discovers schema over one DuckDB handle.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) a DuckDB database at path. An empty path opens an
// in-memory database.
func Open(path string, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	return &Adapter{db: db, logger: logger.Named("duckdb")}, nil
}

// Execute runs a single SELECT statement and collects all rows.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*datasource.QueryResult, error) {
	sqlText, err := sqlutil.ValidateSingleStatement(sqlText)
	if err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// DiscoverTables lists user tables with their row counts. System schemas
// are excluded.
func (a *Adapter) DiscoverTables(ctx context.Context) ([]datasource.TableMetadata, error) {
	const query = `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_schema, table_name`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableMetadata
	for rows.Next() {
		var t datasource.TableMetadata
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	for i := range tables {
		count, err := a.countRows(ctx, tables[i].Schema, tables[i].Name)
		if err != nil {
			a.logger.Warn("Failed to count table rows",
				zap.String("table", tables[i].Schema+"."+tables[i].Name),
				zap.Error(err))
			continue
		}
		tables[i].RowCount = count
	}

	return tables, nil
}

// DiscoverColumns returns the columns of one table in ordinal order.
func (a *Adapter) DiscoverColumns(ctx context.Context, schemaName, tableName string) ([]datasource.ColumnMetadata, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := a.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, datasource.ColumnMetadata{
			Name:       name,
			DataType:   dataType,
			IsNullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// Close releases the database handle.
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) countRows(ctx context.Context, schemaName, tableName string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q.%q`, schemaName, tableName)
	var count int64
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// collectRows drains a result set into column-name keyed maps.
func collectRows(rows *sql.Rows) (*datasource.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
				continue
			}
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &datasource.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

var _ datasource.Datasource = (*Adapter)(nil)
