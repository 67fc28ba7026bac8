package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/apperrors"
)

// Datasource type identifiers accepted by the factory.
const (
	TypeDuckDB   = "duckdb"
	TypePostgres = "postgres"
)

// OpenFunc constructs a Datasource for one adapter type. Adapters register
// themselves at init time; the indirection keeps this package free of
// driver imports.
type OpenFunc func(ctx context.Context, target string, logger *zap.Logger) (Datasource, error)

var adapters = map[string]OpenFunc{}

// Register installs an adapter constructor under a type identifier.
// Called from adapter package init functions.
func Register(dsType string, open OpenFunc) {
	adapters[dsType] = open
}

// Open constructs the adapter for the given datasource type. The target is
// a file path for embedded adapters and a connection URL for server ones.
func Open(ctx context.Context, dsType, target string, logger *zap.Logger) (Datasource, error) {
	open, ok := adapters[dsType]
	if !ok {
		return nil, fmt.Errorf("datasource type %q: %w", dsType, apperrors.ErrUnsupportedDatasource)
	}
	ds, err := open(ctx, target, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s datasource: %w", dsType, err)
	}
	return ds, nil
}
