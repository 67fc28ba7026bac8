package duckdb

import (
	"context"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.TypeDuckDB, func(_ context.Context, target string, logger *zap.Logger) (datasource.Datasource, error) {
		return Open(target, logger)
	})
}
