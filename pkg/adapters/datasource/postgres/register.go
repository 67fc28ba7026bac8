package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.TypePostgres, func(ctx context.Context, target string, logger *zap.Logger) (datasource.Datasource, error) {
		return Connect(ctx, target, logger)
	})
}
