package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	_ "github.com/skein-data/skein-engine/pkg/adapters/datasource/duckdb"
	_ "github.com/skein-data/skein-engine/pkg/adapters/datasource/postgres"
	"github.com/skein-data/skein-engine/pkg/config"
	"github.com/skein-data/skein-engine/pkg/handlers"
	"github.com/skein-data/skein-engine/pkg/logging"
	"github.com/skein-data/skein-engine/pkg/middleware"
	"github.com/skein-data/skein-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("datasource_type", cfg.Datasource.Type),
		zap.Int("row_limit", cfg.Query.RowLimit),
		zap.Int("value_limit", cfg.Query.ValueLimit))

	ctx := context.Background()

	target := cfg.Datasource.Path
	if cfg.Datasource.Type == datasource.TypePostgres {
		target = cfg.Datasource.ConnString
	}
	ds, err := datasource.Open(ctx, cfg.Datasource.Type, target, logger)
	if err != nil {
		logger.Fatal("Failed to open datasource", zap.Error(err))
	}
	defer func() { _ = ds.Close() }()

	detector := services.NewRelationshipDetector(logger)
	schemaService := services.NewSchemaService(ds, detector, logger)
	if err := schemaService.Load(ctx); err != nil {
		logger.Fatal("Failed to load schema", zap.Error(err))
	}

	builder := services.NewQueryBuilder(cfg.Datasource.Catalog, logger,
		services.WithValueLimit(cfg.Query.ValueLimit))
	states := services.NewStateCalculator(builder, logger,
		services.WithStateWorkers(cfg.Query.StateWorkers))
	engine := services.NewAssociativeEngine(builder, states, logger)
	store := services.NewSelectionStore()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	schemaHandler := handlers.NewSchemaHandler(schemaService, logger)
	schemaHandler.RegisterRoutes(mux)

	dataHandler := handlers.NewDataHandler(engine, schemaService, store, ds, cfg.Query.RowLimit, logger)
	dataHandler.RegisterRoutes(mux)

	selectionHandler := handlers.NewSelectionHandler(engine, schemaService, store, ds, logger)
	selectionHandler.RegisterRoutes(mux)

	handler := middleware.RequestID()(middleware.RequestLogger(logger)(mux))

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting skein-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version),
		zap.String("session_id", store.ID().String()))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
