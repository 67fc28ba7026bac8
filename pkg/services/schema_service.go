package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/models"
)

// defaultSchemas render without a qualifier; tables anywhere else carry
// "schema.table" names so identical table names in different schemas stay
// distinct.
var defaultSchemas = map[string]bool{
	"":       true,
	"main":   true, // duckdb default
	"public": true, // postgres default
}

// SchemaService owns the current schema snapshot and its inferred
// relationship graph. The snapshot is replaced wholesale on every load;
// consumers receive it by reference and must not mutate it.
type SchemaService struct {
	discoverer datasource.SchemaDiscoverer
	detector   *RelationshipDetector
	logger     *zap.Logger

	mu            sync.RWMutex
	tables        []models.TableSchema
	relationships []models.Relationship
}

// NewSchemaService creates a SchemaService.
func NewSchemaService(discoverer datasource.SchemaDiscoverer, detector *RelationshipDetector, logger *zap.Logger) *SchemaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaService{
		discoverer: discoverer,
		detector:   detector,
		logger:     logger.Named("schema-service"),
	}
}

// Load introspects the datasource catalog, rebuilds the snapshot and
// re-runs relationship detection.
func (s *SchemaService) Load(ctx context.Context) error {
	discovered, err := s.discoverer.DiscoverTables(ctx)
	if err != nil {
		return fmt.Errorf("discover tables: %w", err)
	}

	tables := make([]models.TableSchema, 0, len(discovered))
	for _, t := range discovered {
		columns, err := s.discoverer.DiscoverColumns(ctx, t.Schema, t.Name)
		if err != nil {
			return fmt.Errorf("discover columns for %s.%s: %w", t.Schema, t.Name, err)
		}

		name := t.Name
		if !defaultSchemas[t.Schema] {
			name = t.Schema + "." + t.Name
		}

		cols := make([]models.ColumnInfo, len(columns))
		for i, c := range columns {
			cols[i] = models.ColumnInfo{Name: c.Name, Type: c.DataType, Nullable: c.IsNullable}
		}
		tables = append(tables, models.TableSchema{Name: name, Columns: cols, RowCount: t.RowCount})
	}

	relationships := s.detector.DetectRelationships(tables)

	s.mu.Lock()
	s.tables = tables
	s.relationships = relationships
	s.mu.Unlock()

	s.logger.Info("Schema loaded",
		zap.Int("tables", len(tables)),
		zap.Int("relationships", len(relationships)))
	return nil
}

// Tables returns the current schema snapshot.
func (s *SchemaService) Tables() []models.TableSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// Relationships returns the current inferred relationship graph.
func (s *SchemaService) Relationships() []models.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relationships
}
