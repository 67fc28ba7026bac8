package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/models"
	"github.com/skein-data/skein-engine/pkg/services"
)

// SchemaResponse for GET /api/schema
type SchemaResponse struct {
	Tables []models.TableSchema `json:"tables"`
	Total  int                  `json:"total"`
}

// RelationshipsResponse for GET /api/schema/relationships
type RelationshipsResponse struct {
	Relationships []models.Relationship `json:"relationships"`
	Total         int                   `json:"total"`
}

// SchemaHandler serves the schema snapshot and its inferred relationships.
type SchemaHandler struct {
	schemaService *services.SchemaService
	logger        *zap.Logger
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(schemaService *services.SchemaService, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
		logger:        logger,
	}
}

// RegisterRoutes registers the schema handler's routes on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema", h.Get)
	mux.HandleFunc("GET /api/schema/relationships", h.Relationships)
	mux.HandleFunc("POST /api/schema/reload", h.Reload)
}

// Get handles GET /api/schema
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	tables := h.schemaService.Tables()
	response := SchemaResponse{Tables: tables, Total: len(tables)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Relationships handles GET /api/schema/relationships
func (h *SchemaHandler) Relationships(w http.ResponseWriter, r *http.Request) {
	relationships := h.schemaService.Relationships()
	response := RelationshipsResponse{Relationships: relationships, Total: len(relationships)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reload handles POST /api/schema/reload
func (h *SchemaHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.schemaService.Load(r.Context()); err != nil {
		h.logger.Error("Failed to reload schema", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "schema_reload_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	tables := h.schemaService.Tables()
	response := SchemaResponse{Tables: tables, Total: len(tables)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
