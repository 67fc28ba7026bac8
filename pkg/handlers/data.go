package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/apperrors"
	"github.com/skein-data/skein-engine/pkg/models"
	"github.com/skein-data/skein-engine/pkg/services"
)

// TableDataResponse for table data endpoints.
type TableDataResponse struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// CompositeTableRequest for POST /api/tables/composite
type CompositeTableRequest struct {
	Columns []models.ColumnSelection `json:"columns"`
	Limit   int                      `json:"limit,omitempty"`
}

// CompositeTableResponse for POST /api/tables/composite
type CompositeTableResponse struct {
	Columns  []string                          `json:"columns"`
	Rows     []map[string]any                  `json:"rows"`
	RowCount int                               `json:"row_count"`
	Mapping  map[string]models.ColumnSelection `json:"mapping"`
}

// FieldValuesResponse for GET field values.
type FieldValuesResponse struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Values []any  `json:"values"`
	Total  int    `json:"total"`
}

// DataHandler serves filtered table rows, composite projections and
// per-field value lists.
type DataHandler struct {
	engine        *services.AssociativeEngine
	schemaService *services.SchemaService
	store         *services.SelectionStore
	executor      datasource.QueryExecutor
	rowLimit      int
	logger        *zap.Logger
}

// NewDataHandler creates a new data handler.
func NewDataHandler(
	engine *services.AssociativeEngine,
	schemaService *services.SchemaService,
	store *services.SelectionStore,
	executor datasource.QueryExecutor,
	rowLimit int,
	logger *zap.Logger,
) *DataHandler {
	if rowLimit <= 0 {
		rowLimit = services.DefaultRowLimit
	}
	return &DataHandler{
		engine:        engine,
		schemaService: schemaService,
		store:         store,
		executor:      executor,
		rowLimit:      rowLimit,
		logger:        logger,
	}
}

// RegisterRoutes registers the data handler's routes on the given mux.
func (h *DataHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tables/{table}/data", h.TableData)
	mux.HandleFunc("GET /api/tables/{table}/columns/{column}/values", h.FieldValues)
	mux.HandleFunc("POST /api/tables/composite", h.CompositeData)
}

// TableData handles GET /api/tables/{table}/data
func (h *DataHandler) TableData(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if _, ok := models.FindTable(h.schemaService.Tables(), table); !ok {
		if err := ErrorResponse(w, http.StatusNotFound, "table_not_found", apperrors.ErrTableNotFound.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	limit := h.parseLimit(r)
	result, err := h.engine.GetFilteredTableData(r.Context(), table, h.store.Selections(), h.schemaService.Relationships(), h.executor, limit)
	if err != nil {
		h.logger.Error("Failed to get table data",
			zap.String("table", table),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "table_data_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := TableDataResponse{Columns: result.Columns, Rows: result.Rows, RowCount: result.RowCount}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// FieldValues handles GET /api/tables/{table}/columns/{column}/values
func (h *DataHandler) FieldValues(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	column := r.PathValue("column")

	schemaTable, ok := models.FindTable(h.schemaService.Tables(), table)
	if !ok {
		if err := ErrorResponse(w, http.StatusNotFound, "table_not_found", apperrors.ErrTableNotFound.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if !schemaTable.HasColumn(column) {
		if err := ErrorResponse(w, http.StatusNotFound, "column_not_found", apperrors.ErrColumnNotFound.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	values, err := h.engine.GetFieldValues(r.Context(), table, column, h.executor)
	if err != nil {
		h.logger.Error("Failed to get field values",
			zap.String("table", table),
			zap.String("column", column),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "field_values_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := FieldValuesResponse{Table: table, Column: column, Values: values, Total: len(values)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CompositeData handles POST /api/tables/composite
func (h *DataHandler) CompositeData(w http.ResponseWriter, r *http.Request) {
	var req CompositeTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.rowLimit
	}

	result, mapping, err := h.engine.GetCompositeTableData(r.Context(), req.Columns, h.store.Selections(), h.schemaService.Relationships(), h.executor, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoColumns) {
			if err := ErrorResponse(w, http.StatusBadRequest, "no_columns", apperrors.ErrNoColumns.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get composite data", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "composite_data_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := CompositeTableResponse{
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: result.RowCount,
		Mapping:  mapping,
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DataHandler) parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.rowLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return h.rowLimit
	}
	return limit
}
