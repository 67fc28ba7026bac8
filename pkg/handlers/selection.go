package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/skein-data/skein-engine/pkg/adapters/datasource"
	"github.com/skein-data/skein-engine/pkg/apperrors"
	"github.com/skein-data/skein-engine/pkg/models"
	"github.com/skein-data/skein-engine/pkg/services"
	enginesql "github.com/skein-data/skein-engine/pkg/sql"
)

// ReplaceSelectionRequest for PUT /api/selections/{table}/{column}
type ReplaceSelectionRequest struct {
	Values []any `json:"values"`
}

// ToggleSelectionRequest for POST /api/selections/{table}/{column}/toggle
type ToggleSelectionRequest struct {
	Value any `json:"value"`
}

// PropagateRequest for POST /api/selections/propagate
type PropagateRequest struct {
	TargetFields []models.ColumnSelection `json:"target_fields,omitempty"`
}

// SelectionsResponse for GET /api/selections
type SelectionsResponse struct {
	Selections []*models.FieldSelection `json:"selections"`
	Sequence   uint64                   `json:"sequence"`
}

// PropagateResponse for POST /api/selections/propagate
type PropagateResponse struct {
	FieldStates []*models.FieldState `json:"field_states"`
	Sequence    uint64               `json:"sequence"`
}

// SelectionHandler owns the selection lifecycle: replace, toggle, clear,
// propagate and stats. Values arriving from the client are screened for SQL
// injection fingerprints before they can reach a compiled query.
type SelectionHandler struct {
	engine        *services.AssociativeEngine
	schemaService *services.SchemaService
	store         *services.SelectionStore
	executor      datasource.QueryExecutor
	logger        *zap.Logger
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(
	engine *services.AssociativeEngine,
	schemaService *services.SchemaService,
	store *services.SelectionStore,
	executor datasource.QueryExecutor,
	logger *zap.Logger,
) *SelectionHandler {
	return &SelectionHandler{
		engine:        engine,
		schemaService: schemaService,
		store:         store,
		executor:      executor,
		logger:        logger,
	}
}

// RegisterRoutes registers the selection handler's routes on the given mux.
func (h *SelectionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/selections", h.List)
	mux.HandleFunc("DELETE /api/selections", h.ClearAll)
	mux.HandleFunc("PUT /api/selections/{table}/{column}", h.Replace)
	mux.HandleFunc("DELETE /api/selections/{table}/{column}", h.ClearField)
	mux.HandleFunc("POST /api/selections/{table}/{column}/toggle", h.Toggle)
	mux.HandleFunc("POST /api/selections/propagate", h.Propagate)
	mux.HandleFunc("GET /api/selections/stats", h.Stats)
}

// List handles GET /api/selections
func (h *SelectionHandler) List(w http.ResponseWriter, r *http.Request) {
	response := SelectionsResponse{
		Selections: h.store.Selections(),
		Sequence:   h.store.Sequence(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Replace handles PUT /api/selections/{table}/{column}
func (h *SelectionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	table, column, ok := h.resolveField(w, r)
	if !ok {
		return
	}

	var req ReplaceSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if !h.screenValues(w, table, column, req.Values) {
		return
	}

	h.store.Replace(table, column, req.Values...)
	h.writeSelections(w)
}

// Toggle handles POST /api/selections/{table}/{column}/toggle
func (h *SelectionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	table, column, ok := h.resolveField(w, r)
	if !ok {
		return
	}

	var req ToggleSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if !h.screenValues(w, table, column, []any{req.Value}) {
		return
	}

	h.store.Toggle(table, column, req.Value)
	h.writeSelections(w)
}

// ClearField handles DELETE /api/selections/{table}/{column}
func (h *SelectionHandler) ClearField(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	column := r.PathValue("column")
	h.store.ClearField(table, column)
	h.writeSelections(w)
}

// ClearAll handles DELETE /api/selections
func (h *SelectionHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAll()
	h.writeSelections(w)
}

// Propagate handles POST /api/selections/propagate
//
// The sequence number is captured before state computation starts; if any
// selection mutation lands while queries are in flight the result no longer
// describes the current selection set and is discarded with a 409.
func (h *SelectionHandler) Propagate(w http.ResponseWriter, r *http.Request) {
	var req PropagateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	seq := h.store.Sequence()
	states := h.engine.PropagateSelection(
		r.Context(),
		h.schemaService.Tables(),
		h.store.Selections(),
		h.schemaService.Relationships(),
		h.executor,
		req.TargetFields,
	)

	if !h.store.IsCurrent(seq) {
		if err := ErrorResponse(w, http.StatusConflict, "stale_propagation", apperrors.ErrStalePropagation.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := PropagateResponse{FieldStates: states, Sequence: seq}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Stats handles GET /api/selections/stats
func (h *SelectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.GetSelectionStats(
		r.Context(),
		h.schemaService.Tables(),
		h.store.Selections(),
		h.schemaService.Relationships(),
		h.executor,
	)
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// resolveField validates the {table}/{column} path against the schema.
func (h *SelectionHandler) resolveField(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	table := r.PathValue("table")
	column := r.PathValue("column")

	schemaTable, ok := models.FindTable(h.schemaService.Tables(), table)
	if !ok {
		if err := ErrorResponse(w, http.StatusNotFound, "table_not_found", apperrors.ErrTableNotFound.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", "", false
	}
	if !schemaTable.HasColumn(column) {
		if err := ErrorResponse(w, http.StatusNotFound, "column_not_found", apperrors.ErrColumnNotFound.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", "", false
	}
	return table, column, true
}

// screenValues rejects the request when any value matches a SQL injection
// fingerprint. Returns true when the batch is clean.
func (h *SelectionHandler) screenValues(w http.ResponseWriter, table, column string, values []any) bool {
	field := table + "." + column
	flagged := enginesql.CheckValuesForInjection(field, values)
	if len(flagged) == 0 {
		return true
	}

	h.logger.Warn("Rejected selection values with SQL injection fingerprints",
		zap.String("field", field),
		zap.Int("flagged", len(flagged)),
		zap.String("fingerprint", flagged[0].Fingerprint))
	message := fmt.Sprintf("value for %s matched SQL injection fingerprint %s", field, flagged[0].Fingerprint)
	if err := ErrorResponse(w, http.StatusBadRequest, "injection_detected", message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
	return false
}

func (h *SelectionHandler) writeSelections(w http.ResponseWriter) {
	response := SelectionsResponse{
		Selections: h.store.Selections(),
		Sequence:   h.store.Sequence(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
