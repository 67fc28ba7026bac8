package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSchemaMux(env *testEnv) *http.ServeMux {
	handler := NewSchemaHandler(env.schemaService, zap.NewNop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func TestSchemaGet(t *testing.T) {
	env := newTestEnv(t)
	mux := newSchemaMux(env)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Success bool           `json:"success"`
		Data    SchemaResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.Equal(t, 2, response.Data.Total)
	assert.Equal(t, "Customers", response.Data.Tables[0].Name)
	assert.Equal(t, "Orders", response.Data.Tables[1].Name)
}

func TestSchemaRelationships(t *testing.T) {
	env := newTestEnv(t)
	mux := newSchemaMux(env)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema/relationships", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data RelationshipsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, 1, response.Data.Total)
	rel := response.Data.Relationships[0]
	assert.Equal(t, "Orders", rel.FromTable)
	assert.Equal(t, "CustomerID", rel.FromColumn)
	assert.Equal(t, "Customers", rel.ToTable)
	assert.Equal(t, "ID", rel.ToColumn)
}

func TestSchemaReload(t *testing.T) {
	env := newTestEnv(t)
	mux := newSchemaMux(env)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schema/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data SchemaResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Data.Total)
}
