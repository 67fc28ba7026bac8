package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skein-data/skein-engine/pkg/models"
)

func chainRelationships() []models.Relationship {
	return []models.Relationship{
		models.NewRelationship("Orders", "CustomerID", "Customers", "ID", models.ConfidenceHigh),
		models.NewRelationship("OrderItems", "OrderID", "Orders", "ID", models.ConfidenceHigh),
		models.NewRelationship("OrderItems", "ProductID", "Products", "ID", models.ConfidenceHigh),
	}
}

func TestFindConnectedTables(t *testing.T) {
	reachable := FindConnectedTables("Customers", chainRelationships())

	assert.True(t, reachable["Customers"], "start table is always reachable")
	assert.True(t, reachable["Orders"])
	assert.True(t, reachable["OrderItems"])
	assert.True(t, reachable["Products"])
	assert.False(t, reachable["Suppliers"])
}

func TestFindConnectedTables_IsolatedTable(t *testing.T) {
	reachable := FindConnectedTables("Suppliers", chainRelationships())
	assert.Equal(t, map[string]bool{"Suppliers": true}, reachable)
}

func TestFindPath_SameTable(t *testing.T) {
	path := FindPath("Orders", "Orders", chainRelationships())
	require.NotNil(t, path, "same-table path must be empty, not absent")
	assert.Empty(t, path)
}

func TestFindPath_NoPath(t *testing.T) {
	assert.Nil(t, FindPath("Orders", "Suppliers", chainRelationships()))
}

func TestFindPath_DirectEdge(t *testing.T) {
	path := FindPath("Orders", "Customers", chainRelationships())
	require.Len(t, path, 1)
	assert.True(t, path[0].Touches("Orders"))
	assert.True(t, path[0].Touches("Customers"))
}

func TestFindPath_MultiHop(t *testing.T) {
	// Customers -> Orders -> OrderItems -> Products
	path := FindPath("Customers", "Products", chainRelationships())
	require.Len(t, path, 3)

	// edges must chain: each step's far end is the next step's near end
	current := "Customers"
	for _, edge := range path {
		next, ok := edge.Other(current)
		require.True(t, ok, "edge %s does not touch %s", edge.ID, current)
		current = next
	}
	assert.Equal(t, "Products", current)
}

func TestFindPath_PrefersShorterPath(t *testing.T) {
	// a direct shortcut alongside the three-hop chain
	rels := append(chainRelationships(),
		models.NewRelationship("Customers", "FavoriteProductID", "Products", "ID", models.ConfidenceMedium))

	path := FindPath("Customers", "Products", rels)
	require.Len(t, path, 1)
}
