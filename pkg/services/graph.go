package services

import (
	"github.com/skein-data/skein-engine/pkg/models"
)

// Graph queries over a relationship list. Relationships are directed
// (FK -> id) but walked as undirected edges: a join can be taken in either
// direction.

// FindConnectedTables returns every table reachable from start through the
// relationship set, including start itself, via breadth-first traversal.
func FindConnectedTables(start string, relationships []models.Relationship) map[string]bool {
	reachable := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, rel := range relationships {
			next, ok := rel.Other(current)
			if !ok || reachable[next] {
				continue
			}
			reachable[next] = true
			queue = append(queue, next)
		}
	}
	return reachable
}

// pathStep records how BFS reached a table, for path reconstruction.
type pathStep struct {
	prev string
	edge models.Relationship
}

// FindPath returns the shortest relationship path (by edge count) between
// two tables: an empty non-nil slice when from == to, nil when no path
// exists. Among equal-length paths the first one discovered wins, so the
// order of the relationship list is the tie-break; callers that care pass a
// prioritized list (see prioritizeRelationships).
func FindPath(from, to string, relationships []models.Relationship) []models.Relationship {
	if from == to {
		return []models.Relationship{}
	}

	visited := map[string]bool{from: true}
	parents := map[string]pathStep{}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, rel := range relationships {
			next, ok := rel.Other(current)
			if !ok || visited[next] {
				continue
			}
			visited[next] = true
			parents[next] = pathStep{prev: current, edge: rel}

			if next == to {
				return reconstructPath(from, to, parents)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstructPath(from, to string, parents map[string]pathStep) []models.Relationship {
	var path []models.Relationship
	for current := to; current != from; {
		p := parents[current]
		path = append(path, p.edge)
		current = p.prev
	}
	// reverse into from -> to order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
