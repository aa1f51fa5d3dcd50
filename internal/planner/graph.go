package planner

import (
	"fmt"
	"sort"

	"github.com/sourceplane/stackgen/internal/model"
)

// ServiceGraph represents the requires graph of a schema with cycle detection and topological sorting
type ServiceGraph struct {
	schema *model.NormalizedSchema
}

// NewServiceGraph creates a new service graph from a normalized schema
func NewServiceGraph(schema *model.NormalizedSchema) *ServiceGraph {
	return &ServiceGraph{
		schema: schema,
	}
}

// FindCycle performs a depth-first search over the requires graph, roots and edges
// taken in declaration order. The first back-edge found is returned as the path from
// the root to the repeated service, e.g. [A B C A]. Nil means the graph is acyclic.
func (g *ServiceGraph) FindCycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, id := range g.schema.Order {
		if visited[id] {
			continue
		}
		if cycle := g.findCycleDFS(id, nil, visited, onStack); cycle != nil {
			return cycle
		}
	}

	return nil
}

// findCycleDFS performs DFS cycle detection from a given node
func (g *ServiceGraph) findCycleDFS(node string, stack []string, visited, onStack map[string]bool) []string {
	visited[node] = true
	onStack[node] = true
	stack = append(stack, node)

	for _, dep := range g.schema.Services[node].Definition.Requires {
		// dangling edges are reported by the topology validator
		if _, exists := g.schema.Services[dep]; !exists {
			continue
		}
		if onStack[dep] {
			return append(append([]string{}, stack...), dep)
		}
		if !visited[dep] {
			if cycle := g.findCycleDFS(dep, stack, visited, onStack); cycle != nil {
				return cycle
			}
		}
	}

	onStack[node] = false
	return nil
}

// Order performs a topological sort of the active services using Kahn's algorithm.
// Edges to inactive services are dropped and ties are broken by declaration order.
// Returns service IDs with dependencies before dependents.
func (g *ServiceGraph) Order(active map[string]bool) ([]string, error) {
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)

	nodes := make([]string, 0, len(active))
	for _, id := range g.schema.Order {
		if active[id] {
			nodes = append(nodes, id)
			inDegree[id] = 0
		}
	}

	// Build graph by counting incoming edges within the active subgraph
	for _, id := range nodes {
		for _, dep := range g.schema.Services[id].Definition.Requires {
			if _, ok := inDegree[dep]; !ok {
				continue
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	ready := make([]string, 0)
	for _, id := range nodes {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		sorted = append(sorted, current)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.SliceStable(ready, func(i, j int) bool {
			return g.schema.Services[ready[i]].Index < g.schema.Services[ready[j]].Index
		})
	}

	if len(sorted) != len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d active services left unordered by residual dependencies",
			model.ErrInternal, len(nodes)-len(sorted), len(nodes))
	}

	return sorted, nil
}
