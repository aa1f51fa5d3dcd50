package expand

import (
	"sort"

	"github.com/sourceplane/stackgen/internal/model"
)

// DependencyResolver answers dependency questions over the requires graph
type DependencyResolver struct {
	schema *model.NormalizedSchema
}

// NewDependencyResolver creates a new dependency resolver
func NewDependencyResolver(schema *model.NormalizedSchema) *DependencyResolver {
	return &DependencyResolver{schema: schema}
}

// GetDependencies returns all direct dependencies of a service
func (dr *DependencyResolver) GetDependencies(serviceID string) []string {
	svc, exists := dr.schema.Services[serviceID]
	if !exists {
		return []string{}
	}
	return append([]string{}, svc.Definition.Requires...)
}

// GetDependents returns all services that directly require the given service,
// in declaration order
func (dr *DependencyResolver) GetDependents(serviceID string) []string {
	dependents := make([]string, 0)

	for _, id := range dr.schema.Order {
		if contains(dr.schema.Services[id].Definition.Requires, serviceID) {
			dependents = append(dependents, id)
		}
	}

	return dependents
}

// GetTransitiveDependencies returns all transitive dependencies of a service
func (dr *DependencyResolver) GetTransitiveDependencies(serviceID string) map[string]bool {
	return dr.traverse(serviceID, dr.GetDependencies)
}

// GetTransitiveDependents returns all services that transitively require the given service
func (dr *DependencyResolver) GetTransitiveDependents(serviceID string) map[string]bool {
	return dr.traverse(serviceID, dr.GetDependents)
}

func (dr *DependencyResolver) traverse(start string, next func(string) []string) map[string]bool {
	result := make(map[string]bool)
	visited := make(map[string]bool)

	var walk func(string)
	walk = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		for _, dep := range next(name) {
			result[dep] = true
			walk(dep)
		}
	}

	walk(start)
	return result
}

// InactiveDependencies returns, for every active service, the declared
// dependencies that exist but are not active
func (dr *DependencyResolver) InactiveDependencies(active map[string]bool) map[string][]string {
	missing := make(map[string][]string)

	for _, id := range dr.schema.Order {
		if !active[id] {
			continue
		}
		for _, dep := range dr.schema.Services[id].Definition.Requires {
			if _, exists := dr.schema.Services[dep]; exists && !active[dep] {
				missing[id] = append(missing[id], dep)
			}
		}
	}

	for id := range missing {
		sort.Strings(missing[id])
	}
	return missing
}
