package expand

import (
	"sort"

	"github.com/sourceplane/stackgen/internal/model"
)

// ServiceAnalyzer provides a per-service view of a configuration's effect
type ServiceAnalyzer struct {
	schema   *model.NormalizedSchema
	cfg      *model.UserConfiguration
	resolver *DependencyResolver
	reasons  map[string][]string
	merged   map[string]map[string]any
	result   model.Result
}

// ServiceSummary is the analyzed state of a single service
type ServiceSummary struct {
	ID              string
	Image           string
	Active          bool
	Reasons         []string
	Dependencies    []string
	Dependents      []string
	AllDependencies []string // transitive, sorted
	AllDependents   []string // transitive, sorted
	Config          map[string]any
	Secrets         []string
}

// NewServiceAnalyzer creates a new service analyzer
func NewServiceAnalyzer(schema *model.NormalizedSchema, cfg *model.UserConfiguration) *ServiceAnalyzer {
	return &ServiceAnalyzer{
		schema:   schema,
		cfg:      cfg,
		resolver: NewDependencyResolver(schema),
	}
}

// analyze merges the configuration and evaluates enablement once.
// Every call returns the issues found by the merge.
func (sa *ServiceAnalyzer) analyze() model.Result {
	if sa.merged != nil {
		return sa.result
	}

	merged, result := NewExpander(sa.schema).Merge(sa.cfg)
	sa.merged = merged
	sa.result = result
	sa.reasons = NewEvaluator(sa.schema).Explain(sa.cfg, merged)
	return result
}

// GetServiceByName returns the summary of a single service, nil if undeclared
func (sa *ServiceAnalyzer) GetServiceByName(serviceID string) (*ServiceSummary, model.Result) {
	result := sa.analyze()

	if _, exists := sa.schema.Services[serviceID]; !exists {
		return nil, result
	}
	return sa.summarize(serviceID), result
}

// ListAll lists every service in declaration order
func (sa *ServiceAnalyzer) ListAll() ([]*ServiceSummary, model.Result) {
	result := sa.analyze()

	summaries := make([]*ServiceSummary, 0, len(sa.schema.Order))
	for _, id := range sa.schema.Order {
		summaries = append(summaries, sa.summarize(id))
	}
	return summaries, result
}

func (sa *ServiceAnalyzer) summarize(serviceID string) *ServiceSummary {
	svc := sa.schema.Services[serviceID]
	deps := sa.resolver.GetDependencies(serviceID)
	sort.Strings(deps)

	return &ServiceSummary{
		ID:              serviceID,
		Image:           svc.Definition.ImageRef(),
		Active:          len(sa.reasons[serviceID]) > 0,
		Reasons:         sa.reasons[serviceID],
		Dependencies:    deps,
		Dependents:      sa.resolver.GetDependents(serviceID),
		AllDependencies: sortedSet(sa.resolver.GetTransitiveDependencies(serviceID)),
		AllDependents:   sortedSet(sa.resolver.GetTransitiveDependents(serviceID)),
		Config:          sa.merged[serviceID],
		Secrets:         NewEvaluator(sa.schema).SecretsFor(serviceID, sa.merged),
	}
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
