package planner

import (
	"fmt"

	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/model"
)

// Planner turns a validated configuration into a resolved topology
type Planner struct {
	schema    *model.NormalizedSchema
	expander  *expand.Expander
	evaluator *expand.Evaluator
	graph     *ServiceGraph
}

// NewPlanner creates a new planner for a normalized schema
func NewPlanner(schema *model.NormalizedSchema) *Planner {
	return &Planner{
		schema:    schema,
		expander:  expand.NewExpander(schema),
		evaluator: expand.NewEvaluator(schema),
		graph:     NewServiceGraph(schema),
	}
}

// Plan merges configuration, evaluates enablement and orders the active services.
// The configuration must already have passed structural and topology validation,
// so any failure here is an internal error.
func (p *Planner) Plan(cfg *model.UserConfiguration) (*model.ResolvedTopology, error) {
	merged, result := p.expander.Merge(cfg)
	if !result.OK() {
		return nil, fmt.Errorf("%w: merge of validated configuration failed: %s", model.ErrInternal, result.Errors()[0])
	}

	active := p.evaluator.ActiveServices(cfg, merged)

	order, err := p.graph.Order(active)
	if err != nil {
		return nil, fmt.Errorf("failed to order services: %w", err)
	}

	// Only active services carry configuration into rendering
	config := make(map[string]map[string]any, len(order))
	for _, id := range order {
		config[id] = merged[id]
	}

	return &model.ResolvedTopology{
		Schema: p.schema,
		Active: active,
		Order:  order,
		Config: config,
	}, nil
}
