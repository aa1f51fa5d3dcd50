// Package resolve chains every stage from schema normalization to rendering.
// Each stage is a gate: a failing stage stops the run before any artifact is produced.
package resolve

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/normalize"
	"github.com/sourceplane/stackgen/internal/planner"
	"github.com/sourceplane/stackgen/internal/render"
	"github.com/sourceplane/stackgen/internal/schema"
	"github.com/sourceplane/stackgen/internal/topology"
)

// Stage names reported in validation errors
const (
	StageSchema        = "schema"
	StageConfiguration = "configuration"
	StageTopology      = "topology"
)

// Options configures a resolver
type Options struct {
	Logger zerolog.Logger
	// Evaluator renders artifacts, the engine evaluator when nil
	Evaluator   render.Evaluator
	Parallelism int
}

// Outcome is the result of a successful resolution
type Outcome struct {
	Topology *model.ResolvedTopology
	Manifest *model.Manifest
	Warnings []model.Issue
}

// Resolver runs the resolution pipeline
type Resolver struct {
	opts       Options
	structural *schema.Validator
}

// NewResolver creates a new resolver
func NewResolver(opts Options) *Resolver {
	if opts.Evaluator == nil {
		opts.Evaluator = render.NewEngineEvaluator()
	}
	return &Resolver{
		opts:       opts,
		structural: schema.NewValidator(),
	}
}

// Validate runs schema normalization, structural and topology validation and
// returns every issue found. Topology validation only runs on a structurally valid configuration.
func (r *Resolver) Validate(s *model.Schema, cfg *model.UserConfiguration) model.Result {
	_, result, _ := r.validate(s, cfg)
	return result
}

func (r *Resolver) validate(s *model.Schema, cfg *model.UserConfiguration) (*model.NormalizedSchema, model.Result, string) {
	var all model.Result
	cfg = orEmpty(cfg)

	ns, result := normalize.NormalizeSchema(s)
	all.Merge(result)
	if !result.OK() {
		return nil, all, StageSchema
	}
	r.opts.Logger.Debug().Int("services", len(ns.Order)).Str("version", ns.Version).Msg("Schema normalized")

	result = r.structural.Validate(ns, cfg)
	result.Sort()
	all.Merge(result)
	if !result.OK() {
		return ns, all, StageConfiguration
	}

	result = topology.Validate(ns, cfg)
	all.Merge(result)
	if !result.OK() {
		return ns, all, StageTopology
	}

	return ns, all, ""
}

// Resolve validates the configuration, computes the active services and their
// startup order, and renders the manifest. Validation failures are returned as
// *model.ValidationError, rendering failures as *model.RenderError.
func (r *Resolver) Resolve(s *model.Schema, cfg *model.UserConfiguration) (*Outcome, error) {
	cfg = orEmpty(cfg)
	ns, result, failed := r.validate(s, cfg)
	for _, warning := range result.Warnings() {
		r.opts.Logger.Warn().Str("kind", string(warning.Kind)).Str("path", warning.Path).Msg(warning.Message)
	}
	if failed != "" {
		return nil, &model.ValidationError{Stage: failed, Issues: result.Errors()}
	}

	resolved, err := planner.NewPlanner(ns).Plan(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to plan services: %w", err)
	}
	r.opts.Logger.Debug().
		Int("services", len(ns.Order)).
		Int("active", len(resolved.Order)).
		Strs("order", resolved.Order).
		Msg("Services resolved")

	renderer := render.NewRenderer(r.opts.Evaluator, render.Options{
		Parallelism: r.opts.Parallelism,
		Logger:      r.opts.Logger,
	})
	manifest, err := renderer.Render(resolved)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Topology: resolved,
		Manifest: manifest,
		Warnings: result.Warnings(),
	}, nil
}

func orEmpty(cfg *model.UserConfiguration) *model.UserConfiguration {
	if cfg == nil {
		return &model.UserConfiguration{Services: map[string]map[string]any{}}
	}
	return cfg
}
