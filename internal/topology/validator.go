// Package topology checks graph-level and cross-reference invariants of a schema
// together with the configuration being resolved.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/planner"
)

type validator struct {
	schema *model.NormalizedSchema
	result model.Result
}

// Validate runs every topology check and collects all issues. The configuration
// is only used to scope the inactive-dependency warnings; it may be nil.
func Validate(schema *model.NormalizedSchema, cfg *model.UserConfiguration) model.Result {
	if schema == nil {
		var result model.Result
		result.Errorf(model.KindTopology, "", "schema cannot be nil")
		return result
	}

	v := &validator{schema: schema}
	v.checkRequires()
	v.checkCycle()
	v.checkPorts()
	v.checkNames()
	v.checkEnablement()
	v.checkFields()
	v.checkSecrets()
	v.checkHealthChecks()
	if cfg != nil {
		v.checkActiveScope(cfg)
	}

	return v.result
}

func (v *validator) checkRequires() {
	for _, id := range v.schema.Order {
		for i, dep := range v.schema.Services[id].Definition.Requires {
			if _, exists := v.schema.Services[dep]; !exists {
				v.result.Errorf(model.KindTopology, fmt.Sprintf("%s.requires[%d]", id, i), "requires unknown service %q", dep)
			}
		}
	}
}

func (v *validator) checkCycle() {
	cycle := planner.NewServiceGraph(v.schema).FindCycle()
	if cycle == nil {
		return
	}
	v.result.Errorf(model.KindTopology, cycle[0]+".requires", "dependency cycle: %s", strings.Join(cycle, " -> "))
}

func (v *validator) checkPorts() {
	byPort := make(map[int][]string)
	for _, id := range v.schema.Order {
		if port := v.schema.Services[id].Definition.PublishedPort; port != nil {
			byPort[*port] = append(byPort[*port], id)
		}
	}

	ports := make([]int, 0, len(byPort))
	for port := range byPort {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	for _, port := range ports {
		if ids := byPort[port]; len(ids) > 1 {
			v.result.Errorf(model.KindTopology, fmt.Sprintf("publishedPort[%d]", port),
				"published port %d is declared by services %s", port, strings.Join(ids, ", "))
		}
	}
}

func (v *validator) checkNames() {
	byName := make(map[string][]string)
	names := make([]string, 0)
	for _, id := range v.schema.Order {
		name := v.schema.Services[id].Definition.Name()
		if _, seen := byName[name]; !seen {
			names = append(names, name)
		}
		byName[name] = append(byName[name], id)
	}

	for _, name := range names {
		if ids := byName[name]; len(ids) > 1 {
			v.result.Errorf(model.KindTopology, "containerName["+name+"]",
				"container name %q is declared by services %s", name, strings.Join(ids, ", "))
		}
	}
}

func (v *validator) checkEnablement() {
	for _, id := range v.schema.Order {
		for i, cond := range v.schema.Services[id].EnabledBy {
			v.checkCondition(fmt.Sprintf("%s.enabledBy[%d]", id, i), cond)
		}
	}
}

// checkCondition verifies that the referenced field exists and that the literal
// can ever match an enum field
func (v *validator) checkCondition(path string, cond model.Condition) {
	target := cond.Target()
	if !v.checkFieldRef(path, target) {
		return
	}

	field := v.schema.Fields[target]
	if field.Type == model.TypeEnum && !enumContains(field.Enum, cond.Operand()) {
		v.result.Warnf(model.KindTopology, path, "%s is not a value of %s", model.FormatLiteral(cond.Operand()), target)
	}
}

// checkFieldRef reports a dangling field reference and returns whether the target exists
func (v *validator) checkFieldRef(path string, target model.FieldKey) bool {
	if _, exists := v.schema.Services[target.Service]; !exists {
		v.result.Errorf(model.KindTopology, path, "references unknown service %q", target.Service)
		return false
	}
	if _, exists := v.schema.Fields[target]; !exists {
		v.result.Errorf(model.KindTopology, path, "references unknown field %s", target)
		return false
	}
	return true
}

func (v *validator) checkHealthChecks() {
	for _, id := range v.schema.Order {
		def := v.schema.Services[id].Definition
		if def.HealthCheck != nil {
			continue
		}
		if def.Enabled || len(def.EnabledBy) > 0 {
			v.result.Warnf(model.KindTopology, id, "service has no health check")
		}
	}
}

// checkActiveScope warns about active services requiring inactive ones
func (v *validator) checkActiveScope(cfg *model.UserConfiguration) {
	merged, _ := expand.NewExpander(v.schema).Merge(cfg)
	active := expand.NewEvaluator(v.schema).ActiveServices(cfg, merged)

	missing := expand.NewDependencyResolver(v.schema).InactiveDependencies(active)
	for _, id := range v.schema.Order {
		for _, dep := range missing[id] {
			v.result.Warnf(model.KindTopology, id+".requires", "active service requires inactive service %q, the dependency is dropped from ordering", dep)
		}
	}
}

func enumContains(values []any, v any) bool {
	for _, candidate := range values {
		if model.LiteralEqual(candidate, v) {
			return true
		}
	}
	return false
}
