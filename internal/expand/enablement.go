package expand

import (
	"fmt"
	"sort"

	"github.com/sourceplane/stackgen/internal/model"
)

// Evaluator decides which services are active for a configuration
type Evaluator struct {
	schema *model.NormalizedSchema
}

// NewEvaluator creates a new enablement evaluator
func NewEvaluator(schema *model.NormalizedSchema) *Evaluator {
	return &Evaluator{schema: schema}
}

// ActiveServices returns the active set. A service is active when it is
// unconditionally enabled, explicitly installed, at least one of its enabledBy
// conditions holds, or a visible field of an active service selects it through
// affectsServices.
func (ev *Evaluator) ActiveServices(cfg *model.UserConfiguration, merged map[string]map[string]any) map[string]bool {
	active := make(map[string]bool)
	for id, reasons := range ev.Explain(cfg, merged) {
		if len(reasons) > 0 {
			active[id] = true
		}
	}
	return active
}

// Explain returns, per service, every reason it is active
func (ev *Evaluator) Explain(cfg *model.UserConfiguration, merged map[string]map[string]any) map[string][]string {
	reasons := make(map[string][]string, len(ev.schema.Order))

	for _, id := range ev.schema.Order {
		svc := ev.schema.Services[id]
		reasons[id] = nil

		if svc.Definition.Enabled {
			reasons[id] = append(reasons[id], "enabled")
		}
		if cfg.IsInstalled(id) {
			reasons[id] = append(reasons[id], "installed")
		}
		for _, cond := range svc.EnabledBy {
			if cond.Evaluate(Lookup(merged, cond.Target())) {
				reasons[id] = append(reasons[id], "enabledBy "+cond.String())
			}
		}
	}

	// affectsServices selections of visible fields on active services. A selected
	// service may own selecting fields itself, so repeat until nothing changes.
	applied := make(map[model.FieldKey]bool)
	for changed := true; changed; {
		changed = false
		for _, id := range ev.schema.Order {
			if len(reasons[id]) == 0 {
				continue
			}
			svc := ev.schema.Services[id]
			for _, name := range svc.FieldOrder {
				field := svc.Fields[name]
				if applied[field.Key] {
					continue
				}
				target, value, ok := ev.selection(field, merged)
				if !ok {
					continue
				}
				applied[field.Key] = true
				reasons[target] = append(reasons[target], fmt.Sprintf("selected by %s = %v", field.Key, value))
				changed = true
			}
		}
	}

	return reasons
}

// selection returns the service a visible field's current value selects
func (ev *Evaluator) selection(field *model.NormalizedField, merged map[string]map[string]any) (string, any, bool) {
	if len(field.Definition.AffectsServices) == 0 || !IsVisible(field, merged) {
		return "", nil, false
	}

	value := Lookup(merged, field.Key)
	if value == nil {
		return "", nil, false
	}
	target := field.Definition.AffectsServices[fmt.Sprint(value)]
	if target == nil {
		return "", nil, false
	}
	if _, exists := ev.schema.Services[*target]; !exists {
		return "", nil, false
	}
	return *target, value, true
}

// SecretsFor returns the secret names a service references: secrets declaring
// it as a consumer whose condition holds, plus secretRefs of its visible fields.
func (ev *Evaluator) SecretsFor(serviceID string, merged map[string]map[string]any) []string {
	names := make(map[string]bool)

	for _, name := range ev.schema.SecretOrder {
		secret := ev.schema.Secrets[name]
		if !contains(secret.Secret.RequiredBy, serviceID) {
			continue
		}
		if secret.Condition != nil && !secret.Condition.Evaluate(Lookup(merged, secret.Condition.Target())) {
			continue
		}
		names[name] = true
	}

	if svc, ok := ev.schema.Services[serviceID]; ok {
		for _, fieldName := range svc.FieldOrder {
			field := svc.Fields[fieldName]
			if field.Definition.SecretRef == "" || !IsVisible(field, merged) {
				continue
			}
			if _, declared := ev.schema.Secrets[field.Definition.SecretRef]; declared {
				names[field.Definition.SecretRef] = true
			}
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
