package expand

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/sourceplane/stackgen/internal/model"
)

// Expander layers user configuration over schema defaults
type Expander struct {
	schema *model.NormalizedSchema
}

// NewExpander creates a new expander
func NewExpander(schema *model.NormalizedSchema) *Expander {
	return &Expander{schema: schema}
}

// Merge produces the merged configuration of every declared service.
// User values are applied to the defaults as a JSON merge patch, so object
// fields merge deeply. A null field value means unset and keeps the default;
// a null nested inside an object field removes that key.
func (e *Expander) Merge(cfg *model.UserConfiguration) (map[string]map[string]any, model.Result) {
	var result model.Result
	merged := make(map[string]map[string]any, len(e.schema.Order))

	for _, id := range e.schema.Order {
		svc := e.schema.Services[id]

		var user map[string]any
		if cfg != nil {
			flat, res := e.Flatten(svc, cfg.Services[id])
			result.Merge(res)
			user = flat
		}

		values, err := mergeValues(e.Defaults(svc), user)
		if err != nil {
			result.Errorf(model.KindConfigValidation, id+".configuration", "%v", err)
			values = map[string]any{}
		}
		merged[id] = values
	}

	return merged, result
}

// Defaults returns the declared default of every field that has one
func (e *Expander) Defaults(svc *model.NormalizedService) map[string]any {
	defaults := make(map[string]any)
	for _, name := range svc.FieldOrder {
		def := svc.Fields[name].Definition
		if def.HasDefault() {
			defaults[name] = def.Default
		}
	}
	return defaults
}

// Flatten maps nested user values onto the service's dotted field names.
// Keys that name no field are reported.
func (e *Expander) Flatten(svc *model.NormalizedService, values map[string]any) (map[string]any, model.Result) {
	var result model.Result
	flat := make(map[string]any)
	flattenInto(svc, values, "", flat, &result)
	return flat, result
}

func flattenInto(svc *model.NormalizedService, values map[string]any, prefix string, out map[string]any, result *model.Result) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := prefix + k
		v := values[k]

		if _, ok := svc.Fields[name]; ok {
			out[name] = v
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(svc, nested, name+".", out, result)
			continue
		}

		key := model.FieldKey{Service: svc.Definition.ID, Field: name}
		result.Errorf(model.KindConfigValidation, key.String(), "unknown field")
	}
}

func mergeValues(defaults, user map[string]any) (map[string]any, error) {
	doc, err := json.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}

	set := make(map[string]any, len(user))
	for name, value := range user {
		if value != nil {
			set[name] = value
		}
	}
	user = set

	if len(user) > 0 {
		patch, err := json.Marshal(user)
		if err != nil {
			return nil, fmt.Errorf("failed to encode values: %w", err)
		}
		doc, err = jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return nil, fmt.Errorf("failed to merge values: %w", err)
		}
	}

	return decode(doc)
}

// decode keeps numbers as json.Number so integers survive unchanged
func decode(doc []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	out := make(map[string]any)
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode merged values: %w", err)
	}
	return out, nil
}

// Lookup returns the merged value of a field, nil when unset
func Lookup(merged map[string]map[string]any, key model.FieldKey) any {
	return merged[key.Service][key.Field]
}

// IsVisible reports whether every dependsOn condition of the field holds
func IsVisible(field *model.NormalizedField, merged map[string]map[string]any) bool {
	for _, cond := range field.DependsOn {
		if !cond.Evaluate(Lookup(merged, cond.Target())) {
			return false
		}
	}
	return true
}
