package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/model"
)

const schemaBaseURL = "https://stackgen.sourceplane.dev/schemas/services/"

// Validator checks user configuration values against the field rules of a schema
type Validator struct{}

// NewValidator creates a new structural validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every supplied value against its field definition and reports
// required fields left without a value. All issues are collected.
func (v *Validator) Validate(ns *model.NormalizedSchema, cfg *model.UserConfiguration) model.Result {
	var result model.Result
	if ns == nil || cfg == nil {
		result.Errorf(model.KindConfigValidation, "", "schema and configuration are required")
		return result
	}

	ids := make([]string, 0, len(cfg.Services))
	for id := range cfg.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	expander := expand.NewExpander(ns)
	for _, id := range ids {
		svc, ok := ns.Service(id)
		if !ok {
			result.Errorf(model.KindConfigValidation, id, "unknown service %q", id)
			continue
		}

		flat, res := expander.Flatten(svc, cfg.Services[id])
		result.Merge(res)
		v.validateValues(svc, flat, &result)
	}

	for i, id := range cfg.Installed {
		if _, ok := ns.Service(id); !ok {
			result.Errorf(model.KindConfigValidation, fmt.Sprintf("installed[%d]", i), "unknown service %q", id)
		}
	}

	merged, _ := expander.Merge(cfg)
	active := expand.NewEvaluator(ns).ActiveServices(cfg, merged)
	for _, id := range ns.Order {
		svc := ns.Services[id]
		for _, name := range svc.FieldOrder {
			field := svc.Fields[name]
			def := field.Definition

			if def.Sensitive && def.SecretRef == "" {
				result.Warnf(model.KindConfigValidation, field.Key.String(), "sensitive field has no secretRef")
			}
			if !active[id] || !expand.IsVisible(field, merged) {
				continue
			}
			if def.Required && expand.Lookup(merged, field.Key) == nil {
				result.Errorf(model.KindConfigValidation, field.Key.String(), "required field is missing")
			}
		}
	}

	return result
}

func (v *Validator) validateValues(svc *model.NormalizedService, flat map[string]any, result *model.Result) {
	values := make(map[string]any, len(flat))
	for name, value := range flat {
		// null clears a value back to its default
		if value == nil {
			continue
		}
		values[name] = value

		field := svc.Fields[name]
		if field.Definition.SecretRef != "" {
			result.Warnf(model.KindConfigValidation, field.Key.String(),
				"inline value for secret-backed field; provide %s at deployment instead", field.Definition.SecretRef)
		}
	}
	if len(values) == 0 {
		return
	}

	id := svc.Definition.ID
	compiled, err := compile(svc)
	if err != nil {
		result.Errorf(model.KindSchemaIntegrity, id+".configuration", "failed to compile field rules: %v", err)
		return
	}

	instance, err := toJSON(values)
	if err != nil {
		result.Errorf(model.KindConfigValidation, id+".configuration", "%v", err)
		return
	}

	err = compiled.Validate(instance)
	if err == nil {
		return
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		result.Errorf(model.KindConfigValidation, id+".configuration", "%v", err)
		return
	}

	var issues model.Result
	collectCauses(id, verr, &issues)
	issues.Sort()
	result.Merge(issues)
}

// compile builds a JSON Schema document from the service's field definitions
func compile(svc *model.NormalizedService) (*jsonschema.Schema, error) {
	properties := make(map[string]any, len(svc.FieldOrder))
	for _, name := range svc.FieldOrder {
		properties[name] = fieldSchema(svc.Fields[name].Definition)
	}

	doc, err := json.Marshal(map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	location := schemaBaseURL + url.PathEscape(svc.Definition.ID) + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(location, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

func fieldSchema(def *model.FieldDefinition) map[string]any {
	s := make(map[string]any)

	switch def.Type {
	case model.TypeEnum:
		s["enum"] = def.Enum
	case model.TypeBoolean, model.TypeString, model.TypeInteger, model.TypeNumber, model.TypeObject:
		s["type"] = def.Type
	}

	if def.Type == model.TypeInteger || def.Type == model.TypeNumber {
		if def.Minimum != nil {
			s["minimum"] = *def.Minimum
		}
		if def.Maximum != nil {
			s["maximum"] = *def.Maximum
		}
	}
	if def.Type == model.TypeString && def.Pattern != "" {
		s["pattern"] = def.Pattern
	}

	return s
}

// toJSON converts decoded YAML values into the JSON data model the validator expects
func toJSON(values map[string]any) (any, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode values: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode values: %w", err)
	}
	return out, nil
}

func collectCauses(serviceID string, err *jsonschema.ValidationError, result *model.Result) {
	if len(err.Causes) == 0 {
		key := model.FieldKey{Service: serviceID, Field: fieldFromPointer(err.InstanceLocation)}
		result.Errorf(model.KindConfigValidation, key.String(), "%s", err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectCauses(serviceID, cause, result)
	}
}

// fieldFromPointer maps a JSON pointer into the flattened instance to its field name
func fieldFromPointer(pointer string) string {
	token := strings.TrimPrefix(pointer, "/")
	if i := strings.IndexByte(token, '/'); i >= 0 {
		token = token[:i]
	}
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
