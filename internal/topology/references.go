package topology

import (
	"fmt"
	"sort"

	"github.com/sourceplane/stackgen/internal/model"
)

// checkFields validates the metadata extensions of every field
func (v *validator) checkFields() {
	for _, id := range v.schema.Order {
		svc := v.schema.Services[id]
		for _, name := range svc.FieldOrder {
			field := svc.Fields[name]
			path := field.Key.String()
			def := field.Definition

			for _, cond := range field.DependsOn {
				v.checkFieldRef(path+".dependsOn", cond.Target())
			}
			if field.RequiresField != nil {
				v.checkFieldRef(path+".requiresField", *field.RequiresField)
			}
			if def.SecretRef != "" {
				if _, exists := v.schema.Secrets[def.SecretRef]; !exists {
					v.result.Errorf(model.KindTopology, path+".secretRef", "references undeclared secret %q", def.SecretRef)
				}
			}

			v.checkAffectsServices(path, def)
			v.checkProviderFields(svc, path, def)
		}
	}
}

func (v *validator) checkAffectsServices(path string, def *model.FieldDefinition) {
	for _, value := range sortedKeys(def.AffectsServices) {
		target := def.AffectsServices[value]
		if target != nil {
			if _, exists := v.schema.Services[*target]; !exists {
				v.result.Errorf(model.KindTopology, path+".affectsServices", "value %q enables unknown service %q", value, *target)
			}
		}
		v.checkProviderKey(path+".affectsServices", def, value)
	}
}

func (v *validator) checkProviderFields(svc *model.NormalizedService, path string, def *model.FieldDefinition) {
	for _, value := range sortedKeys(def.ProviderFields) {
		for _, sibling := range def.ProviderFields[value] {
			if _, exists := svc.Fields[sibling]; !exists {
				v.result.Errorf(model.KindTopology, path+".providerFields",
					"value %q lists unknown field %q of service %q", value, sibling, svc.Definition.ID)
			}
		}
		v.checkProviderKey(path+".providerFields", def, value)
	}
}

// checkProviderKey warns when a mapping key can never equal a value of an enum field
func (v *validator) checkProviderKey(path string, def *model.FieldDefinition, key string) {
	if def.Type != model.TypeEnum {
		return
	}
	for _, value := range def.Enum {
		if fmt.Sprint(value) == key {
			return
		}
	}
	v.result.Warnf(model.KindTopology, path, "key %q is not a value of the field's enum", key)
}

func (v *validator) checkSecrets() {
	for _, name := range v.schema.SecretOrder {
		secret := v.schema.Secrets[name]
		path := "secrets." + name

		for i, consumer := range secret.Secret.RequiredBy {
			if _, exists := v.schema.Services[consumer]; !exists {
				v.result.Errorf(model.KindTopology, fmt.Sprintf("%s.requiredBy[%d]", path, i), "references unknown service %q", consumer)
			}
		}
		if secret.Condition != nil {
			v.checkCondition(path+".condition", secret.Condition)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
