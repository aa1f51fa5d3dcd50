package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/sourceplane/stackgen/internal/expr"
	"github.com/sourceplane/stackgen/internal/model"
)

// SupportedSchemaVersions is the range of schema document versions this engine understands
const SupportedSchemaVersions = ">= 1.0, < 2.0"

const maxPort = 65535

var supportedConstraint = version.MustConstraints(version.NewConstraint(SupportedSchemaVersions))

var knownTypes = map[string]bool{
	model.TypeBoolean: true,
	model.TypeString:  true,
	model.TypeEnum:    true,
	model.TypeInteger: true,
	model.TypeNumber:  true,
	model.TypeObject:  true,
}

// NormalizeSchema transforms a raw schema into its canonical form.
// Every expression and field path is parsed here; dangling references are left
// for the topology validator to report.
func NormalizeSchema(schema *model.Schema) (*model.NormalizedSchema, model.Result) {
	var result model.Result
	if schema == nil {
		result.Errorf(model.KindSchemaIntegrity, "", "schema cannot be nil")
		return nil, result
	}

	checkVersion(schema.Version, &result)

	normalized := &model.NormalizedSchema{
		Name:     schema.Name,
		Version:  schema.Version,
		Services: make(map[string]*model.NormalizedService),
		Order:    make([]string, 0, len(schema.Services)),
		Fields:   make(map[model.FieldKey]*model.FieldDefinition),
		Secrets:  make(map[string]*model.NormalizedSecret),
	}

	// First pass registers services and fields so references can be resolved
	for i, def := range schema.Services {
		path := fmt.Sprintf("services[%d]", i)
		if def.ID == "" {
			result.Errorf(model.KindSchemaIntegrity, path, "service must have an id")
			continue
		}
		if _, exists := normalized.Services[def.ID]; exists {
			result.Errorf(model.KindSchemaIntegrity, def.ID, "duplicate service id %q", def.ID)
			continue
		}
		if def.Image == "" {
			result.Errorf(model.KindSchemaIntegrity, def.ID, "service must have an image")
		}
		if def.Port < 0 || def.Port > maxPort {
			result.Errorf(model.KindSchemaIntegrity, def.ID+".port", "port %d is outside 1-%d", def.Port, maxPort)
		}
		if p := def.PublishedPort; p != nil && (*p < 1 || *p > maxPort) {
			result.Errorf(model.KindSchemaIntegrity, def.ID+".publishedPort", "published port %d is outside 1-%d", *p, maxPort)
		}

		svc := &model.NormalizedService{
			Definition: def,
			Index:      len(normalized.Order),
			Fields:     make(map[string]*model.NormalizedField),
		}
		registerFields(normalized, svc, &result)

		normalized.Services[def.ID] = svc
		normalized.Order = append(normalized.Order, def.ID)
	}

	// Second pass parses expressions and resolves field paths
	for _, id := range normalized.Order {
		svc := normalized.Services[id]
		for i, raw := range svc.Definition.EnabledBy {
			cond, err := expr.ParseCondition(raw)
			if err != nil {
				result.Errorf(model.KindSchemaIntegrity, fmt.Sprintf("%s.enabledBy[%d]", id, i), "%v", err)
				continue
			}
			svc.EnabledBy = append(svc.EnabledBy, cond)
		}

		for _, name := range svc.FieldOrder {
			resolveField(normalized, svc.Fields[name], &result)
		}
	}

	for i, secret := range schema.Secrets {
		path := fmt.Sprintf("secrets[%d]", i)
		if secret.Name == "" {
			result.Errorf(model.KindSchemaIntegrity, path, "secret must have a name")
			continue
		}
		if _, exists := normalized.Secrets[secret.Name]; exists {
			result.Errorf(model.KindSchemaIntegrity, "secrets."+secret.Name, "duplicate secret %q", secret.Name)
			continue
		}

		ns := &model.NormalizedSecret{Secret: secret}
		if secret.Condition != "" {
			cond, err := expr.ParseCondition(secret.Condition)
			if err != nil {
				result.Errorf(model.KindSchemaIntegrity, "secrets."+secret.Name+".condition", "%v", err)
			} else {
				ns.Condition = cond
			}
		}
		normalized.Secrets[secret.Name] = ns
		normalized.SecretOrder = append(normalized.SecretOrder, secret.Name)
	}

	return normalized, result
}

func checkVersion(raw string, result *model.Result) {
	if raw == "" {
		result.Errorf(model.KindSchemaIntegrity, "version", "schema version is required")
		return
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		result.Errorf(model.KindSchemaIntegrity, "version", "invalid schema version %q: %v", raw, err)
		return
	}
	if !supportedConstraint.Check(v) {
		result.Errorf(model.KindSchemaIntegrity, "version", "schema version %s is not supported (want %s)", raw, SupportedSchemaVersions)
	}
}

func registerFields(normalized *model.NormalizedSchema, svc *model.NormalizedService, result *model.Result) {
	id := svc.Definition.ID
	fields := svc.Definition.Configuration.Fields

	for i := range fields {
		def := &fields[i]
		path := fmt.Sprintf("%s.configuration.fields[%d]", id, i)
		if def.Name == "" {
			result.Errorf(model.KindSchemaIntegrity, path, "field must have a name")
			continue
		}

		key := model.FieldKey{Service: id, Field: def.Name}
		if _, exists := svc.Fields[def.Name]; exists {
			result.Errorf(model.KindSchemaIntegrity, key.String(), "duplicate field %q", def.Name)
			continue
		}

		if !knownTypes[def.Type] {
			result.Errorf(model.KindSchemaIntegrity, key.String(), "unknown field type %q", def.Type)
		}
		if def.Type == model.TypeEnum && len(def.Enum) == 0 {
			result.Errorf(model.KindSchemaIntegrity, key.String(), "enum field declares no values")
		}
		if def.Pattern != "" {
			if _, err := regexp.Compile(def.Pattern); err != nil {
				result.Errorf(model.KindSchemaIntegrity, key.String(), "invalid pattern: %v", err)
			}
		}

		svc.Fields[def.Name] = &model.NormalizedField{Key: key, Definition: def}
		svc.FieldOrder = append(svc.FieldOrder, def.Name)
		normalized.Fields[key] = def
	}
}

func resolveField(normalized *model.NormalizedSchema, field *model.NormalizedField, result *model.Result) {
	def := field.Definition

	// Sorted for deterministic condition order
	paths := make([]string, 0, len(def.DependsOn))
	for path := range def.DependsOn {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		key, err := ResolveRef(normalized, field.Key.Service, path)
		if err != nil {
			result.Errorf(model.KindSchemaIntegrity, field.Key.String()+".dependsOn", "%v", err)
			continue
		}
		field.DependsOn = append(field.DependsOn, model.Equals{Path: key, Value: def.DependsOn[path]})
	}

	if def.RequiresField != "" {
		key, err := ResolveRef(normalized, field.Key.Service, def.RequiresField)
		if err != nil {
			result.Errorf(model.KindSchemaIntegrity, field.Key.String()+".requiresField", "%v", err)
			return
		}
		field.RequiresField = &key
	}
}

// ResolveRef resolves a field path relative to the owning service.
// Accepted forms: svc.configuration.field, svc.field (svc declared and field one of its
// fields) and a sibling field name. A svc.field path naming a declared service that matches
// no sibling resolves to that service even when the field is missing.
func ResolveRef(normalized *model.NormalizedSchema, owner, path string) (model.FieldKey, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return model.FieldKey{}, fmt.Errorf("empty field path")
	}

	if strings.Contains(path, ".configuration.") {
		return expr.ParsePath(path)
	}

	sibling := model.FieldKey{Service: owner, Field: path}
	if head, rest, ok := strings.Cut(path, "."); ok {
		if _, exists := normalized.Services[head]; exists {
			key := model.FieldKey{Service: head, Field: rest}
			if _, exists := normalized.Fields[key]; exists {
				return key, nil
			}
			// a missing field of a named service is dangling on that service
			if _, exists := normalized.Fields[sibling]; !exists {
				return key, nil
			}
		}
	}

	return sibling, nil
}
