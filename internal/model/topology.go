package model

// NormalizedSchema is the canonical internal representation of a Schema.
// Every path and expression has been parsed exactly once.
type NormalizedSchema struct {
	Name     string
	Version  string
	Services map[string]*NormalizedService
	Order    []string // service ids in declaration order
	Fields   map[FieldKey]*FieldDefinition
	Secrets  map[string]*NormalizedSecret
	// SecretOrder keeps secrets in declaration order
	SecretOrder []string
}

// NormalizedService is a service definition with parsed cross references
type NormalizedService struct {
	Definition ServiceDefinition
	Index      int
	EnabledBy  []Condition
	FieldOrder []string
	Fields     map[string]*NormalizedField
}

// NormalizedField is a field definition with its references resolved to keys
type NormalizedField struct {
	Key           FieldKey
	Definition    *FieldDefinition
	DependsOn     []Condition
	RequiresField *FieldKey
}

// NormalizedSecret is a secret with its parsed condition
type NormalizedSecret struct {
	Secret    Secret
	Condition Condition
}

// Service returns the service with the given id
func (n *NormalizedSchema) Service(id string) (*NormalizedService, bool) {
	svc, ok := n.Services[id]
	return svc, ok
}

// Field returns the field definition registered under key
func (n *NormalizedSchema) Field(key FieldKey) (*FieldDefinition, bool) {
	def, ok := n.Fields[key]
	return def, ok
}

// ResolvedTopology is the terminal output of a fully successful resolution
type ResolvedTopology struct {
	Schema *NormalizedSchema
	Active map[string]bool
	Order  []string
	// Config holds per-service merged configuration: user values over defaults
	Config map[string]map[string]any
}

// IsActive reports whether a service is part of the active set
func (t *ResolvedTopology) IsActive(id string) bool {
	return t.Active[id]
}
