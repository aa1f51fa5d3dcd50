package model

// Schema is the versioned schema document describing every deployable service
type Schema struct {
	Name     string              `yaml:"name" json:"name"`
	Version  string              `yaml:"version" json:"version"`
	Services []ServiceDefinition `yaml:"services" json:"services"`
	Secrets  []Secret            `yaml:"secrets,omitempty" json:"secrets,omitempty"`
}

// ServiceDefinition is one deployable unit
type ServiceDefinition struct {
	ID            string               `yaml:"id" json:"id"`
	Description   string               `yaml:"description,omitempty" json:"description,omitempty"`
	Image         string               `yaml:"image" json:"image"`
	Version       string               `yaml:"version,omitempty" json:"version,omitempty"`
	Port          int                  `yaml:"port,omitempty" json:"port,omitempty"`
	PublishedPort *int                 `yaml:"publishedPort,omitempty" json:"publishedPort,omitempty"`
	BindAddress   string               `yaml:"bindAddress,omitempty" json:"bindAddress,omitempty"`
	ContainerName string               `yaml:"containerName,omitempty" json:"containerName,omitempty"`
	Enabled       bool                 `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Requires      []string             `yaml:"requires,omitempty" json:"requires,omitempty"`
	EnabledBy     []string             `yaml:"enabledBy,omitempty" json:"enabledBy,omitempty"`
	HealthCheck   *HealthCheck         `yaml:"healthCheck,omitempty" json:"healthCheck,omitempty"`
	Routing       *Routing             `yaml:"routing,omitempty" json:"routing,omitempty"`
	Artifacts     []ArtifactTemplate   `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	Configuration ServiceConfiguration `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// Name returns the container identity name, falling back to the service id
func (s ServiceDefinition) Name() string {
	if s.ContainerName != "" {
		return s.ContainerName
	}
	return s.ID
}

// ImageRef returns the image reference with its version tag
func (s ServiceDefinition) ImageRef() string {
	if s.Version == "" {
		return s.Image
	}
	return s.Image + ":" + s.Version
}

// HealthCheck describes how a runtime probes a service
type HealthCheck struct {
	Test     []string `yaml:"test" json:"test"`
	Interval string   `yaml:"interval,omitempty" json:"interval,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries  int      `yaml:"retries,omitempty" json:"retries,omitempty"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"` // HTTP path for routing health checks
}

// Routing declares how an edge router exposes a service
type Routing struct {
	Host        string   `yaml:"host,omitempty" json:"host,omitempty"`
	PathPrefix  string   `yaml:"pathPrefix,omitempty" json:"pathPrefix,omitempty"`
	EntryPoints []string `yaml:"entryPoints,omitempty" json:"entryPoints,omitempty"`
	Middlewares []string `yaml:"middlewares,omitempty" json:"middlewares,omitempty"`
	TLS         bool     `yaml:"tls,omitempty" json:"tls,omitempty"`
}

// Engines understood by the default template evaluator
const (
	EngineTemplate = "template"
	EngineEnv      = "env"
	EngineCompose  = "compose"
	EngineTraefik  = "traefik"
)

// ArtifactTemplate is one artifact rendered for a service
type ArtifactTemplate struct {
	Path         string `yaml:"path" json:"path"`
	Engine       string `yaml:"engine,omitempty" json:"engine,omitempty"`
	Template     string `yaml:"template,omitempty" json:"template,omitempty"`
	TemplateFile string `yaml:"templateFile,omitempty" json:"templateFile,omitempty"`
}

// EngineName returns the engine, defaulting to Go text templates
func (a ArtifactTemplate) EngineName() string {
	if a.Engine == "" {
		return EngineTemplate
	}
	return a.Engine
}

// ServiceConfiguration is the configuration namespace of a service
type ServiceConfiguration struct {
	Fields []FieldDefinition `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Semantic field types
const (
	TypeBoolean = "boolean"
	TypeString  = "string"
	TypeEnum    = "enum"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeObject  = "object"
)

// FieldDefinition is one user-configurable value
type FieldDefinition struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type" json:"type"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Default     any      `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Enum        []any    `yaml:"enum,omitempty" json:"enum,omitempty"`
	Minimum     *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum     *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	Pattern     string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Sensitive   bool     `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`

	// UI metadata, consumed by form generators only
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	Order    int    `yaml:"order,omitempty" json:"order,omitempty"`

	DependsOn       map[string]any      `yaml:"dependsOn,omitempty" json:"dependsOn,omitempty"`
	AffectsServices map[string]*string  `yaml:"affectsServices,omitempty" json:"affectsServices,omitempty"`
	ProviderFields  map[string][]string `yaml:"providerFields,omitempty" json:"providerFields,omitempty"`
	SecretRef       string              `yaml:"secretRef,omitempty" json:"secretRef,omitempty"`
	RequiresField   string              `yaml:"requiresField,omitempty" json:"requiresField,omitempty"`
}

// HasDefault reports whether the field declares a default value
func (f FieldDefinition) HasDefault() bool {
	return f.Default != nil
}

// Secret is a named placeholder, never a value
type Secret struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	RequiredBy  []string `yaml:"requiredBy,omitempty" json:"requiredBy,omitempty"`
	Condition   string   `yaml:"condition,omitempty" json:"condition,omitempty"`
}
