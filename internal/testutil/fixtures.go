// Package testutil provides schema fixtures shared by package tests.
package testutil

import "github.com/sourceplane/stackgen/internal/model"

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Str returns a pointer to v
func Str(v string) *string {
	return &v
}

// Service builds a minimal service definition
func Service(id string, requires ...string) model.ServiceDefinition {
	return model.ServiceDefinition{
		ID:       id,
		Image:    "example/" + id,
		Requires: requires,
		HealthCheck: &model.HealthCheck{
			Test: []string{"CMD", "true"},
		},
	}
}

// Schema wraps services into a schema document of a supported version
func Schema(services ...model.ServiceDefinition) *model.Schema {
	return &model.Schema{
		Name:     "test",
		Version:  "1.0.0",
		Services: services,
	}
}

// AIStack is a small multi-service stack exercising every metadata extension
func AIStack() *model.Schema {
	network := Service("network")
	network.Enabled = true

	app := Service("app", "network")
	app.Enabled = true
	app.Version = "0.9.1"
	app.Port = 8080
	app.PublishedPort = Int(3000)
	app.Routing = &model.Routing{Host: "chat.localhost", EntryPoints: []string{"web"}}
	app.Artifacts = []model.ArtifactTemplate{
		{Path: "{{ .Service.ID }}/app.env", Engine: model.EngineEnv},
		{
			Path: "{{ .Service.ID }}/app.container",
			Template: "[Container]\nImage={{ .Service.ImageRef }}\n" +
				"{{ if .IsActive \"ollama\" }}Environment=OLLAMA_URL=http://{{ (.Peer \"ollama\").Name }}:{{ .Field \"ollama\" \"port\" }}\n{{ end }}" +
				"{{ range .Secrets }}Secret={{ . }}\n{{ end }}",
		},
	}
	app.Configuration.Fields = []model.FieldDefinition{
		{Name: "features.search", Type: model.TypeBoolean, Default: false},
		{
			Name:            "providers.search_engine",
			Type:            model.TypeEnum,
			Enum:            []any{"local", "remote"},
			Default:         "local",
			DependsOn:       map[string]any{"features.search": true},
			AffectsServices: map[string]*string{"local": Str("local_search"), "remote": nil},
			ProviderFields:  map[string][]string{"remote": {"search.url"}},
		},
		{Name: "search.url", Type: model.TypeString, Pattern: "^https?://"},
		{Name: "llm.provider", Type: model.TypeEnum, Enum: []any{"openai", "ollama"}, Default: "ollama"},
		{Name: "llm.api_key", Type: model.TypeString, Sensitive: true, SecretRef: "OPENAI_API_KEY"},
		{Name: "workers", Type: model.TypeInteger, Default: 2, Minimum: Float(1), Maximum: Float(16)},
	}

	search := Service("local_search", "network")
	search.Port = 9200
	search.EnabledBy = []string{"app.configuration.features.search == true"}
	search.Artifacts = []model.ArtifactTemplate{
		{Path: "search/search.env", Engine: model.EngineEnv},
	}
	search.Configuration.Fields = []model.FieldDefinition{
		{Name: "heap", Type: model.TypeString, Default: "512m"},
	}

	ollama := Service("ollama", "network")
	ollama.Port = 11434
	ollama.EnabledBy = []string{"app.configuration.llm.provider == ollama"}
	ollama.Configuration.Fields = []model.FieldDefinition{
		{Name: "port", Type: model.TypeInteger, Default: 11434},
		{Name: "model", Type: model.TypeString, Default: "llama3"},
	}

	schema := Schema(network, app, search, ollama)
	schema.Name = "ai-stack"
	schema.Version = "1.2.0"
	schema.Secrets = []model.Secret{
		{Name: "OPENAI_API_KEY", RequiredBy: []string{"app"}, Condition: "app.configuration.llm.provider == openai"},
		{Name: "SEARCH_TOKEN", RequiredBy: []string{"local_search"}},
	}
	return schema
}

// Config builds a user configuration from per-service values
func Config(services map[string]map[string]any, installed ...string) *model.UserConfiguration {
	if services == nil {
		services = map[string]map[string]any{}
	}
	return &model.UserConfiguration{Services: services, Installed: installed}
}
