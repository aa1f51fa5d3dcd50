package normalize

import (
	"testing"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSchema(t *testing.T) {
	normalized, result := NormalizeSchema(testutil.AIStack())
	require.True(t, result.OK(), result.Issues)

	assert.Equal(t, []string{"network", "app", "local_search", "ollama"}, normalized.Order)
	assert.Equal(t, 2, normalized.Services["local_search"].Index)

	search := normalized.Services["local_search"]
	require.Len(t, search.EnabledBy, 1)
	assert.Equal(t, model.Equals{Path: model.FieldKey{Service: "app", Field: "features.search"}, Value: true}, search.EnabledBy[0])

	engine := normalized.Services["app"].Fields["providers.search_engine"]
	require.NotNil(t, engine)
	assert.Equal(t, []model.Condition{
		model.Equals{Path: model.FieldKey{Service: "app", Field: "features.search"}, Value: true},
	}, engine.DependsOn)

	def, ok := normalized.Field(model.FieldKey{Service: "ollama", Field: "port"})
	require.True(t, ok)
	assert.Equal(t, model.TypeInteger, def.Type)

	require.Len(t, normalized.SecretOrder, 2)
	assert.NotNil(t, normalized.Secrets["OPENAI_API_KEY"].Condition)
	assert.Nil(t, normalized.Secrets["SEARCH_TOKEN"].Condition)
}

func TestNormalizeSchema_integrityErrors(t *testing.T) {
	tests := []struct {
		desc   string
		mutate func(s *model.Schema)
		path   string
	}{
		{
			desc:   "missing version",
			mutate: func(s *model.Schema) { s.Version = "" },
			path:   "version",
		},
		{
			desc:   "unsupported version",
			mutate: func(s *model.Schema) { s.Version = "2.1.0" },
			path:   "version",
		},
		{
			desc:   "duplicate service",
			mutate: func(s *model.Schema) { s.Services = append(s.Services, testutil.Service("app")) },
			path:   "app",
		},
		{
			desc:   "missing image",
			mutate: func(s *model.Schema) { s.Services[0].Image = "" },
			path:   "network",
		},
		{
			desc:   "negative port",
			mutate: func(s *model.Schema) { s.Services[3].Port = -1 },
			path:   "ollama.port",
		},
		{
			desc:   "port above range",
			mutate: func(s *model.Schema) { s.Services[3].Port = 70000 },
			path:   "ollama.port",
		},
		{
			desc:   "published port out of range",
			mutate: func(s *model.Schema) { s.Services[1].PublishedPort = testutil.Int(0) },
			path:   "app.publishedPort",
		},
		{
			desc: "unknown field type",
			mutate: func(s *model.Schema) {
				s.Services[3].Configuration.Fields[0].Type = "float"
			},
			path: "ollama.configuration.port",
		},
		{
			desc: "enum without values",
			mutate: func(s *model.Schema) {
				s.Services[1].Configuration.Fields[3].Enum = nil
			},
			path: "app.configuration.llm.provider",
		},
		{
			desc: "invalid pattern",
			mutate: func(s *model.Schema) {
				s.Services[1].Configuration.Fields[2].Pattern = "(["
			},
			path: "app.configuration.search.url",
		},
		{
			desc: "unparseable enablement",
			mutate: func(s *model.Schema) {
				s.Services[2].EnabledBy = []string{"app.configuration.features.search > 1"}
			},
			path: "local_search.enabledBy[0]",
		},
		{
			desc: "duplicate secret",
			mutate: func(s *model.Schema) {
				s.Secrets = append(s.Secrets, model.Secret{Name: "SEARCH_TOKEN"})
			},
			path: "secrets.SEARCH_TOKEN",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			schema := testutil.AIStack()
			test.mutate(schema)

			_, result := NormalizeSchema(schema)
			require.False(t, result.OK())

			errs := result.Errors()
			assert.Equal(t, model.KindSchemaIntegrity, errs[0].Kind)
			assert.Equal(t, test.path, errs[0].Path)
		})
	}
}

func TestNormalizeSchema_nil(t *testing.T) {
	normalized, result := NormalizeSchema(nil)
	assert.Nil(t, normalized)
	assert.False(t, result.OK())
}

func TestResolveRef(t *testing.T) {
	normalized, result := NormalizeSchema(testutil.AIStack())
	require.True(t, result.OK())

	tests := []struct {
		desc     string
		owner    string
		path     string
		expected model.FieldKey
	}{
		{
			desc:     "canonical path",
			owner:    "app",
			path:     "ollama.configuration.port",
			expected: model.FieldKey{Service: "ollama", Field: "port"},
		},
		{
			desc:     "service shorthand",
			owner:    "app",
			path:     "ollama.model",
			expected: model.FieldKey{Service: "ollama", Field: "model"},
		},
		{
			desc:     "sibling field",
			owner:    "app",
			path:     "features.search",
			expected: model.FieldKey{Service: "app", Field: "features.search"},
		},
		{
			desc:     "unknown shorthand resolves to the named service",
			owner:    "app",
			path:     "ollama.missing",
			expected: model.FieldKey{Service: "ollama", Field: "missing"},
		},
		{
			desc:     "unknown prefix stays relative",
			owner:    "app",
			path:     "llm.missing",
			expected: model.FieldKey{Service: "app", Field: "llm.missing"},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			key, err := ResolveRef(normalized, test.owner, test.path)
			require.NoError(t, err)
			assert.Equal(t, test.expected, key)
		})
	}

	_, err := ResolveRef(normalized, "app", " ")
	assert.Error(t, err)
}

func TestResolveRef_siblingShadowsServicePrefix(t *testing.T) {
	app := testutil.Service("app")
	app.Configuration.Fields = []model.FieldDefinition{{Name: "cache.ttl", Type: model.TypeInteger}}
	cache := testutil.Service("cache")

	normalized, result := NormalizeSchema(testutil.Schema(app, cache))
	require.True(t, result.OK(), result.Issues)

	key, err := ResolveRef(normalized, "app", "cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, model.FieldKey{Service: "app", Field: "cache.ttl"}, key)
}
