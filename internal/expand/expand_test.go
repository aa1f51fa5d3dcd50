package expand

import (
	"encoding/json"
	"testing"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/normalize"
	"github.com/sourceplane/stackgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, schema *model.Schema) *model.NormalizedSchema {
	t.Helper()

	normalized, result := normalize.NormalizeSchema(schema)
	require.True(t, result.OK(), result.Issues)
	return normalized
}

func TestExpander_Merge(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	cfg := testutil.Config(map[string]map[string]any{
		"app": {
			"features":     map[string]any{"search": true},
			"llm.provider": "openai",
		},
		"ollama": {"port": 11500},
	})

	merged, result := NewExpander(ns).Merge(cfg)
	require.True(t, result.OK(), result.Issues)

	assert.Equal(t, true, merged["app"]["features.search"])
	assert.Equal(t, "openai", merged["app"]["llm.provider"])
	assert.Equal(t, "local", merged["app"]["providers.search_engine"])
	assert.Equal(t, json.Number("2"), merged["app"]["workers"])
	assert.Equal(t, json.Number("11500"), merged["ollama"]["port"])
	assert.Equal(t, "llama3", merged["ollama"]["model"])
	assert.Equal(t, map[string]any{}, merged["network"])

	// input is left untouched
	assert.Equal(t, map[string]any{"search": true}, cfg.Services["app"]["features"])
}

func TestExpander_Merge_nullKeepsDefault(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	cfg := testutil.Config(map[string]map[string]any{
		"app":    {"llm.provider": nil, "search.url": nil},
		"ollama": {"model": nil},
	})

	merged, result := NewExpander(ns).Merge(cfg)
	require.True(t, result.OK())

	assert.Equal(t, "llama3", merged["ollama"]["model"])
	assert.Equal(t, "ollama", merged["app"]["llm.provider"])
	// no default, so the field stays unset
	_, present := merged["app"]["search.url"]
	assert.False(t, present)

	assert.True(t, NewEvaluator(ns).ActiveServices(cfg, merged)["ollama"])
}

func TestExpander_Merge_objectFieldsMergeDeeply(t *testing.T) {
	svc := testutil.Service("proxy")
	svc.Configuration.Fields = []model.FieldDefinition{
		{Name: "labels", Type: model.TypeObject, Default: map[string]any{"tier": "edge", "team": "core"}},
	}
	ns := mustNormalize(t, testutil.Schema(svc))

	merged, result := NewExpander(ns).Merge(testutil.Config(map[string]map[string]any{
		"proxy": {"labels": map[string]any{"team": "infra", "tier": nil}},
	}))
	require.True(t, result.OK())

	assert.Equal(t, map[string]any{"team": "infra"}, merged["proxy"]["labels"])
}

func TestExpander_Flatten_unknownFields(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())

	flat, result := NewExpander(ns).Flatten(ns.Services["app"], map[string]any{
		"features": map[string]any{"search": true, "voice": true},
		"bogus":    1,
	})

	assert.Equal(t, map[string]any{"features.search": true}, flat)
	require.Len(t, result.Errors(), 2)
	assert.Equal(t, "app.configuration.bogus", result.Errors()[0].Path)
	assert.Equal(t, "app.configuration.features.voice", result.Errors()[1].Path)
	assert.Equal(t, model.KindConfigValidation, result.Errors()[0].Kind)
}

func TestEvaluator_ActiveServices(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())

	tests := []struct {
		desc     string
		cfg      *model.UserConfiguration
		expected map[string]bool
	}{
		{
			desc:     "defaults",
			cfg:      testutil.Config(nil),
			expected: map[string]bool{"network": true, "app": true, "ollama": true},
		},
		{
			desc: "search enabled with local engine",
			cfg: testutil.Config(map[string]map[string]any{
				"app": {"features.search": true, "providers.search_engine": "local"},
			}),
			expected: map[string]bool{"network": true, "app": true, "local_search": true, "ollama": true},
		},
		{
			desc: "search disabled",
			cfg: testutil.Config(map[string]map[string]any{
				"app": {"features.search": false, "providers.search_engine": "local"},
			}),
			expected: map[string]bool{"network": true, "app": true, "ollama": true},
		},
		{
			desc: "openai provider disables ollama",
			cfg: testutil.Config(map[string]map[string]any{
				"app": {"llm.provider": "openai"},
			}),
			expected: map[string]bool{"network": true, "app": true},
		},
		{
			desc: "installed supersedes expressions",
			cfg: testutil.Config(map[string]map[string]any{
				"app": {"llm.provider": "openai"},
			}, "ollama"),
			expected: map[string]bool{"network": true, "app": true, "ollama": true},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			merged, result := NewExpander(ns).Merge(test.cfg)
			require.True(t, result.OK())

			active := NewEvaluator(ns).ActiveServices(test.cfg, merged)
			assert.Equal(t, test.expected, active)
		})
	}
}

func TestEvaluator_affectsServicesRequiresVisibility(t *testing.T) {
	schema := testutil.AIStack()
	// only affectsServices can activate local_search
	schema.Services[2].EnabledBy = nil
	ns := mustNormalize(t, schema)
	ev := NewEvaluator(ns)

	visible := testutil.Config(map[string]map[string]any{"app": {"features.search": true}})
	merged, _ := NewExpander(ns).Merge(visible)
	reasons := ev.Explain(visible, merged)
	assert.Equal(t, []string{"selected by app.configuration.providers.search_engine = local"}, reasons["local_search"])

	hidden := testutil.Config(nil)
	merged, _ = NewExpander(ns).Merge(hidden)
	assert.False(t, ev.ActiveServices(hidden, merged)["local_search"])

	remote := testutil.Config(map[string]map[string]any{"app": {"features.search": true, "providers.search_engine": "remote"}})
	merged, _ = NewExpander(ns).Merge(remote)
	assert.False(t, ev.ActiveServices(remote, merged)["local_search"])
}

func TestEvaluator_affectsServicesRequiresActiveOwner(t *testing.T) {
	selector := func(id, target string) model.ServiceDefinition {
		svc := testutil.Service(id)
		svc.Configuration.Fields = []model.FieldDefinition{{
			Name:            "mode",
			Type:            model.TypeEnum,
			Enum:            []any{"x", "y"},
			Default:         "x",
			AffectsServices: map[string]*string{"x": testutil.Str(target), "y": nil},
		}}
		return svc
	}
	owner := selector("owner", "middle")
	middle := selector("middle", "target")
	target := testutil.Service("target")
	ns := mustNormalize(t, testutil.Schema(owner, middle, target))
	ev := NewEvaluator(ns)

	tests := []struct {
		desc      string
		installed []string
		expected  map[string]bool
	}{
		{
			desc:     "inactive owner selects nothing",
			expected: map[string]bool{},
		},
		{
			desc:      "selections chain through activated services",
			installed: []string{"owner"},
			expected:  map[string]bool{"owner": true, "middle": true, "target": true},
		},
		{
			desc:      "selection starts at the first active owner",
			installed: []string{"middle"},
			expected:  map[string]bool{"middle": true, "target": true},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			cfg := testutil.Config(nil, test.installed...)
			merged, result := NewExpander(ns).Merge(cfg)
			require.True(t, result.OK())

			assert.Equal(t, test.expected, ev.ActiveServices(cfg, merged))
		})
	}
}

func TestEvaluator_SecretsFor(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	ev := NewEvaluator(ns)

	cfg := testutil.Config(nil)
	merged, _ := NewExpander(ns).Merge(cfg)
	// llm.api_key is always visible so its secretRef is always attached
	assert.Equal(t, []string{"OPENAI_API_KEY"}, ev.SecretsFor("app", merged))
	assert.Equal(t, []string{"SEARCH_TOKEN"}, ev.SecretsFor("local_search", merged))
	assert.Empty(t, ev.SecretsFor("network", merged))

	schema := testutil.AIStack()
	schema.Services[1].Configuration.Fields[4].SecretRef = ""
	ns = mustNormalize(t, schema)
	ev = NewEvaluator(ns)

	merged, _ = NewExpander(ns).Merge(cfg)
	assert.Empty(t, ev.SecretsFor("app", merged), "condition does not hold for ollama provider")

	openai := testutil.Config(map[string]map[string]any{"app": {"llm.provider": "openai"}})
	merged, _ = NewExpander(ns).Merge(openai)
	assert.Equal(t, []string{"OPENAI_API_KEY"}, ev.SecretsFor("app", merged))
}

func TestIsVisible(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	field := ns.Services["app"].Fields["providers.search_engine"]

	assert.False(t, IsVisible(field, map[string]map[string]any{"app": {"features.search": false}}))
	assert.False(t, IsVisible(field, map[string]map[string]any{}))
	assert.True(t, IsVisible(field, map[string]map[string]any{"app": {"features.search": true}}))
}

func TestDependencyResolver(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	dr := NewDependencyResolver(ns)

	assert.Equal(t, []string{"network"}, dr.GetDependencies("app"))
	assert.Empty(t, dr.GetDependencies("unknown"))
	assert.Equal(t, []string{"app", "local_search", "ollama"}, dr.GetDependents("network"))
	assert.Equal(t, map[string]bool{"network": true}, dr.GetTransitiveDependencies("app"))
	assert.Equal(t, map[string]bool{"app": true, "local_search": true, "ollama": true}, dr.GetTransitiveDependents("network"))

	missing := dr.InactiveDependencies(map[string]bool{"app": true, "ollama": true})
	assert.Equal(t, map[string][]string{"app": {"network"}, "ollama": {"network"}}, missing)
}

func TestServiceAnalyzer(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	analyzer := NewServiceAnalyzer(ns, testutil.Config(nil, "local_search"))

	summaries, result := analyzer.ListAll()
	require.True(t, result.OK())
	require.Len(t, summaries, 4)

	search := summaries[2]
	assert.Equal(t, "local_search", search.ID)
	assert.True(t, search.Active)
	assert.Equal(t, []string{"installed"}, search.Reasons)
	assert.Equal(t, []string{"network"}, search.Dependencies)

	app, _ := analyzer.GetServiceByName("app")
	require.NotNil(t, app)
	assert.Equal(t, "example/app:0.9.1", app.Image)
	assert.Equal(t, []string{"enabled"}, app.Reasons)

	missing, _ := analyzer.GetServiceByName("nope")
	assert.Nil(t, missing)
}

func TestServiceAnalyzer_transitive(t *testing.T) {
	db := testutil.Service("db")
	api := testutil.Service("api", "db")
	web := testutil.Service("web", "api")
	ns := mustNormalize(t, testutil.Schema(db, api, web))

	analyzer := NewServiceAnalyzer(ns, nil)

	summary, _ := analyzer.GetServiceByName("web")
	require.NotNil(t, summary)
	assert.Equal(t, []string{"api"}, summary.Dependencies)
	assert.Equal(t, []string{"api", "db"}, summary.AllDependencies)

	summary, _ = analyzer.GetServiceByName("db")
	require.NotNil(t, summary)
	assert.Equal(t, []string{"api"}, summary.Dependents)
	assert.Equal(t, []string{"api", "web"}, summary.AllDependents)
}

func TestServiceAnalyzer_issuesOnEveryCall(t *testing.T) {
	ns := mustNormalize(t, testutil.AIStack())
	analyzer := NewServiceAnalyzer(ns, testutil.Config(map[string]map[string]any{
		"app": {"bogus": true},
	}))

	_, first := analyzer.ListAll()
	require.Len(t, first.Errors(), 1)
	assert.Equal(t, "app.configuration.bogus", first.Errors()[0].Path)

	_, second := analyzer.GetServiceByName("app")
	assert.Equal(t, first, second)

	_, third := analyzer.ListAll()
	assert.Equal(t, first, third)
}
