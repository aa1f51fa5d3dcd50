package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchema(t *testing.T) {
	schema, err := LoadSchema(filepath.Join("testdata", "stack", "schema.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ai-stack", schema.Name)
	assert.Equal(t, "1.2.0", schema.Version)
	require.Len(t, schema.Services, 2)

	app := schema.Services[1]
	assert.Equal(t, "app", app.ID)
	assert.Equal(t, []string{"network"}, app.Requires)
	require.NotNil(t, app.PublishedPort)
	assert.Equal(t, 3000, *app.PublishedPort)

	require.Len(t, app.Artifacts, 2)
	assert.Equal(t, "env", app.Artifacts[0].EngineName())
	assert.Equal(t, "template", app.Artifacts[1].EngineName())
	assert.Contains(t, app.Artifacts[1].Template, "Image={{ .Service.Image }}")

	fields := app.Configuration.Fields
	require.Len(t, fields, 2)
	assert.Equal(t, false, fields[0].Default)
	require.Contains(t, fields[1].AffectsServices, "remote")
	assert.Nil(t, fields[1].AffectsServices["remote"])
	require.NotNil(t, fields[1].AffectsServices["local"])
	assert.Equal(t, "local_search", *fields[1].AffectsServices["local"])

	require.Len(t, schema.Secrets, 1)
	assert.Equal(t, []string{"app"}, schema.Secrets[0].RequiredBy)
}

func TestParseSchema_missingTemplateFile(t *testing.T) {
	data := []byte(`
name: broken
version: "1.0.0"
services:
  - id: app
    image: app
    artifacts:
      - path: app.conf
        templateFile: nope.tmpl
`)
	_, err := ParseSchema(data, t.TempDir())
	assert.Error(t, err)
}

func TestParseSchema_templateAndFile(t *testing.T) {
	data := []byte(`
name: broken
version: "1.0.0"
services:
  - id: app
    image: app
    artifacts:
      - path: app.conf
        template: "x"
        templateFile: x.tmpl
`)
	_, err := ParseSchema(data, t.TempDir())
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestLoadUserConfig(t *testing.T) {
	cfg, err := LoadUserConfig(filepath.Join("testdata", "stack", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"network"}, cfg.Installed)
	assert.True(t, cfg.IsInstalled("network"))
	assert.False(t, cfg.IsInstalled("app"))
	assert.Equal(t, map[string]any{"search": true}, cfg.Services["app"]["features"])
}

func TestParseUserConfig_empty(t *testing.T) {
	cfg, err := ParseUserConfig([]byte("installed: []\n"))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Services)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"kind":"Manifest","startupOrder":["network","app"],"artifacts":[{"path":"a","service":"app","content":"x","checksum":"y"}]}`), 0o644))

	manifest, err := LoadManifest(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"network", "app"}, manifest.StartupOrder)
	require.Len(t, manifest.Artifacts, 1)

	yamlPath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("kind: Manifest\nstartupOrder: []\n"), 0o644))

	_, err = LoadManifest(yamlPath)
	assert.ErrorContains(t, err, "no services")
}
