package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func artifact(service, path, content string) model.ManifestArtifact {
	return model.ManifestArtifact{Path: path, Service: service, Engine: model.EngineTemplate, Content: content, Checksum: render.Checksum(content)}
}

func testManifest() *model.Manifest {
	return &model.Manifest{
		StartupOrder: []string{"network", "app"},
		Artifacts: []model.ManifestArtifact{
			artifact("app", "app/app.env", "A=1\n"),
			artifact("network", "network/network.conf", "[Network]\n"),
		},
		Secrets: []string{"OPENAI_API_KEY"},
	}
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, NewRunner(dir, &out, false).Run(testManifest()))

	data, err := os.ReadFile(filepath.Join(dir, "app", "app.env"))
	require.NoError(t, err)
	assert.Equal(t, "A=1\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "network", "network.conf"))
	require.NoError(t, err)
	assert.Equal(t, "[Network]\n", string(data))

	// network artifacts are written before app artifacts
	assert.Less(t, bytes.Index(out.Bytes(), []byte("→ Service network")), bytes.Index(out.Bytes(), []byte("→ Service app")))
	assert.Contains(t, out.String(), "Secrets to provide: OPENAI_API_KEY")
}

func TestRunner_Run_dryRun(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, NewRunner(dir, &out, true).Run(testManifest()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, out.String(), filepath.Join(dir, "app", "app.env"))
}

func TestRunner_Run_errors(t *testing.T) {
	tests := []struct {
		desc     string
		mutate   func(m *model.Manifest)
		contains string
	}{
		{
			desc:     "tampered content",
			mutate:   func(m *model.Manifest) { m.Artifacts[1].Content = "[Network]\nName=evil\n" },
			contains: "checksum mismatch",
		},
		{
			desc:     "unknown service",
			mutate:   func(m *model.Manifest) { m.Artifacts[0].Service = "redis" },
			contains: "not in the startup order",
		},
		{
			desc: "escaping path",
			mutate: func(m *model.Manifest) {
				m.Artifacts[0] = artifact("app", "../app.env", "A=1\n")
			},
			contains: "escapes",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			dir := t.TempDir()
			manifest := testManifest()
			test.mutate(manifest)

			err := NewRunner(dir, &bytes.Buffer{}, false).Run(manifest)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.contains)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}

	assert.Error(t, NewRunner(t.TempDir(), &bytes.Buffer{}, false).Run(nil))
}
