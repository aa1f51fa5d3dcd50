package render

import (
	"testing"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestManifestViewer(t *testing.T) {
	manifest := &model.Manifest{
		StartupOrder: []string{"network", "app"},
		Artifacts: []model.ManifestArtifact{
			{Path: "app/app.env", Service: "app", Engine: "env", Content: "A=1\nB=2\n", Checksum: Checksum("A=1\nB=2\n")},
			{Path: "app/app.container", Service: "app", Engine: "template", Content: "[Container]\n"},
		},
		Secrets: []string{"OPENAI_API_KEY"},
	}
	viewer := NewManifestViewer(manifest)

	order := viewer.ViewOrder()
	assert.Contains(t, order, "├─ 1. network\n")
	assert.Contains(t, order, "└─ 2. app\n")
	assert.Contains(t, order, "   ├─ app/app.env [env]\n")
	assert.Contains(t, order, "   └─ app/app.container [template]\n")
	assert.Contains(t, order, "Summary: 2 services, 2 artifacts, 1 secrets")

	artifacts := viewer.ViewArtifacts()
	assert.Contains(t, artifacts, "sha256:"+Checksum("A=1\nB=2\n"))
	assert.Contains(t, artifacts, "Secrets: OPENAI_API_KEY")

	assert.Contains(t, viewer.ViewByService("app"), "   B=2\n")
	assert.Equal(t, "No artifacts found for service: network", viewer.ViewByService("network"))

	assert.Equal(t, "No services in manifest", NewManifestViewer(&model.Manifest{}).ViewOrder())
}
