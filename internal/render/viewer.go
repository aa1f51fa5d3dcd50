package render

import (
	"fmt"
	"strings"

	"github.com/sourceplane/stackgen/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════\n"

// ManifestViewer provides human-readable visualization of a manifest
type ManifestViewer struct {
	manifest *model.Manifest
}

// NewManifestViewer creates a new manifest viewer
func NewManifestViewer(manifest *model.Manifest) *ManifestViewer {
	return &ManifestViewer{manifest: manifest}
}

// ViewOrder returns a tree of services in startup order with their artifacts
func (mv *ManifestViewer) ViewOrder() string {
	if len(mv.manifest.StartupOrder) == 0 {
		return "No services in manifest"
	}

	byService := mv.artifactsByService()

	var sb strings.Builder
	for i, id := range mv.manifest.StartupOrder {
		isLastService := i == len(mv.manifest.StartupOrder)-1

		servicePrefix := "├─ "
		connector := "│  "
		if isLastService {
			servicePrefix = "└─ "
			connector = "   "
		}
		sb.WriteString(fmt.Sprintf("%s%d. %s\n", servicePrefix, i+1, id))

		artifacts := byService[id]
		for j, artifact := range artifacts {
			artifactPrefix := connector + "├─ "
			if j == len(artifacts)-1 {
				artifactPrefix = connector + "└─ "
			}
			sb.WriteString(fmt.Sprintf("%s%s [%s]\n", artifactPrefix, artifact.Path, artifact.Engine))
		}
	}

	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Summary: %d services, %d artifacts, %d secrets\n",
		len(mv.manifest.StartupOrder), len(mv.manifest.Artifacts), len(mv.manifest.Secrets)))

	return sb.String()
}

// ViewArtifacts lists every artifact with its checksum
func (mv *ManifestViewer) ViewArtifacts() string {
	if len(mv.manifest.Artifacts) == 0 {
		return "No artifacts in manifest"
	}

	var sb strings.Builder
	sb.WriteString("Artifacts\n")
	sb.WriteString(rule + "\n")

	for i, artifact := range mv.manifest.Artifacts {
		prefix := "├─ "
		if i == len(mv.manifest.Artifacts)-1 {
			prefix = "└─ "
		}
		sb.WriteString(fmt.Sprintf("%s%s (%s)\n", prefix, artifact.Path, artifact.Service))
		sb.WriteString(fmt.Sprintf("     sha256:%s\n", artifact.Checksum))
	}

	if len(mv.manifest.Secrets) > 0 {
		sb.WriteString("\nSecrets: " + strings.Join(mv.manifest.Secrets, ", ") + "\n")
	}

	return sb.String()
}

// ViewByService shows a service-focused view with the content of its artifacts
func (mv *ManifestViewer) ViewByService(serviceID string) string {
	artifacts := mv.artifactsByService()[serviceID]
	if len(artifacts) == 0 {
		return fmt.Sprintf("No artifacts found for service: %s", serviceID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%d artifacts)\n", serviceID, len(artifacts)))
	sb.WriteString(rule + "\n")

	for _, artifact := range artifacts {
		sb.WriteString(fmt.Sprintf("── %s [%s]\n", artifact.Path, artifact.Engine))
		for _, line := range strings.Split(strings.TrimRight(artifact.Content, "\n"), "\n") {
			sb.WriteString("   " + line + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (mv *ManifestViewer) artifactsByService() map[string][]model.ManifestArtifact {
	byService := make(map[string][]model.ManifestArtifact)
	for _, artifact := range mv.manifest.Artifacts {
		byService[artifact.Service] = append(byService[artifact.Service], artifact)
	}
	return byService
}
