package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourceplane/stackgen/internal/model"
	"gopkg.in/yaml.v3"
)

// Manifest encodings
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// RenderJSON renders a manifest as JSON
func RenderJSON(manifest *model.Manifest) ([]byte, error) {
	return json.MarshalIndent(manifest, "", "  ")
}

// RenderYAML renders a manifest as YAML
func RenderYAML(manifest *model.Manifest) ([]byte, error) {
	return yaml.Marshal(manifest)
}

// EncodeManifest renders a manifest in the given format
func EncodeManifest(manifest *model.Manifest, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return RenderJSON(manifest)
	case FormatYAML, "yml":
		return RenderYAML(manifest)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}

// FormatFromPath picks the encoding from a file extension, JSON by default
func FormatFromPath(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteManifest writes a manifest to file (JSON or YAML based on extension)
func WriteManifest(manifest *model.Manifest, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := EncodeManifest(manifest, FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest to %s: %w", path, err)
	}

	return nil
}

// DebugDump outputs debug information about the manifest
func DebugDump(manifest *model.Manifest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Manifest: %s (schema %s)\n", manifest.Metadata.Name, manifest.Metadata.SchemaVersion))
	sb.WriteString(fmt.Sprintf("Resolution: %s\n", manifest.ResolutionID))
	sb.WriteString(fmt.Sprintf("Config checksum: %s\n", manifest.ConfigChecksum))
	sb.WriteString(fmt.Sprintf("Artifacts: %d\n\n", len(manifest.Artifacts)))

	for _, artifact := range manifest.Artifacts {
		sb.WriteString(fmt.Sprintf("Artifact: %s\n", artifact.Path))
		sb.WriteString(fmt.Sprintf("  Service: %s\n", artifact.Service))
		sb.WriteString(fmt.Sprintf("  Engine: %s\n", artifact.Engine))
		sb.WriteString(fmt.Sprintf("  Bytes: %d\n", len(artifact.Content)))
		sb.WriteString(fmt.Sprintf("  Checksum: %s\n", artifact.Checksum))
		sb.WriteString("\n")
	}

	return sb.String()
}
