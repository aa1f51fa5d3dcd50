package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sourceplane/stackgen/internal/model"
	"gopkg.in/yaml.v3"
)

// LoadSchema loads and parses a schema document (YAML or JSON).
// Artifact template files are resolved relative to the schema file.
func LoadSchema(path string) (*model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	return ParseSchema(data, filepath.Dir(path))
}

// ParseSchema parses a schema document and inlines every templateFile found below baseDir
func ParseSchema(data []byte, baseDir string) (*model.Schema, error) {
	var schema model.Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	for i := range schema.Services {
		svc := &schema.Services[i]
		for j := range svc.Artifacts {
			artifact := &svc.Artifacts[j]
			if artifact.TemplateFile == "" {
				continue
			}
			if artifact.Template != "" {
				return nil, fmt.Errorf("service %s artifact %s: template and templateFile are mutually exclusive", svc.ID, artifact.Path)
			}

			templatePath := artifact.TemplateFile
			if !filepath.IsAbs(templatePath) {
				templatePath = filepath.Join(baseDir, templatePath)
			}
			content, err := os.ReadFile(templatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to read template for service %s artifact %s: %w", svc.ID, artifact.Path, err)
			}
			artifact.Template = string(content)
		}
	}

	return &schema, nil
}

// LoadUserConfig loads and parses a user configuration file
func LoadUserConfig(path string) (*model.UserConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return ParseUserConfig(data)
}

// ParseUserConfig parses a user configuration document
func ParseUserConfig(data []byte) (*model.UserConfiguration, error) {
	var cfg model.UserConfiguration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration YAML: %w", err)
	}

	if cfg.Services == nil {
		cfg.Services = make(map[string]map[string]any)
	}

	return &cfg, nil
}

// LoadManifest loads a manifest previously written by the renderer
func LoadManifest(path string) (*model.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", path, err)
	}

	var manifest model.Manifest
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &manifest); err != nil {
			if yamlErr := yaml.Unmarshal(data, &manifest); yamlErr != nil {
				return nil, fmt.Errorf("failed to parse manifest file as JSON or YAML: %w", err)
			}
		}
	}

	if len(manifest.StartupOrder) == 0 {
		return nil, fmt.Errorf("manifest contains no services")
	}

	return &manifest, nil
}
