package model

// Manifest is the rendered artifact list of a successful resolution
type Manifest struct {
	APIVersion     string             `json:"apiVersion" yaml:"apiVersion"`
	Kind           string             `json:"kind" yaml:"kind"`
	Metadata       ManifestMetadata   `json:"metadata" yaml:"metadata"`
	ResolutionID   string             `json:"resolutionId" yaml:"resolutionId"`
	ConfigChecksum string             `json:"configChecksum" yaml:"configChecksum"`
	StartupOrder   []string           `json:"startupOrder" yaml:"startupOrder"`
	Artifacts      []ManifestArtifact `json:"artifacts" yaml:"artifacts"`
	Secrets        []string           `json:"secrets" yaml:"secrets"`
}

// ManifestMetadata identifies the schema a manifest was rendered from
type ManifestMetadata struct {
	Name          string `json:"name" yaml:"name"`
	SchemaVersion string `json:"schemaVersion" yaml:"schemaVersion"`
}

// ManifestArtifact is one rendered artifact
type ManifestArtifact struct {
	Path     string `json:"path" yaml:"path"`
	Service  string `json:"service" yaml:"service"`
	Engine   string `json:"engine" yaml:"engine"`
	Content  string `json:"content" yaml:"content"`
	Checksum string `json:"checksum" yaml:"checksum"`
}
