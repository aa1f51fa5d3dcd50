package runner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/render"
)

// Runner materializes a manifest's artifacts under a directory in startup order.
type Runner struct {
	OutDir string
	Stdout io.Writer
	DryRun bool
}

func NewRunner(outDir string, stdout io.Writer, dryRun bool) *Runner {
	return &Runner{
		OutDir: outDir,
		Stdout: stdout,
		DryRun: dryRun,
	}
}

func (r *Runner) Run(manifest *model.Manifest) error {
	if manifest == nil {
		return fmt.Errorf("manifest cannot be nil")
	}

	ordered, err := orderedArtifacts(manifest)
	if err != nil {
		return err
	}

	// Verify everything before touching the output directory
	targets := make([]string, len(ordered))
	for i, artifact := range ordered {
		if sum := render.Checksum(artifact.Content); sum != artifact.Checksum {
			return fmt.Errorf("artifact %s: checksum mismatch (recorded %s, content %s)", artifact.Path, artifact.Checksum, sum)
		}
		if targets[i], err = r.resolvePath(artifact.Path); err != nil {
			return err
		}
	}

	current := ""
	for i, artifact := range ordered {
		if artifact.Service != current {
			current = artifact.Service
			fmt.Fprintf(r.Stdout, "→ Service %s\n", current)
		}

		target := targets[i]
		fmt.Fprintf(r.Stdout, "  - %s (%d bytes)\n", target, len(artifact.Content))
		if r.DryRun {
			continue
		}

		if err := writeFile(target, artifact.Content); err != nil {
			return fmt.Errorf("service %s artifact %s: %w", artifact.Service, artifact.Path, err)
		}
	}

	if len(manifest.Secrets) > 0 {
		fmt.Fprintf(r.Stdout, "Secrets to provide: %s\n", strings.Join(manifest.Secrets, ", "))
	}

	return nil
}

func (r *Runner) resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("artifact path %s must be relative", path)
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path %s escapes the output directory", path)
	}
	return filepath.Join(r.OutDir, clean), nil
}

// writeFile replaces target atomically through a temporary sibling
func writeFile(target, content string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	return os.Rename(tmp.Name(), target)
}

// orderedArtifacts groups artifacts by service following the startup order
func orderedArtifacts(manifest *model.Manifest) ([]model.ManifestArtifact, error) {
	position := make(map[string]int, len(manifest.StartupOrder))
	for i, id := range manifest.StartupOrder {
		position[id] = i
	}

	buckets := make([][]model.ManifestArtifact, len(manifest.StartupOrder))
	for _, artifact := range manifest.Artifacts {
		i, exists := position[artifact.Service]
		if !exists {
			return nil, fmt.Errorf("artifact %s belongs to service %s which is not in the startup order", artifact.Path, artifact.Service)
		}
		buckets[i] = append(buckets[i], artifact)
	}

	ordered := make([]model.ManifestArtifact, 0, len(manifest.Artifacts))
	for _, bucket := range buckets {
		ordered = append(ordered, bucket...)
	}
	return ordered, nil
}
