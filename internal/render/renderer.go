package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	// ManifestAPIVersion is the apiVersion of every manifest produced
	ManifestAPIVersion = "stackgen.sourceplane.io/v1"
	// ManifestKind is the kind of every manifest produced
	ManifestKind = "Manifest"
)

// resolutionNamespace scopes name-based resolution ids
var resolutionNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("stackgen.sourceplane.dev"))

// Options tunes a renderer
type Options struct {
	// Parallelism bounds concurrently rendered services, 0 means unbounded
	Parallelism int
	Logger      zerolog.Logger
}

// Renderer materializes a resolved topology into a Manifest
type Renderer struct {
	evaluator Evaluator
	paths     *templateEngine
	opts      Options
}

// NewRenderer creates a new renderer
func NewRenderer(evaluator Evaluator, opts Options) *Renderer {
	return &Renderer{
		evaluator: evaluator,
		paths:     newTemplateEngine(),
		opts:      opts,
	}
}

// Render evaluates every artifact of every active service. Either all artifacts
// render and a complete manifest is returned, or the first failure is returned
// and no manifest is produced.
func (r *Renderer) Render(topology *model.ResolvedTopology) (*model.Manifest, error) {
	if topology == nil {
		return nil, fmt.Errorf("%w: topology cannot be nil", model.ErrInternal)
	}

	secrets := expand.NewEvaluator(topology.Schema)
	rendered := make([][]model.ManifestArtifact, len(topology.Order))
	referenced := make([][]string, len(topology.Order))

	group := new(errgroup.Group)
	if r.opts.Parallelism > 0 {
		group.SetLimit(r.opts.Parallelism)
	}
	for i, id := range topology.Order {
		group.Go(func() error {
			names := secrets.SecretsFor(id, topology.Config)
			artifacts, err := r.renderService(topology, id, names)
			if err != nil {
				return err
			}
			rendered[i] = artifacts
			referenced[i] = names
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		r.opts.Logger.Debug().Err(err).Msg("Rendering aborted")
		return nil, err
	}

	manifest := &model.Manifest{
		APIVersion: ManifestAPIVersion,
		Kind:       ManifestKind,
		Metadata: model.ManifestMetadata{
			Name:          topology.Schema.Name,
			SchemaVersion: topology.Schema.Version,
		},
		StartupOrder: append([]string{}, topology.Order...),
		Artifacts:    make([]model.ManifestArtifact, 0),
		Secrets:      make([]string, 0),
	}

	owners := make(map[string]string)
	seen := make(map[string]bool)
	for i, id := range topology.Order {
		for _, artifact := range rendered[i] {
			if owner, exists := owners[artifact.Path]; exists {
				return nil, &model.RenderError{Service: id, Artifact: artifact.Path, Err: fmt.Errorf("path already rendered by service %q", owner)}
			}
			owners[artifact.Path] = id
			manifest.Artifacts = append(manifest.Artifacts, artifact)
		}
		for _, name := range referenced[i] {
			if !seen[name] {
				seen[name] = true
				manifest.Secrets = append(manifest.Secrets, name)
			}
		}
	}
	sort.Strings(manifest.Secrets)

	checksum, err := ConfigChecksum(topology)
	if err != nil {
		return nil, err
	}
	manifest.ConfigChecksum = checksum
	manifest.ResolutionID = uuid.NewSHA1(resolutionNamespace, []byte(checksum)).String()

	r.opts.Logger.Debug().
		Int("services", len(manifest.StartupOrder)).
		Int("artifacts", len(manifest.Artifacts)).
		Str("resolutionId", manifest.ResolutionID).
		Msg("Manifest rendered")

	return manifest, nil
}

func (r *Renderer) renderService(topology *model.ResolvedTopology, serviceID string, secrets []string) ([]model.ManifestArtifact, error) {
	ctx, err := NewContext(topology, serviceID, secrets)
	if err != nil {
		return nil, err
	}

	artifacts := ctx.service.Definition.Artifacts
	out := make([]model.ManifestArtifact, 0, len(artifacts))
	for i, artifact := range artifacts {
		name := fmt.Sprintf("%s.artifacts[%d]", serviceID, i)

		target, err := r.paths.execute(name+".path", artifact.Path, ctx)
		if err == nil {
			target, err = cleanPath(target)
		}
		if err != nil {
			return nil, &model.RenderError{Service: serviceID, Artifact: artifact.Path, Err: err}
		}

		content, err := r.evaluator.Evaluate(artifact, ctx)
		if err != nil {
			return nil, &model.RenderError{Service: serviceID, Artifact: target, Err: err}
		}

		out = append(out, model.ManifestArtifact{
			Path:     target,
			Service:  serviceID,
			Engine:   artifact.EngineName(),
			Content:  content,
			Checksum: Checksum(content),
		})
	}

	return out, nil
}

// cleanPath normalizes a rendered artifact path and keeps it inside the output root
func cleanPath(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", errors.New("artifact path is empty")
	}
	if path.IsAbs(p) {
		return "", fmt.Errorf("artifact path %q must be relative", p)
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("artifact path %q escapes the output directory", raw)
	}
	return p, nil
}

// Checksum returns the hex encoded SHA-256 of content
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ConfigChecksum hashes the canonical JSON encoding of the resolution inputs
// that determine the manifest: schema identity, startup order and merged configuration.
func ConfigChecksum(topology *model.ResolvedTopology) (string, error) {
	data, err := json.Marshal(struct {
		Schema  string                    `json:"schema"`
		Version string                    `json:"version"`
		Order   []string                  `json:"order"`
		Config  map[string]map[string]any `json:"config"`
	}{
		Schema:  topology.Schema.Name,
		Version: topology.Schema.Version,
		Order:   topology.Order,
		Config:  topology.Config,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode configuration: %v", model.ErrInternal, err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
