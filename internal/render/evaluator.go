package render

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/sourceplane/stackgen/internal/model"
)

// Evaluator turns one artifact template and a context into rendered text
type Evaluator interface {
	Evaluate(artifact model.ArtifactTemplate, ctx *Context) (string, error)
}

// EngineEvaluator dispatches artifacts to the engine they declare
type EngineEvaluator struct {
	templates *templateEngine
}

// NewEngineEvaluator creates an evaluator supporting the template, env, compose and traefik engines
func NewEngineEvaluator() *EngineEvaluator {
	return &EngineEvaluator{templates: newTemplateEngine()}
}

// Evaluate renders the artifact with its engine
func (e *EngineEvaluator) Evaluate(artifact model.ArtifactTemplate, ctx *Context) (string, error) {
	switch engine := artifact.EngineName(); engine {
	case model.EngineTemplate:
		return e.templates.execute(artifact.Path, artifact.Template, ctx)
	case model.EngineEnv:
		return renderEnv(ctx)
	case model.EngineCompose:
		return renderCompose(ctx)
	case model.EngineTraefik:
		return renderTraefik(ctx)
	default:
		return "", fmt.Errorf("unknown engine %q", engine)
	}
}

// templateEngine executes Go text templates, caching parsed templates by source
type templateEngine struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

func newTemplateEngine() *templateEngine {
	return &templateEngine{cache: make(map[string]*template.Template)}
}

var templateFuncs = template.FuncMap{
	"secret": secretPlaceholder,
	"envKey": envKey,
	"join":   strings.Join,
	"quote":  strconv.Quote,
}

func (te *templateEngine) execute(name, text string, data any) (string, error) {
	tmpl, err := te.parse(name, text)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (te *templateEngine) parse(name, text string) (*template.Template, error) {
	te.mu.Lock()
	defer te.mu.Unlock()

	if tmpl, exists := te.cache[text]; exists {
		return tmpl, nil
	}

	tmpl, err := template.New(name).Option("missingkey=error").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	te.cache[text] = tmpl
	return tmpl, nil
}

// secretPlaceholder is the token a downstream secret-injection step replaces
func secretPlaceholder(name string) string {
	return "${" + name + "}"
}
