package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an issue by the error taxonomy
type Kind string

const (
	KindSchemaIntegrity  Kind = "SchemaIntegrityError"
	KindConfigValidation Kind = "ConfigValidationError"
	KindTopology         Kind = "TopologyError"
	KindRender           Kind = "RenderError"
)

// Severity separates blocking errors from warnings
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of a validation stage
type Issue struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path" yaml:"path"`
	Message  string   `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Kind, i.Path, i.Message)
}

// Result collects every issue found by a collect-all stage
type Result struct {
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Errorf records an error-class issue
func (r *Result) Errorf(kind Kind, path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning
func (r *Result) Warnf(kind Kind, path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Merge appends the issues of other
func (r *Result) Merge(other Result) {
	r.Issues = append(r.Issues, other.Issues...)
}

// OK reports whether no error-class issue was recorded
func (r Result) OK() bool {
	return len(r.Errors()) == 0
}

// Errors returns the error-class issues
func (r Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warnings
func (r Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r Result) filter(sev Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// Sort orders issues by path then message so reports are stable
func (r *Result) Sort() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		if r.Issues[i].Path != r.Issues[j].Path {
			return r.Issues[i].Path < r.Issues[j].Path
		}
		return r.Issues[i].Message < r.Issues[j].Message
	})
}

// ValidationError is returned when a collect-all stage finds errors
type ValidationError struct {
	Stage  string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.String())
	}
	return fmt.Sprintf("%s failed with %d error(s): %s", e.Stage, len(e.Issues), strings.Join(msgs, "; "))
}

// HasKind reports whether any issue is of the given kind
func (e *ValidationError) HasKind(kind Kind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// RenderError reports a failed artifact evaluation
type RenderError struct {
	Service  string
	Artifact string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: render %s/%s: %v", KindRender, e.Service, e.Artifact, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ErrInternal marks violations of invariants guaranteed by earlier stages
var ErrInternal = errors.New("internal invariant violated")
