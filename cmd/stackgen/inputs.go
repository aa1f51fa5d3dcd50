package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sourceplane/stackgen/internal/loader"
	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/resolve"
)

// progress receives the human progress markers
var progress io.Writer = os.Stdout

// loadInputs reads the schema and the optional user configuration named by the settings
func loadInputs(cfg *Config) (*model.Schema, *model.UserConfiguration, error) {
	fmt.Fprintln(progress, "□ Loading schema...")
	schema, err := loader.LoadSchema(cfg.Schema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schema: %w", err)
	}

	if cfg.Config == "" {
		return schema, nil, nil
	}

	fmt.Fprintln(progress, "□ Loading configuration...")
	userConfig, err := loader.LoadUserConfig(cfg.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return schema, userConfig, nil
}

func newResolver(cfg *Config) *resolve.Resolver {
	return resolve.NewResolver(resolve.Options{
		Logger:      log.Logger,
		Parallelism: cfg.Parallelism,
	})
}

// printIssues lists issues one per line, errors before warnings
func printIssues(w io.Writer, issues []model.Issue) {
	for _, sev := range []model.Severity{model.SeverityError, model.SeverityWarning} {
		for _, issue := range issues {
			if issue.Severity != sev {
				continue
			}
			marker := "✗"
			if sev == model.SeverityWarning {
				marker = "!"
			}
			fmt.Fprintf(w, "  %s %s\n", marker, issue)
		}
	}
}

// reportFailure lists the issues carried by a validation failure and
// returns a one-line error in its place. Other errors are wrapped as is.
func reportFailure(w io.Writer, err error) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		printIssues(w, verr.Issues)
		return fmt.Errorf("resolution failed: %s validation found %d error(s)", verr.Stage, len(verr.Issues))
	}
	return fmt.Errorf("resolution failed: %w", err)
}
