package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/render"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a configuration and render the manifest",
	Long:  "Validate the configuration, compute the active services and their startup order, and render every artifact into a manifest. Nothing is written when any stage fails.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveManifest()
	},
}

func registerResolveCommand(root *cobra.Command) {
	root.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("output", "o", "manifest.json", "Output manifest file path (- for stdout)")
	resolveCmd.Flags().StringP("format", "f", "", "Output format (json/yaml, default from the output extension)")
	resolveCmd.Flags().IntP("parallelism", "p", 0, "Services rendered concurrently (0: unbounded)")
	resolveCmd.Flags().StringVarP(&viewManifest, "view", "v", "", "View manifest (order/artifacts/service=NAME)")
	resolveCmd.Flags().BoolVar(&debugMode, "debug", false, "Print a manifest summary")
}

func resolveManifest() error {
	if settings.Output == "-" {
		progress = os.Stderr
	}

	schema, userConfig, err := loadInputs(settings)
	if err != nil {
		return err
	}

	fmt.Fprintln(progress, "□ Resolving services...")
	outcome, err := newResolver(settings).Resolve(schema, userConfig)
	if err != nil {
		return reportFailure(progress, err)
	}

	manifest := outcome.Manifest
	fmt.Fprintf(progress, "✓ %d of %d services active, %d artifacts rendered\n",
		len(manifest.StartupOrder), len(outcome.Topology.Schema.Order), len(manifest.Artifacts))

	if err := writeManifest(manifest, settings.Output, settings.Format); err != nil {
		return err
	}

	if debugMode {
		fmt.Println()
		fmt.Print(render.DebugDump(manifest))
	}

	if viewManifest != "" {
		return printManifestView(manifest, viewManifest)
	}

	return nil
}

func writeManifest(manifest *model.Manifest, output, format string) error {
	if output == "-" {
		data, err := render.EncodeManifest(manifest, format)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if format == "" {
		if err := render.WriteManifest(manifest, output); err != nil {
			return err
		}
	} else {
		data, err := render.EncodeManifest(manifest, format)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write manifest to %s: %w", output, err)
		}
	}

	fmt.Printf("✓ Manifest written to %s\n", output)
	return nil
}

func printManifestView(manifest *model.Manifest, view string) error {
	viewer := render.NewManifestViewer(manifest)

	switch {
	case view == "order":
		fmt.Print(viewer.ViewOrder())
	case view == "artifacts":
		fmt.Print(viewer.ViewArtifacts())
	case strings.HasPrefix(view, "service="):
		fmt.Print(viewer.ViewByService(strings.TrimPrefix(view, "service=")))
	default:
		return fmt.Errorf("unknown view %q (use order, artifacts or service=NAME)", view)
	}

	return nil
}
