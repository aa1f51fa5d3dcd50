package main

import (
	"fmt"
	"os"

	"github.com/sourceplane/stackgen/internal/loader"
	"github.com/sourceplane/stackgen/internal/runner"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write the artifacts of a rendered manifest",
	Long:  "Write every artifact of a manifest under the output directory in startup order. Checksums are verified before anything is written.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyManifest()
	},
}

func registerApplyCommand(root *cobra.Command) {
	root.AddCommand(applyCmd)

	applyCmd.Flags().StringP("output", "o", "manifest.json", "Manifest file to apply (json or yaml)")
	applyCmd.Flags().StringP("out-dir", "d", "dist", "Directory the artifacts are written under")
	applyCmd.Flags().BoolVarP(&applyExecute, "execute", "x", false, "Actually write files (default is dry-run)")
}

func applyManifest() error {
	fmt.Println("□ Loading manifest...")
	manifest, err := loader.LoadManifest(settings.Output)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	dryRun := !applyExecute
	if dryRun {
		fmt.Println("□ Dry-run mode enabled. Use --execute to write files.")
	}

	r := runner.NewRunner(settings.OutDir, os.Stdout, dryRun)
	if err := r.Run(manifest); err != nil {
		return err
	}

	if dryRun {
		fmt.Println("✓ Dry-run complete")
	} else {
		fmt.Printf("✓ Artifacts written to %s\n", settings.OutDir)
	}

	return nil
}
