package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sourceplane/stackgen/internal/model"
	"github.com/sourceplane/stackgen/internal/normalize"
	"github.com/sourceplane/stackgen/internal/render"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug schema normalization and resolution",
	RunE: func(cmd *cobra.Command, args []string) error {
		return debugSchema()
	},
}

func registerDebugCommand(root *cobra.Command) {
	root.AddCommand(debugCmd)
}

func debugSchema() error {
	schema, userConfig, err := loadInputs(settings)
	if err != nil {
		return err
	}

	fmt.Println("□ Normalizing schema...")
	ns, result := normalize.NormalizeSchema(schema)
	printIssues(os.Stdout, result.Issues)
	if !result.OK() {
		return fmt.Errorf("schema is invalid")
	}

	fmt.Printf("\nSchema: %s (version %s)\n", ns.Name, ns.Version)
	fmt.Printf("Services: %d\n", len(ns.Order))
	for _, id := range ns.Order {
		svc := ns.Services[id]
		def := svc.Definition
		fmt.Printf("  - %s: image=%s, enabled=%v, requires=%v, fields=%d, artifacts=%d\n",
			id, def.ImageRef(), def.Enabled, def.Requires, len(svc.FieldOrder), len(def.Artifacts))
		for _, cond := range svc.EnabledBy {
			fmt.Printf("      enabledBy: %s\n", cond)
		}
		for _, name := range svc.FieldOrder {
			field := svc.Fields[name]
			fmt.Printf("      %s (%s)%s\n", field.Key, field.Definition.Type, fieldRefs(field))
		}
	}

	fmt.Printf("Secrets: %d\n", len(ns.SecretOrder))
	for _, name := range ns.SecretOrder {
		secret := ns.Secrets[name]
		fmt.Printf("  - %s: requiredBy=%v", name, secret.Secret.RequiredBy)
		if secret.Condition != nil {
			fmt.Printf(", condition=%s", secret.Condition)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println("□ Resolving...")
	outcome, err := newResolver(settings).Resolve(schema, userConfig)
	if err != nil {
		return reportFailure(os.Stdout, err)
	}

	fmt.Printf("Startup order: %s\n\n", strings.Join(outcome.Topology.Order, " → "))
	fmt.Print(render.DebugDump(outcome.Manifest))

	return nil
}

// fieldRefs describes the parsed cross references of a field
func fieldRefs(field *model.NormalizedField) string {
	var refs []string
	for _, cond := range field.DependsOn {
		refs = append(refs, "dependsOn "+cond.String())
	}
	if field.RequiresField != nil {
		refs = append(refs, "requires "+field.RequiresField.String())
	}
	if field.Definition.SecretRef != "" {
		refs = append(refs, "secret "+field.Definition.SecretRef)
	}
	if len(refs) == 0 {
		return ""
	}
	return " [" + strings.Join(refs, "; ") + "]"
}
