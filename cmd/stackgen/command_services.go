package main

import (
	"fmt"
	"os"

	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/normalize"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:     "services [service-id]",
	Aliases: []string{"service"},
	Short:   "List services and why they are active",
	Long:    "List every declared service with its activation state under the configuration. Use 'stackgen services <id>' for details.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listServices(args)
	},
}

func registerServicesCommand(root *cobra.Command) {
	root.AddCommand(servicesCmd)

	servicesCmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Show detailed information")
}

func listServices(args []string) error {
	schema, userConfig, err := loadInputs(settings)
	if err != nil {
		return err
	}

	ns, result := normalize.NormalizeSchema(schema)
	if !result.OK() {
		printIssues(os.Stdout, result.Issues)
		return fmt.Errorf("schema is invalid")
	}

	analyzer := expand.NewServiceAnalyzer(ns, userConfig)

	if len(args) == 1 {
		summary, res := analyzer.GetServiceByName(args[0])
		if summary == nil {
			return fmt.Errorf("service %q not found in schema %s", args[0], ns.Name)
		}
		printIssues(os.Stdout, res.Issues)
		PrintLongFormat(os.Stdout, ExtractServiceInfo(ns, summary))
		return nil
	}

	summaries, res := analyzer.ListAll()
	printIssues(os.Stdout, res.Issues)

	fmt.Printf("\nServices in %s (%d):\n\n", ns.Name, len(summaries))
	for _, summary := range summaries {
		info := ExtractServiceInfo(ns, summary)
		if longFormat {
			PrintLongFormat(os.Stdout, info)
		} else {
			PrintShortFormat(os.Stdout, info)
		}
	}

	return nil
}
