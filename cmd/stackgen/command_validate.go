package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration against its schema",
	Long:  "Run schema, structural and topology validation and report every issue found without rendering any artifact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateFiles()
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)
}

func validateFiles() error {
	schema, userConfig, err := loadInputs(settings)
	if err != nil {
		return err
	}

	fmt.Println("□ Validating schema, configuration and topology...")
	result := newResolver(settings).Validate(schema, userConfig)
	printIssues(os.Stdout, result.Issues)

	if !result.OK() {
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors()))
	}

	if n := len(result.Warnings()); n > 0 {
		fmt.Printf("✓ Configuration is valid (%d warning(s))\n", n)
		return nil
	}
	fmt.Println("✓ Configuration is valid")
	return nil
}
