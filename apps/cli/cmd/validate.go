package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/shapespec/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Validate suite files for syntax errors",
	Long: `Validate suite files without loading their targets or running checks.

Examples:
  shapespec validate user.shape.yaml
  shapespec validate ./checks/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitError(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitError(ExitUsageError, errNoSuiteFiles)
	}

	hasErrors := false
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d suites)\n", file, len(f.Suites))
	}

	if hasErrors {
		return exitError(ExitParseError, errors.New("validation failed"))
	}

	return nil
}
