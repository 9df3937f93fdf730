package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/shapespec/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List all suites in suite files",
	Long: `List all suites defined in .shape.yaml, .shape.yml or .shape.json files.

Examples:
  shapespec list user.shape.yaml
  shapespec list ./checks/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitError(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitError(ExitUsageError, errNoSuiteFiles)
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(out, "\n%s:\n", file)
		for _, s := range f.Suites {
			fmt.Fprintf(out, "  - %s (%s)\n", s.Name, suiteSource(s))
			if len(s.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %s\n", strings.Join(s.Tags, ", "))
			}
			if s.Skip != "" {
				fmt.Fprintf(out, "    skip: %s\n", s.Skip)
			}
		}
	}

	return nil
}

// suiteSource describes where a suite's target comes from.
func suiteSource(s *parser.Suite) string {
	var src string
	switch {
	case s.Target != "":
		src = "target " + s.Target
	case s.Command != "":
		src = "command"
	default:
		src = "inline data"
	}
	if s.Select != "" {
		src += ", select " + s.Select
	}
	return src
}
