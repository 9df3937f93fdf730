package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/shapespec/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new shapespec project",
	Long: `Initialize a new shapespec project in the given directory (default: current).

This creates:
  - .shapespec.config.json  - Configuration file
  - example.shape.yaml      - Example suite file
  - fixtures/user.json      - Data checked by the example suite

Examples:
  shapespec init
  shapespec init ./checks --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSuite = `# Each suite checks the structure of one target document.
# Run with: shapespec run example.shape.yaml
suites:
  - name: user
    description: The user fixture has the expected shape
    tags: [smoke]
    target: fixtures/user.json
    tests:
      id: {type: number, value: 1}
      name: string
      email: string
      roles: string[]
      profile:
        type: object
        tests:
          joined: string
          active: {type: boolean, value: true}

  - name: inline data
    tags: [smoke]
    data: {status: ok, count: 3}
    tests:
      status: {value: ok}
      count: number
`

const exampleFixture = `{
  "id": 1,
  "name": "Ada Lovelace",
  "email": "ada@example.com",
  "roles": ["admin", "author"],
  "profile": {
    "joined": "1842-10-01",
    "active": true
  }
}
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := filepath.Join(dir, "example.shape.yaml")
	fixtureFile := filepath.Join(dir, "fixtures", "user.json")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile, fixtureFile} {
			if _, err := os.Stat(f); err == nil {
				return exitError(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(fixtureFile), 0755); err != nil {
		return fmt.Errorf("failed to create fixtures directory: %w", err)
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	for _, f := range []struct {
		path    string
		content string
	}{
		{exampleFile, exampleSuite},
		{fixtureFile, exampleFixture},
	} {
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", f.path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nshapespec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'shapespec run %s' to check the example suites.\n", exampleFile)

	return nil
}
