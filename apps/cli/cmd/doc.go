// Package cmd implements the shapespec CLI commands using Cobra.
//
// Available commands:
//   - run: Check data against suite files
//   - validate: Check suite file syntax without loading any targets
//   - list: Display the suites defined in files
//   - init: Create a config file and an example suite
//   - history: Show recorded run outcomes
//   - version: Show shapespec version information
//
// Most run flags fall back to SHAPESPEC_* environment variables and then
// to the config file, so CI pipelines can be configured without flags.
package cmd
