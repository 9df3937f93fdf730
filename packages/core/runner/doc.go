// Package runner executes shapespec suite files.
//
// For each suite it:
//   - Loads the target from a file, inline data or a shell command
//   - Narrows it with a gjson select path
//   - Checks it against an optional JSON schema
//   - Resolves {{...}} expressions in the test nodes
//   - Runs the structural assertions and collects every result
//
// Suites run sequentially by default, or concurrently with a bounded
// number of workers when Parallel is set.
package runner
