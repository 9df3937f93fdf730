// Package config handles configuration loading and management for shapespec.
//
// It provides functionality for:
//   - Loading configuration from .shapespec.config.json or .shapespecrc files
//   - Default configuration values
//   - Merging file configuration with command line overrides
package config
