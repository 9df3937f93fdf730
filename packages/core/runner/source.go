package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/shapespec/packages/core/env"
	"github.com/abdul-hamid-achik/shapespec/packages/core/parser"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// loadTarget produces the value a suite validates.
func (r *Runner) loadTarget(ctx context.Context, suite *parser.Suite, resolver *env.Resolver, baseDir string) (any, error) {
	var value any

	switch {
	case suite.HasData:
		value = resolver.ResolveValue(suite.Data)

	case suite.Target != "":
		path := resolvePath(resolver.Resolve(suite.Target), baseDir)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading target: %w", err)
		}
		value, err = decode(content, path)
		if err != nil {
			return nil, fmt.Errorf("decoding target %s: %w", path, err)
		}

	case suite.Command != "":
		out, err := r.runCommand(ctx, resolver.Resolve(suite.Command), baseDir)
		if err != nil {
			return nil, err
		}
		value, err = decode(out, "")
		if err != nil {
			return nil, fmt.Errorf("decoding command output: %w", err)
		}

	default:
		return nil, fmt.Errorf("suite %q has no target", suite.Name)
	}

	if suite.Select == "" {
		return value, nil
	}
	return selectPath(value, resolver.Resolve(suite.Select))
}

// decode parses JSON or YAML content. The file extension picks the
// format; without one, JSON is tried first.
func decode(content []byte, path string) (any, error) {
	var value any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err := json.Unmarshal(content, &value)
		return value, err
	case ".yaml", ".yml":
		err := yaml.Unmarshal(content, &value)
		return value, err
	}

	if json.Valid(content) {
		err := json.Unmarshal(content, &value)
		return value, err
	}
	err := yaml.Unmarshal(content, &value)
	return value, err
}

// selectPath narrows value to the gjson path.
func selectPath(value any, path string) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("select %q: target is not JSON compatible: %w", path, err)
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil, fmt.Errorf("select %q matched nothing", path)
	}
	return result.Value(), nil
}

func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
