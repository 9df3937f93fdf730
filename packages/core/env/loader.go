package env

import (
	"os"
	"strings"
)

// SystemPrefix marks OS environment variables exposed to suites as plain
// {{name}} variables.
const SystemPrefix = "SHAPESPEC_VAR_"

// LoadVariables merges suite variables from, in increasing precedence: the
// config file, SHAPESPEC_VAR_* environment variables and an optional .env
// file.
func LoadVariables(configVars map[string]any, envFile string) (map[string]any, error) {
	sources := []map[string]any{configVars, LoadSystemEnv(SystemPrefix)}

	if envFile != "" {
		dotenv, err := LoadDotEnv(envFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, dotenv)
	}

	return MergeVariables(sources...), nil
}

func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the OS environment variables starting with prefix,
// keyed by the rest of their name.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if name, found := strings.CutPrefix(key, prefix); found && name != "" {
			result[name] = value
		}
	}
	return result
}
