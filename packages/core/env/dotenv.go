package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadDotEnv reads suite variables from a .env file. A SHAPESPEC_VAR_
// prefix on a key is dropped, so one file can be sourced into the shell
// or passed with --env-file and yield the same names. Nothing is exported
// to the process environment.
func LoadDotEnv(path string) (map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	vars, err := parseDotEnv(file)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return vars, nil
}

func parseDotEnv(r io.Reader) (map[string]any, error) {
	vars := make(map[string]any)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		key = strings.TrimPrefix(key, SystemPrefix)
		if key == "" {
			continue
		}

		vars[key] = unquote(strings.TrimSpace(value))
	}

	return vars, scanner.Err()
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	if q := value[0]; (q == '"' || q == '\'') && value[len(value)-1] == q {
		return value[1 : len(value)-1]
	}
	return value
}
