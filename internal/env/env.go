// Package env loads KEY=VALUE pairs from a .env file into the process
// environment so config files can reference secrets with ${VAR}.
package env

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Load reads path (".env" when empty) and sets every KEY=VALUE line with
// os.Setenv. Blank lines and lines starting with # are skipped, surrounding
// quotes are stripped and values in the file override the environment. A
// missing file is not an error.
func Load(path string) error {
	if path == "" {
		path = ".env"
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
