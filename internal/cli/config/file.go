package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefaultFile when the target exists and force is not set.
var ErrConfigExists = errors.New("config file already exists")

// Keys returns every settable configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults()))
	for key := range defaults() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteDefaultFile writes a config file populated with default values.
func WriteDefaultFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetFileValue sets key to raw in the YAML file at path, creating the file
// if needed. The value is converted to the key's type and validated.
func SetFileValue(path, key, raw string) error {
	def, ok := defaults()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}

	value, err := convertValue(key, def, raw)
	if err != nil {
		return err
	}

	doc := make(map[string]interface{})
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own --config flag
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = make(map[string]interface{})
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	setNested(doc, strings.Split(key, "."), value)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// convertValue parses raw into the type of the key's default value.
func convertValue(key string, def interface{}, raw string) (interface{}, error) {
	switch def.(type) {
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, raw)
		}
		return v, nil
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", key, raw)
		}
		return v, nil
	}

	switch key {
	case "watch.debounce":
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("%s expects a duration such as 500ms, got %q", key, raw)
		}
	case "output":
		probe := Default()
		probe.Output = raw
		if err := probe.Validate(); err != nil {
			return nil, err
		}
	case "language":
		if _, err := ParseLanguage(raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func setNested(doc map[string]interface{}, path []string, value interface{}) {
	if len(path) == 1 {
		doc[path[0]] = value
		return
	}
	child, ok := doc[path[0]].(map[string]interface{})
	if !ok {
		child = make(map[string]interface{})
		doc[path[0]] = child
	}
	setNested(child, path[1:], value)
}

// Values returns the configuration as flattened key to display value pairs.
// The keys match Keys.
func (c *Config) Values() map[string]string {
	return map[string]string{
		"output":                c.Output,
		"verbose":               strconv.FormatBool(c.Verbose),
		"language":              c.Language,
		"max_frames":            strconv.Itoa(c.MaxFrames),
		"jobs":                  strconv.Itoa(c.Jobs),
		"history_path":          c.HistoryPath,
		"watch.debounce":        c.Watch.Debounce.String(),
		"watch.poll_from_start": strconv.FormatBool(c.Watch.PollFromStart),
		"server.addr":           c.Server.Addr,
	}
}
