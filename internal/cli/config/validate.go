package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mydoor3520/log-detective/pkg/core"
)

// OutputModes lists the accepted values of the output key.
var OutputModes = []string{"auto", "text", "table", "json", "markdown"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputModes, c.Output) {
		return fmt.Errorf("invalid output %q (expected one of: %s)", c.Output, strings.Join(OutputModes, ", "))
	}
	if _, err := c.Ecosystem(); err != nil {
		return err
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must not be negative, got %d", c.MaxFrames)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// Ecosystem resolves the language key. "auto" yields EcosystemUnknown,
// meaning detection runs per input.
func (c *Config) Ecosystem() (core.Ecosystem, error) {
	return ParseLanguage(c.Language)
}

// ParseLanguage converts a language override (auto, java, python) to an ecosystem.
func ParseLanguage(s string) (core.Ecosystem, error) {
	if s == "" || strings.EqualFold(s, "auto") {
		return core.EcosystemUnknown, nil
	}
	eco, ok := core.ParseEcosystem(s)
	if !ok || !eco.IsKnown() {
		return core.EcosystemUnknown, fmt.Errorf("invalid language %q (expected one of: auto, java, python)", s)
	}
	return eco, nil
}
