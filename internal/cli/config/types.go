// Package config provides configuration management for the logdetective CLI.
//
// Values are layered with koanf: built-in defaults, then logdetective.yaml,
// then LOGDETECTIVE_* environment variables, then explicitly set flags.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Output      string       `koanf:"output" yaml:"output"`
	Verbose     bool         `koanf:"verbose" yaml:"verbose"`
	Language    string       `koanf:"language" yaml:"language"`
	MaxFrames   int          `koanf:"max_frames" yaml:"max_frames"`
	Jobs        int          `koanf:"jobs" yaml:"jobs"`
	HistoryPath string       `koanf:"history_path" yaml:"history_path"`
	Watch       WatchConfig  `koanf:"watch" yaml:"watch"`
	Server      ServerConfig `koanf:"server" yaml:"server"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	// Debounce is the quiet period after the last write before parsing.
	Debounce time.Duration `koanf:"debounce" yaml:"debounce"`
	// PollFromStart parses the existing file contents before following.
	PollFromStart bool `koanf:"poll_from_start" yaml:"poll_from_start"`
}

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// Default configuration values.
const (
	DefaultConfigFile  = "logdetective.yaml"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLanguage    = "auto"
	DefaultMaxFrames   = 5
	DefaultJobs        = 4
	DefaultHistoryFile = ".logdetective/history.db"
	DefaultDebounce    = 300 * time.Millisecond
	DefaultServerAddr  = "127.0.0.1:8080"
)

// defaults returns the flat key map loaded before any other source.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"output":                DefaultOutput,
		"verbose":               false,
		"language":              DefaultLanguage,
		"max_frames":            DefaultMaxFrames,
		"jobs":                  DefaultJobs,
		"history_path":          DefaultHistoryFile,
		"watch.debounce":        DefaultDebounce.String(),
		"watch.poll_from_start": false,
		"server.addr":           DefaultServerAddr,
	}
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Output:      DefaultOutput,
		Language:    DefaultLanguage,
		MaxFrames:   DefaultMaxFrames,
		Jobs:        DefaultJobs,
		HistoryPath: DefaultHistoryFile,
		Watch:       WatchConfig{Debounce: DefaultDebounce},
		Server:      ServerConfig{Addr: DefaultServerAddr},
	}
}
