package config

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Config is the parsed loxide.yaml.
type Config struct {
	Debug       DebugConfig       `yaml:"debug"`
	Log         LogConfig         `yaml:"log"`
	GC          GCConfig          `yaml:"gc"`
	Cache       CacheConfig       `yaml:"cache"`
	Repl        ReplConfig        `yaml:"repl"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

type DebugConfig struct {
	// PrintCode logs the disassembly of every compiled chunk.
	PrintCode bool `yaml:"print_code,omitempty"`

	// TraceExecution logs every executed instruction with the stack.
	TraceExecution bool `yaml:"trace_execution,omitempty"`
}

type LogConfig struct {
	// Level is a logrus level name: panic, fatal, error, warn, info, debug, trace.
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `yaml:"format,omitempty"`
}

type GCConfig struct {
	// Stress runs a full collection before every allocation.
	Stress bool `yaml:"stress,omitempty"`

	// InitialThreshold is the number of allocated bytes that triggers the first collection.
	InitialThreshold int `yaml:"initial_threshold,omitempty"`

	// GrowFactor multiplies the live size after a collection to get the next threshold.
	GrowFactor int `yaml:"grow_factor,omitempty"`
}

type CacheConfig struct {
	// Enabled makes `loxide <file>` reuse compiled bundles across runs.
	Enabled bool `yaml:"enabled,omitempty"`

	// Path of the SQLite database. Relative paths are resolved against the config file directory.
	Path string `yaml:"path,omitempty"`
}

type ReplConfig struct {
	// HistoryFile is relative to the user's home directory unless absolute.
	HistoryFile string `yaml:"history_file,omitempty"`
}

type DiagnosticsConfig struct {
	// Color is one of auto, always, never.
	Color string `yaml:"color,omitempty"`
}

var (
	logLevels   = []string{"panic", "fatal", "error", "warn", "warning", "info", "debug", "trace"}
	logFormats  = []string{"text", "json"}
	colorModes  = []string{"auto", "always", "never"}
	defaultGCMB = 1024 * 1024
)

// Default returns the configuration used when no loxide.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses a loxide.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses loxide.yaml content from bytes.
// The path argument is used for error messages and to resolve relative paths.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if cfg.Cache.Path != "" && !filepath.IsAbs(cfg.Cache.Path) && path != "" {
		cfg.Cache.Path = filepath.Join(filepath.Dir(path), cfg.Cache.Path)
	}
	return &cfg, nil
}

// Find searches for loxide.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Log.Level != "" && !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%s: log.level: unknown level %q", path, c.Log.Level)
	}
	if c.Log.Format != "" && !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("%s: log.format: must be one of %v, got %q", path, logFormats, c.Log.Format)
	}
	if c.Diagnostics.Color != "" && !slices.Contains(colorModes, c.Diagnostics.Color) {
		return fmt.Errorf("%s: diagnostics.color: must be one of %v, got %q", path, colorModes, c.Diagnostics.Color)
	}
	if c.GC.InitialThreshold < 0 {
		return fmt.Errorf("%s: gc.initial_threshold: must not be negative", path)
	}
	if c.GC.GrowFactor < 0 || c.GC.GrowFactor == 1 {
		return fmt.Errorf("%s: gc.grow_factor: must be at least 2", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.GC.InitialThreshold == 0 {
		c.GC.InitialThreshold = defaultGCMB
	}
	if c.GC.GrowFactor == 0 {
		c.GC.GrowFactor = 2
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(".loxide", "cache.db")
	}
	if c.Repl.HistoryFile == "" {
		c.Repl.HistoryFile = ".loxide_history"
	}
	if c.Diagnostics.Color == "" {
		c.Diagnostics.Color = "auto"
	}
}
