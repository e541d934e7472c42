// Package config loads the YAML run configuration shared by the runners.
package config

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	aruntime "github.com/gosuda/algofr/runtime"
)

// Config holds run settings. Command-line options override what a file sets.
type Config struct {
	Step          bool     `yaml:"step"`
	MaxIterations int      `yaml:"max_iterations"`
	MaxCallDepth  int      `yaml:"max_call_depth"`
	MaxListCells  int      `yaml:"max_list_cells"`
	MaxTextLength int      `yaml:"max_text_length"`
	Seed          *int64   `yaml:"seed"`
	Inputs        []string `yaml:"inputs"`
	History       string   `yaml:"history"`
	Color         *bool    `yaml:"color"`
	TUI           bool     `yaml:"tui"`
	LogLevel      string   `yaml:"log_level"`
	Serve         Serve    `yaml:"serve"`
}

// Serve configures the HTTP playground started by "algofr serve".
type Serve struct {
	Listen     string        `yaml:"listen"`
	RunTimeout time.Duration `yaml:"run_timeout"`
	Retention  time.Duration `yaml:"retention"`
	PruneEvery time.Duration `yaml:"prune_every"`
	CacheSize  int           `yaml:"cache_size"`
}

func Default() *Config {
	return &Config{
		MaxIterations: aruntime.DefaultMaxIterations,
		MaxCallDepth:  aruntime.DefaultMaxCallDepth,
		MaxListCells:  aruntime.DefaultMaxListCells,
		MaxTextLength: aruntime.DefaultMaxTextLength,
		Serve: Serve{
			Listen:     ":8080",
			RunTimeout: 5 * time.Second,
			Retention:  30 * 24 * time.Hour,
			PruneEvery: time.Hour,
			CacheSize:  256,
		},
	}
}

// ValidationError lists every problem found in a config file.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config: %s is invalid:", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		err.(*ValidationError).Path = path
		return nil, err
	}
	return cfg, nil
}

// Decode reads a config document from r. An empty document yields the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var issues []string
	if c.MaxIterations < 0 {
		issues = append(issues, "max_iterations must not be negative")
	}
	if c.MaxCallDepth < 0 {
		issues = append(issues, "max_call_depth must not be negative")
	}
	if c.MaxListCells < 0 {
		issues = append(issues, "max_list_cells must not be negative")
	}
	if c.MaxTextLength < 0 {
		issues = append(issues, "max_text_length must not be negative")
	}
	if c.Serve.RunTimeout <= 0 {
		issues = append(issues, "serve.run_timeout must be positive")
	}
	if c.Serve.PruneEvery <= 0 {
		issues = append(issues, "serve.prune_every must be positive")
	}
	if c.Serve.CacheSize < 0 {
		issues = append(issues, "serve.cache_size must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Options translates the config into interpreter options.
func (c *Config) Options() []aruntime.Option {
	opts := []aruntime.Option{
		aruntime.WithMaxIterations(c.MaxIterations),
		aruntime.WithMaxCallDepth(c.MaxCallDepth),
		aruntime.WithMaxListCells(c.MaxListCells),
		aruntime.WithMaxTextLength(c.MaxTextLength),
	}
	if c.Seed != nil {
		opts = append(opts, aruntime.WithRand(rand.New(rand.NewSource(*c.Seed))))
	}
	return opts
}

// ColorEnabled reports the color setting, or def when the file left it unset.
func (c *Config) ColorEnabled(def bool) bool {
	if c.Color == nil {
		return def
	}
	return *c.Color
}
