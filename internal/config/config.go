// Package config loads and validates webbundle project configuration.
// Values come from webbundle.yaml, overridden by environment variables,
// overridden by CLI flags, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all webbundle configuration.
type Config struct {
	// Root is the project root; paths and URLs are resolved against it.
	Root string `yaml:"root"`

	// Entrypoints are the build targets, as root-relative paths, in
	// declaration order. Declaration order matters: it is the tie-break when
	// a document is claimable by more than one bundle.
	Entrypoints []string `yaml:"entrypoints"`

	// Shell, when set, selects the shell-merge strategy.
	Shell string `yaml:"shell"`

	// InlineScripts and InlineStylesheets gate script/stylesheet inlining.
	// Imports are always inlined.
	InlineScripts     bool `yaml:"inline_scripts"`
	InlineStylesheets bool `yaml:"inline_stylesheets"`

	// Exclude lists glob patterns (matched against root-relative URLs) to
	// skip during ingestion.
	Exclude []string `yaml:"exclude"`

	// OutDir is where the bundled file set is written.
	OutDir string `yaml:"out_dir"`

	// Logging controls diagnostic output.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{
		Root:              ".",
		InlineScripts:     true,
		InlineStylesheets: true,
		OutDir:            "bundled",
	}
}

// Load reads a project file into the defaults. A missing file is not an
// error: defaults apply. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variables over file/flag values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WEBBUNDLE_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("WEBBUNDLE_OUT"); v != "" {
		c.OutDir = v
	}
}

// Validate checks the configuration before a build starts.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("root %q: %w", c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %q is not a directory", c.Root)
	}
	if c.OutDir == "" {
		return fmt.Errorf("out_dir must not be empty")
	}
	if c.Shell != "" && len(c.Entrypoints) == 0 {
		return fmt.Errorf("shell requires at least one entrypoint")
	}
	for _, e := range c.Entrypoints {
		if filepath.IsAbs(e) {
			return fmt.Errorf("entrypoint %q must be root-relative", e)
		}
	}
	return nil
}
