package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load for fields the file leaves unset.
const (
	DefaultConcurrency = 8
	DefaultCacheSize   = 4096
	DefaultDebounce    = 300 * time.Millisecond
	DefaultAddr        = "127.0.0.1:7420"
)

// DefaultEditor opens a file at a line in VS Code.
var DefaultEditor = []string{"code", "--goto", "{file}:{line}"}

// FileNames are tried in order in the workspace root.
var FileNames = []string{"archgraph.yml", "archgraph.yaml"}

// ProjectConfig holds workspace-level settings loaded from archgraph.yml.
type ProjectConfig struct {
	ExcludeDirs []string      `yaml:"excludeDirs,omitempty"`
	Ignore      []string      `yaml:"ignore,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
	CacheSize   int           `yaml:"cacheSize,omitempty"`
	Debounce    time.Duration `yaml:"debounce,omitempty"`
	Addr        string        `yaml:"addr,omitempty"`
	Editor      []string      `yaml:"editor,omitempty"`
	LogLevel    string        `yaml:"logLevel,omitempty"`
	LogFormat   string        `yaml:"logFormat,omitempty"`

	// Path is the file the config was read from, "" for defaults.
	Path string `yaml:"-"`
}

// Default returns a config with every default applied.
func Default() *ProjectConfig {
	cfg := &ProjectConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load attempts to read archgraph.yml or archgraph.yaml from the given
// directory. Returns the defaults (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Path = path
		cfg.applyDefaults()
		return &cfg, nil
	}
	return Default(), nil
}

func (c *ProjectConfig) applyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if len(c.Editor) == 0 {
		c.Editor = append([]string(nil), DefaultEditor...)
	}
}

// Validate rejects settings no component can run with.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cacheSize must be >= 0, got %d", c.CacheSize))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must be >= 0, got %s", c.Debounce))
	}
	hasFile := false
	for _, arg := range c.Editor {
		if strings.Contains(arg, "{file}") {
			hasFile = true
			break
		}
	}
	if !hasFile {
		errs = append(errs, errors.New("editor template must contain {file}"))
	}
	return errors.Join(errs...)
}
