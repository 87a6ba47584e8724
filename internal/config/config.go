// Package config defines the site configuration consumed by the compiler and
// the watch coordinator. A SiteConfig is resolved once at startup from the
// optional YAML site file, environment overrides and CLI flags, then passed
// explicitly into every component; nothing in this package is mutated after
// resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultInputDir  = "src"
	DefaultOutputDir = "out"

	// Conventional chrome file names discovered at the input root when not
	// configured explicitly.
	defaultStylesheetName = "style.css"
	defaultHeaderName     = "header.html"
	defaultFooterName     = "footer.html"
)

// WatchConfig holds the tunables of the watch coordinator.
type WatchConfig struct {
	// DebounceMS is the quiet window: further events inside it reset the
	// pending-compile timer. 50-300ms trades responsiveness against
	// redundant recompiles during multi-file saves.
	DebounceMS int `yaml:"debounce_ms,omitempty"`

	// MaxDelayMS caps how long a steady stream of events can postpone a
	// compile.
	MaxDelayMS int `yaml:"max_delay_ms,omitempty"`

	// ResyncMinutes schedules a periodic full recompile to recover from
	// missed file-system events. Zero disables it.
	ResyncMinutes int `yaml:"resync_minutes,omitempty"`
}

// SiteConfig is the resolved configuration for one run.
type SiteConfig struct {
	InputDir  string `yaml:"input"`
	OutputDir string `yaml:"output"`

	// Optional chrome. Paths may live outside the input tree.
	Stylesheet string `yaml:"stylesheet,omitempty"`
	HeaderPath string `yaml:"header,omitempty"`
	FooterPath string `yaml:"footer,omitempty"`

	// CachePath enables the SQLite render cache when non-empty.
	CachePath string `yaml:"cache,omitempty"`

	Watch WatchConfig `yaml:"watch,omitempty"`

	// discovered tracks chrome paths filled in by DiscoverChrome, as opposed
	// to explicitly configured ones. A discovered file that later vanishes is
	// treated as absent; an explicit one stays a fatal error.
	discovered map[string]bool
}

// Default returns the baseline configuration before file/env/flag merging.
func Default() SiteConfig {
	return SiteConfig{
		InputDir:  DefaultInputDir,
		OutputDir: DefaultOutputDir,
		Watch: WatchConfig{
			DebounceMS: 200,
			MaxDelayMS: 2000,
		},
	}
}

// Load reads a YAML site file into a SiteConfig layered over Default.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*SiteConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = Default().Watch.DebounceMS
	}
	if cfg.Watch.MaxDelayMS <= 0 {
		cfg.Watch.MaxDelayMS = Default().Watch.MaxDelayMS
	}
	return &cfg, nil
}

// Init writes a starter site file. Existing files are preserved unless force
// is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	cfg := Default()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DiscoverChrome fills unset chrome paths from the conventional file names at
// the input root (style.css, header.html, footer.html). Only existing files
// are picked up, and they are remembered as discovered.
func (c *SiteConfig) DiscoverChrome() {
	probe := func(name string) string {
		p := filepath.Join(c.InputDir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
		return ""
	}
	if c.Stylesheet == "" {
		c.Stylesheet = c.markDiscovered(probe(defaultStylesheetName))
	}
	if c.HeaderPath == "" {
		c.HeaderPath = c.markDiscovered(probe(defaultHeaderName))
	}
	if c.FooterPath == "" {
		c.FooterPath = c.markDiscovered(probe(defaultFooterName))
	}
}

func (c *SiteConfig) markDiscovered(p string) string {
	if p == "" {
		return ""
	}
	if c.discovered == nil {
		c.discovered = make(map[string]bool)
	}
	c.discovered[p] = true
	return p
}

// DiscoveredChrome reports whether p was picked up by DiscoverChrome rather
// than configured explicitly.
func (c *SiteConfig) DiscoveredChrome(p string) bool {
	return p != "" && c.discovered[p]
}

// Validate performs the fatal pre-write checks. It must be called before the
// compiler touches the file system.
func (c *SiteConfig) Validate() error {
	st, err := os.Stat(c.InputDir)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("%w: %s", ErrInputDirMissing, c.InputDir)
	}
	if st, err := os.Stat(c.OutputDir); err == nil && !st.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputNotDirectory, c.OutputDir)
	}

	absIn, err := filepath.Abs(c.InputDir)
	if err != nil {
		return fmt.Errorf("resolve input dir: %w", err)
	}
	absOut, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	rel, err := filepath.Rel(absIn, absOut)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: input=%s output=%s", ErrOutputInsideInput, absIn, absOut)
	}
	return nil
}

// DebounceWindow returns the debounce quiet window as a duration.
func (c *SiteConfig) DebounceWindow() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// MaxDelay returns the debounce max-delay cap as a duration.
func (c *SiteConfig) MaxDelay() time.Duration {
	return time.Duration(c.Watch.MaxDelayMS) * time.Millisecond
}
