// Package config handles loading and saving clusterplot configuration.
//
// Configuration follows the XDG Base Directory layout:
//   - Config: ~/.config/clusterplot/config.yaml
//
// Command-line flags override every value read here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlotConfig holds the construction options of the cluster plot.
type PlotConfig struct {
	MaxLevel  int `yaml:"max_level"`
	SliderMax int `yaml:"slider_max"`
	Threshold int `yaml:"default_threshold,omitempty"`
}

// UIConfig holds terminal chart preferences.
type UIConfig struct {
	DisableMouse bool   `yaml:"disable_mouse,omitempty"`
	PointGlyph   string `yaml:"point_glyph,omitempty"`
	DimGlyph     string `yaml:"dim_glyph,omitempty"`
}

// ExportConfig controls snapshot exports.
type ExportConfig struct {
	Dir     string   `yaml:"dir,omitempty"`
	Formats []string `yaml:"formats,omitempty"` // svg, png, html, sqlite
	Title   string   `yaml:"title,omitempty"`
}

// SampleConfig controls the generated data used when no file is given.
type SampleConfig struct {
	Points    int    `yaml:"points,omitempty"`
	Levels    int    `yaml:"levels,omitempty"`
	Branching int    `yaml:"branching,omitempty"`
	Seed      uint64 `yaml:"seed,omitempty"`
}

// Config is the top-level configuration for clusterplot.
type Config struct {
	DataPath string       `yaml:"data,omitempty"`
	Plot     PlotConfig   `yaml:"plot"`
	UI       UIConfig     `yaml:"ui,omitempty"`
	Export   ExportConfig `yaml:"export,omitempty"`
	Sample   SampleConfig `yaml:"sample,omitempty"`
}

// DefaultConfig returns a Config with the application defaults.
func DefaultConfig() Config {
	return Config{
		Plot: PlotConfig{
			MaxLevel:  10,
			SliderMax: 100,
		},
		UI: UIConfig{
			PointGlyph: "●",
			DimGlyph:   "·",
		},
		Export: ExportConfig{
			Dir:     ".",
			Formats: []string{"svg", "html"},
			Title:   "Cluster Plot",
		},
		Sample: SampleConfig{
			Points:    500,
			Levels:    11,
			Branching: 3,
			Seed:      42,
		},
	}
}

// ConfigDir returns the XDG config directory for clusterplot.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "clusterplot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clusterplot")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, layering it over the
// defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	cfg.DataPath = expandHome(cfg.DataPath)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	return cfg, nil
}

// Validate rejects values the plot cannot be built with.
func (c Config) Validate() error {
	if c.Plot.MaxLevel < 0 {
		return fmt.Errorf("plot.max_level must be >= 0, got %d", c.Plot.MaxLevel)
	}
	if c.Plot.SliderMax < 0 {
		return fmt.Errorf("plot.slider_max must be >= 0, got %d", c.Plot.SliderMax)
	}
	if c.Plot.Threshold < 0 || c.Plot.Threshold > c.Plot.SliderMax {
		return fmt.Errorf("plot.default_threshold must be within [0, %d], got %d", c.Plot.SliderMax, c.Plot.Threshold)
	}
	for _, f := range c.Export.Formats {
		switch strings.ToLower(f) {
		case "svg", "png", "html", "sqlite":
		default:
			return fmt.Errorf("export.formats: unsupported format %q", f)
		}
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
