package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Plot.MaxLevel != 10 {
		t.Errorf("expected max level 10, got %d", cfg.Plot.MaxLevel)
	}
	if cfg.Plot.SliderMax != 100 {
		t.Errorf("expected slider max 100, got %d", cfg.Plot.SliderMax)
	}
	if cfg.Sample.Levels != cfg.Plot.MaxLevel+1 {
		t.Errorf("sample data must cover every level: levels=%d max_level=%d", cfg.Sample.Levels, cfg.Plot.MaxLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Plot.SliderMax != 100 {
		t.Errorf("expected default config, got slider max %d", cfg.Plot.SliderMax)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
data: ~/embeddings/points.jsonl
plot:
  max_level: 4
  slider_max: 20
  default_threshold: 3
ui:
  disable_mouse: true
export:
  dir: ~/plots
  formats: [png, sqlite]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Plot.MaxLevel != 4 || cfg.Plot.SliderMax != 20 || cfg.Plot.Threshold != 3 {
		t.Errorf("unexpected plot config %+v", cfg.Plot)
	}
	if !cfg.UI.DisableMouse {
		t.Error("expected mouse disabled")
	}
	// Unset values keep their defaults
	if cfg.UI.PointGlyph != "●" {
		t.Errorf("expected default point glyph, got %q", cfg.UI.PointGlyph)
	}

	home, _ := os.UserHomeDir()
	if cfg.DataPath != filepath.Join(home, "embeddings/points.jsonl") {
		t.Errorf("expected expanded data path, got %q", cfg.DataPath)
	}
	if cfg.Export.Dir != filepath.Join(home, "plots") {
		t.Errorf("expected expanded export dir, got %q", cfg.Export.Dir)
	}
	if len(cfg.Export.Formats) != 2 || cfg.Export.Formats[1] != "sqlite" {
		t.Errorf("unexpected formats %v", cfg.Export.Formats)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative max level", func(c *Config) { c.Plot.MaxLevel = -1 }},
		{"negative slider", func(c *Config) { c.Plot.SliderMax = -5 }},
		{"threshold above slider", func(c *Config) { c.Plot.Threshold = 500 }},
		{"unknown format", func(c *Config) { c.Export.Formats = []string{"gif"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Plot.MaxLevel = 6
	cfg.Export.Formats = []string{"html"}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded.Plot.MaxLevel != 6 {
		t.Errorf("expected max level 6, got %d", loaded.Plot.MaxLevel)
	}
	if len(loaded.Export.Formats) != 1 || loaded.Export.Formats[0] != "html" {
		t.Errorf("unexpected formats %v", loaded.Export.Formats)
	}
}

func TestConfigPathRespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got := ConfigPath(); got != filepath.Join(dir, "clusterplot", "config.yaml") {
		t.Errorf("unexpected config path %q", got)
	}
}
