package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/clusterplot/pkg/config"
	"github.com/vanderheijden86/clusterplot/pkg/export"
	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
)

func TestParseFlagsTracksExplicitFlags(t *testing.T) {
	f, _, err := parseFlags([]string{"-max-level", "3", "-watch", "-data", "x.json"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if !f.set["max-level"] || !f.set["watch"] || !f.set["data"] {
		t.Errorf("expected explicit flags recorded, got %v", f.set)
	}
	if f.set["slider-max"] {
		t.Error("slider-max was not given")
	}
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plot.Threshold = 50

	f, _, err := parseFlags([]string{"-max-level", "4", "-slider-max", "20", "-no-mouse", "-title", "T"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	got, err := applyFlags(cfg, f)
	if err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if got.Plot.MaxLevel != 4 || got.Plot.SliderMax != 20 {
		t.Errorf("unexpected plot config %+v", got.Plot)
	}
	if got.Plot.Threshold != 20 {
		t.Errorf("config threshold should clamp to the new slider max, got %d", got.Plot.Threshold)
	}
	if !got.UI.DisableMouse || got.Export.Title != "T" {
		t.Errorf("unexpected ui/export config %+v %+v", got.UI, got.Export)
	}
}

func TestApplyFlagsRejectsInvalid(t *testing.T) {
	f, _, err := parseFlags([]string{"-slider-max", "5", "-threshold", "9"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := applyFlags(config.DefaultConfig(), f); err == nil {
		t.Error("expected error for threshold above slider max")
	}
}

func TestExportTargets(t *testing.T) {
	f, _, err := parseFlags([]string{"-export-svg", "a.svg", "-export-sqlite", "b.db"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	targets := f.exportTargets()
	if len(targets) != 2 || targets["svg"] != "a.svg" || targets["sqlite"] != "b.db" {
		t.Errorf("unexpected targets %v", targets)
	}
}

func TestLoadPointsSample(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sample.Points = 40
	pts, err := loadPoints(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 40 {
		t.Errorf("expected 40 sample points, got %d", len(pts))
	}
	if err := pts.Validate(cfg.Plot.MaxLevel); err != nil {
		t.Errorf("sample data should cover every level: %v", err)
	}
}

func TestLoadPointsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.jsonl")
	data := "{\"x\":0,\"y\":0,\"clusters\":[\"A\"]}\n{\"x\":1,\"y\":1,\"clusters\":[\"B\"]}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.DataPath = path
	pts, err := loadPoints(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Errorf("expected 2 points, got %d", len(pts))
	}
}

func TestWarnValidation(t *testing.T) {
	var buf bytes.Buffer
	warnValidation(&buf, model.Embeddings{{X: 0, Y: 0, Clusters: []model.ClusterID{"A"}}}, 2)
	if !strings.Contains(buf.String(), "Warning") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
	buf.Reset()
	warnValidation(&buf, model.Embeddings{{X: 0, Y: 0, Clusters: []model.ClusterID{"A"}}}, 0)
	if buf.Len() != 0 {
		t.Errorf("expected no warning, got %q", buf.String())
	}
}

func TestExportToPaths(t *testing.T) {
	pts := model.Embeddings{
		{X: 0, Y: 0, Clusters: []model.ClusterID{"A"}},
		{X: 1, Y: 1, Clusters: []model.ClusterID{"B"}},
	}
	cp := plot.New(pts, plot.DefaultOptions())
	src := export.Source{View: cp.View(), Points: pts}

	dir := t.TempDir()
	targets := map[string]string{
		"svg":  filepath.Join(dir, "a.svg"),
		"html": filepath.Join(dir, "a.html"),
	}
	paths, err := exportToPaths(context.Background(), src, targets)
	if err != nil {
		t.Fatalf("exportToPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s missing: %v", p, err)
		}
	}

	if _, err := exportToPaths(context.Background(), src, map[string]string{"gif": filepath.Join(dir, "a.gif")}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunExportMode(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	out := filepath.Join(t.TempDir(), "plot.png")

	if code := run([]string{"-export-png", out, "-max-level", "3"}); code != 0 {
		t.Fatalf("run exited with %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}

func TestRunBadFlags(t *testing.T) {
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestFormatMs(t *testing.T) {
	if got := formatMs(0.5); got != "0.50ms" {
		t.Errorf("formatMs(0.5) = %q", got)
	}
	if got := formatMs(42); got != "42ms" {
		t.Errorf("formatMs(42) = %q", got)
	}
}
