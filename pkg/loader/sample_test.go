package loader

import (
	"strings"
	"testing"
)

func TestSampleDeterministic(t *testing.T) {
	cfg := SampleConfig{Points: 50, Levels: 4, Branching: 2, Seed: 7}
	a := Sample(cfg)
	b := Sample(cfg)
	if len(a) != 50 {
		t.Fatalf("expected 50 points, got %d", len(a))
	}
	for i := range a {
		if a[i].X != b[i].X || a[i].Y != b[i].Y || a[i].Path() != b[i].Path() {
			t.Fatalf("point %d differs between runs", i)
		}
	}
}

func TestSampleHierarchyIsNested(t *testing.T) {
	pts := Sample(SampleConfig{Points: 100, Levels: 3, Branching: 3, Seed: 1})
	for i, p := range pts {
		if len(p.Clusters) != 3 {
			t.Fatalf("point %d has %d levels", i, len(p.Clusters))
		}
		// L1-a.b must extend L0-a
		parent := strings.TrimPrefix(string(p.Clusters[0]), "L0-")
		child := strings.TrimPrefix(string(p.Clusters[1]), "L1-")
		if !strings.HasPrefix(child, parent+".") {
			t.Errorf("point %d: %s is not nested in %s", i, p.Clusters[1], p.Clusters[0])
		}
	}
}

func TestSampleDefaults(t *testing.T) {
	pts := Sample(SampleConfig{})
	def := DefaultSampleConfig()
	if len(pts) != def.Points {
		t.Errorf("expected %d points, got %d", def.Points, len(pts))
	}
	if pts.Depth() != def.Levels {
		t.Errorf("expected depth %d, got %d", def.Levels, pts.Depth())
	}
}
