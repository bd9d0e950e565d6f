package testutil

import (
	"strings"
	"testing"
)

func TestGridPathsNest(t *testing.T) {
	pts := New(GeneratorConfig{Levels: 3, Branching: 2}).Grid(8)
	AssertPointCount(t, pts, 8)
	AssertValid(t, pts, 2)
	for i, p := range pts {
		for l := 1; l < len(p.Clusters); l++ {
			if !strings.HasPrefix(string(p.Clusters[l]), string(p.Clusters[l-1])+".") {
				t.Errorf("point %d: %s not nested in %s", i, p.Clusters[l], p.Clusters[l-1])
			}
		}
	}
	if pts[0].Path() != "C0 > C0.0 > C0.0.0" || pts[7].Path() != "C1 > C1.1 > C1.1.1" {
		t.Errorf("unexpected paths %q %q", pts[0].Path(), pts[7].Path())
	}
}

func TestSized(t *testing.T) {
	pts := NewDefault().Sized(3, 1, 2)
	AssertPointCount(t, pts, 6)
	counts := map[string]int{}
	for _, p := range pts {
		counts[string(p.Clusters[0])]++
	}
	if counts["C0"] != 3 || counts["C1"] != 1 || counts["C2"] != 2 {
		t.Errorf("unexpected sizes %v", counts)
	}
}

func TestRagged(t *testing.T) {
	pts := NewDefault().Ragged(6, 3)
	if len(pts[0].Clusters) != 0 || len(pts[1].Clusters) != 1 || len(pts[2].Clusters) != 2 {
		t.Errorf("unexpected depths %d %d %d", len(pts[0].Clusters), len(pts[1].Clusters), len(pts[2].Clusters))
	}
	if err := pts.Validate(1); err == nil {
		t.Error("ragged data should fail validation")
	}
}

func TestDeterminism(t *testing.T) {
	a := NewDefault().Grid(20)
	b := NewDefault().Grid(20)
	AssertSamePoints(t, a, b)
}

func TestToJSONL(t *testing.T) {
	out := ToJSONL(NewDefault().Grid(3))
	if strings.Count(out, "\n") != 3 {
		t.Errorf("expected 3 lines, got %q", out)
	}
	if !strings.Contains(out, `"clusters":["C0","C0.0"]`) {
		t.Errorf("unexpected encoding %q", out)
	}
	if ToJSON(nil) != "[]" {
		t.Errorf("expected empty array, got %q", ToJSON(nil))
	}
}
