package plot

import (
	"math"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/testutil"
)

func pt(x, y float64, clusters ...model.ClusterID) model.Point {
	return model.Point{X: x, Y: y, Clusters: clusters}
}

// twoLevel is a small hierarchy spanning x in [0, 10]:
// A splits into A1/A2, B stays B1.
func twoLevel() model.Embeddings {
	return model.Embeddings{
		pt(0, 0, "A", "A1"),
		pt(1, 1, "A", "A1"),
		pt(2, 0, "A", "A2"),
		pt(8, 5, "B", "B1"),
		pt(10, 6, "B", "B1"),
	}
}

func TestRelativeZoom(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 4, SliderMax: 10})

	tests := []struct {
		name   string
		x0, x1 float64
		want   float64
	}{
		{"full extent", 0, 10, 0},
		{"half extent", 2, 7, 0.5},
		{"wider than extent clamps to 0", -10, 20, 0},
		{"equal bounds clamps to 1", 3, 3, 1},
		{"reversed bounds clamps to 1", 7, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.RelativeZoom(tt.x0, tt.x1)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RelativeZoom(%v, %v) = %v, want %v", tt.x0, tt.x1, got, tt.want)
			}
		})
	}
}

func TestRelativeZoomZeroExtent(t *testing.T) {
	c := New(model.Embeddings{pt(3, 0, "A"), pt(3, 1, "A")}, Options{MaxLevel: 2})
	if got := c.RelativeZoom(3, 3); got != 0 {
		t.Errorf("expected 0 for zero extent, got %v", got)
	}
	if c.HandleRelayout(Range(1, 2)) {
		t.Error("zero extent should never change level")
	}
}

func TestHandleRelayoutMapsToLevel(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 4, SliderMax: 10})

	if !c.HandleRelayout(Range(2, 7)) {
		t.Fatal("expected level change")
	}
	if c.Level() != 2 {
		t.Errorf("half zoom with MaxLevel 4: want level 2, got %d", c.Level())
	}

	// 0.75 * 4 = 3
	c.HandleRelayout(Range(0, 2.5))
	if c.Level() != 3 {
		t.Errorf("want level 3, got %d", c.Level())
	}

	// Same span again: no change reported
	if c.HandleRelayout(Range(5, 7.5)) {
		t.Error("same span should not report a change")
	}
}

func TestHandleRelayoutMissingBound(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 4})
	c.HandleRelayout(Range(4, 6))
	before := c.Level()

	x := 1.0
	if c.HandleRelayout(RelayoutEvent{X0: &x}) {
		t.Error("missing X1 should be a no-op")
	}
	if c.HandleRelayout(RelayoutEvent{X1: &x}) {
		t.Error("missing X0 should be a no-op")
	}
	if c.HandleRelayout(RelayoutEvent{}) {
		t.Error("empty event should be a no-op")
	}
	if c.Level() != before {
		t.Errorf("level changed from %d to %d", before, c.Level())
	}
}

func TestMaxLevelZeroStaysAtRoot(t *testing.T) {
	c := New(twoLevel(), DefaultOptions())
	c.HandleRelayout(Range(5, 5))
	if c.Level() != 0 {
		t.Errorf("MaxLevel 0 must pin level to 0, got %d", c.Level())
	}
}

func TestDensityFilterExample(t *testing.T) {
	pts := model.Embeddings{
		pt(0, 0, "A"), pt(1, 0, "A"), pt(2, 0, "B"), pt(3, 0, "B"),
	}
	c := New(pts, DefaultOptions())

	c.SetDensityThreshold(2)
	if got := len(c.Retained()); got != 4 {
		t.Errorf("threshold 2: want 4 retained, got %d", got)
	}
	c.SetDensityThreshold(3)
	if got := len(c.Retained()); got != 0 {
		t.Errorf("threshold 3: want 0 retained, got %d", got)
	}
}

func TestDensityFilterUsesCurrentLevel(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1, SliderMax: 10})
	c.SetDensityThreshold(2)

	// Level 0: A has 3, B has 2 -> all retained
	if got := len(c.Retained()); got != 5 {
		t.Errorf("level 0: want 5, got %d", got)
	}

	c.SetLevel(1)
	// Level 1: A1=2, A2=1, B1=2 -> A2 dropped
	got := c.Retained()
	if len(got) != 4 {
		t.Fatalf("level 1: want 4, got %d (%v)", len(got), got)
	}
	for _, idx := range got {
		if idx == 2 {
			t.Error("A2 singleton should be filtered out")
		}
	}
}

func TestDensityThresholdClamped(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1, SliderMax: 5})
	c.SetDensityThreshold(50)
	if c.Threshold() != 5 {
		t.Errorf("want clamp to 5, got %d", c.Threshold())
	}
	c.SetDensityThreshold(-3)
	if c.Threshold() != 0 {
		t.Errorf("want clamp to 0, got %d", c.Threshold())
	}
}

func TestClusterCounts(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1})
	counts := c.ClusterCounts(1)
	want := map[model.ClusterID]int{"A1": 2, "A2": 1, "B1": 2}
	if len(counts) != len(want) {
		t.Fatalf("want %v, got %v", want, counts)
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("count[%s] = %d, want %d", k, counts[k], v)
		}
	}
	if len(c.ClusterCounts(7)) != 0 {
		t.Error("out-of-range level should have no counts")
	}
}

func TestClickToggleSelection(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1})
	i := 0

	c.Click(&i)
	sel, ok := c.Selected()
	if !ok || sel != "A" {
		t.Fatalf("want A selected, got %q (%v)", sel, ok)
	}

	// Another point of the same cluster toggles off
	j := 1
	c.Click(&j)
	if _, ok := c.Selected(); ok {
		t.Error("clicking the selected cluster again should clear")
	}

	// Switching clusters replaces the selection
	c.Click(&i)
	k := 3
	c.Click(&k)
	if sel, _ := c.Selected(); sel != "B" {
		t.Errorf("want B selected, got %q", sel)
	}

	// Empty space clears
	c.Click(nil)
	if _, ok := c.Selected(); ok {
		t.Error("click on empty space should clear selection")
	}
}

func TestStylesWithoutSelection(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1})
	v := c.View()
	if v.Retained() != 5 {
		t.Fatalf("want 5 markers, got %d", v.Retained())
	}
	for _, m := range v.Markers {
		if m.Neutral || m.Opacity != 1 || !m.Defined {
			t.Errorf("marker %d: unexpected style %+v", m.Index, m)
		}
	}
	if v.Markers[3].ColorKey != "B" {
		t.Errorf("want level-0 color key B, got %q", v.Markers[3].ColorKey)
	}
}

func TestStylesRevealSubstructure(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1})
	i := 0
	c.Click(&i) // select A at level 0

	v := c.View()
	want := []struct {
		key     model.ClusterID
		neutral bool
		opacity float64
	}{
		{"A1", false, 1},
		{"A1", false, 1},
		{"A2", false, 1},
		{"", true, DimmedOpacity},
		{"", true, DimmedOpacity},
	}
	for idx, w := range want {
		m := v.Markers[idx]
		if m.Neutral != w.neutral || m.Opacity != w.opacity || (!w.neutral && m.ColorKey != w.key) {
			t.Errorf("marker %d: got %+v, want key=%s neutral=%v opacity=%v", idx, m, w.key, w.neutral, w.opacity)
		}
	}
	if got := v.Markers[3].Color(DefaultPalette); got != NeutralColor {
		t.Errorf("dimmed marker color = %s, want %s", got, NeutralColor)
	}
}

func TestStylesAtDeepestLevel(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1})
	c.SetLevel(1)
	i := 0
	c.Click(&i) // select A1 at the deepest level

	v := c.View()
	if v.Markers[0].ColorKey != "A1" {
		t.Errorf("no deeper level: want current key A1, got %q", v.Markers[0].ColorKey)
	}
	if !v.Markers[2].Neutral {
		t.Error("A2 should be dimmed when A1 is selected")
	}
}

func TestMalformedClustersAreUndefined(t *testing.T) {
	pts := model.Embeddings{pt(0, 0, "A"), pt(4, 1, "A", "A1")}
	c := New(pts, Options{MaxLevel: 1})
	c.SetLevel(1)

	v := c.View()
	if v.Retained() != 2 {
		t.Fatalf("threshold 0 must keep malformed points, got %d", v.Retained())
	}
	if v.Markers[0].Defined {
		t.Error("missing level should yield an undefined color")
	}
	if v.Markers[0].Color(DefaultPalette) != "" {
		t.Error("undefined marker should have no color")
	}
}

func TestViewMemoized(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1, SliderMax: 10})
	v1 := c.View()
	if c.View() != v1 {
		t.Error("view should be reused until state changes")
	}
	c.SetDensityThreshold(3)
	if c.View() == v1 {
		t.Error("view should be rebuilt after threshold change")
	}
}

func TestColorKeysOrdering(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1})
	keys := c.View().ColorKeys()
	if len(keys) != 2 || keys[0].Key != "A" || keys[0].Count != 3 || keys[1].Key != "B" {
		t.Errorf("unexpected keys %+v", keys)
	}
}

func TestPaletteStable(t *testing.T) {
	a := DefaultPalette.Color("cluster-7")
	b := DefaultPalette.Color("cluster-7")
	if a != b || a == "" {
		t.Errorf("palette not stable: %q vs %q", a, b)
	}
	if (Palette{}).Color("x") != NeutralColor {
		t.Error("empty palette should fall back to neutral")
	}
}

func TestNegativeOptionsUseDefaults(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: -1, SliderMax: -1})
	if c.Options() != DefaultOptions() {
		t.Errorf("want defaults, got %+v", c.Options())
	}
}

func TestDensityFilterSizedClusters(t *testing.T) {
	pts := testutil.NewDefault().Sized(5, 2, 8, 1)
	c := New(pts, Options{MaxLevel: 0, SliderMax: 10})

	tests := []struct {
		threshold int
		want      int
	}{
		{0, 16},
		{1, 16},
		{2, 15},
		{5, 13},
		{6, 8},
		{9, 0},
	}
	for _, tt := range tests {
		c.SetDensityThreshold(tt.threshold)
		if got := len(c.Retained()); got != tt.want {
			t.Errorf("threshold %d: retained %d, want %d", tt.threshold, got, tt.want)
		}
	}
}

func TestStylesAlignWithRetained(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1, SliderMax: 10})
	c.SetDensityThreshold(3)

	retained := c.Retained()
	styles := c.Styles()
	if len(styles) != len(retained) {
		t.Fatalf("styles %d, retained %d", len(styles), len(retained))
	}
	for i, m := range styles {
		if m.Index != retained[i] {
			t.Errorf("style %d has index %d, want %d", i, m.Index, retained[i])
		}
	}
}

func TestClusterCountsReturnsCopy(t *testing.T) {
	c := New(twoLevel(), Options{MaxLevel: 1, SliderMax: 10})
	counts := c.ClusterCounts(0)
	counts["A"] = 0
	delete(counts, "B")

	c.SetDensityThreshold(2)
	if got := len(c.Retained()); got != 5 {
		t.Errorf("retained %d after mutating returned counts, want 5", got)
	}
	if c.ClusterCounts(0)["A"] != 3 {
		t.Errorf("memoised counts were modified: %v", c.ClusterCounts(0))
	}
}

func TestNumericClusterSpellingsShareDensity(t *testing.T) {
	var pts model.Embeddings
	data := `[{"x":0,"y":0,"clusters":[1]},{"x":1,"y":1,"clusters":[1.0]},{"x":2,"y":2,"clusters":[1e0]}]`
	if err := json.Unmarshal([]byte(data), &pts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c := New(pts, DefaultOptions())
	if counts := c.ClusterCounts(0); len(counts) != 1 || counts["1"] != 3 {
		t.Fatalf("want one cluster of 3, got %v", counts)
	}
	c.SetDensityThreshold(3)
	if got := len(c.Retained()); got != 3 {
		t.Errorf("threshold 3: retained %d of 3", got)
	}

	hit := 0
	c.Click(&hit)
	for _, m := range c.View().Markers {
		if m.Neutral {
			t.Errorf("marker %d dimmed; every spelling belongs to the selection", m.Index)
		}
	}
}

func TestNullClusterIsUnassigned(t *testing.T) {
	var pts model.Embeddings
	data := `[{"x":0,"y":0,"clusters":[null]},{"x":1,"y":0,"clusters":[null]},{"x":2,"y":0,"clusters":["A"]},{"x":3,"y":0,"clusters":["A"]}]`
	if err := json.Unmarshal([]byte(data), &pts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c := New(pts, Options{MaxLevel: 0, SliderMax: 10})

	if counts := c.ClusterCounts(0); len(counts) != 1 || counts["A"] != 2 {
		t.Errorf("null ids must not form a cluster, got %v", counts)
	}
	v := c.View()
	if v.Markers[0].Defined || v.Markers[1].Defined {
		t.Error("null ids should be styled as undefined")
	}

	c.SetDensityThreshold(2)
	if got := c.Retained(); len(got) != 2 || got[0] != 2 {
		t.Errorf("threshold 2: retained %v, want [2 3]", got)
	}

	hit := 0
	c.Click(&hit)
	if _, ok := c.Selected(); ok {
		t.Error("clicking an unassigned point should not select a cluster")
	}
}
