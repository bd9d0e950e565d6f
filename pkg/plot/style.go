package plot

import (
	"hash/fnv"
	"sort"

	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// NeutralColor is used for points outside the selected cluster.
const NeutralColor = "#808080"

// MarkerStyle is the rendered form of one retained point.
type MarkerStyle struct {
	Index int // position in the input embeddings
	X, Y  float64

	// ColorKey is the cluster id the marker is colored by. Defined is false
	// when the point has no assignment at the level being colored.
	ColorKey model.ClusterID
	Defined  bool

	// Neutral markers are dimmed members of a non-selected cluster.
	Neutral bool
	Opacity float64
}

// Color resolves the marker color through p.
func (m MarkerStyle) Color(p Palette) string {
	if m.Neutral {
		return NeutralColor
	}
	if !m.Defined {
		return ""
	}
	return p.Color(m.ColorKey)
}

// View is an immutable snapshot of the derived plot state.
type View struct {
	Level        int
	MaxLevel     int
	Threshold    int
	SliderMax    int
	Selected     model.ClusterID
	HasSelection bool

	Markers []MarkerStyle
	Total   int

	MinX, MaxX float64
	MinY, MaxY float64
}

// Retained returns the number of markers that passed the density filter.
func (v *View) Retained() int { return len(v.Markers) }

// KeyCount pairs a color key with the number of markers using it.
type KeyCount struct {
	Key   model.ClusterID
	Count int
}

// ColorKeys returns the defined, non-neutral color keys in the view ordered
// by descending marker count, then by key.
func (v *View) ColorKeys() []KeyCount {
	counts := make(map[model.ClusterID]int)
	for _, m := range v.Markers {
		if m.Neutral || !m.Defined {
			continue
		}
		counts[m.ColorKey]++
	}
	out := make([]KeyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KeyCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (c *ClusterPlot) styleFor(idx int) MarkerStyle {
	p := c.points[idx]
	m := MarkerStyle{Index: idx, X: p.X, Y: p.Y, Opacity: 1}

	current, ok := p.ClusterAt(c.level)
	if c.hasSelection {
		if !ok || current != c.selected {
			m.Neutral = true
			m.Opacity = DimmedOpacity
			return m
		}
		if c.level < c.opts.MaxLevel {
			m.ColorKey, m.Defined = p.ClusterAt(c.level + 1)
			return m
		}
	}
	m.ColorKey, m.Defined = current, ok
	return m
}

// Palette assigns colors to cluster ids.
type Palette []string

// DefaultPalette is a ten color qualitative palette.
var DefaultPalette = Palette{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Color returns a stable color for id. The same id always maps to the same
// color regardless of which other ids are present.
func (p Palette) Color(id model.ClusterID) string {
	if len(p) == 0 {
		return NeutralColor
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return p[h.Sum32()%uint32(len(p))]
}
