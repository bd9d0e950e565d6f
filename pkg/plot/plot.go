// Package plot derives the rendered view of a hierarchically clustered
// scatter plot: which hierarchy level the current zoom maps to, which points
// survive the density filter, and how each retained point is colored.
//
// A ClusterPlot owns the ephemeral view state (level, density threshold,
// selection). Rendering front ends (the terminal chart in pkg/ui and the
// exporters in pkg/export) feed interaction events in and read a View out.
// The type is not safe for concurrent use; front ends drive it from a single
// event loop.
package plot

import (
	"maps"
	"math"

	"github.com/vanderheijden86/clusterplot/pkg/metrics"
	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// DimmedOpacity is applied to points outside the selected cluster.
const DimmedOpacity = 0.2

// Options configure a ClusterPlot at construction time.
type Options struct {
	// MaxLevel is the deepest hierarchy level reachable by zooming in.
	MaxLevel int
	// SliderMax is the upper bound of the density threshold.
	SliderMax int
}

// DefaultOptions are the defaults of the embeddable component.
func DefaultOptions() Options {
	return Options{MaxLevel: 0, SliderMax: 10}
}

// AppOptions are the defaults used by the standalone application.
func AppOptions() Options {
	return Options{MaxLevel: 10, SliderMax: 100}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxLevel < 0 {
		o.MaxLevel = def.MaxLevel
	}
	if o.SliderMax < 0 {
		o.SliderMax = def.SliderMax
	}
	return o
}

// RelayoutEvent carries new x-axis bounds from a zoom or pan. A nil bound
// means the front end did not report it (e.g. an autorange reset).
type RelayoutEvent struct {
	X0 *float64
	X1 *float64
}

// Range builds a RelayoutEvent with both bounds set.
func Range(x0, x1 float64) RelayoutEvent {
	return RelayoutEvent{X0: &x0, X1: &x1}
}

// ClusterPlot holds the embeddings and the derived view state.
type ClusterPlot struct {
	points model.Embeddings
	opts   Options

	minX, maxX  float64
	totalXRange float64

	level        int
	threshold    int
	selected     model.ClusterID
	hasSelection bool

	// memoized derivations, invalidated by state changes
	counts map[int]map[model.ClusterID]int
	view   *View
}

// New builds a ClusterPlot. The x range is computed once from the full
// input set; later zoom events are measured against it.
func New(points model.Embeddings, opts Options) *ClusterPlot {
	opts = opts.normalized()
	minX, maxX := points.XBounds()
	return &ClusterPlot{
		points:      points,
		opts:        opts,
		minX:        minX,
		maxX:        maxX,
		totalXRange: maxX - minX,
		counts:      make(map[int]map[model.ClusterID]int),
	}
}

// Points returns the embeddings backing the plot.
func (c *ClusterPlot) Points() model.Embeddings { return c.points }

// Options returns the normalized construction options.
func (c *ClusterPlot) Options() Options { return c.opts }

// Level returns the current hierarchy level.
func (c *ClusterPlot) Level() int { return c.level }

// Threshold returns the current density threshold.
func (c *ClusterPlot) Threshold() int { return c.threshold }

// Selected returns the selected cluster, if any.
func (c *ClusterPlot) Selected() (model.ClusterID, bool) {
	return c.selected, c.hasSelection
}

// RelativeZoom maps visible x bounds to a zoom amount in [0, 1], where 0 is
// the full extent and 1 is fully zoomed in. An empty input extent or a
// non-finite result yields 0.
func (c *ClusterPlot) RelativeZoom(x0, x1 float64) float64 {
	if c.totalXRange == 0 {
		return 0
	}
	rel := (c.totalXRange - (x1 - x0)) / c.totalXRange
	if math.IsNaN(rel) {
		return 0
	}
	return clamp(rel, 0, 1)
}

// LevelFor returns the hierarchy level a relative zoom maps to.
func (c *ClusterPlot) LevelFor(relativeZoom float64) int {
	lvl := int(math.Floor(relativeZoom * float64(c.opts.MaxLevel)))
	if lvl < 0 {
		return 0
	}
	if lvl > c.opts.MaxLevel {
		return c.opts.MaxLevel
	}
	return lvl
}

// HandleRelayout applies a zoom/pan event. Events missing either bound are
// ignored. It reports whether the level changed.
func (c *ClusterPlot) HandleRelayout(ev RelayoutEvent) bool {
	if ev.X0 == nil || ev.X1 == nil {
		return false
	}
	lvl := c.LevelFor(c.RelativeZoom(*ev.X0, *ev.X1))
	if lvl == c.level {
		return false
	}
	c.level = lvl
	c.invalidate()
	return true
}

// SetLevel jumps directly to a level, clamped to [0, MaxLevel].
func (c *ClusterPlot) SetLevel(level int) {
	level = int(clamp(float64(level), 0, float64(c.opts.MaxLevel)))
	if level != c.level {
		c.level = level
		c.invalidate()
	}
}

// SetDensityThreshold sets the minimum cluster size, clamped to
// [0, SliderMax].
func (c *ClusterPlot) SetDensityThreshold(t int) {
	t = int(clamp(float64(t), 0, float64(c.opts.SliderMax)))
	if t != c.threshold {
		c.threshold = t
		c.invalidate()
	}
}

// Click handles a click on the chart. A nil hit is a click on empty space
// and clears the selection. Otherwise the selection toggles to the hit
// point's cluster at the current level.
func (c *ClusterPlot) Click(hit *int) {
	if hit == nil || *hit < 0 || *hit >= len(c.points) {
		c.ClearSelection()
		return
	}
	id, ok := c.points[*hit].ClusterAt(c.level)
	if !ok {
		c.ClearSelection()
		return
	}
	if c.hasSelection && c.selected == id {
		c.ClearSelection()
		return
	}
	c.selected = id
	c.hasSelection = true
	c.invalidate()
}

// ClearSelection removes any selection.
func (c *ClusterPlot) ClearSelection() {
	if !c.hasSelection {
		return
	}
	c.selected = ""
	c.hasSelection = false
	c.invalidate()
}

// ClusterCounts returns the member count per cluster id at level. Points
// without an assignment at that level are not counted. The result is a copy
// the caller may modify.
func (c *ClusterPlot) ClusterCounts(level int) map[model.ClusterID]int {
	return maps.Clone(c.clusterCounts(level))
}

// clusterCounts memoises the per-level counts. The map is shared.
func (c *ClusterPlot) clusterCounts(level int) map[model.ClusterID]int {
	if counts, ok := c.counts[level]; ok {
		return counts
	}
	counts := make(map[model.ClusterID]int)
	for _, p := range c.points {
		if id, ok := p.ClusterAt(level); ok {
			counts[id]++
		}
	}
	c.counts[level] = counts
	return counts
}

// Retained returns the indices of points whose cluster at the current level
// has at least Threshold members.
func (c *ClusterPlot) Retained() []int {
	counts := c.clusterCounts(c.level)
	out := make([]int, 0, len(c.points))
	for i, p := range c.points {
		if c.threshold == 0 {
			out = append(out, i)
			continue
		}
		id, ok := p.ClusterAt(c.level)
		if ok && counts[id] >= c.threshold {
			out = append(out, i)
		}
	}
	return out
}

func (c *ClusterPlot) invalidate() {
	c.view = nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// View returns the derived view for the current state. The result is
// memoized until the next state change and must not be mutated.
func (c *ClusterPlot) View() *View {
	if c.view != nil {
		return c.view
	}
	defer metrics.Timer(metrics.ViewDerive)()

	retained := c.Retained()
	v := &View{
		Level:        c.level,
		MaxLevel:     c.opts.MaxLevel,
		Threshold:    c.threshold,
		SliderMax:    c.opts.SliderMax,
		Selected:     c.selected,
		HasSelection: c.hasSelection,
		Total:        len(c.points),
		MinX:         c.minX,
		MaxX:         c.maxX,
		Markers:      make([]MarkerStyle, 0, len(retained)),
	}
	v.MinY, v.MaxY = c.points.YBounds()
	for _, idx := range retained {
		v.Markers = append(v.Markers, c.styleFor(idx))
	}
	c.view = v
	return v
}

// Styles returns the marker styles of the retained points, in the order of
// Retained.
func (c *ClusterPlot) Styles() []MarkerStyle {
	return c.View().Markers
}
