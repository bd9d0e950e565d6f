package ui

import (
	"math"
	"strings"

	"github.com/vanderheijden86/clusterplot/pkg/plot"
)

// Viewport is the visible data-space rectangle.
type Viewport struct {
	X0, X1 float64
	Y0, Y1 float64
}

// FullViewport covers every point of v. Degenerate spans are widened so
// the projection stays finite.
func FullViewport(v *plot.View) Viewport {
	vp := Viewport{X0: v.MinX, X1: v.MaxX, Y0: v.MinY, Y1: v.MaxY}
	if !(vp.X1 > vp.X0) {
		vp.X0, vp.X1 = vp.X0-1, vp.X0+1
	}
	if !(vp.Y1 > vp.Y0) {
		vp.Y0, vp.Y1 = vp.Y0-1, vp.Y0+1
	}
	return vp
}

// Width is the x span.
func (vp Viewport) Width() float64 { return vp.X1 - vp.X0 }

// Height is the y span.
func (vp Viewport) Height() float64 { return vp.Y1 - vp.Y0 }

// Zoom scales both spans by factor around (cx, cy). factor < 1 zooms in.
func (vp Viewport) Zoom(factor, cx, cy float64) Viewport {
	return Viewport{
		X0: cx - (cx-vp.X0)*factor,
		X1: cx + (vp.X1-cx)*factor,
		Y0: cy - (cy-vp.Y0)*factor,
		Y1: cy + (vp.Y1-cy)*factor,
	}
}

// ZoomCentre scales both spans around the viewport centre.
func (vp Viewport) ZoomCentre(factor float64) Viewport {
	cx, cy := vp.Centre()
	return vp.Zoom(factor, cx, cy)
}

// Centre returns the midpoint.
func (vp Viewport) Centre() (float64, float64) {
	return (vp.X0 + vp.X1) / 2, (vp.Y0 + vp.Y1) / 2
}

// Pan shifts the viewport by fractions of its spans.
func (vp Viewport) Pan(fx, fy float64) Viewport {
	dx, dy := vp.Width()*fx, vp.Height()*fy
	return Viewport{X0: vp.X0 + dx, X1: vp.X1 + dx, Y0: vp.Y0 + dy, Y1: vp.Y1 + dy}
}

// Contains reports whether (x, y) lies inside the viewport.
func (vp Viewport) Contains(x, y float64) bool {
	return x >= vp.X0 && x <= vp.X1 && y >= vp.Y0 && y <= vp.Y1
}

type cell struct {
	marker int // index into View.Markers, -1 when empty
}

// Canvas is a rasterised view: every cell holds at most one marker. A
// colored marker wins over a dimmed one sharing its cell.
type Canvas struct {
	Width, Height int
	Viewport      Viewport

	view  *plot.View
	cells []cell
}

// NewCanvas projects the markers of v into a width x height grid.
func NewCanvas(v *plot.View, vp Viewport, width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &Canvas{Width: width, Height: height, Viewport: vp, view: v, cells: make([]cell, width*height)}
	for i := range c.cells {
		c.cells[i].marker = -1
	}

	for i, m := range v.Markers {
		col, row, ok := c.project(m.X, m.Y)
		if !ok {
			continue
		}
		slot := &c.cells[row*width+col]
		if slot.marker >= 0 && !v.Markers[slot.marker].Neutral && m.Neutral {
			continue
		}
		slot.marker = i
	}
	return c
}

// project maps data coordinates to a cell. Points on the far edges belong
// to the last column/row.
func (c *Canvas) project(x, y float64) (int, int, bool) {
	vp := c.Viewport
	if !vp.Contains(x, y) || vp.Width() <= 0 || vp.Height() <= 0 {
		return 0, 0, false
	}
	col := int(math.Floor((x - vp.X0) / vp.Width() * float64(c.Width)))
	row := c.Height - 1 - int(math.Floor((y-vp.Y0)/vp.Height()*float64(c.Height)))
	col = min(max(col, 0), c.Width-1)
	row = min(max(row, 0), c.Height-1)
	return col, row, true
}

// DataAt returns the data coordinates at the centre of a cell.
func (c *Canvas) DataAt(col, row int) (float64, float64) {
	vp := c.Viewport
	x := vp.X0 + (float64(col)+0.5)/float64(c.Width)*vp.Width()
	y := vp.Y0 + (float64(c.Height-row)-0.5)/float64(c.Height)*vp.Height()
	return x, y
}

// HitTest returns the point index (into the embeddings) drawn at a cell.
func (c *Canvas) HitTest(col, row int) (int, bool) {
	if col < 0 || col >= c.Width || row < 0 || row >= c.Height {
		return 0, false
	}
	mi := c.cells[row*c.Width+col].marker
	if mi < 0 {
		return 0, false
	}
	return c.view.Markers[mi].Index, true
}

// Nearest returns the point index of the visible marker closest to (x, y)
// in data space.
func (c *Canvas) Nearest(x, y float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for _, m := range c.view.Markers {
		if !c.Viewport.Contains(m.X, m.Y) {
			continue
		}
		dx := (m.X - x) / c.Viewport.Width()
		dy := (m.Y - y) / c.Viewport.Height()
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = m.Index, d
		}
	}
	return best, best >= 0
}

// Visible counts the cells holding a marker.
func (c *Canvas) Visible() int {
	n := 0
	for _, cl := range c.cells {
		if cl.marker >= 0 {
			n++
		}
	}
	return n
}

// glyphs used by Render.
type glyphs struct {
	point, dim, undefined string
}

// Render draws the grid row by row.
func (c *Canvas) Render(theme Theme, palette plot.Palette, styles *markerStyles, g glyphs) string {
	var sb strings.Builder
	for row := 0; row < c.Height; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < c.Width; col++ {
			mi := c.cells[row*c.Width+col].marker
			if mi < 0 {
				sb.WriteByte(' ')
				continue
			}
			m := c.view.Markers[mi]
			switch {
			case m.Neutral:
				sb.WriteString(theme.Neutral.Render(g.dim))
			case !m.Defined:
				sb.WriteString(theme.Undefined.Render(g.undefined))
			default:
				sb.WriteString(styles.get(m.Color(palette)).Render(g.point))
			}
		}
	}
	return sb.String()
}
