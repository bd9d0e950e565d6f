package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/clusterplot/pkg/metrics"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
)

// SnapshotOptions controls static snapshot export.
type SnapshotOptions struct {
	Path    string       // Output path; format inferred from extension when Format empty
	Format  string       // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title   string       // Optional title rendered in the summary block
	View    *plot.View   // Derived view to render
	Palette plot.Palette // Colors for cluster keys; DefaultPalette when nil
	Width   int          // Canvas width in pixels (default 960)
	Height  int          // Canvas height in pixels (default 640)
	Window  *Window      // Data region to frame; full extent when nil
}

// SaveSnapshot renders a static scatter plot of the view as SVG or PNG.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.View == nil {
		return fmt.Errorf("no view to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	defer metrics.Timer(metrics.SnapshotExport)()
	layout := buildLayout(opts)

	var buf bytes.Buffer
	var err error
	switch format {
	case "svg":
		err = renderSVGToWriter(&buf, layout)
	case "png":
		err = renderPNGToWriter(&buf, layout)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(opts.Path, buf.Bytes(), 0o644)
}

// --- layout computation ----------------------------------------------------

type layoutMarker struct {
	X, Y    float64 // canvas coordinates
	Fill    color.RGBA
	Opacity float64
	Hollow  bool // undefined color
}

type legendEntry struct {
	Label string
	Fill  color.RGBA
	Count int
}

type layoutResult struct {
	Width, Height int
	Header        float64
	PlotX, PlotY  float64 // top-left of the plot frame
	PlotW, PlotH  float64
	Markers       []layoutMarker
	Legend        []legendEntry
	Summary       summaryInfo
}

type summaryInfo struct {
	Title     string
	Level     string
	Threshold string
	Points    string
	Selection string
}

const (
	snapshotPadding = 36.0
	headerHeight    = 110.0
	legendWidth     = 200.0
	markerRadius    = 4.0
	maxLegendRows   = 12
)

func buildLayout(opts SnapshotOptions) layoutResult {
	v := opts.View
	palette := opts.Palette
	if palette == nil {
		palette = plot.DefaultPalette
	}
	width, height := opts.Width, opts.Height
	if width < 480 {
		width = 960
	}
	if height < 360 {
		height = 640
	}

	l := layoutResult{
		Width:  width,
		Height: height,
		Header: headerHeight,
		PlotX:  snapshotPadding,
		PlotY:  snapshotPadding + headerHeight,
	}
	l.PlotW = float64(width) - 2*snapshotPadding - legendWidth
	l.PlotH = float64(height) - 2*snapshotPadding - headerHeight

	minX, maxX := padRange(v.MinX, v.MaxX)
	minY, maxY := padRange(v.MinY, v.MaxY)
	window := opts.Window
	if window.valid() {
		minX, maxX, minY, maxY = window.X0, window.X1, window.Y0, window.Y1
	} else {
		window = nil
	}
	project := func(x, y float64) (float64, float64) {
		px := l.PlotX + (x-minX)/(maxX-minX)*l.PlotW
		py := l.PlotY + l.PlotH - (y-minY)/(maxY-minY)*l.PlotH
		return px, py
	}

	l.Markers = make([]layoutMarker, 0, len(v.Markers))
	for _, m := range v.Markers {
		if window != nil && !window.contains(m.X, m.Y) {
			continue
		}
		px, py := project(m.X, m.Y)
		lm := layoutMarker{X: px, Y: py, Opacity: m.Opacity}
		if hex := m.Color(palette); hex != "" {
			lm.Fill = parseHex(hex)
		} else {
			lm.Fill = colorSubtle
			lm.Hollow = true
		}
		l.Markers = append(l.Markers, lm)
	}

	for i, kc := range v.ColorKeys() {
		if i == maxLegendRows {
			break
		}
		l.Legend = append(l.Legend, legendEntry{
			Label: truncate(string(kc.Key), 18),
			Fill:  parseHex(palette.Color(kc.Key)),
			Count: kc.Count,
		})
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Cluster Plot"
	}
	selection := "none"
	if v.HasSelection {
		selection = string(v.Selected)
	}
	points := fmt.Sprintf("points: %d of %d shown", v.Retained(), v.Total)
	if window != nil {
		points += fmt.Sprintf(", %d in view x [%.3g, %.3g]", len(l.Markers), window.X0, window.X1)
	}
	l.Summary = summaryInfo{
		Title:     title,
		Level:     fmt.Sprintf("level: %d / %d", v.Level, v.MaxLevel),
		Threshold: fmt.Sprintf("density threshold: %d / %d", v.Threshold, v.SliderMax),
		Points:    points,
		Selection: fmt.Sprintf("selected: %s", selection),
	}
	return l
}

// padRange widens [lo, hi] by 5% and guarantees a non-zero span.
func padRange(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return lo - 1, lo + 1
	}
	return lo - span*0.05, hi + span*0.05
}

// --- rendering -------------------------------------------------------------

var (
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorFrame    = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func renderPNGToWriter(w io.Writer, l layoutResult) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(l.Width)-32, l.Header-16, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, l)

	dc.SetColor(colorFrame)
	dc.SetLineWidth(1)
	dc.DrawRectangle(l.PlotX, l.PlotY, l.PlotW, l.PlotH)
	dc.Stroke()

	for _, m := range l.Markers {
		c := m.Fill
		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(math.Round(m.Opacity*255)))
		dc.DrawCircle(m.X, m.Y, markerRadius)
		if m.Hollow {
			dc.SetLineWidth(1)
			dc.Stroke()
		} else {
			dc.Fill()
		}
	}

	drawLegend(dc, l)
	return dc.EncodePNG(w)
}

func drawSummaryBlock(dc *gg.Context, l layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Summary.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(l.Summary.Level+"    "+l.Summary.Threshold, 32, 62, 0, 0.5)
	dc.DrawStringAnchored(l.Summary.Points, 32, 80, 0, 0.5)
	dc.DrawStringAnchored(l.Summary.Selection, 32, 98, 0, 0.5)
}

func drawLegend(dc *gg.Context, l layoutResult) {
	if len(l.Legend) == 0 {
		return
	}
	x := l.PlotX + l.PlotW + 16
	y := l.PlotY
	boxH := 28 + float64(len(l.Legend))*18
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, legendWidth-24, boxH, 8)
	dc.Fill()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Clusters", x+12, y+16, 0, 0.5)
	for i, e := range l.Legend {
		ry := y + 36 + float64(i)*18
		dc.SetColor(e.Fill)
		dc.DrawCircle(x+18, ry, 5)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("%s (%d)", e.Label, e.Count), x+30, ry, 0, 0.5)
	}
}

func renderSVGToWriter(w io.Writer, l layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, l.Width-32, int(l.Header-16), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(32, 44, l.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	sub := fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle))
	canvas.Text(32, 66, l.Summary.Level+"    "+l.Summary.Threshold, sub)
	canvas.Text(32, 84, l.Summary.Points, sub)
	canvas.Text(32, 102, l.Summary.Selection, sub)

	canvas.Rect(int(l.PlotX), int(l.PlotY), int(l.PlotW), int(l.PlotH),
		fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(colorFrame)))

	for _, m := range l.Markers {
		style := fmt.Sprintf("fill:%s;fill-opacity:%.2f", css(m.Fill), m.Opacity)
		if m.Hollow {
			style = fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(m.Fill))
		}
		canvas.Circle(int(math.Round(m.X)), int(math.Round(m.Y)), int(markerRadius), style)
	}

	if len(l.Legend) > 0 {
		x := int(l.PlotX + l.PlotW + 16)
		y := int(l.PlotY)
		boxH := 28 + len(l.Legend)*18
		canvas.Roundrect(x, y, int(legendWidth-24), boxH, 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
		canvas.Text(x+12, y+20, "Clusters", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		for i, e := range l.Legend {
			ry := y + 36 + i*18
			canvas.Circle(x+18, ry, 5, fmt.Sprintf("fill:%s", css(e.Fill)))
			canvas.Text(x+30, ry+4, fmt.Sprintf("%s (%d)", e.Label, e.Count),
				fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
		}
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// parseHex parses "#rrggbb"; anything else maps to colorSubtle.
func parseHex(hex string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return colorSubtle
	}
	return color.RGBA{r, g, b, 0xff}
}
