package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
)

// PlotlyCDN is the script the interactive page loads Plotly from.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// HTMLOptions configures interactive HTML generation.
type HTMLOptions struct {
	View    *plot.View
	Points  model.Embeddings // used for hover text and in-page re-derivation
	Palette plot.Palette
	Title   string
	Path    string  // output path for GenerateInteractiveHTML
	Window  *Window // initial axis ranges; full extent when nil
}

// htmlTrace is one Plotly scatter trace. Markers are grouped per color key
// so the Plotly legend lists clusters.
type htmlTrace struct {
	X          []float64  `json:"x"`
	Y          []float64  `json:"y"`
	Text       []string   `json:"text"`
	CustomData []int      `json:"customdata"`
	Name       string     `json:"name"`
	Mode       string     `json:"mode"`
	Type       string     `json:"type"`
	HoverInfo  string     `json:"hoverinfo"`
	ShowLegend bool       `json:"showlegend"`
	Marker     htmlMarker `json:"marker"`
}

type htmlMarker struct {
	Color   string       `json:"color"`
	Opacity float64      `json:"opacity"`
	Size    int          `json:"size"`
	Symbol  string       `json:"symbol,omitempty"`
	Line    *htmlOutline `json:"line,omitempty"`
}

type htmlOutline struct {
	Color string `json:"color"`
	Width int    `json:"width"`
}

// htmlState is what the page script needs to re-derive the view after a
// zoom, click or slider change in the browser.
type htmlState struct {
	Points      []htmlPoint `json:"points"`
	Level       int         `json:"level"`
	MaxLevel    int         `json:"maxLevel"`
	Threshold   int         `json:"threshold"`
	SliderMax   int         `json:"sliderMax"`
	Selected    *string     `json:"selected"`
	MinX        float64     `json:"minX"`
	MaxX        float64     `json:"maxX"`
	TotalXRange float64     `json:"totalXRange"`
	Palette     []string    `json:"palette"`
	Neutral     string      `json:"neutral"`
	Dimmed      float64     `json:"dimmed"`
	Labels      htmlLabels  `json:"labels"`
}

type htmlPoint struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Clusters []*string `json:"c"` // null where the level is unassigned
	Text     string    `json:"t"`
}

type htmlLabels struct {
	Neutral   string `json:"neutral"`
	Undefined string `json:"undefined"`
}

type htmlPage struct {
	Title     string
	Subtitle  string
	Script    string
	Threshold int
	SliderMax int
	Traces    template.JS
	Layout    template.JS
	State     template.JS
}

var htmlTemplate = template.Must(template.New("clusterplot").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Script}}"></script>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 0; background: #f9fafb; color: #111; }
header { padding: 16px 24px; background: #f3f4f6; border-bottom: 1px solid #cfd8dc; display: flex; align-items: center; gap: 24px; }
header h1 { margin: 0; font-size: 20px; }
header p { margin: 4px 0 0; color: #666; font-family: monospace; }
header label { margin-left: auto; font-family: monospace; color: #444; }
#plot { width: 100vw; height: calc(100vh - 80px); }
</style>
</head>
<body>
<header>
<div>
<h1>{{.Title}}</h1>
<p id="summary">{{.Subtitle}}</p>
</div>
<label>density &ge; <input id="threshold" type="range" min="0" max="{{.SliderMax}}" step="1" value="{{.Threshold}}"></label>
</header>
<div id="plot"></div>
<script>
(function () {
  var state = {{.State}};
  var layout = {{.Layout}};
  var plotEl = document.getElementById("plot");
  var summaryEl = document.getElementById("summary");
  var sliderEl = document.getElementById("threshold");
  var level = state.level, threshold = state.threshold, selected = state.selected;
  var encoder = new TextEncoder();

  function fnv(s) {
    var h = 0x811c9dc5, bytes = encoder.encode(s);
    for (var i = 0; i < bytes.length; i++) {
      h ^= bytes[i];
      h = Math.imul(h, 0x01000193) >>> 0;
    }
    return h >>> 0;
  }
  function colorOf(id) {
    return state.palette.length ? state.palette[fnv(id) % state.palette.length] : state.neutral;
  }
  function esc(s) {
    return String(s).split("&").join("&amp;").split("<").join("&lt;").split(">").join("&gt;")
      .split('"').join("&#34;").split("'").join("&#39;");
  }
  function clusterAt(p, l) {
    return l < p.c.length && p.c[l] !== null ? p.c[l] : null;
  }
  function relativeZoom(x0, x1) {
    if (!state.totalXRange) return 0;
    var rel = (state.totalXRange - (x1 - x0)) / state.totalXRange;
    if (isNaN(rel)) return 0;
    return Math.min(1, Math.max(0, rel));
  }
  function levelFor(rel) {
    return Math.min(state.maxLevel, Math.max(0, Math.floor(rel * state.maxLevel)));
  }
  function derive() {
    var counts = new Map(), groups = new Map(), order = [], shown = 0;
    state.points.forEach(function (p) {
      var id = clusterAt(p, level);
      if (id !== null) counts.set(id, (counts.get(id) || 0) + 1);
    });
    function group(key, name, color, opacity, hollow) {
      var t = groups.get(key);
      if (!t) {
        t = {x: [], y: [], text: [], customdata: [], name: esc(name), mode: "markers", type: "scattergl",
          hoverinfo: "text", showlegend: true, marker: {color: color, opacity: opacity, size: 6}};
        if (hollow) {
          t.marker.symbol = "circle-open";
          t.marker.line = {color: color, width: 1};
        }
        groups.set(key, t);
        order.push(key);
      }
      return t;
    }
    state.points.forEach(function (p, i) {
      var cur = clusterAt(p, level), t;
      if (threshold > 0 && (cur === null || counts.get(cur) < threshold)) return;
      if (selected !== null && cur !== selected) {
        t = group("n", state.labels.neutral, state.neutral, state.dimmed, false);
      } else {
        var key = cur;
        if (selected !== null && level < state.maxLevel) key = clusterAt(p, level + 1);
        t = key === null ? group("u", state.labels.undefined, state.neutral, 1, true)
          : group("k" + key, key, colorOf(key), 1, false);
      }
      t.x.push(p.x);
      t.y.push(p.y);
      t.text.push(p.t);
      t.customdata.push(i);
      shown++;
    });
    return {traces: order.map(function (k) { return groups.get(k); }), shown: shown};
  }
  function render() {
    var d = derive();
    layout.legend.title.text = "level " + level;
    Plotly.react(plotEl, d.traces, layout);
    summaryEl.textContent = "level " + level + "/" + state.maxLevel +
      " · threshold " + threshold + "/" + state.sliderMax +
      " · " + d.shown + " of " + state.points.length + " points" +
      " · selected: " + (selected === null ? "none" : selected);
  }

  Plotly.newPlot(plotEl, {{.Traces}}, layout, {responsive: true, scrollZoom: true}).then(function () {
    if (!state.points.length) {
      sliderEl.disabled = true;
      return;
    }
    plotEl.on("plotly_relayout", function (ev) {
      var x0 = ev["xaxis.range[0]"], x1 = ev["xaxis.range[1]"];
      if (ev["xaxis.range"]) {
        x0 = ev["xaxis.range"][0];
        x1 = ev["xaxis.range"][1];
      }
      if (ev["xaxis.autorange"]) {
        x0 = state.minX;
        x1 = state.maxX;
      }
      if (x0 === undefined || x1 === undefined) return;
      var next = levelFor(relativeZoom(Number(x0), Number(x1)));
      if (next !== level) {
        level = next;
        render();
      }
    });
    plotEl.on("plotly_click", function (ev) {
      if (!ev.points || !ev.points.length) return;
      var p = state.points[ev.points[0].customdata];
      var id = p ? clusterAt(p, level) : null;
      selected = id === null || id === selected ? null : id;
      render();
    });
    document.addEventListener("keydown", function (ev) {
      if (ev.key === "Escape" && selected !== null) {
        selected = null;
        render();
      }
    });
    sliderEl.addEventListener("input", function () {
      threshold = Math.min(state.sliderMax, Math.max(0, parseInt(sliderEl.value, 10) || 0));
      render();
    });
  });
})();
</script>
</body>
</html>
`))

// WriteInteractiveHTML renders the page for opts.View to w.
func WriteInteractiveHTML(w io.Writer, opts HTMLOptions) error {
	if opts.View == nil {
		return fmt.Errorf("no view to export")
	}
	palette := opts.Palette
	if palette == nil {
		palette = plot.DefaultPalette
	}
	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Cluster Plot"
	}
	v := opts.View

	tracesJSON, err := json.Marshal(buildTraces(v, opts.Points, palette))
	if err != nil {
		return fmt.Errorf("marshal traces: %w", err)
	}
	layoutJSON, err := json.Marshal(buildLayoutJSON(v, opts.Window))
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	stateJSON, err := json.Marshal(buildState(v, opts.Points, palette))
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	selection := "none"
	if v.HasSelection {
		selection = string(v.Selected)
	}
	page := htmlPage{
		Title: title,
		Subtitle: fmt.Sprintf("level %d/%d · threshold %d/%d · %d of %d points · selected: %s",
			v.Level, v.MaxLevel, v.Threshold, v.SliderMax, v.Retained(), v.Total, selection),
		Script:    PlotlyCDN,
		Threshold: v.Threshold,
		SliderMax: v.SliderMax,
		Traces:    template.JS(tracesJSON),
		Layout:    template.JS(layoutJSON),
		State:     template.JS(stateJSON),
	}
	return htmlTemplate.Execute(w, page)
}

// GenerateInteractiveHTML writes the page to opts.Path and returns the path.
func GenerateInteractiveHTML(opts HTMLOptions) (string, error) {
	if opts.Path == "" {
		return "", fmt.Errorf("output path is required")
	}
	var buf bytes.Buffer
	if err := WriteInteractiveHTML(&buf, opts); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(opts.Path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return opts.Path, nil
}

const (
	traceNeutral   = "other clusters"
	traceUndefined = "unassigned"
)

// buildLayoutJSON returns the Plotly layout. uirevision keeps the user's
// zoom when the page script re-renders.
func buildLayoutJSON(v *plot.View, window *Window) map[string]any {
	layout := map[string]any{
		"hovermode":     "closest",
		"dragmode":      "zoom",
		"uirevision":    "clusterplot",
		"plot_bgcolor":  "#ffffff",
		"paper_bgcolor": "#f9fafb",
		"margin":        map[string]int{"l": 48, "r": 24, "t": 24, "b": 48},
		"legend": map[string]any{
			"title": map[string]string{"text": fmt.Sprintf("level %d", v.Level)},
		},
	}
	if window.valid() {
		layout["xaxis"] = map[string]any{"range": []float64{window.X0, window.X1}}
		layout["yaxis"] = map[string]any{"range": []float64{window.Y0, window.Y1}}
	}
	return layout
}

func buildState(v *plot.View, points model.Embeddings, palette plot.Palette) htmlState {
	st := htmlState{
		Points:      make([]htmlPoint, len(points)),
		Level:       v.Level,
		MaxLevel:    v.MaxLevel,
		Threshold:   v.Threshold,
		SliderMax:   v.SliderMax,
		MinX:        v.MinX,
		MaxX:        v.MaxX,
		TotalXRange: v.MaxX - v.MinX,
		Palette:     palette,
		Neutral:     plot.NeutralColor,
		Dimmed:      plot.DimmedOpacity,
		Labels:      htmlLabels{Neutral: traceNeutral, Undefined: traceUndefined},
	}
	if v.HasSelection {
		sel := string(v.Selected)
		st.Selected = &sel
	}
	for i, p := range points {
		hp := htmlPoint{X: p.X, Y: p.Y, Clusters: make([]*string, len(p.Clusters)), Text: pointHover(p)}
		for l := range p.Clusters {
			if id, ok := p.ClusterAt(l); ok {
				s := string(id)
				hp.Clusters[l] = &s
			}
		}
		st.Points[i] = hp
	}
	return st
}

func buildTraces(v *plot.View, points model.Embeddings, palette plot.Palette) []htmlTrace {
	byKey := make(map[string]*htmlTrace)
	var order []string

	traceFor := func(key, name, color string, opacity float64, hollow bool) *htmlTrace {
		if t, ok := byKey[key]; ok {
			return t
		}
		t := &htmlTrace{
			Name:       template.HTMLEscapeString(name),
			Mode:       "markers",
			Type:       "scattergl",
			HoverInfo:  "text",
			ShowLegend: true,
			Marker:     htmlMarker{Color: color, Opacity: opacity, Size: 6},
		}
		if hollow {
			t.Marker.Symbol = "circle-open"
			t.Marker.Line = &htmlOutline{Color: color, Width: 1}
		}
		byKey[key] = t
		order = append(order, key)
		return t
	}

	for _, m := range v.Markers {
		var t *htmlTrace
		switch {
		case m.Neutral:
			t = traceFor("n", traceNeutral, plot.NeutralColor, m.Opacity, false)
		case !m.Defined:
			t = traceFor("u", traceUndefined, plot.NeutralColor, m.Opacity, true)
		default:
			t = traceFor("k"+string(m.ColorKey), string(m.ColorKey), m.Color(palette), m.Opacity, false)
		}
		t.X = append(t.X, m.X)
		t.Y = append(t.Y, m.Y)
		t.Text = append(t.Text, hoverText(points, m))
		t.CustomData = append(t.CustomData, m.Index)
	}

	out := make([]htmlTrace, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

func hoverText(points model.Embeddings, m plot.MarkerStyle) string {
	if m.Index < 0 || m.Index >= len(points) {
		return fmt.Sprintf("(%.3g, %.3g)", m.X, m.Y)
	}
	return pointHover(points[m.Index])
}

func pointHover(p model.Point) string {
	path := p.Path()
	if len(p.Clusters) == 0 {
		path = "(no clusters)"
	}
	return fmt.Sprintf("%s<br>(%.3g, %.3g)", template.HTMLEscapeString(path), p.X, p.Y)
}
