// Package ui implements the interactive terminal scatter plot.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clusterplot/pkg/debug"
	"github.com/vanderheijden86/clusterplot/pkg/export"
	"github.com/vanderheijden86/clusterplot/pkg/metrics"
	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
	"github.com/vanderheijden86/clusterplot/pkg/watcher"
)

const (
	zoomInFactor  = 0.8
	zoomOutFactor = 1.25
	panFraction   = 0.1

	// header above the canvas; slider, status and help footer below it
	headerRows = 1
	footerRows = 3

	// rounded border around the help overlay
	helpFrameSize = 2

	defaultWidth  = 80
	defaultHeight = 24
)

// Options configure the chart model.
type Options struct {
	Plot      plot.Options
	Threshold int // initial density threshold, re-applied on reload
	Palette   plot.Palette
	Title     string

	PointGlyph   string
	DimGlyph     string
	DisableMouse bool

	ExportDir     string
	ExportFormats []string

	// Watcher, when set, triggers Reload on file changes.
	Watcher *watcher.Watcher
	Reload  func() (model.Embeddings, error)

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
}

// FileChangedMsg is sent when the data file changes on disk.
type FileChangedMsg struct{}

// DataReloadedMsg replaces the embeddings. The plot is rebuilt, which
// resets zoom, level and selection; the configured threshold is applied again.
type DataReloadedMsg struct {
	Points model.Embeddings
}

// ReloadErrorMsg reports a failed reload. The current data stays.
type ReloadErrorMsg struct {
	Err error
}

// ExportDoneMsg reports the result of an export started with the export key.
type ExportDoneMsg struct {
	Paths []string
	Err   error
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Model is the Bubble Tea model of the chart.
type Model struct {
	opts  Options
	plot  *plot.ClusterPlot
	theme Theme
	keys  KeyMap

	styles   *markerStyles
	glyphs   glyphs
	help     help.Model
	slider   progress.Model
	helpView viewport.Model
	showHelp bool

	width, height int
	ready         bool

	vp   Viewport
	full Viewport

	statusMsg     string
	statusIsError bool
}

// NewModel builds the chart for points.
func NewModel(points model.Embeddings, opts Options) Model {
	if opts.Palette == nil {
		opts.Palette = plot.DefaultPalette
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if len(opts.ExportFormats) == 0 {
		opts.ExportFormats = []string{"svg", "html"}
	}

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	m := Model{
		opts:   opts,
		theme:  theme,
		keys:   DefaultKeyMap(),
		styles: newMarkerStyles(theme.Renderer),
		glyphs: glyphs{
			point:     singleCellGlyph(opts.PointGlyph, "●"),
			dim:       singleCellGlyph(opts.DimGlyph, "·"),
			undefined: "○",
		},
		help:     help.New(),
		slider:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(24), progress.WithoutPercentage()),
		helpView: viewport.New(defaultWidth-helpFrameSize, defaultHeight-headerRows-1-helpFrameSize),
		// Default dimensions until WindowSizeMsg arrives
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.load(points)
	return m
}

// load (re)builds the plot and resets the viewport.
func (m *Model) load(points model.Embeddings) {
	m.plot = plot.New(points, m.opts.Plot)
	m.plot.SetDensityThreshold(m.opts.Threshold)
	m.full = FullViewport(m.plot.View())
	m.vp = m.full
}

// Plot exposes the underlying plot state.
func (m Model) Plot() *plot.ClusterPlot { return m.plot }

// Viewport returns the visible data rectangle.
func (m Model) Viewport() Viewport { return m.vp }

// Status returns the status line message and whether it is an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

// ShowingHelp reports whether the help overlay is open.
func (m Model) ShowingHelp() bool { return m.showHelp }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

func (m Model) canvasSize() (int, int) {
	w := max(m.width, 10)
	h := max(m.height-headerRows-footerRows, 3)
	return w, h
}

// Canvas rasterises the current view at the current terminal size.
func (m Model) Canvas() *Canvas {
	w, h := m.canvasSize()
	return NewCanvas(m.plot.View(), m.vp, w, h)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.slider.Width = min(max(msg.Width/3, 10), 40)
		m.helpView.Width = max(msg.Width-helpFrameSize, 10)
		m.helpView.Height = max(msg.Height-headerRows-1-helpFrameSize, 3)
		if m.showHelp {
			m.helpView.SetContent(renderHelp(m.helpView.Width - 2))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.opts.DisableMouse || m.showHelp {
			return m, nil
		}
		return m.handleMouse(msg), nil

	case FileChangedMsg:
		cmds := []tea.Cmd{m.reloadCmd()}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		return m, tea.Batch(cmds...)

	case DataReloadedMsg:
		m.load(msg.Points)
		m.setStatus(fmt.Sprintf("Reloaded %d points", len(msg.Points)), false)
		return m, nil

	case ReloadErrorMsg:
		m.setStatus(fmt.Sprintf("Reload failed: %v", msg.Err), true)
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
		} else {
			m.setStatus(fmt.Sprintf("Exported %s", strings.Join(msg.Paths, ", ")), false)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.statusMsg = s
	m.statusIsError = isErr
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Clear):
			m.showHelp = false
			return m, nil
		case msg.String() == "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView.SetContent(renderHelp(m.helpView.Width - 2))
		m.helpView.GotoTop()
	case key.Matches(msg, m.keys.ZoomIn):
		m.zoomCentre(zoomInFactor)
	case key.Matches(msg, m.keys.ZoomOut):
		m.zoomCentre(zoomOutFactor)
	case key.Matches(msg, m.keys.Left):
		m.pan(-panFraction, 0)
	case key.Matches(msg, m.keys.Right):
		m.pan(panFraction, 0)
	case key.Matches(msg, m.keys.Up):
		m.pan(0, panFraction)
	case key.Matches(msg, m.keys.Down):
		m.pan(0, -panFraction)
	case key.Matches(msg, m.keys.Reset):
		m.setViewport(m.full)
	case key.Matches(msg, m.keys.ThresholdDown):
		m.plot.SetDensityThreshold(m.plot.Threshold() - 1)
	case key.Matches(msg, m.keys.ThresholdUp):
		m.plot.SetDensityThreshold(m.plot.Threshold() + 1)
	case key.Matches(msg, m.keys.ThresholdPgDn):
		m.plot.SetDensityThreshold(m.plot.Threshold() - m.thresholdStep())
	case key.Matches(msg, m.keys.ThresholdPgUp):
		m.plot.SetDensityThreshold(m.plot.Threshold() + m.thresholdStep())
	case key.Matches(msg, m.keys.Select):
		cx, cy := m.vp.Centre()
		if idx, ok := m.Canvas().Nearest(cx, cy); ok {
			m.plot.Click(&idx)
		} else {
			m.setStatus("No visible point to select", true)
		}
	case key.Matches(msg, m.keys.Clear):
		m.plot.ClearSelection()
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Export):
		m.setStatus("Exporting...", false)
		return m, m.exportCmd()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	col, row := msg.X, msg.Y-headerRows
	c := m.Canvas()
	if col < 0 || col >= c.Width || row < 0 || row >= c.Height {
		return m
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		x, y := c.DataAt(col, row)
		m.setViewport(m.vp.Zoom(zoomInFactor, x, y))
	case msg.Button == tea.MouseButtonWheelDown:
		x, y := c.DataAt(col, row)
		m.setViewport(m.vp.Zoom(zoomOutFactor, x, y))
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if idx, ok := c.HitTest(col, row); ok {
			m.plot.Click(&idx)
		} else {
			m.plot.Click(nil)
		}
	}
	return m
}

func (m *Model) zoomCentre(factor float64) {
	m.setViewport(m.vp.ZoomCentre(factor))
}

func (m *Model) pan(fx, fy float64) {
	m.setViewport(m.vp.Pan(fx, fy))
}

// setViewport applies vp and reports the new x range to the plot.
func (m *Model) setViewport(vp Viewport) {
	if !(vp.Width() > 0) || !(vp.Height() > 0) {
		return
	}
	m.vp = vp
	changed := m.plot.HandleRelayout(plot.Range(vp.X0, vp.X1))
	debug.LogIf(changed, "ui: level -> %d", m.plot.Level())
}

func (m Model) thresholdStep() int {
	return max(m.plot.Options().SliderMax/10, 1)
}

func (m *Model) copySelection() {
	id, ok := m.plot.Selected()
	if !ok {
		m.setStatus("No cluster selected", true)
		return
	}
	if err := m.opts.Clipboard(string(id)); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", id), false)
}

func (m Model) exportCmd() tea.Cmd {
	src := export.Source{
		View:    m.plot.View(),
		Points:  m.plot.Points(),
		Palette: m.opts.Palette,
		Title:   m.opts.Title,
	}
	if m.vp != m.full {
		src.Window = &export.Window{X0: m.vp.X0, X1: m.vp.X1, Y0: m.vp.Y0, Y1: m.vp.Y1}
	}
	dir, formats := m.opts.ExportDir, m.opts.ExportFormats
	return func() tea.Msg {
		paths, err := export.ExportAll(context.Background(), src, dir, formats)
		return ExportDoneMsg{Paths: paths, Err: err}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	reload := m.opts.Reload
	return func() tea.Msg {
		if reload == nil {
			return nil
		}
		pts, err := reload()
		if err != nil {
			return ReloadErrorMsg{Err: err}
		}
		return DataReloadedMsg{Points: pts}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	defer metrics.Timer(metrics.TerminalRender)()

	header := m.renderHeader()
	if m.showHelp {
		return header + "\n" + m.theme.Frame.Render(m.helpView.View()) + "\n" + m.theme.MutedText.Render("? or esc to close")
	}

	c := m.Canvas()
	body := c.Render(m.theme, m.opts.Palette, m.styles, m.glyphs)

	return strings.Join([]string{
		header,
		body,
		m.renderSlider(),
		m.renderStatus(),
		m.help.View(m.keys),
	}, "\n")
}

func (m Model) renderHeader() string {
	v := m.plot.View()
	title := m.opts.Title
	if title == "" {
		title = "Cluster Plot"
	}
	sel := "none"
	if v.HasSelection {
		sel = string(v.Selected)
	}
	gap := strings.Repeat(" ", SpaceSM)
	info := strings.Repeat(" ", SpaceXS) + strings.Join([]string{
		fmt.Sprintf("level %d/%d", v.Level, v.MaxLevel),
		fmt.Sprintf("x [%.3g, %.3g]", m.vp.X0, m.vp.X1),
		"selected: " + sel,
	}, gap)
	badge := m.theme.Header.Render(title)
	avail := m.width - lipgloss.Width(badge)
	return badge + m.theme.MutedText.Render(truncateRunesHelper(info, avail, "…"))
}

func (m Model) renderSlider() string {
	v := m.plot.View()
	pct := 0.0
	if v.SliderMax > 0 {
		pct = float64(v.Threshold) / float64(v.SliderMax)
	}
	label := padRight(fmt.Sprintf("density ≥ %d", v.Threshold), 16)
	counts := fmt.Sprintf(" %d/%d points", v.Retained(), v.Total)
	return m.theme.PrimaryBold.Render(label) + m.slider.ViewAs(pct) + m.theme.Base.Render(counts)
}

func (m Model) renderStatus() string {
	if m.statusMsg == "" {
		return ""
	}
	s := truncateRunesHelper(m.statusMsg, m.width, "…")
	if m.statusIsError {
		return m.theme.StatusError.Render(s)
	}
	return m.theme.StatusOK.Render(s)
}
