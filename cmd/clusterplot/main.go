package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/clusterplot/internal/datasource"
	"github.com/vanderheijden86/clusterplot/pkg/config"
	"github.com/vanderheijden86/clusterplot/pkg/debug"
	"github.com/vanderheijden86/clusterplot/pkg/export"
	"github.com/vanderheijden86/clusterplot/pkg/loader"
	"github.com/vanderheijden86/clusterplot/pkg/metrics"
	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
	"github.com/vanderheijden86/clusterplot/pkg/ui"
	"github.com/vanderheijden86/clusterplot/pkg/version"
	"github.com/vanderheijden86/clusterplot/pkg/watcher"
)

// cliFlags holds the parsed command line.
type cliFlags struct {
	dataPath     string
	configPath   string
	maxLevel     int
	sliderMax    int
	threshold    int
	watch        bool
	noMouse      bool
	title        string
	exportSVG    string
	exportPNG    string
	exportHTML   string
	exportSQLite string
	exportWizard bool
	cpuProfile   string
	timings      bool
	help         bool
	version      bool

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string, output io.Writer) (cliFlags, *flag.FlagSet, error) {
	var f cliFlags
	fs := flag.NewFlagSet("clusterplot", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.dataPath, "data", "", "Embeddings file (.json, .jsonl or SQLite); sample data when empty")
	fs.StringVar(&f.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/clusterplot/config.yaml)")
	fs.IntVar(&f.maxLevel, "max-level", 0, "Deepest hierarchy level reachable by zooming")
	fs.IntVar(&f.sliderMax, "slider-max", 0, "Upper bound of the density threshold")
	fs.IntVar(&f.threshold, "threshold", 0, "Initial density threshold")
	fs.BoolVar(&f.watch, "watch", false, "Reload the data file when it changes")
	fs.BoolVar(&f.noMouse, "no-mouse", false, "Disable mouse input")
	fs.StringVar(&f.title, "title", "", "Plot title used in the header and exports")
	fs.StringVar(&f.exportSVG, "export-svg", "", "Write an SVG snapshot to PATH and exit")
	fs.StringVar(&f.exportPNG, "export-png", "", "Write a PNG snapshot to PATH and exit")
	fs.StringVar(&f.exportHTML, "export-html", "", "Write an interactive HTML page to PATH and exit")
	fs.StringVar(&f.exportSQLite, "export-sqlite", "", "Write a SQLite database to PATH and exit")
	fs.BoolVar(&f.exportWizard, "export-wizard", false, "Choose export formats interactively and exit")
	fs.StringVar(&f.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&f.timings, "timings", false, "Print timing metrics to stderr on exit")
	fs.BoolVar(&f.help, "help", false, "Show help")
	fs.BoolVar(&f.version, "version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return f, fs, err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, fs, nil
}

// applyFlags layers explicitly given flags over cfg.
func applyFlags(cfg config.Config, f cliFlags) (config.Config, error) {
	if f.set["data"] {
		cfg.DataPath = f.dataPath
	}
	if f.set["max-level"] {
		cfg.Plot.MaxLevel = f.maxLevel
	}
	if f.set["slider-max"] {
		cfg.Plot.SliderMax = f.sliderMax
		if !f.set["threshold"] && cfg.Plot.Threshold > cfg.Plot.SliderMax {
			cfg.Plot.Threshold = cfg.Plot.SliderMax
		}
	}
	if f.set["threshold"] {
		cfg.Plot.Threshold = f.threshold
	}
	if f.set["no-mouse"] {
		cfg.UI.DisableMouse = f.noMouse
	}
	if f.set["title"] {
		cfg.Export.Title = f.title
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// exportTargets maps format to output path for every export flag given.
func (f cliFlags) exportTargets() map[string]string {
	targets := make(map[string]string)
	for format, path := range map[string]string{
		"svg":    f.exportSVG,
		"png":    f.exportPNG,
		"html":   f.exportHTML,
		"sqlite": f.exportSQLite,
	} {
		if path != "" {
			targets[format] = path
		}
	}
	return targets
}

// loadPoints reads the configured data file, or generates sample data.
func loadPoints(cfg config.Config) (model.Embeddings, error) {
	if cfg.DataPath == "" {
		debug.Log("no data file, generating sample data")
		return loader.Sample(loader.SampleConfig{
			Points:    cfg.Sample.Points,
			Levels:    cfg.Sample.Levels,
			Branching: cfg.Sample.Branching,
			Seed:      cfg.Sample.Seed,
		}), nil
	}
	return datasource.Load(cfg.DataPath)
}

func plotOptions(cfg config.Config) plot.Options {
	return plot.Options{MaxLevel: cfg.Plot.MaxLevel, SliderMax: cfg.Plot.SliderMax}
}

// warnValidation prints data shape problems. The plot still renders such
// data; affected points are shown as unassigned.
func warnValidation(w io.Writer, points model.Embeddings, maxLevel int) {
	var verr *model.ValidationError
	if err := points.Validate(maxLevel); errors.As(err, &verr) {
		fmt.Fprintf(w, "Warning: %v\n", verr)
		debug.Dump("validation", verr)
	}
}

// exportToPaths writes one file per target concurrently.
func exportToPaths(ctx context.Context, src export.Source, targets map[string]string) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	for format, path := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return export.WriteFormat(src, format, path)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(targets))
	for _, p := range targets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	f, fs, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if f.help {
		fmt.Println("Usage: clusterplot [options]")
		fmt.Println("\nAn interactive terminal scatter plot of hierarchically clustered embeddings.")
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		return 0
	}
	if f.version {
		fmt.Printf("clusterplot %s\n", version.String())
		return 0
	}

	// CPU profiling support
	if f.cpuProfile != "" {
		pf, err := os.Create(f.cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}
	if f.timings {
		defer printTimings(os.Stderr)
	}

	var cfg config.Config
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg, err = applyFlags(cfg, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		return 2
	}

	points, err := loadPoints(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading data: %v\n", err)
		return 1
	}
	warnValidation(os.Stderr, points, cfg.Plot.MaxLevel)

	cp := plot.New(points, plotOptions(cfg))
	cp.SetDensityThreshold(cfg.Plot.Threshold)
	src := export.Source{View: cp.View(), Points: points, Palette: plot.DefaultPalette, Title: cfg.Export.Title}

	if targets := f.exportTargets(); len(targets) > 0 {
		paths, err := exportToPaths(context.Background(), src, targets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			return 1
		}
		for _, p := range paths {
			fmt.Printf("Wrote %s\n", p)
		}
		return 0
	}
	if f.exportWizard {
		paths, err := export.RunExportWizard(context.Background(), src, export.WizardConfig{
			Formats: cfg.Export.Formats,
			Dir:     cfg.Export.Dir,
			Title:   cfg.Export.Title,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			return 1
		}
		for _, p := range paths {
			fmt.Printf("Wrote %s\n", p)
		}
		return 0
	}

	opts := ui.Options{
		Plot:          plotOptions(cfg),
		Threshold:     cfg.Plot.Threshold,
		Palette:       plot.DefaultPalette,
		Title:         cfg.Export.Title,
		PointGlyph:    cfg.UI.PointGlyph,
		DimGlyph:      cfg.UI.DimGlyph,
		DisableMouse:  cfg.UI.DisableMouse,
		ExportDir:     cfg.Export.Dir,
		ExportFormats: cfg.Export.Formats,
	}
	if f.watch {
		if cfg.DataPath == "" {
			fmt.Fprintln(os.Stderr, "Warning: -watch ignored without -data")
		} else {
			w, err := watcher.NewWatcher(cfg.DataPath,
				watcher.WithDebounceDuration(watcher.DefaultDebounceDuration),
				watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
			)
			if err == nil {
				err = w.Start()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
			} else {
				defer w.Stop()
				path := cfg.DataPath
				opts.Watcher = w
				opts.Reload = func() (model.Embeddings, error) { return datasource.Load(path) }
			}
		}
	}

	if err := runTUIProgram(ui.NewModel(points, opts), !cfg.UI.DisableMouse); err != nil {
		fmt.Fprintf(os.Stderr, "Error running clusterplot: %v\n", err)
		return 1
	}
	return 0
}

func runTUIProgram(m ui.Model, mouse bool) error {
	progOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	}
	if mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, progOpts...)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

func printTimings(w io.Writer) {
	stats := metrics.AllTimingStats()
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(w, "Timings:")
	for _, s := range stats {
		fmt.Fprintf(w, "  %-18s n=%-6d avg=%s max=%s\n", s.Name, s.Count, formatMs(s.AvgMs), formatMs(s.MaxMs))
	}
}

func formatMs(ms float64) string {
	if ms < 1 {
		return fmt.Sprintf("%.2fms", ms)
	}
	return fmt.Sprintf("%.0fms", ms)
}
