package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/clusterplot/pkg/debug"
	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
)

// Formats lists every supported export format.
var Formats = []string{"svg", "png", "html", "sqlite"}

// Window is a data-space rectangle an export is framed on.
type Window struct {
	X0, X1 float64
	Y0, Y1 float64
}

func (w *Window) valid() bool {
	return w != nil && w.X1 > w.X0 && w.Y1 > w.Y0
}

func (w *Window) contains(x, y float64) bool {
	return x >= w.X0 && x <= w.X1 && y >= w.Y0 && y <= w.Y1
}

// Source is the data every exporter renders from.
type Source struct {
	View    *plot.View
	Points  model.Embeddings
	Palette plot.Palette
	Title   string

	// Window frames the snapshot and HTML exports on a zoomed region. Nil
	// frames them on the full data extent. The SQLite export always holds
	// every retained point.
	Window *Window
}

// BaseName is the file stem used for exports written by ExportAll.
const BaseName = "clusterplot"

// FileName returns the file name ExportAll writes for format.
func FileName(format string) string {
	switch format {
	case "sqlite":
		return BaseName + ".sqlite3"
	default:
		return BaseName + "." + format
	}
}

// NormalizeFormats lowercases, dedupes and validates formats. The result
// keeps the order of Formats.
func NormalizeFormats(formats []string) ([]string, error) {
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		known := false
		for _, k := range Formats {
			if k == f {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unsupported export format %q", f)
		}
		seen[f] = true
	}
	out := make([]string, 0, len(seen))
	for _, k := range Formats {
		if seen[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// ExportAll writes src in each of formats to dir concurrently and returns
// the written paths sorted. The first failure cancels the remaining work.
func ExportAll(ctx context.Context, src Source, dir string, formats []string) ([]string, error) {
	defer debug.LogEnterExit("export.ExportAll")()

	if src.View == nil {
		return nil, fmt.Errorf("no view to export")
	}
	formats, err := NormalizeFormats(formats)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no export formats selected")
	}

	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		path := filepath.Join(dir, FileName(format))
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			debug.Log("export: writing %s", path)
			if err := WriteFormat(src, format, path); err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteFormat writes src to path in a single format.
func WriteFormat(src Source, format, path string) error {
	switch format {
	case "svg", "png":
		return SaveSnapshot(SnapshotOptions{
			Path:    path,
			Format:  format,
			Title:   src.Title,
			View:    src.View,
			Palette: src.Palette,
			Window:  src.Window,
		})
	case "html":
		_, err := GenerateInteractiveHTML(HTMLOptions{
			View:    src.View,
			Points:  src.Points,
			Palette: src.Palette,
			Title:   src.Title,
			Path:    path,
			Window:  src.Window,
		})
		return err
	case "sqlite":
		e := NewSQLiteExporter(src.View, src.Points)
		if src.Palette != nil {
			e.Palette = src.Palette
		}
		e.Title = src.Title
		return e.Export(path)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
