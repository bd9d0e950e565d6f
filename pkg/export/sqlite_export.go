package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterplot/pkg/model"
	"github.com/vanderheijden86/clusterplot/pkg/plot"
	"github.com/vanderheijden86/clusterplot/pkg/version"

	_ "modernc.org/sqlite"
)

// SQLiteExporter writes a derived view to a SQLite database. The points
// table uses the same x, y, clusters layout the datasource reader accepts,
// so an export can be reopened as input.
type SQLiteExporter struct {
	View    *plot.View
	Points  model.Embeddings
	Palette plot.Palette
	Title   string
}

// NewSQLiteExporter creates an exporter for view over points.
func NewSQLiteExporter(view *plot.View, points model.Embeddings) *SQLiteExporter {
	return &SQLiteExporter{
		View:    view,
		Points:  points,
		Palette: plot.DefaultPalette,
	}
}

// Export writes the database to path, replacing any existing file.
func (e *SQLiteExporter) Export(path string) error {
	if e.View == nil {
		return fmt.Errorf("no view to export")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	dbClosed := false
	defer func() {
		if !dbClosed {
			db.Close()
		}
	}()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := e.insertPoints(db); err != nil {
		return fmt.Errorf("insert points: %w", err)
	}
	if err := e.insertClusters(db); err != nil {
		return fmt.Errorf("insert clusters: %w", err)
	}
	if err := e.insertMeta(db); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	OptimizeDatabase(db)

	dbClosed = true
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (e *SQLiteExporter) palette() plot.Palette {
	if e.Palette == nil {
		return plot.DefaultPalette
	}
	return e.Palette
}

func (e *SQLiteExporter) insertPoints(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO points (idx, x, y, clusters, color_key, color, opacity, neutral)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	pal := e.palette()
	for _, m := range e.View.Markers {
		clusters := "[]"
		if m.Index >= 0 && m.Index < len(e.Points) && len(e.Points[m.Index].Clusters) > 0 {
			b, err := json.Marshal(e.Points[m.Index].Clusters)
			if err != nil {
				return fmt.Errorf("marshal clusters of point %d: %w", m.Index, err)
			}
			clusters = string(b)
		}

		var colorKey, color *string
		if m.Defined && !m.Neutral {
			k := string(m.ColorKey)
			colorKey = &k
		}
		if c := m.Color(pal); c != "" {
			color = &c
		}
		neutral := 0
		if m.Neutral {
			neutral = 1
		}

		if _, err := stmt.Exec(m.Index, m.X, m.Y, clusters, colorKey, color, m.Opacity, neutral); err != nil {
			return fmt.Errorf("insert point %d: %w", m.Index, err)
		}
	}
	return tx.Commit()
}

// clusterRow summarises one cluster at the view's level.
type clusterRow struct {
	ID       model.ClusterID
	Size     int
	Retained int
}

// clusterRows counts every point per cluster at the view level and how
// many of those survived the density filter.
func (e *SQLiteExporter) clusterRows() []clusterRow {
	level := e.View.Level
	rows := make(map[model.ClusterID]*clusterRow)
	for _, p := range e.Points {
		id, ok := p.ClusterAt(level)
		if !ok {
			continue
		}
		r, ok := rows[id]
		if !ok {
			r = &clusterRow{ID: id}
			rows[id] = r
		}
		r.Size++
	}
	for _, m := range e.View.Markers {
		if m.Index < 0 || m.Index >= len(e.Points) {
			continue
		}
		if id, ok := e.Points[m.Index].ClusterAt(level); ok {
			if r, ok := rows[id]; ok {
				r.Retained++
			}
		}
	}

	out := make([]clusterRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (e *SQLiteExporter) insertClusters(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO clusters (id, level, size, retained, color)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	pal := e.palette()
	for _, r := range e.clusterRows() {
		if _, err := stmt.Exec(string(r.ID), e.View.Level, r.Size, r.Retained, pal.Color(r.ID)); err != nil {
			return fmt.Errorf("insert cluster %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	v := e.View
	meta := map[string]string{
		"version":        version.Version,
		"schema_version": strconv.Itoa(SchemaVersion),
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
		"level":          strconv.Itoa(v.Level),
		"max_level":      strconv.Itoa(v.MaxLevel),
		"threshold":      strconv.Itoa(v.Threshold),
		"slider_max":     strconv.Itoa(v.SliderMax),
		"total_points":   strconv.Itoa(v.Total),
		"retained":       strconv.Itoa(v.Retained()),
	}
	if v.HasSelection {
		meta["selected"] = string(v.Selected)
	}
	if e.Title != "" {
		meta["title"] = e.Title
	}

	for key, value := range meta {
		if err := InsertMetaValue(db, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}
	return nil
}
