package datasource

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/clusterplot/pkg/debug"
	"github.com/vanderheijden86/clusterplot/pkg/loader"
	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// SQLiteReader reads embeddings from a database with a table
//
//	points(x REAL, y REAL, clusters TEXT)
//
// where clusters holds a JSON array of cluster ids, coarsest first. Points
// are returned in rowid order.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA temp_store = MEMORY"); err != nil {
		debug.Log("sqlite pragma failed: %v", err)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadPoints reads every point. Rows with unparseable cluster arrays are
// skipped and logged.
func (r *SQLiteReader) LoadPoints() (model.Embeddings, error) {
	rows, err := r.db.Query(`SELECT x, y, clusters FROM points ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var pts model.Embeddings
	row := 0
	for rows.Next() {
		row++
		var p model.Point
		var clusters sql.NullString
		if err := rows.Scan(&p.X, &p.Y, &clusters); err != nil {
			return nil, fmt.Errorf("scan point %d: %w", row, err)
		}
		if clusters.Valid && clusters.String != "" {
			if err := json.Unmarshal([]byte(clusters.String), &p.Clusters); err != nil {
				debug.Log("skipping point %d in %s: bad clusters: %v", row, r.path, err)
				continue
			}
		}
		pts = append(pts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	if len(pts) == 0 {
		return nil, loader.ErrEmpty
	}
	return pts, nil
}
