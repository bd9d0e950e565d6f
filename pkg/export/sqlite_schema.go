package export

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is recorded in the meta table of every exported database.
const SchemaVersion = 1

// CreateSchema creates all tables and indexes in the database.
func CreateSchema(db *sql.DB) error {
	if err := createPointTables(db); err != nil {
		return fmt.Errorf("create point tables: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// createPointTables creates the points and clusters tables.
func createPointTables(db *sql.DB) error {
	// One row per retained marker. clusters holds the full path as a JSON
	// array so the file can be read back by the datasource loader.
	pointsSQL := `
		CREATE TABLE IF NOT EXISTS points (
			idx INTEGER PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			clusters TEXT NOT NULL DEFAULT '[]',
			color_key TEXT,
			color TEXT,
			opacity REAL NOT NULL,
			neutral INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := db.Exec(pointsSQL); err != nil {
		return fmt.Errorf("create points table: %w", err)
	}

	clustersSQL := `
		CREATE TABLE IF NOT EXISTS clusters (
			id TEXT PRIMARY KEY,
			level INTEGER NOT NULL,
			size INTEGER NOT NULL,
			retained INTEGER NOT NULL,
			color TEXT NOT NULL
		)
	`
	if _, err := db.Exec(clustersSQL); err != nil {
		return fmt.Errorf("create clusters table: %w", err)
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_points_color_key ON points(color_key)`,
		`CREATE INDEX IF NOT EXISTS idx_clusters_size ON clusters(size DESC)`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// createMetaTable creates the export metadata table.
func createMetaTable(db *sql.DB) error {
	metaSQL := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// InsertMetaValue inserts or updates a metadata key-value pair.
func InsertMetaValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

// OptimizeDatabase runs post-write pragmas. Failures are ignored.
func OptimizeDatabase(db *sql.DB) {
	for _, stmt := range []string{
		`PRAGMA journal_mode=DELETE`,
		`ANALYZE`,
		`PRAGMA optimize`,
	} {
		_, _ = db.Exec(stmt)
	}
}
