// Package datasource detects the format of an embeddings source and loads
// it through the matching reader: JSON and JSONL go through pkg/loader,
// SQLite databases through SQLiteReader.
package datasource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	SourceTypeJSON   SourceType = "json"
	SourceTypeJSONL  SourceType = "jsonl"
	SourceTypeSQLite SourceType = "sqlite"
)

// sqliteMagic is the 16-byte header of every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// DataSource describes a file holding embeddings.
type DataSource struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, %d bytes, mod=%s)", s.Path, s.Type, s.Size, s.ModTime.Format(time.RFC3339))
}

// Detect stats path and determines its type. The SQLite header wins over
// the extension; otherwise .jsonl/.ndjson are line-delimited and anything
// else is treated as a JSON document.
func Detect(path string) (DataSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("source %s is a directory", abs)
	}

	src := DataSource{Path: abs, ModTime: info.ModTime(), Size: info.Size()}

	isSQLite, err := hasSQLiteHeader(abs)
	if err != nil {
		return DataSource{}, err
	}
	switch {
	case isSQLite:
		src.Type = SourceTypeSQLite
	case strings.EqualFold(filepath.Ext(abs), ".jsonl"), strings.EqualFold(filepath.Ext(abs), ".ndjson"):
		src.Type = SourceTypeJSONL
	default:
		src.Type = SourceTypeJSON
	}
	return src, nil
}

func hasSQLiteHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("read source header: %w", err)
	}
	return n == len(sqliteMagic) && bytes.Equal(header, sqliteMagic), nil
}
