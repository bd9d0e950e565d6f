// Package loader reads point embeddings from JSON and JSONL files.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterplot/pkg/metrics"
	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// ErrEmpty is returned when a source contains no points.
var ErrEmpty = errors.New("no points found")

// DefaultMaxBufferSize is the default maximum JSONL line size (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures JSONL parsing.
type ParseOptions struct {
	// WarningHandler receives messages about skipped lines. If nil, warnings
	// are printed to os.Stderr.
	WarningHandler func(string)

	// BufferSize caps the line length in bytes. Longer lines are skipped.
	// If 0, DefaultMaxBufferSize is used.
	BufferSize int
}

// document is the object form of a JSON input file.
type document struct {
	Points     model.Embeddings `json:"points"`
	Embeddings model.Embeddings `json:"embeddings"`
}

// LoadFile reads embeddings from path, choosing the format by extension:
// .jsonl/.ndjson are line-delimited, anything else is parsed as JSON.
func LoadFile(path string) (model.Embeddings, error) {
	defer metrics.Timer(metrics.DataLoad)()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ParseEmbeddingsJSONL(f, ParseOptions{})
	default:
		return ParseEmbeddings(f)
	}
}

// ParseEmbeddings parses either a JSON array of points or an object with a
// "points" (or "embeddings") array.
func ParseEmbeddings(r io.Reader) (model.Embeddings, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}
	data = bytes.TrimSpace(stripBOM(data))
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	var pts model.Embeddings
	if data[0] == '[' {
		if err := json.Unmarshal(data, &pts); err != nil {
			return nil, fmt.Errorf("parse embeddings: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse embeddings: %w", err)
		}
		pts = doc.Points
		if len(pts) == 0 {
			pts = doc.Embeddings
		}
	}
	if len(pts) == 0 {
		return nil, ErrEmpty
	}
	return pts, nil
}

// ParseEmbeddingsJSONL parses one point per line. Malformed and oversized
// lines are skipped with a warning.
func ParseEmbeddingsJSONL(r io.Reader, opts ParseOptions) (model.Embeddings, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)

	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}
	}

	var pts model.Embeddings
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading embeddings at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var p model.Point
		if err := json.Unmarshal(line, &p); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		pts = append(pts, p)
	}

	if len(pts) == 0 {
		return nil, ErrEmpty
	}
	return pts, nil
}

func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
