package datasource

import (
	"fmt"
	"os"
	"time"

	"github.com/vanderheijden86/clusterplot/pkg/debug"
	"github.com/vanderheijden86/clusterplot/pkg/loader"
	"github.com/vanderheijden86/clusterplot/pkg/metrics"
	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// Load detects the format of path and reads its embeddings.
func Load(path string) (model.Embeddings, error) {
	src, err := Detect(path)
	if err != nil {
		return nil, err
	}
	debug.Log("loading embeddings from %s", src)
	start := time.Now()
	points, err := LoadFromSource(src)
	debug.LogTiming("datasource.Load "+src.Path, time.Since(start))
	return points, err
}

// LoadFromSource reads embeddings from an already detected source.
func LoadFromSource(src DataSource) (model.Embeddings, error) {
	switch src.Type {
	case SourceTypeSQLite:
		defer metrics.Timer(metrics.DataLoad)()
		reader, err := NewSQLiteReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", src.Path, err)
		}
		defer reader.Close()
		return reader.LoadPoints()
	case SourceTypeJSONL:
		defer metrics.Timer(metrics.DataLoad)()
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("open embeddings: %w", err)
		}
		defer f.Close()
		return loader.ParseEmbeddingsJSONL(f, loader.ParseOptions{
			WarningHandler: func(msg string) { debug.Log("%s", msg) },
		})
	case SourceTypeJSON:
		return loader.LoadFile(src.Path)
	default:
		return nil, fmt.Errorf("unknown source type: %s", src.Type)
	}
}
