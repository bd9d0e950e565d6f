package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/clusterplot/pkg/loader"
)

func TestParseEmbeddingsArray(t *testing.T) {
	in := `[{"x":0,"y":1,"clusters":["A","A1"]},{"x":2,"y":3,"clusters":[1,10]}]`
	pts, err := loader.ParseEmbeddings(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if pts[1].Clusters[1] != "10" {
		t.Errorf("numeric cluster id should keep its literal, got %q", pts[1].Clusters[1])
	}
}

func TestParseEmbeddingsObject(t *testing.T) {
	for _, key := range []string{"points", "embeddings"} {
		in := `{"` + key + `":[{"x":1,"y":1,"clusters":["A"]}]}`
		pts, err := loader.ParseEmbeddings(strings.NewReader(in))
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if len(pts) != 1 {
			t.Errorf("%s: expected 1 point, got %d", key, len(pts))
		}
	}
}

func TestParseEmbeddingsEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "[]", `{"points":[]}`} {
		_, err := loader.ParseEmbeddings(strings.NewReader(in))
		if !errors.Is(err, loader.ErrEmpty) {
			t.Errorf("input %q: expected ErrEmpty, got %v", in, err)
		}
	}
}

func TestParseEmbeddingsMalformed(t *testing.T) {
	_, err := loader.ParseEmbeddings(strings.NewReader(`[{"x":`))
	if err == nil || errors.Is(err, loader.ErrEmpty) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestParseEmbeddingsJSONLSkipsBadLines(t *testing.T) {
	in := "\xEF\xBB\xBF{\"x\":0,\"y\":0,\"clusters\":[\"A\"]}\n" +
		"not json\n" +
		"\n" +
		"{\"x\":1,\"y\":1,\"clusters\":[\"B\"]}\n"

	var warnings []string
	pts, err := loader.ParseEmbeddingsJSONL(strings.NewReader(in), loader.ParseOptions{
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "line 2") {
		t.Errorf("expected one warning for line 2, got %v", warnings)
	}
}

func TestParseEmbeddingsJSONLLongLine(t *testing.T) {
	long := `{"x":0,"y":0,"clusters":["` + strings.Repeat("a", 200) + `"]}`
	in := long + "\n" + `{"x":1,"y":1,"clusters":["B"]}` + "\n"

	var warnings []string
	pts, err := loader.ParseEmbeddingsJSONL(strings.NewReader(in), loader.ParseOptions{
		BufferSize:     64,
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pts) != 1 || pts[0].Clusters[0] != "B" {
		t.Errorf("expected only the short line, got %+v", pts)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "too long") {
		t.Errorf("expected a long-line warning, got %v", warnings)
	}
}

func TestLoadFileDispatch(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "points.json")
	jsonlPath := filepath.Join(dir, "points.jsonl")
	if err := os.WriteFile(jsonPath, []byte(`[{"x":0,"y":0,"clusters":["A"]}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonlPath, []byte("{\"x\":0,\"y\":0,\"clusters\":[\"A\"]}\n{\"x\":1,\"y\":0,\"clusters\":[\"A\"]}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pts, err := loader.LoadFile(jsonPath)
	if err != nil || len(pts) != 1 {
		t.Errorf("json: got %d points, err %v", len(pts), err)
	}
	pts, err = loader.LoadFile(jsonlPath)
	if err != nil || len(pts) != 2 {
		t.Errorf("jsonl: got %d points, err %v", len(pts), err)
	}
	if _, err := loader.LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
