package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// AssertPointCount checks the number of points.
func AssertPointCount(t *testing.T, pts model.Embeddings, expected int) {
	t.Helper()
	if len(pts) != expected {
		t.Errorf("expected %d points, got %d", expected, len(pts))
	}
}

// AssertSamePoints checks coordinates and cluster paths match pairwise.
func AssertSamePoints(t *testing.T, expected, actual model.Embeddings) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("expected %d points, got %d", len(expected), len(actual))
	}
	for i := range expected {
		e, a := expected[i], actual[i]
		if e.X != a.X || e.Y != a.Y {
			t.Errorf("point %d: expected (%v, %v), got (%v, %v)", i, e.X, e.Y, a.X, a.Y)
		}
		if e.Path() != a.Path() {
			t.Errorf("point %d: expected path %q, got %q", i, e.Path(), a.Path())
		}
	}
}

// AssertValid fails when pts do not cover every level up to maxLevel.
func AssertValid(t *testing.T, pts model.Embeddings, maxLevel int) {
	t.Helper()
	if err := pts.Validate(maxLevel); err != nil {
		t.Errorf("embeddings invalid: %v", err)
	}
}

// WriteJSONL writes pts to path, creating parent directories.
func WriteJSONL(t *testing.T, path string, pts model.Embeddings) string {
	t.Helper()
	writeFile(t, path, ToJSONL(pts))
	return path
}

// WriteJSON writes pts as a JSON array to path.
func WriteJSON(t *testing.T, path string, pts model.Embeddings) string {
	t.Helper()
	writeFile(t, path, ToJSON(pts))
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
