// Package model defines the point embeddings rendered by clusterplot.
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// ClusterID labels a cluster at one hierarchy level. Input files may carry
// either strings or numbers; numbers are stored in their shortest decimal
// form, so 1, 1.0 and 1e0 name the same cluster. The empty id marks a level
// without an assignment (JSON null).
type ClusterID string

// NoCluster is the id of a level without an assignment.
const NoCluster ClusterID = ""

// UnmarshalJSON accepts a JSON string, number or null.
func (c *ClusterID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = NoCluster
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ClusterID(s)
		return nil
	}
	lit := string(data)
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return fmt.Errorf("cluster id must be a string or number, got %s", lit)
	}
	*c = numericID(f)
	return nil
}

// MarshalJSON writes NoCluster as null.
func (c ClusterID) MarshalJSON() ([]byte, error) {
	if c == NoCluster {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func numericID(f float64) ClusterID {
	if f == 0 {
		// -0 and 0 are one cluster
		return "0"
	}
	return ClusterID(strconv.FormatFloat(f, 'g', -1, 64))
}

// Point is a single 2D embedding with one cluster id per hierarchy level,
// coarsest first.
type Point struct {
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Clusters []ClusterID `json:"clusters"`
}

// ClusterAt returns the point's cluster at level. The second result is false
// when the point carries no assignment for that level, either because the
// list is too short or because the entry is null.
func (p Point) ClusterAt(level int) (ClusterID, bool) {
	if level < 0 || level >= len(p.Clusters) || p.Clusters[level] == NoCluster {
		return NoCluster, false
	}
	return p.Clusters[level], true
}

// Path renders the cluster assignment as "a > b > c". Unassigned levels
// render as "-".
func (p Point) Path() string {
	parts := make([]string, len(p.Clusters))
	for i, c := range p.Clusters {
		parts[i] = string(c)
		if c == NoCluster {
			parts[i] = "-"
		}
	}
	return strings.Join(parts, " > ")
}

// Embeddings is the ordered point set supplied by the caller.
type Embeddings []Point

// Depth returns the smallest number of levels carried by any point.
func (e Embeddings) Depth() int {
	if len(e) == 0 {
		return 0
	}
	depth := len(e[0].Clusters)
	for _, p := range e[1:] {
		if len(p.Clusters) < depth {
			depth = len(p.Clusters)
		}
	}
	return depth
}

// Xs returns the x coordinates in input order.
func (e Embeddings) Xs() []float64 {
	xs := make([]float64, len(e))
	for i, p := range e {
		xs[i] = p.X
	}
	return xs
}

// Ys returns the y coordinates in input order.
func (e Embeddings) Ys() []float64 {
	ys := make([]float64, len(e))
	for i, p := range e {
		ys[i] = p.Y
	}
	return ys
}

// XBounds returns the min and max x coordinate. Both are 0 for an empty set.
func (e Embeddings) XBounds() (float64, float64) {
	if len(e) == 0 {
		return 0, 0
	}
	xs := e.Xs()
	return floats.Min(xs), floats.Max(xs)
}

// YBounds returns the min and max y coordinate. Both are 0 for an empty set.
func (e Embeddings) YBounds() (float64, float64) {
	if len(e) == 0 {
		return 0, 0
	}
	ys := e.Ys()
	return floats.Min(ys), floats.Max(ys)
}
