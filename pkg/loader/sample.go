package loader

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// SampleConfig controls synthetic embeddings generation.
type SampleConfig struct {
	Points    int    // number of points (default 500)
	Levels    int    // cluster levels per point (default 11)
	Branching int    // children per cluster (default 3)
	Seed      uint64 // random seed; the same seed yields the same data
}

// DefaultSampleConfig returns the configuration used when the application is
// started without a data file.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{Points: 500, Levels: 11, Branching: 3, Seed: 42}
}

func (c SampleConfig) withDefaults() SampleConfig {
	def := DefaultSampleConfig()
	if c.Points <= 0 {
		c.Points = def.Points
	}
	if c.Levels <= 0 {
		c.Levels = def.Levels
	}
	if c.Branching <= 0 {
		c.Branching = def.Branching
	}
	return c
}

// Sample generates hierarchically nested Gaussian blobs. Each level splits
// its parent cluster into Branching children placed around the parent
// centre at half the parent's spread, so zooming in reveals sub-clusters.
// Cluster ids have the form "L<level>-<path>", e.g. "L2-1.0.2".
func Sample(cfg SampleConfig) model.Embeddings {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	type centre struct{ x, y float64 }
	centres := map[string]centre{"": {0, 0}}
	centreOf := func(parent, path string, spread float64) centre {
		if c, ok := centres[path]; ok {
			return c
		}
		p := centres[parent]
		angle := rng.Float64() * 2 * math.Pi
		c := centre{p.x + spread*math.Cos(angle), p.y + spread*math.Sin(angle)}
		centres[path] = c
		return c
	}

	pts := make(model.Embeddings, cfg.Points)
	for i := range pts {
		clusters := make([]model.ClusterID, cfg.Levels)
		var parts []string
		parent := ""
		spread := 100.0
		var c centre
		for lvl := 0; lvl < cfg.Levels; lvl++ {
			parts = append(parts, strconv.Itoa(rng.IntN(cfg.Branching)))
			path := strings.Join(parts, ".")
			c = centreOf(parent, path, spread)
			clusters[lvl] = model.ClusterID(fmt.Sprintf("L%d-%s", lvl, path))
			parent = path
			spread /= 2
		}
		pts[i] = model.Point{
			X:        c.x + rng.NormFloat64()*spread,
			Y:        c.y + rng.NormFloat64()*spread,
			Clusters: clusters,
		}
	}
	return pts
}
