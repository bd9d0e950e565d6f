// Package testutil provides deterministic embeddings fixtures for tests and
// benchmarks.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/clusterplot/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed      uint64  // Random seed for determinism
	IDPrefix  string  // Prefix for cluster ids (default: "C")
	Levels    int     // Cluster levels per point (default: 2)
	Branching int     // Children per cluster (default: 2)
	Spread    float64 // Distance between grid cells (default: 10)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, IDPrefix: "C", Levels: 2, Branching: 2, Spread: 10}
}

// Generator creates embeddings fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a generator. Zero fields fall back to DefaultConfig.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = def.IDPrefix
	}
	if cfg.Levels <= 0 {
		cfg.Levels = def.Levels
	}
	if cfg.Branching <= 0 {
		cfg.Branching = def.Branching
	}
	if cfg.Spread <= 0 {
		cfg.Spread = def.Spread
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))}
}

// NewDefault creates a generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Grid returns n points on a jittered grid. Cluster ids come from the
// digits of the point index in base Branching, so paths nest:
// "C0", "C0.1" for Levels=2.
func (g *Generator) Grid(n int) model.Embeddings {
	pts := make(model.Embeddings, n)
	side := 1
	for side*side < n {
		side++
	}
	for i := range pts {
		pts[i] = model.Point{
			X:        float64(i%side)*g.cfg.Spread + g.rng.Float64(),
			Y:        float64(i/side)*g.cfg.Spread + g.rng.Float64(),
			Clusters: g.path(i),
		}
	}
	return pts
}

func (g *Generator) path(i int) []model.ClusterID {
	ids := make([]model.ClusterID, g.cfg.Levels)
	parts := make([]string, 0, g.cfg.Levels)
	div := 1
	for l := 1; l < g.cfg.Levels; l++ {
		div *= g.cfg.Branching
	}
	for l := 0; l < g.cfg.Levels; l++ {
		parts = append(parts, fmt.Sprint((i/div)%g.cfg.Branching))
		ids[l] = model.ClusterID(g.cfg.IDPrefix + strings.Join(parts, "."))
		if div > 1 {
			div /= g.cfg.Branching
		}
	}
	return ids
}

// Sized returns one single-level cluster per entry of sizes with that many
// members, spaced apart on the x axis.
func (g *Generator) Sized(sizes ...int) model.Embeddings {
	var pts model.Embeddings
	for c, size := range sizes {
		for j := 0; j < size; j++ {
			pts = append(pts, model.Point{
				X:        float64(c)*g.cfg.Spread*10 + g.rng.NormFloat64(),
				Y:        g.rng.NormFloat64(),
				Clusters: []model.ClusterID{model.ClusterID(fmt.Sprintf("%s%d", g.cfg.IDPrefix, c))},
			})
		}
	}
	return pts
}

// Ragged returns points whose cluster paths have lengths cycling through
// 0..maxLevels-1.
func (g *Generator) Ragged(n, maxLevels int) model.Embeddings {
	pts := make(model.Embeddings, n)
	for i := range pts {
		depth := i % max(maxLevels, 1)
		path := g.path(i)
		if depth < len(path) {
			path = path[:depth]
		}
		pts[i] = model.Point{X: float64(i), Y: float64(i % 3), Clusters: path}
	}
	return pts
}

// ToJSONL serialises points one per line.
func ToJSONL(pts model.Embeddings) string {
	var sb strings.Builder
	for _, p := range pts {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ToJSON serialises points as a JSON array.
func ToJSON(pts model.Embeddings) string {
	if pts == nil {
		pts = model.Embeddings{}
	}
	data, err := json.Marshal(pts)
	if err != nil {
		return "[]"
	}
	return string(data)
}
