package model

import (
	"fmt"
	"strings"
)

// ValidationError lists the points that cannot be rendered at every level up
// to MaxLevel. It is informational: callers may still render the data, and
// the missing levels surface as undefined colors.
type ValidationError struct {
	MaxLevel     int
	Short        []int // indices with fewer than MaxLevel+1 clusters
	Inconsistent bool  // points disagree on the number of levels
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Short) > 0 {
		sample := e.Short
		if len(sample) > 5 {
			sample = sample[:5]
		}
		parts = append(parts, fmt.Sprintf("%d point(s) have fewer than %d cluster levels (e.g. %v)",
			len(e.Short), e.MaxLevel+1, sample))
	}
	if e.Inconsistent {
		parts = append(parts, "points carry differing numbers of cluster levels")
	}
	return "invalid embeddings: " + strings.Join(parts, "; ")
}

// Validate checks the invariant that every point carries the same number of
// levels and at least maxLevel+1 of them. It returns nil or a
// *ValidationError.
func (e Embeddings) Validate(maxLevel int) error {
	if len(e) == 0 {
		return nil
	}
	verr := &ValidationError{MaxLevel: maxLevel}
	want := len(e[0].Clusters)
	for i, p := range e {
		if len(p.Clusters) != want {
			verr.Inconsistent = true
		}
		if len(p.Clusters) < maxLevel+1 {
			verr.Short = append(verr.Short, i)
		}
	}
	if len(verr.Short) == 0 && !verr.Inconsistent {
		return nil
	}
	return verr
}
