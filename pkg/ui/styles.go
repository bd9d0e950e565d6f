package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
)

// Adaptive colors for light and dark terminals. Light mode colors are tuned
// for a contrast ratio of at least 4.5:1 on white.
var (
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// markerStyles caches one lipgloss style per palette color so a frame does
// not allocate a style per cell.
type markerStyles struct {
	r     *lipgloss.Renderer
	cache map[string]lipgloss.Style
}

func newMarkerStyles(r *lipgloss.Renderer) *markerStyles {
	return &markerStyles{r: r, cache: make(map[string]lipgloss.Style)}
}

func (s *markerStyles) get(hex string) lipgloss.Style {
	if st, ok := s.cache[hex]; ok {
		return st
	}
	st := s.r.NewStyle().Foreground(ThemeFg(hex))
	s.cache[hex] = st
	return st
}
