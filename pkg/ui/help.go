package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Cluster Plot

Points are colored by their cluster at the **current level**. Zooming in
moves to finer levels; zooming out returns to coarser ones.

## Navigation

| Key | Action |
|-----|--------|
| ` + "`+` `=`" + ` / wheel up | zoom in |
| ` + "`-`" + ` / wheel down | zoom out |
| arrows / ` + "`hjkl`" + ` | pan by 10% |
| ` + "`r`" + ` | reset to the full range (level 0) |

## Density filter

Clusters with fewer members than the threshold are hidden.

| Key | Action |
|-----|--------|
| ` + "`[` `]`" + ` | threshold -1 / +1 |
| ` + "`{` `}`" + ` | threshold -10% / +10% |

## Selection

Click a point to select its cluster. Members are then colored by their
sub-cluster one level down and everything else is dimmed. Clicking the
same cluster again, or empty space, clears the selection.

| Key | Action |
|-----|--------|
| ` + "`enter`" + ` | select the point nearest the centre |
| ` + "`esc`" + ` | clear selection |
| ` + "`y`" + ` | copy the selected cluster id |

## Other

| Key | Action |
|-----|--------|
| ` + "`e`" + ` | export the current view |
| ` + "`?`" + ` | toggle this help |
| ` + "`q`" + ` | quit |
`

// renderHelp renders the help markdown for the given width. Falls back to
// the raw markdown when glamour fails.
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	// Strip trailing whitespace/newlines that glamour adds
	return strings.TrimRight(out, " \n")
}
