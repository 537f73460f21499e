// Package style holds the colors and icons shared by the terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Gold   = lipgloss.Color("#D4A72C")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "●"
)
