package colors

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha color palette
var (
	// Base colors
	Base     = lipgloss.Color("#1e1e2e") // Dark background
	Surface0 = lipgloss.Color("#313244") // Surface colors
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086") // Overlay colors
	Overlay1 = lipgloss.Color("#7f849c")
	Overlay2 = lipgloss.Color("#9399b2")
	Subtext0 = lipgloss.Color("#a6adc8") // Text colors
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4") // Main text

	// Accent colors
	Lavender  = lipgloss.Color("#b4befe")
	Blue      = lipgloss.Color("#89b4fa")
	Sapphire  = lipgloss.Color("#74c7ec")
	Sky       = lipgloss.Color("#89dceb") // RX
	Teal      = lipgloss.Color("#94e2d5")
	Green     = lipgloss.Color("#a6e3a1")
	Yellow    = lipgloss.Color("#f9e2af")
	Peach     = lipgloss.Color("#fab387") // TX
	Maroon    = lipgloss.Color("#eba0ac")
	Red       = lipgloss.Color("#f38ba8")
	Mauve     = lipgloss.Color("#cba6f7")
	Pink      = lipgloss.Color("#f5c2e7")
	Flamingo  = lipgloss.Color("#f2cdcd")
	Rosewater = lipgloss.Color("#f5e0dc")
)

// Highlights are the colors given to highlight rules that do not name
// one. RX and TX colors are left out so matches stand apart from the
// direction markers.
var Highlights = []lipgloss.Color{Yellow, Pink, Sapphire, Maroon, Flamingo, Rosewater, Lavender, Green}

// ForRule picks a stable highlight color for a rule name.
func ForRule(name string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(name))
	return Highlights[h.Sum32()%uint32(len(Highlights))]
}
