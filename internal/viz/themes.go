package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/immunosim/internal/immunity"
)

// Theme colors the terminal views. Series holds one color per compartment
// in V, I, T, A order.
type Theme struct {
	Name    string
	Series  [immunity.NumVars]lipgloss.Color
	Graph   [immunity.NumVars]asciigraph.AnsiColor
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	// ThemeClassic follows the PNG plot palette.
	ThemeClassic = Theme{
		Name:    "classic",
		Series:  [immunity.NumVars]lipgloss.Color{"#FF4B4B", "#4B4BFF", "#4BFF4B", "#FF4BFF"},
		Graph:   [immunity.NumVars]asciigraph.AnsiColor{asciigraph.Red, asciigraph.Blue, asciigraph.Green, asciigraph.Magenta},
		Accent:  lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Series:  [immunity.NumVars]lipgloss.Color{"#00ff00", "#00cc00", "#88ff88", "#ccffcc"},
		Graph:   [immunity.NumVars]asciigraph.AnsiColor{asciigraph.Lime, asciigraph.Green, asciigraph.LightGreen, asciigraph.PaleGreen},
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Series:  [immunity.NumVars]lipgloss.Color{"#ffffff", "#cccccc", "#0088ff", "#888888"},
		Graph:   [immunity.NumVars]asciigraph.AnsiColor{asciigraph.White, asciigraph.Silver, asciigraph.DodgerBlue, asciigraph.Gray},
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeClassic, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns the named theme, or ThemeClassic.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// ParseTheme is GetTheme for user input: unknown names are an error.
func ParseTheme(name string) (Theme, error) {
	names := ThemeNames()
	if !slices.Contains(names, name) {
		return Theme{}, fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(names, ", "))
	}
	return GetTheme(name), nil
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeClassic
}
