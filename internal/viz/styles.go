package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/metrics"
)

var (
	GlassPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusError = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(18)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// ProgressBar renders fraction in [0, 1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if fraction > 0.8 {
		return SparkHigh.Render(bar)
	} else if fraction > 0.4 {
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

// Sparkline renders values as one row of block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return b.String()
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}

// FormatClearance prints an infinite clearance time as "not cleared".
func FormatClearance(d metrics.Derived) string {
	if !d.Cleared() {
		return "not cleared"
	}
	return fmt.Sprintf("%.2f days", d.ClearanceTime)
}

func metricLine(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

// Summary formats derived metrics and the stability verdict as a panel.
func Summary(title string, d metrics.Derived, stable bool) string {
	status := StatusRunning.Render("stable")
	if !stable {
		status = StatusError.Render("UNSTABLE")
	}

	lines := []string{
		Title.Render(title),
		"",
		metricLine("Peak viral load", fmt.Sprintf("%.4g", d.PeakViralLoad)),
		metricLine("Peak time", fmt.Sprintf("%.2f days", d.PeakViralTime)),
		metricLine("Clearance", FormatClearance(d)),
		metricLine("Max T cells", fmt.Sprintf("%.4g", d.MaxTCells)),
		metricLine("Peak antibodies", fmt.Sprintf("%.4g", d.PeakAntibodies)),
		MetricLabel.Render("Stability") + status,
	}
	return GlassPanel.Render(strings.Join(lines, "\n"))
}

// Legend renders the compartment names in theme colors.
func Legend(th Theme) string {
	parts := make([]string, immunity.NumVars)
	for j, name := range immunity.VarNames {
		parts[j] = lipgloss.NewStyle().Foreground(th.Series[j]).Render("■ " + name)
	}
	return strings.Join(parts, "  ")
}
