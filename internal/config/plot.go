package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/plot"
)

// PlotConfig sizes figures in inches and colors each compartment by hex.
type PlotConfig struct {
	Width  float64           `yaml:"width"`
	Height float64           `yaml:"height"`
	DPI    int               `yaml:"dpi"`
	Colors map[string]string `yaml:"colors"`
}

func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Width:  10,
		Height: 6,
		DPI:    plot.DefaultDPI,
		Colors: map[string]string{
			"V": "#FF4B4B",
			"I": "#4B4BFF",
			"T": "#4BFF4B",
			"A": "#FF4BFF",
		},
	}
}

// Settings converts the file form into renderer settings.
func (p PlotConfig) Settings() (plot.Settings, error) {
	s := plot.DefaultSettings()
	if p.Width > 0 {
		s.Width = p.Width
	}
	if p.Height > 0 {
		s.Height = p.Height
	}
	if p.DPI > 0 {
		s.DPI = p.DPI
	}
	for i, name := range immunity.VarNames {
		hex, ok := p.Colors[name]
		if !ok {
			continue
		}
		c, err := ParseHexColor(hex)
		if err != nil {
			return plot.Settings{}, fmt.Errorf("plot color %s: %w", name, err)
		}
		s.Colors[i] = c
	}
	return s, nil
}

// ParseHexColor accepts #RRGGBB.
func ParseHexColor(s string) (color.RGBA, error) {
	h, ok := strings.CutPrefix(s, "#")
	if !ok || len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
