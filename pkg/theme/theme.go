// Package theme holds the design tokens the frontend CSS build consumes.
package theme

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported output formats for Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Manifest mirrors the shape of a utility-CSS configuration file.
type Manifest struct {
	Content []string `json:"content" yaml:"content"`
	Theme   Theme    `json:"theme" yaml:"theme"`
	Plugins []string `json:"plugins" yaml:"plugins"`
}

// Theme only extends the build tool's defaults.
type Theme struct {
	Extend Extension `json:"extend" yaml:"extend"`
}

// Extension lists the added color and font tokens.
type Extension struct {
	Colors     map[string]Color    `json:"colors" yaml:"colors"`
	FontFamily map[string][]string `json:"fontFamily" yaml:"fontFamily"`
}

// Color is either a single hex value or a scale of shades keyed by weight.
type Color struct {
	Value  string
	Shades map[string]string
}

// Hex builds a single-value color.
func Hex(v string) Color { return Color{Value: v} }

// Scale builds a shaded color.
func Scale(shades map[string]string) Color { return Color{Shades: shades} }

func (c Color) encoded() any {
	if len(c.Shades) > 0 {
		return c.Shades
	}
	return c.Value
}

func (c Color) MarshalJSON() ([]byte, error) { return json.Marshal(c.encoded()) }

func (c Color) MarshalYAML() (any, error) { return c.encoded(), nil }

// Default returns a fresh copy of the REACH frontend theme.
func Default() Manifest {
	return Manifest{
		Content: []string{
			"./index.html",
			"./src/**/*.{vue,js,ts,jsx,tsx}",
		},
		Theme: Theme{Extend: Extension{
			Colors: map[string]Color{
				"reach-blue":   Hex("#2563eb"),
				"reach-orange": Hex("#f97316"),
				"reach-pink":   Hex("#ec4899"),
				"reach-purple": Hex("#8b5cf6"),
				"warm-gray": Scale(map[string]string{
					"50":  "#fafaf9",
					"100": "#f5f5f4",
					"200": "#e7e5e4",
					"300": "#d6d3d1",
				}),
			},
			FontFamily: map[string][]string{
				"child-friendly": {"Comic Neue", "Quicksand", "Nunito", "sans-serif"},
			},
		}},
		Plugins: []string{},
	}
}

// Encode writes the manifest in the requested format.
func Encode(w io.Writer, m Manifest, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode yaml theme: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported theme format %q", format)
	}
}
