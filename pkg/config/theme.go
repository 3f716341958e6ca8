package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"

	"github.com/go-drift/immediate/pkg/core"
	engerrors "github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

// Theme is the TOML form of the style defaults. Colors are hex strings,
// "#rgb", "#rrggbb" or "#rrggbbaa". Unset fields keep the built-in value.
type Theme struct {
	Colors  ThemeColors  `toml:"colors"`
	Metrics ThemeMetrics `toml:"metrics"`
}

// ThemeColors holds hex color strings.
type ThemeColors struct {
	Background string `toml:"background"`
	Text       string `toml:"text"`
	Border     string `toml:"border"`
}

// ThemeMetrics holds numeric style values. Pointers distinguish an explicit
// zero from an unset field.
type ThemeMetrics struct {
	CornerRadius    *float32 `toml:"corner_radius"`
	Softness        *float32 `toml:"softness"`
	BorderThickness *float32 `toml:"border_thickness"`
	FontSize        *float32 `toml:"font_size"`
	Font            *uint16  `toml:"font"`
	Margin          *float32 `toml:"margin"`
}

// LoadTheme reads a TOML theme file and returns the style defaults it
// describes.
func LoadTheme(path string) (core.Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Defaults{}, fmt.Errorf("failed to read theme %s: %w", path, err)
	}
	return ParseTheme(data)
}

// ParseTheme decodes a TOML theme. Unknown keys are rejected.
func ParseTheme(data []byte) (core.Defaults, error) {
	var t Theme
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return core.Defaults{}, themeError(fmt.Errorf("failed to parse theme: %w", err))
	}
	return t.Defaults()
}

// Defaults applies t over core.BuiltinDefaults.
func (t Theme) Defaults() (core.Defaults, error) {
	d := core.BuiltinDefaults
	for _, c := range []struct {
		dst  *graphics.Color
		hex  string
		name string
	}{
		{&d.Background, t.Colors.Background, "colors.background"},
		{&d.TextColor, t.Colors.Text, "colors.text"},
		{&d.BorderColor, t.Colors.Border, "colors.border"},
	} {
		if c.hex == "" {
			continue
		}
		v, err := ParseColor(c.hex)
		if err != nil {
			return core.Defaults{}, themeError(fmt.Errorf("%s: %w", c.name, err))
		}
		*c.dst = v
	}

	m := t.Metrics
	if m.CornerRadius != nil {
		d.CornerRadius = *m.CornerRadius
	}
	if m.Softness != nil {
		d.Softness = *m.Softness
	}
	if m.BorderThickness != nil {
		d.BorderThickness = *m.BorderThickness
	}
	if m.FontSize != nil {
		if *m.FontSize <= 0 {
			return core.Defaults{}, themeError(fmt.Errorf("metrics.font_size must be positive (got %g)", *m.FontSize))
		}
		d.FontSize = *m.FontSize
	}
	if m.Font != nil {
		d.Font = graphics.FontID(*m.Font)
	}
	if m.Margin != nil {
		d.Margin = graphics.UniformInsets(*m.Margin)
	}
	return d, nil
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (graphics.Color, error) {
	s = strings.TrimSpace(s)
	alpha := uint8(0xFF)
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid alpha in %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return graphics.RGBA8(r, g, b, alpha), nil
}

func themeError(err error) error {
	return engerrors.New("config.LoadTheme", engerrors.KindConfig, err)
}
