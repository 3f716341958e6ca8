package graphics

import (
	"unicode"

	"github.com/mattn/go-runewidth"
)

// CellMetrics measures text on a monospace cell grid. A cell is
// Aspect×size wide and size tall; East Asian wide runes take two cells.
// It suits terminal-style renderers and deterministic tests.
type CellMetrics struct {
	// Aspect is the cell width as a fraction of the font size.
	Aspect float32
}

func (m CellMetrics) cell(size float32) Size {
	if size <= 0 {
		size = DefaultFontSize
	}
	aspect := m.Aspect
	if aspect <= 0 {
		aspect = 0.5
	}
	return Size{Width: aspect * size, Height: size}
}

// MeasureText returns the cell extent of text.
func (m CellMetrics) MeasureText(_ FontID, size float32, text string) (Size, error) {
	c := m.cell(size)
	return Size{
		Width:  float32(runewidth.StringWidth(text)) * c.Width,
		Height: c.Height,
	}, nil
}

// Glyph returns one or two cells for printable runes. Control runes have
// no glyph.
func (m CellMetrics) Glyph(_ FontID, size float32, r rune) (GlyphMetrics, bool) {
	if unicode.IsControl(r) {
		return GlyphMetrics{}, false
	}
	c := m.cell(size)
	w := float32(runewidth.RuneWidth(r)) * c.Width
	return GlyphMetrics{
		Bearing: Offset{Y: -m.Ascent(0, size)},
		Size:    Size{Width: w, Height: c.Height},
		Advance: w,
	}, true
}

// Ascent places the baseline at 80% of the cell height.
func (m CellMetrics) Ascent(_ FontID, size float32) float32 {
	return m.cell(size).Height * 0.8
}
