package graphics

// FontID names a font known to the metrics collaborator. The zero value is
// the collaborator's default face.
type FontID uint16

// DefaultFontSize is used when no font size is configured.
const DefaultFontSize = 16

// GlyphMetrics describes one glyph at a given font size.
type GlyphMetrics struct {
	// Bearing is the offset from the pen position on the baseline to the
	// glyph bitmap's top-left corner. Y is negative above the baseline.
	Bearing Offset
	// Size is the glyph bitmap size.
	Size Size
	// Advance is the horizontal pen advance after the glyph.
	Advance float32
}

// FontMetrics measures text for layout and glyph placement. It is the
// boundary to the font collaborator; shaping and rasterization happen
// behind it.
type FontMetrics interface {
	// MeasureText returns the extent of a single line of text.
	MeasureText(font FontID, size float32, text string) (Size, error)
	// Glyph returns metrics for r. The bool is false when the font has no
	// glyph for r.
	Glyph(font FontID, size float32, r rune) (GlyphMetrics, bool)
	// Ascent returns the distance from the top of a line to its baseline.
	Ascent(font FontID, size float32) float32
}
