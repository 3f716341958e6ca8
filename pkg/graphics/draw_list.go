package graphics

import (
	"github.com/go-drift/immediate/pkg/arena"
)

// InteractionBits encodes hot/active state for the renderer's shader.
type InteractionBits uint32

const (
	InteractionHot InteractionBits = 1 << iota
	InteractionActive
)

// Box is one rounded, optionally soft-edged rectangle.
type Box struct {
	Rect Rect
	// Clip is the scissor rectangle. An empty clip means unclipped.
	Clip            Rect
	Color           Color
	BorderColor     Color
	Softness        float32
	BorderThickness float32
	CornerRadius    float32
	Interaction     InteractionBits
}

// Glyph is one positioned glyph quad in screen space.
type Glyph struct {
	Rune rune
	Rect Rect
}

// GlyphRun is a line of glyphs sharing font, size and color. Its glyphs
// are the range [First, First+Count) of the list's glyph buffer.
type GlyphRun struct {
	Font     FontID
	FontSize float32
	Color    Color
	// Origin is the pen position on the baseline before the first glyph.
	Origin Offset
	Clip   Rect
	First  int
	Count  int
}

// Capacity bounds the draw list buffers for one frame.
type Capacity struct {
	Boxes     int
	GlyphRuns int
	Glyphs    int
}

// DefaultCapacity is used when a configuration leaves bounds unset.
var DefaultCapacity = Capacity{Boxes: 4096, GlyphRuns: 2048, Glyphs: 65536}

// DrawList is the flat per-frame output of the paint pass. Its storage
// lives in the frame arena and is invalidated when the arena resets.
type DrawList struct {
	boxes  *arena.Slab[Box]
	runs   *arena.Slab[GlyphRun]
	glyphs *arena.Slab[Glyph]
}

// NewDrawList attaches draw list buffers to the frame arena. Exceeding any
// capacity is fatal.
func NewDrawList(frame *arena.Arena, c Capacity) *DrawList {
	return &DrawList{
		boxes:  arena.NewSlab[Box](frame, "boxes", c.Boxes),
		runs:   arena.NewSlab[GlyphRun](frame, "glyph-runs", c.GlyphRuns),
		glyphs: arena.NewSlab[Glyph](frame, "glyphs", c.Glyphs),
	}
}

// AddBox appends a box.
func (d *DrawList) AddBox(b Box) {
	d.boxes.Push(b)
}

// GlyphMark returns the index the next glyph will get.
func (d *DrawList) GlyphMark() int {
	return d.glyphs.Mark()
}

// AddGlyph appends a glyph to the glyph buffer.
func (d *DrawList) AddGlyph(g Glyph) {
	d.glyphs.Push(g)
}

// DropGlyphs discards glyphs appended since mark.
func (d *DrawList) DropGlyphs(mark int) {
	d.glyphs.ResetTo(mark)
}

// AddRun appends a glyph run.
func (d *DrawList) AddRun(r GlyphRun) {
	d.runs.Push(r)
}

// Boxes returns the boxes in paint order.
func (d *DrawList) Boxes() []Box { return d.boxes.Items() }

// Runs returns the glyph runs in paint order.
func (d *DrawList) Runs() []GlyphRun { return d.runs.Items() }

// Glyphs returns the glyphs of run r.
func (d *DrawList) Glyphs(r GlyphRun) []Glyph {
	return d.glyphs.Items()[r.First : r.First+r.Count]
}

// Empty reports whether nothing was drawn.
func (d *DrawList) Empty() bool {
	return d.boxes.Len() == 0 && d.runs.Len() == 0
}
