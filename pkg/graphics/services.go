package graphics

// Pointer is the pointer state sampled once per frame.
type Pointer struct {
	Position Offset
	// Down is the primary button state.
	Down bool
	// Wheel is the scroll delta accumulated since the previous frame.
	Wheel Offset
}

// PointerSource supplies pointer state. The engine samples it once at the
// start of each frame.
type PointerSource interface {
	Pointer() Pointer
}

// StaticPointer is a PointerSource that always reports the same state.
type StaticPointer Pointer

// Pointer returns p.
func (p StaticPointer) Pointer() Pointer { return Pointer(p) }

// Renderer consumes a finished draw list. The list is only valid for the
// duration of the call.
type Renderer interface {
	Submit(list *DrawList) error
}

// Frame is a copy of a draw list that outlives the frame arena.
type Frame struct {
	Boxes  []Box
	Runs   []GlyphRun
	Glyphs []Glyph
}

// RunGlyphs returns the glyphs of r.
func (f Frame) RunGlyphs(r GlyphRun) []Glyph {
	return f.Glyphs[r.First : r.First+r.Count]
}

// Text returns the runes of r as a string.
func (f Frame) Text(r GlyphRun) string {
	glyphs := f.RunGlyphs(r)
	out := make([]rune, len(glyphs))
	for i, g := range glyphs {
		out[i] = g.Rune
	}
	return string(out)
}

// Snapshot copies the list out of arena storage.
func Snapshot(list *DrawList) Frame {
	var f Frame
	f.Boxes = append(f.Boxes, list.Boxes()...)
	f.Runs = append(f.Runs, list.Runs()...)
	f.Glyphs = append(f.Glyphs, list.glyphs.Items()...)
	return f
}

// RecordingRenderer keeps a snapshot of every submitted list.
type RecordingRenderer struct {
	Frames []Frame
}

// Submit records a snapshot of list.
func (r *RecordingRenderer) Submit(list *DrawList) error {
	r.Frames = append(r.Frames, Snapshot(list))
	return nil
}

// Last returns the most recent frame, or an empty frame.
func (r *RecordingRenderer) Last() Frame {
	if len(r.Frames) == 0 {
		return Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}
