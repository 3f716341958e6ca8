package core

import "github.com/go-drift/immediate/pkg/graphics"

// ResolveInteraction computes hot/active for a widget from the rectangle
// and clip of its last layout and the sampled pointer. Only clickable
// widgets react, and only where they are visible.
func ResolveInteraction(w *Widget, p graphics.Pointer) (hot, active bool) {
	if !w.Flags.Has(FlagClickable) {
		return false, false
	}
	hot = w.VisibleAt(p.Position)
	return hot, hot && p.Down
}

// scroll applies the wheel delta to a scrollable widget under the pointer,
// bounded by the previous frame's content and view extents.
func scroll(w *Widget, p graphics.Pointer) {
	if !w.Flags.Has(FlagScroll) || !w.VisibleAt(p.Position) {
		return
	}
	for axis := graphics.AxisX; axis < graphics.AxisCount; axis++ {
		limit := max(0, w.Content.On(axis)-w.Computed.On(axis))
		v := w.ViewOffset.On(axis) + p.Wheel.On(axis)
		w.ViewOffset.Set(axis, min(max(v, 0), limit))
	}
}
