package layout

import (
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

// Paint appends the draw commands for tree's current frame to list.
func Paint(tree *core.Tree, metrics graphics.FontMetrics, list *graphics.DrawList) {
	p := Pipeline{Metrics: metrics}
	p.Paint(tree, list)
}

// Paint emits boxes and glyph runs parents-first, so children draw over
// their ancestors. Widgets hidden by a clipping ancestor emit nothing.
func (p *Pipeline) Paint(tree *core.Tree, list *graphics.DrawList) {
	tree.PreOrder(func(id core.WidgetID) {
		w := tree.Widget(id)
		if w.Clipped {
			return
		}
		if w.Flags.Has(core.FlagDrawBackground) {
			list.AddBox(graphics.Box{
				Rect:            w.Rect,
				Clip:            w.Clip,
				Color:           w.Background,
				Softness:        w.Softness,
				BorderThickness: w.BorderThickness,
				CornerRadius:    w.CornerRadius,
				Interaction:     interaction(w),
			})
		}
		if w.Flags.Has(core.FlagDrawBorder) {
			list.AddBox(graphics.Box{
				Rect:            w.Rect,
				Clip:            w.Clip,
				Color:           graphics.ColorTransparent,
				BorderColor:     w.BorderColor,
				Softness:        w.Softness,
				BorderThickness: w.BorderThickness,
				CornerRadius:    w.CornerRadius,
				Interaction:     interaction(w),
			})
		}
		if w.Flags.Has(core.FlagDrawText) {
			p.paintText(w, list)
		}
	})
}

func interaction(w *core.Widget) graphics.InteractionBits {
	var bits graphics.InteractionBits
	if w.Hot {
		bits |= graphics.InteractionHot
	}
	if w.Active {
		bits |= graphics.InteractionActive
	}
	return bits
}

// paintText centers the measured text in the widget rectangle and places
// each glyph from its bearing and the running pen advance. Empty text still
// yields a run with no glyphs.
func (p *Pipeline) paintText(w *core.Widget, list *graphics.DrawList) {
	left := w.Rect.Left + (w.Rect.Width()-w.TextExtent.Width)/2
	top := w.Rect.Top + (w.Rect.Height()-w.TextExtent.Height)/2
	origin := graphics.Offset{X: left, Y: top + p.Metrics.Ascent(w.Font, w.FontSize)}

	first := list.GlyphMark()
	pen := origin
	for _, r := range w.Text {
		g, ok := p.Metrics.Glyph(w.Font, w.FontSize, r)
		if !ok {
			list.DropGlyphs(first)
			errors.Fatalf("layout.Paint", errors.KindMeasure, w.Name,
				"rune %q in %q: %w", r, w.Text, errors.ErrMissingGlyph)
		}
		list.AddGlyph(graphics.Glyph{
			Rune: r,
			Rect: graphics.RectFromOffsetSize(pen.Add(g.Bearing), g.Size),
		})
		pen.X += g.Advance
	}

	list.AddRun(graphics.GlyphRun{
		Font:     w.Font,
		FontSize: w.FontSize,
		Color:    w.TextColor,
		Origin:   origin,
		Clip:     w.Clip,
		First:    first,
		Count:    list.GlyphMark() - first,
	})
}
