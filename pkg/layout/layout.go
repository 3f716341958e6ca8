// Package layout turns the declared widget tree into sized, positioned
// rectangles and paints them into a draw list.
//
// Layout runs in two passes over the frame tree. The first pass walks the
// tree children-first and computes every size that depends only on the
// widget itself or its children: fixed pixels, measured text, the sum of
// the children or their largest extent. Children of a children-sum parent
// get their relative positions in the same pass. The second pass walks
// parents-first, resolves percent-of-parent sizes against the now known
// parent size and converts relative positions into absolute rectangles.
package layout

import (
	"github.com/chewxy/math32"

	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

// Run lays out the current frame of tree inside viewport.
func Run(tree *core.Tree, metrics graphics.FontMetrics, viewport graphics.Rect) error {
	p := Pipeline{Metrics: metrics, Viewport: viewport}
	return p.Layout(tree)
}

// Pipeline carries the collaborators shared by the layout and paint
// passes of one frame.
type Pipeline struct {
	Metrics  graphics.FontMetrics
	Viewport graphics.Rect
}

// Layout sizes and positions every widget declared this frame.
func (p *Pipeline) Layout(tree *core.Tree) error {
	root := tree.Root()
	if !root.Valid() {
		return nil
	}
	var err error
	tree.PostOrder(func(id core.WidgetID) {
		if err == nil {
			err = p.measure(tree, id)
		}
	})
	if err != nil {
		return err
	}

	w := tree.Widget(root)
	viewport := p.Viewport.Size()
	for axis := graphics.AxisX; axis < graphics.AxisCount; axis++ {
		if w.Size[axis].Kind == core.SizePercentOfParent {
			w.Computed.Set(axis, w.Size[axis].Value*viewport.On(axis))
		}
	}
	w.RelPos = graphics.Offset{}
	p.place(tree, root, p.Viewport.TopLeft(), graphics.Rect{}, false)
	return nil
}

// measure is the children-first pass.
func (p *Pipeline) measure(tree *core.Tree, id core.WidgetID) error {
	w := tree.Widget(id)
	if w.Size[graphics.AxisX].Kind == core.SizeTextContent ||
		w.Size[graphics.AxisY].Kind == core.SizeTextContent ||
		w.Flags.Has(core.FlagDrawText) {
		if err := p.measureText(w); err != nil {
			return err
		}
	} else {
		w.TextExtent = graphics.Size{}
	}

	for axis := graphics.AxisX; axis < graphics.AxisCount; axis++ {
		w.RelPos.Set(axis, w.Margin.Leading(axis))

		spec := w.Size[axis]
		switch spec.Kind {
		case core.SizePixels:
			w.Computed.Set(axis, spec.Value)
		case core.SizeTextContent:
			w.Computed.Set(axis, w.TextExtent.On(axis)+2*w.BorderThickness)
		case core.SizeChildrenSum:
			w.Computed.Set(axis, stack(tree, id, axis))
		case core.SizeNone:
			w.Computed.Set(axis, widest(tree, id, axis))
		case core.SizePercentOfParent:
			w.Computed.Set(axis, 0)
		}
	}
	return nil
}

func (p *Pipeline) measureText(w *core.Widget) error {
	if w.Text == "" {
		w.TextExtent = graphics.Size{}
		return nil
	}
	ext, err := p.Metrics.MeasureText(w.Font, w.FontSize, w.Text)
	if err != nil {
		e := errors.New("layout.measure", errors.KindMeasure, err)
		e.Widget = w.Name
		return e
	}
	if !ext.IsValid() {
		errors.Fatalf("layout.measure", errors.KindMeasure, w.Name,
			"text %q measured %gx%g: %w", w.Text, ext.Width, ext.Height, errors.ErrInvalidExtent)
	}
	w.TextExtent = ext
	return nil
}

// stack places the children of id end to end along axis and returns the
// total extent including margins.
func stack(tree *core.Tree, id core.WidgetID, axis graphics.Axis) float32 {
	var pos float32
	for c := range tree.Children(id) {
		child := tree.Widget(c)
		pos += child.Margin.Leading(axis)
		child.RelPos.Set(axis, pos)
		pos += child.Computed.On(axis) + child.Margin.Trailing(axis)
	}
	return pos
}

// widest returns the largest child extent along axis including margins.
func widest(tree *core.Tree, id core.WidgetID, axis graphics.Axis) float32 {
	var m float32
	for c := range tree.Children(id) {
		child := tree.Widget(c)
		m = math32.Max(m, child.Computed.On(axis)+child.Margin.Along(axis))
	}
	return m
}

// place is the parents-first pass. origin is the absolute position the
// widget's relative position is measured from; clip is the scissor
// inherited from clipping ancestors.
func (p *Pipeline) place(tree *core.Tree, id core.WidgetID, origin graphics.Offset, clip graphics.Rect, clipped bool) {
	w := tree.Widget(id)
	w.Rect = graphics.RectFromOffsetSize(origin.Add(w.RelPos), w.Computed)
	w.Clip = clip
	w.Clipped = clipped

	childClip, childClipped := clip, clipped
	if w.Flags.Has(core.FlagClip) && !clipped {
		if clip.IsEmpty() {
			childClip = w.Rect
		} else {
			childClip = clip.Intersect(w.Rect)
		}
		childClipped = childClip.IsEmpty()
	}

	childOrigin := w.Rect.TopLeft()
	if w.Flags.Has(core.FlagScroll) {
		childOrigin = childOrigin.Sub(w.ViewOffset)
	}

	var content graphics.Size
	for c := range tree.Children(id) {
		child := tree.Widget(c)
		for axis := graphics.AxisX; axis < graphics.AxisCount; axis++ {
			if child.Size[axis].Kind == core.SizePercentOfParent {
				child.Computed.Set(axis, child.Size[axis].Value*w.Computed.On(axis))
			}
		}
		p.place(tree, c, childOrigin, childClip, childClipped)

		child = tree.Widget(c)
		for axis := graphics.AxisX; axis < graphics.AxisCount; axis++ {
			end := child.RelPos.On(axis) + child.Computed.On(axis) + child.Margin.Trailing(axis)
			content.Set(axis, math32.Max(content.On(axis), end))
		}
	}
	tree.Widget(id).Content = content
}
