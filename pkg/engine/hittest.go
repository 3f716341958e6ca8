package engine

import (
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/graphics"
)

// HitTest returns the topmost widget of the last laid out frame under
// position. Widgets paint parents-first, so the last match in pre-order is
// the one drawn on top. Widgets hidden by a clip do not match.
//
// The flags mask restricts the search to widgets carrying all of its bits;
// pass 0 to consider every widget.
func (c *Context) HitTest(position graphics.Offset, flags core.Flags) (core.WidgetID, bool) {
	hit := core.NoWidget
	c.tree.PreOrder(func(id core.WidgetID) {
		w := c.tree.Widget(id)
		if !w.Flags.Has(flags) || !w.VisibleAt(position) {
			return
		}
		hit = id
	})
	return hit, hit.Valid()
}
