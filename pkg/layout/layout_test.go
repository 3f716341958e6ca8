package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/immediate/pkg/arena"
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

var cells = graphics.CellMetrics{Aspect: 0.75}

var screen = graphics.RectFromLTWH(0, 0, 800, 600)

type harness struct {
	t     *testing.T
	frame *arena.Arena
	tree  *core.Tree
	style *core.Style
	list  *graphics.DrawList
	index uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	old := errors.DefaultHandler
	errors.SetHandler(errors.DiscardHandler{})
	t.Cleanup(func() { errors.SetHandler(old) })

	h := &harness{t: t, frame: arena.New("frame")}
	cache := core.NewCache(arena.New("cache"), 64, 1024)
	h.style = core.NewStyle(h.frame, core.BuiltinDefaults, 16)
	h.tree = core.NewTree(cache, h.style)
	h.list = graphics.NewDrawList(h.frame, graphics.DefaultCapacity)
	return h
}

// run declares one frame with build, lays it out with cell metrics and
// paints it.
func (h *harness) run(p graphics.Pointer, build func(t *core.Tree)) {
	h.t.Helper()
	h.index++
	h.frame.Reset()
	h.style.Reset()
	h.tree.Begin(h.index, p)
	build(h.tree)
	h.tree.End()
	require.NoError(h.t, Run(h.tree, cells, screen))
	Paint(h.tree, cells, h.list)
}

func (h *harness) widget(name string) *core.Widget {
	h.t.Helper()
	id, ok := h.tree.Lookup(name)
	require.True(h.t, ok, "widget %q not declared", name)
	return h.tree.Widget(id)
}

func parent(t *core.Tree, name string, a core.Attrs, body func()) {
	t.OpenParent(t.Declare(name, a))
	body()
	t.CloseParent()
}

func TestChildrenSumStacksFixedChildren(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		parent(tr, "root", core.Sized(core.ChildrenSum(), core.Pixels(10)), func() {
			tr.Declare("a", core.Sized(core.Pixels(10), core.Pixels(10)))
			tr.Declare("b", core.Sized(core.Pixels(20), core.Pixels(10)))
		})
	})

	assert.Equal(t, float32(30), h.widget("root").Computed.Width)
	assert.Equal(t, float32(0), h.widget("a").RelPos.X)
	assert.Equal(t, float32(10), h.widget("b").RelPos.X)
	assert.Equal(t, graphics.RectFromLTWH(10, 0, 20, 10), h.widget("b").Rect)
}

func TestChildrenSumWithoutChildrenIsZero(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		tr.Declare("root", core.Sized(core.ChildrenSum(), core.ChildrenSum()))
	})

	assert.Equal(t, graphics.Size{}, h.widget("root").Computed)
}

func TestTextChildMeasuredInRow(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		parent(tr, "root", core.Sized(core.ChildrenSum(), core.SizeSpec{}), func() {
			tr.Declare("A", core.Sized(core.Pixels(50), core.Pixels(20)))
			tr.Declare("B", core.Sized(core.TextContent(), core.TextContent()).WithText("OK"))
		})
	})

	assert.Equal(t, graphics.Size{Width: 74, Height: 20}, h.widget("root").Computed)
	b := h.widget("B")
	assert.Equal(t, graphics.Size{Width: 24, Height: 16}, b.Computed)
	assert.Equal(t, float32(50), b.RelPos.X)
}

func TestTextContentAddsBorder(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		a := core.Sized(core.TextContent(), core.TextContent()).WithText("OK")
		a.BorderThickness = core.Some[float32](2)
		tr.Declare("label", a)
	})

	assert.Equal(t, graphics.Size{Width: 28, Height: 20}, h.widget("label").Computed)
}

func TestColumnWithMarginsAndNoneAxis(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		parent(tr, "col", core.Sized(core.SizeSpec{}, core.ChildrenSum()), func() {
			a := core.Sized(core.Pixels(40), core.Pixels(10))
			a.Margin = core.Some(graphics.Insets{Left: 3, Top: 2, Right: 5, Bottom: 4})
			tr.Declare("first", a)
			tr.Declare("second", core.Sized(core.Pixels(30), core.Pixels(10)))
		})
	})

	col := h.widget("col")
	assert.Equal(t, graphics.Size{Width: 48, Height: 26}, col.Computed)
	assert.Equal(t, graphics.Offset{X: 3, Y: 2}, h.widget("first").RelPos)
	assert.Equal(t, graphics.Offset{X: 0, Y: 16}, h.widget("second").RelPos)
}

func TestPercentResolvesAgainstParentAndViewport(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		parent(tr, "root", core.Sized(core.Percent(0.5), core.Percent(1)), func() {
			parent(tr, "panel", core.Sized(core.Percent(0.5), core.Pixels(100)), func() {
				tr.Declare("quarter", core.Sized(core.Percent(0.25), core.Percent(0.5)))
			})
		})
	})

	assert.Equal(t, graphics.Size{Width: 400, Height: 600}, h.widget("root").Computed)
	assert.Equal(t, graphics.Size{Width: 200, Height: 100}, h.widget("panel").Computed)
	assert.Equal(t, graphics.Size{Width: 50, Height: 50}, h.widget("quarter").Computed)
}

func TestAbsoluteRectsFollowViewportOrigin(t *testing.T) {
	h := newHarness(t)
	h.tree.Begin(1, graphics.Pointer{})
	parent(h.tree, "root", core.Sized(core.ChildrenSum(), core.Pixels(10)), func() {
		h.tree.Declare("a", core.Sized(core.Pixels(10), core.Pixels(10)))
		h.tree.Declare("b", core.Sized(core.Pixels(10), core.Pixels(10)))
	})
	h.tree.End()

	require.NoError(t, Run(h.tree, cells, graphics.RectFromLTWH(100, 50, 200, 200)))

	assert.Equal(t, graphics.RectFromLTWH(100, 50, 20, 10), h.widget("root").Rect)
	assert.Equal(t, graphics.RectFromLTWH(110, 50, 10, 10), h.widget("b").Rect)
}

func TestScrollOffsetsChildrenAndRecordsContent(t *testing.T) {
	h := newHarness(t)
	build := func(tr *core.Tree) {
		parent(tr, "list", core.Sized(core.Pixels(100), core.Pixels(50)).WithFlags(core.FlagScroll|core.FlagClip), func() {
			tr.Declare("row", core.Sized(core.Pixels(100), core.Pixels(80)))
		})
	}
	h.run(graphics.Pointer{}, build)
	assert.Equal(t, graphics.Size{Width: 100, Height: 80}, h.widget("list").Content)

	h.run(graphics.Pointer{Position: graphics.Offset{X: 10, Y: 10}, Wheel: graphics.Offset{Y: 100}}, build)

	assert.Equal(t, graphics.Offset{Y: 30}, h.widget("list").ViewOffset)
	row := h.widget("row")
	assert.Equal(t, graphics.RectFromLTWH(0, -30, 100, 80), row.Rect)
	assert.Equal(t, graphics.RectFromLTWH(0, 0, 100, 50), row.Clip)
}

func TestNestedClipsIntersect(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		parent(tr, "outer", core.Sized(core.Pixels(100), core.Pixels(100)).WithFlags(core.FlagClip), func() {
			parent(tr, "inner", core.Sized(core.Pixels(100), core.Pixels(300)).WithFlags(core.FlagClip), func() {
				tr.Declare("visible", core.Sized(core.Pixels(10), core.Pixels(10)).WithFlags(core.FlagDrawBackground))
				col := core.Sized(core.Pixels(10), core.Pixels(10)).WithFlags(core.FlagDrawBackground)
				col.Margin = core.Some(graphics.Insets{Top: 200})
				tr.Declare("below", col)
			})
		})
	})

	assert.False(t, h.widget("visible").Clipped)
	assert.Equal(t, graphics.RectFromLTWH(0, 0, 100, 100), h.widget("visible").Clip)
	require.Len(t, h.list.Boxes(), 2)
	assert.Equal(t, h.widget("visible").Rect, h.list.Boxes()[0].Rect)
	assert.False(t, h.widget("below").Clipped, "a clip only hides descendants of a clipping widget")
}

func TestClipHidesDescendantsOfDisjointClipper(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		parent(tr, "outer", core.Sized(core.Pixels(100), core.Pixels(100)).WithFlags(core.FlagClip), func() {
			a := core.Sized(core.Pixels(50), core.Pixels(50)).WithFlags(core.FlagClip)
			a.Margin = core.Some(graphics.Insets{Top: 150})
			parent(tr, "offscreen", a, func() {
				tr.Declare("hidden", core.Sized(core.Pixels(10), core.Pixels(10)).WithFlags(core.FlagDrawBackground))
			})
		})
	})

	assert.True(t, h.widget("hidden").Clipped)
	assert.Empty(t, h.list.Boxes())
}

func TestInvalidTextExtentIsFatal(t *testing.T) {
	h := newHarness(t)
	h.tree.Begin(1, graphics.Pointer{})
	h.tree.Declare("bad", core.Sized(core.TextContent(), core.TextContent()).WithText("x"))
	h.tree.End()

	err := errors.Catch(func() {
		_ = Run(h.tree, negativeMetrics{}, screen)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidExtent))
	assert.Equal(t, errors.KindMeasure, errors.KindOf(err))
}

func TestMeasureErrorIsReturned(t *testing.T) {
	h := newHarness(t)
	h.tree.Begin(1, graphics.Pointer{})
	a := core.Sized(core.TextContent(), core.TextContent()).WithText("x")
	a.Font = core.Some(graphics.FontID(9))
	h.tree.Declare("label", a)
	h.tree.End()

	err := Run(h.tree, graphics.NewFaceMetrics(), screen)

	require.Error(t, err)
	assert.True(t, errors.Is(err, graphics.ErrUnknownFont))
	assert.Equal(t, errors.KindMeasure, errors.KindOf(err))
}

func TestEmptyFrameIsNoop(t *testing.T) {
	h := newHarness(t)
	h.tree.Begin(1, graphics.Pointer{})
	h.tree.End()

	require.NoError(t, Run(h.tree, cells, screen))
	Paint(h.tree, cells, h.list)
	assert.True(t, h.list.Empty())
}

func TestEmptyTextEmitsEmptyRun(t *testing.T) {
	h := newHarness(t)
	h.run(graphics.Pointer{}, func(tr *core.Tree) {
		tr.Declare("blank", core.Sized(core.Pixels(40), core.Pixels(20)).WithText("").WithFlags(core.FlagDrawText))
		tr.Declare("plain", core.Sized(core.Pixels(40), core.Pixels(20)).WithText("skip"))
	})

	runs := h.list.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].Count)
	assert.Empty(t, h.list.Glyphs(runs[0]))
	assert.False(t, h.list.Empty())
}

type negativeMetrics struct{ graphics.CellMetrics }

func (negativeMetrics) MeasureText(graphics.FontID, float32, string) (graphics.Size, error) {
	return graphics.Size{Width: -1, Height: 10}, nil
}
