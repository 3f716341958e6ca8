// Package core holds the persistent side of the engine: widget records,
// the key-addressed widget cache, the per-attribute style stacks and the
// tree assembler that links declarations into the current frame's tree.
package core

import (
	"fmt"

	"github.com/go-drift/immediate/pkg/graphics"
)

// WidgetID addresses a widget slot in the cache. The zero value is
// NoWidget and never names a live widget.
type WidgetID uint32

// NoWidget is the absent-widget value for tree and chain links.
const NoWidget WidgetID = 0

// Valid reports whether id names a widget.
func (id WidgetID) Valid() bool { return id != NoWidget }

// Flags select the behaviors of a widget.
type Flags uint16

const (
	FlagClickable Flags = 1 << iota
	FlagDrawBackground
	FlagDrawText
	FlagDrawBorder
	FlagClip
	FlagScroll
)

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// SizeKind selects how a widget's extent along one axis is computed.
type SizeKind uint8

const (
	// SizeNone takes the largest child extent.
	SizeNone SizeKind = iota
	// SizePixels uses SizeSpec.Value directly.
	SizePixels
	// SizeTextContent uses the measured text plus twice the border.
	SizeTextContent
	// SizePercentOfParent uses SizeSpec.Value as a fraction of the parent.
	SizePercentOfParent
	// SizeChildrenSum sums the children and stacks them along the axis.
	SizeChildrenSum
)

func (k SizeKind) String() string {
	switch k {
	case SizeNone:
		return "none"
	case SizePixels:
		return "pixels"
	case SizeTextContent:
		return "text"
	case SizePercentOfParent:
		return "percent"
	case SizeChildrenSum:
		return "children-sum"
	default:
		return fmt.Sprintf("SizeKind(%d)", int(k))
	}
}

// ContentDependent reports whether the extent depends on the children.
func (k SizeKind) ContentDependent() bool {
	return k == SizeNone || k == SizeChildrenSum
}

// SizeSpec is the declared size of a widget along one axis. Strictness is
// carried for renderers and tools; the layout passes do not shrink
// widgets.
type SizeSpec struct {
	Kind       SizeKind
	Value      float32
	Strictness float32
}

// Pixels sizes to a fixed extent.
func Pixels(v float32) SizeSpec {
	return SizeSpec{Kind: SizePixels, Value: v, Strictness: 1}
}

// TextContent sizes to the widget's measured text.
func TextContent() SizeSpec {
	return SizeSpec{Kind: SizeTextContent, Strictness: 1}
}

// Percent sizes to a fraction (0-1) of the parent.
func Percent(fraction float32) SizeSpec {
	return SizeSpec{Kind: SizePercentOfParent, Value: fraction, Strictness: 0}
}

// ChildrenSum sizes to the sum of the children.
func ChildrenSum() SizeSpec {
	return SizeSpec{Kind: SizeChildrenSum, Strictness: 1}
}

func (s SizeSpec) String() string {
	switch s.Kind {
	case SizePixels:
		return fmt.Sprintf("%gpx", s.Value)
	case SizePercentOfParent:
		return fmt.Sprintf("%g%%", s.Value*100)
	default:
		return s.Kind.String()
	}
}

// Widget is the cached record of one UI element. Cache links and the key
// persist while the widget stays in the cache; tree links and computed
// layout are rewritten every frame the widget is declared.
type Widget struct {
	Key  Key
	Name string

	hashNext WidgetID
	hashPrev WidgetID

	Parent     WidgetID
	First      WidgetID
	Last       WidgetID
	Next       WidgetID
	Prev       WidgetID
	ChildCount int

	Flags Flags
	Size  [graphics.AxisCount]SizeSpec

	// Computed is the resolved size. RelPos is relative to the parent's
	// top-left corner. Rect is absolute and survives into the next frame's
	// hit testing.
	Computed graphics.Size
	RelPos   graphics.Offset
	Rect     graphics.Rect
	// Clip is the scissor inherited from clipping ancestors, or empty.
	// Clipped is set when a clipping ancestor hides the widget entirely.
	Clip    graphics.Rect
	Clipped bool
	// Content is the extent of the children, used to bound scrolling.
	Content graphics.Size

	Background      graphics.Color
	TextColor       graphics.Color
	BorderColor     graphics.Color
	Softness        float32
	BorderThickness float32
	CornerRadius    float32
	Margin          graphics.Insets
	Font            graphics.FontID
	FontSize        float32

	Text       string
	TextExtent graphics.Size

	Hot    bool
	Active bool
	// ViewOffset is the scroll position of a scrollable widget.
	ViewOffset graphics.Offset

	FirstFrame uint64
	LastFrame  uint64
}

// DeclaredIn reports whether the widget was declared in frame.
func (w *Widget) DeclaredIn(frame uint64) bool {
	return w.LastFrame == frame
}

// VisibleAt reports whether pos lies on the part of the widget's last laid
// out rectangle that survives its clipping ancestors.
func (w *Widget) VisibleAt(pos graphics.Offset) bool {
	if w.Clipped || !w.Rect.Contains(pos) {
		return false
	}
	return w.Clip.IsEmpty() || w.Clip.Contains(pos)
}

func (w *Widget) resetTree() {
	w.Parent = NoWidget
	w.First = NoWidget
	w.Last = NoWidget
	w.Next = NoWidget
	w.Prev = NoWidget
	w.ChildCount = 0
}
