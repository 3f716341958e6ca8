package graphics

import "github.com/chewxy/math32"

// epsilon is the tolerance for floating-point comparisons.
const epsilon = 0.0001

// Axis selects the horizontal or vertical dimension.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisCount
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Offset represents a 2D point or vector in pixel coordinates.
type Offset struct {
	X float32
	Y float32
}

// Add returns o translated by d.
func (o Offset) Add(d Offset) Offset {
	return Offset{X: o.X + d.X, Y: o.Y + d.Y}
}

// Sub returns o minus d.
func (o Offset) Sub(d Offset) Offset {
	return Offset{X: o.X - d.X, Y: o.Y - d.Y}
}

// On returns the component along axis.
func (o Offset) On(axis Axis) float32 {
	if axis == AxisX {
		return o.X
	}
	return o.Y
}

// Set assigns the component along axis.
func (o *Offset) Set(axis Axis, v float32) {
	if axis == AxisX {
		o.X = v
	} else {
		o.Y = v
	}
}

// Size represents width and height dimensions in pixels.
type Size struct {
	Width  float32
	Height float32
}

// On returns the extent along axis.
func (s Size) On(axis Axis) float32 {
	if axis == AxisX {
		return s.Width
	}
	return s.Height
}

// Set assigns the extent along axis.
func (s *Size) Set(axis Axis, v float32) {
	if axis == AxisX {
		s.Width = v
	} else {
		s.Height = v
	}
}

// IsValid reports whether both extents are finite and non-negative.
func (s Size) IsValid() bool {
	return valid(s.Width) && valid(s.Height)
}

func valid(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0) && v >= 0
}

// Rect represents a rectangle using left, top, right, bottom coordinates.
type Rect struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
}

// RectFromLTWH constructs a Rect from left, top, width, height values.
func RectFromLTWH(left, top, width, height float32) Rect {
	return Rect{
		Left:   left,
		Top:    top,
		Right:  left + width,
		Bottom: top + height,
	}
}

// RectFromOffsetSize constructs a Rect from a top-left corner and a size.
func RectFromOffsetSize(o Offset, s Size) Rect {
	return RectFromLTWH(o.X, o.Y, s.Width, s.Height)
}

// Width returns the width of the rectangle.
func (r Rect) Width() float32 {
	return r.Right - r.Left
}

// Height returns the height of the rectangle.
func (r Rect) Height() float32 {
	return r.Bottom - r.Top
}

// Size returns the size of the rectangle.
func (r Rect) Size() Size {
	return Size{Width: r.Width(), Height: r.Height()}
}

// TopLeft returns the top-left corner.
func (r Rect) TopLeft() Offset {
	return Offset{X: r.Left, Y: r.Top}
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Offset {
	return Offset{
		X: (r.Left + r.Right) * 0.5,
		Y: (r.Top + r.Bottom) * 0.5,
	}
}

// Contains reports whether p lies inside r. Left and top edges are
// inclusive, right and bottom edges exclusive, so adjacent rectangles never
// both contain a point.
func (r Rect) Contains(p Offset) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Intersect returns the intersection of two rectangles.
// Returns empty rect if they don't overlap.
func (r Rect) Intersect(other Rect) Rect {
	left := math32.Max(r.Left, other.Left)
	top := math32.Max(r.Top, other.Top)
	right := math32.Min(r.Right, other.Right)
	bottom := math32.Min(r.Bottom, other.Bottom)
	if left >= right || top >= bottom {
		return Rect{}
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// IsEmpty returns true if the rectangle has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Translate returns a new rect offset by (dx, dy).
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Union returns the smallest rect containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Left:   math32.Min(r.Left, other.Left),
		Top:    math32.Min(r.Top, other.Top),
		Right:  math32.Max(r.Right, other.Right),
		Bottom: math32.Max(r.Bottom, other.Bottom),
	}
}

// Equal reports whether two rects match within epsilon.
func (r Rect) Equal(other Rect) bool {
	return floatEqual(r.Left, other.Left) && floatEqual(r.Top, other.Top) &&
		floatEqual(r.Right, other.Right) && floatEqual(r.Bottom, other.Bottom)
}

// floatEqual returns true if two float32 values are approximately equal.
func floatEqual(a, b float32) bool {
	return math32.Abs(a-b) <= epsilon
}

// Insets holds per-edge spacing.
type Insets struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
}

// UniformInsets returns insets with the same value on every edge.
func UniformInsets(v float32) Insets {
	return Insets{Left: v, Top: v, Right: v, Bottom: v}
}

// Leading returns the left or top inset for axis.
func (i Insets) Leading(axis Axis) float32 {
	if axis == AxisX {
		return i.Left
	}
	return i.Top
}

// Trailing returns the right or bottom inset for axis.
func (i Insets) Trailing(axis Axis) float32 {
	if axis == AxisX {
		return i.Right
	}
	return i.Bottom
}

// Along returns the total inset on axis.
func (i Insets) Along(axis Axis) float32 {
	return i.Leading(axis) + i.Trailing(axis)
}
