package core

import (
	"github.com/go-drift/immediate/pkg/arena"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

type stackCell[T any] struct {
	value T
	prev  int
}

// Stack is a LIFO override stack for one attribute kind. Cells are
// allocated from the frame arena, so a stack must be empty when the frame
// ends and is emptied by Reset when the next frame begins.
type Stack[T any] struct {
	name  string
	cells *arena.Slab[stackCell[T]]
	top   int
	depth int
	def   T
}

// NewStack attaches a stack of at most limit pushes per frame to frame.
func NewStack[T any](frame *arena.Arena, name string, def T, limit int) *Stack[T] {
	return &Stack[T]{
		name:  name,
		cells: arena.NewSlab[stackCell[T]](frame, "style/"+name, limit),
		top:   -1,
		def:   def,
	}
}

// Push makes v the current value.
func (s *Stack[T]) Push(v T) {
	s.top = s.cells.Push(stackCell[T]{value: v, prev: s.top})
	s.depth++
}

// Pop restores the previous value. Popping an empty stack is fatal.
func (s *Stack[T]) Pop() {
	if s.top < 0 {
		errors.Fatalf("core.Stack.Pop", errors.KindStructure, "",
			"%s: pop on empty stack: %w", s.name, errors.ErrUnbalanced)
	}
	s.top = s.cells.At(s.top).prev
	s.depth--
}

// PushScope pushes v and returns the matching Pop, for use with defer.
func (s *Stack[T]) PushScope(v T) (pop func()) {
	s.Push(v)
	return s.Pop
}

// Get returns the current value, or the default when the stack is empty.
func (s *Stack[T]) Get() T {
	if s.top < 0 {
		return s.def
	}
	return s.cells.At(s.top).value
}

// Depth returns the number of values pushed and not yet popped.
func (s *Stack[T]) Depth() int { return s.depth }

// Default returns the value Get reports on an empty stack.
func (s *Stack[T]) Default() T { return s.def }

// SetDefault replaces the empty-stack value.
func (s *Stack[T]) SetDefault(v T) { s.def = v }

// Name returns the attribute name used in diagnostics.
func (s *Stack[T]) Name() string { return s.name }

// Reset empties the stack without touching its cells.
func (s *Stack[T]) Reset() {
	s.top = -1
	s.depth = 0
}

type anyStack interface {
	Name() string
	Depth() int
	Reset()
}

// Defaults are the values style stacks report when empty.
type Defaults struct {
	Background      graphics.Color
	TextColor       graphics.Color
	BorderColor     graphics.Color
	CornerRadius    float32
	Softness        float32
	BorderThickness float32
	Font            graphics.FontID
	FontSize        float32
	Margin          graphics.Insets
	SizeX           SizeSpec
	SizeY           SizeSpec
	Flags           Flags
}

// BuiltinDefaults is the theme used when none is configured.
var BuiltinDefaults = Defaults{
	Background:  graphics.RGB(0x2B, 0x2D, 0x31),
	TextColor:   graphics.ColorWhite,
	BorderColor: graphics.RGB(0x5A, 0x5F, 0x66),
	FontSize:    graphics.DefaultFontSize,
}

// Style holds one stack per attribute kind. Widgets take any attribute
// their declaration leaves unset from the top of the matching stack.
type Style struct {
	Background      *Stack[graphics.Color]
	TextColor       *Stack[graphics.Color]
	BorderColor     *Stack[graphics.Color]
	CornerRadius    *Stack[float32]
	Softness        *Stack[float32]
	BorderThickness *Stack[float32]
	Font            *Stack[graphics.FontID]
	FontSize        *Stack[float32]
	Text            *Stack[string]
	Margin          *Stack[graphics.Insets]
	SizeX           *Stack[SizeSpec]
	SizeY           *Stack[SizeSpec]
	Flags           *Stack[Flags]

	all []anyStack
}

// NewStyle attaches every stack to the frame arena, each allowing depth
// pushes per frame.
func NewStyle(frame *arena.Arena, d Defaults, depth int) *Style {
	s := &Style{
		Background:      NewStack(frame, "background", d.Background, depth),
		TextColor:       NewStack(frame, "text-color", d.TextColor, depth),
		BorderColor:     NewStack(frame, "border-color", d.BorderColor, depth),
		CornerRadius:    NewStack(frame, "corner-radius", d.CornerRadius, depth),
		Softness:        NewStack(frame, "softness", d.Softness, depth),
		BorderThickness: NewStack(frame, "border-thickness", d.BorderThickness, depth),
		Font:            NewStack(frame, "font", d.Font, depth),
		FontSize:        NewStack(frame, "font-size", d.FontSize, depth),
		Text:            NewStack(frame, "text", "", depth),
		Margin:          NewStack(frame, "margin", d.Margin, depth),
		SizeX:           NewStack(frame, "size-x", d.SizeX, depth),
		SizeY:           NewStack(frame, "size-y", d.SizeY, depth),
		Flags:           NewStack(frame, "flags", d.Flags, depth),
	}
	s.all = []anyStack{
		s.Background, s.TextColor, s.BorderColor, s.CornerRadius, s.Softness,
		s.BorderThickness, s.Font, s.FontSize, s.Text, s.Margin, s.SizeX,
		s.SizeY, s.Flags,
	}
	return s
}

// SetDefaults replaces every stack's empty value.
func (s *Style) SetDefaults(d Defaults) {
	s.Background.SetDefault(d.Background)
	s.TextColor.SetDefault(d.TextColor)
	s.BorderColor.SetDefault(d.BorderColor)
	s.CornerRadius.SetDefault(d.CornerRadius)
	s.Softness.SetDefault(d.Softness)
	s.BorderThickness.SetDefault(d.BorderThickness)
	s.Font.SetDefault(d.Font)
	s.FontSize.SetDefault(d.FontSize)
	s.Margin.SetDefault(d.Margin)
	s.SizeX.SetDefault(d.SizeX)
	s.SizeY.SetDefault(d.SizeY)
	s.Flags.SetDefault(d.Flags)
}

// Reset empties every stack.
func (s *Style) Reset() {
	for _, st := range s.all {
		st.Reset()
	}
}

// Unbalanced returns the names of stacks that still hold pushed values.
func (s *Style) Unbalanced() []string {
	var names []string
	for _, st := range s.all {
		if st.Depth() > 0 {
			names = append(names, st.Name())
		}
	}
	return names
}
