package core

import "github.com/go-drift/immediate/pkg/graphics"

// Opt is an optional attribute value. The zero value is unset.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{v: v, ok: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) { return o.v, o.ok }

// Or returns the value if set, else def.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.v
	}
	return def
}

// Attrs are the explicit attributes of one declaration. Unset fields fall
// back to the style stacks.
type Attrs struct {
	Flags           Opt[Flags]
	SizeX           Opt[SizeSpec]
	SizeY           Opt[SizeSpec]
	Background      Opt[graphics.Color]
	TextColor       Opt[graphics.Color]
	BorderColor     Opt[graphics.Color]
	Softness        Opt[float32]
	BorderThickness Opt[float32]
	CornerRadius    Opt[float32]
	Font            Opt[graphics.FontID]
	FontSize        Opt[float32]
	Margin          Opt[graphics.Insets]
	Text            Opt[string]
}

// Sized returns attrs with both axes set.
func Sized(x, y SizeSpec) Attrs {
	return Attrs{SizeX: Some(x), SizeY: Some(y)}
}

// WithFlags returns a copy of a with flags set.
func (a Attrs) WithFlags(f Flags) Attrs {
	a.Flags = Some(f)
	return a
}

// WithText returns a copy of a with text set.
func (a Attrs) WithText(s string) Attrs {
	a.Text = Some(s)
	return a
}

// WithBackground returns a copy of a with the background color set.
func (a Attrs) WithBackground(c graphics.Color) Attrs {
	a.Background = Some(c)
	return a
}
