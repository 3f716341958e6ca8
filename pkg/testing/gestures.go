package testing

import (
	"fmt"

	"github.com/go-drift/immediate/pkg/graphics"
)

// The pointer is sampled at the start of each frame and resolved against
// the previous frame's rectangles, so every gesture step below sets the
// pointer and then pumps a frame.

// MoveTo moves the pointer to pos. The next frame samples it.
func (t *Tester) MoveTo(pos graphics.Offset) {
	t.pointer.Position = pos
}

// Hover moves the pointer to the center of the first widget matched by
// finder and pumps a frame.
func (t *Tester) Hover(finder Finder) error {
	center, err := t.center("Hover", finder)
	if err != nil {
		return err
	}
	t.MoveTo(center)
	return t.Pump()
}

// Tap presses at the center of the first widget matched by finder and
// pumps a frame, leaving the widget active in that frame. The release is
// sampled by the next frame.
func (t *Tester) Tap(finder Finder) error {
	center, err := t.center("Tap", finder)
	if err != nil {
		return err
	}
	return t.TapAt(center)
}

// TapAt presses at pos, pumps a frame and releases.
func (t *Tester) TapAt(pos graphics.Offset) error {
	t.MoveTo(pos)
	t.pointer.Down = true
	err := t.Pump()
	t.pointer.Down = false
	return err
}

// Drag presses on the first widget matched by finder, moves by delta and
// releases, pumping a frame after each step.
func (t *Tester) Drag(finder Finder, delta graphics.Offset) error {
	start, err := t.center("Drag", finder)
	if err != nil {
		return err
	}
	return t.DragFrom(start, delta)
}

// DragFrom simulates a drag from start by delta.
func (t *Tester) DragFrom(start, delta graphics.Offset) error {
	t.MoveTo(start)
	t.pointer.Down = true
	if err := t.Pump(); err != nil {
		return err
	}
	t.MoveTo(start.Add(delta))
	if err := t.Pump(); err != nil {
		return err
	}
	t.pointer.Down = false
	return t.Pump()
}

// Scroll sends a wheel delta over the first widget matched by finder for
// one frame.
func (t *Tester) Scroll(finder Finder, delta graphics.Offset) error {
	center, err := t.center("Scroll", finder)
	if err != nil {
		return err
	}
	return t.ScrollAt(center, delta)
}

// ScrollAt sends a wheel delta at pos for one frame.
func (t *Tester) ScrollAt(pos graphics.Offset, delta graphics.Offset) error {
	t.MoveTo(pos)
	t.pointer.Wheel = delta
	err := t.Pump()
	t.pointer.Wheel = graphics.Offset{}
	return err
}

func (t *Tester) center(gesture string, finder Finder) (graphics.Offset, error) {
	result := t.Find(finder)
	if !result.Exists() {
		return graphics.Offset{}, fmt.Errorf("%s: finder matched no widgets: %s", gesture, finder.Description())
	}
	rect := result.Rect()
	if rect.IsEmpty() {
		return graphics.Offset{}, fmt.Errorf("%s: widget has an empty rect: %s", gesture, finder.Description())
	}
	return rect.Center(), nil
}
