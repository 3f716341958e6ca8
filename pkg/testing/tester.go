package testing

import (
	"errors"
	"testing"

	"github.com/go-drift/immediate/pkg/config"
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/engine"
	engineerrors "github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

const (
	// DefaultTestWidth is the default logical width for the test viewport.
	DefaultTestWidth = 800
	// DefaultTestHeight is the default logical height for the test viewport.
	DefaultTestHeight = 600
	// DefaultCellAspect is the cell width of the test metrics as a fraction
	// of the font size.
	DefaultCellAspect = 0.75
)

// ErrNoBuild is returned by Pump before any frame has been built.
var ErrNoBuild = errors.New("Pump called before Frame: no build function")

// BuildFunc declares one frame's widgets.
type BuildFunc func(ctx *engine.Context)

// Tester runs frames against a real engine.Context with deterministic
// collaborators: cell-grid font metrics, a recording renderer, a scripted
// pointer and a fake clock.
type Tester struct {
	ctx      *engine.Context
	renderer *graphics.RecordingRenderer
	pointer  *graphics.StaticPointer
	clock    *FakeClock
	build    BuildFunc
	size     graphics.Size
}

// NewTester creates a tester with the default test environment. Options
// are applied after the tester's own, so they may replace any of them.
func NewTester(opts ...engine.Option) (*Tester, error) {
	t := &Tester{
		renderer: &graphics.RecordingRenderer{},
		pointer:  &graphics.StaticPointer{},
		clock:    NewFakeClock(),
		size:     graphics.Size{Width: DefaultTestWidth, Height: DefaultTestHeight},
	}
	cfg := config.Default()
	cfg.Viewport = config.ViewportConfig{Width: DefaultTestWidth, Height: DefaultTestHeight}
	base := []engine.Option{
		engine.WithMetrics(graphics.CellMetrics{Aspect: DefaultCellAspect}),
		engine.WithRenderer(t.renderer),
		engine.WithPointer(t.pointer),
		engine.WithClock(t.clock.Now),
	}
	ctx, err := engine.NewContext(cfg, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	t.ctx = ctx
	return t, nil
}

// NewTesterWithT creates a tester that routes engine error reports to
// t.Log and restores the global handler via t.Cleanup(). This is the
// recommended constructor for tests.
func NewTesterWithT(t *testing.T, opts ...engine.Option) *Tester {
	t.Helper()
	prev := engineerrors.DefaultHandler
	engineerrors.SetHandler(logHandler{t})
	t.Cleanup(func() { engineerrors.SetHandler(prev) })

	tester, err := NewTester(opts...)
	if err != nil {
		t.Fatalf("NewTester: %v", err)
	}
	return tester
}

// logHandler forwards engine error reports to the test log.
type logHandler struct {
	t *testing.T
}

func (h logHandler) HandleError(err *engineerrors.EngineError) {
	h.t.Helper()
	h.t.Logf("engine error: %v", err)
}

func (h logHandler) HandlePanic(err *engineerrors.PanicError) {
	h.t.Helper()
	h.t.Logf("engine panic: %v", err)
}

// SetSize changes the viewport size from the next frame on.
func (t *Tester) SetSize(size graphics.Size) {
	t.size = size
	t.ctx.SetViewport(graphics.RectFromOffsetSize(graphics.Offset{}, size))
}

// Size returns the viewport size.
func (t *Tester) Size() graphics.Size {
	return t.size
}

// Clock returns the fake clock that times frames.
func (t *Tester) Clock() *FakeClock {
	return t.clock
}

// Context returns the engine context under test.
func (t *Tester) Context() *engine.Context {
	return t.ctx
}

// Frame runs one frame with build and remembers it for Pump. Fatal engine
// errors are recovered and returned; the frame is then abandoned so the
// tester stays usable.
func (t *Tester) Frame(build BuildFunc) error {
	t.build = build
	return t.Pump()
}

// Pump runs another frame with the last build function.
func (t *Tester) Pump() error {
	if t.build == nil {
		return ErrNoBuild
	}
	var endErr error
	err := engineerrors.Catch(func() {
		t.ctx.BeginFrame()
		t.build(t.ctx)
		endErr = t.ctx.EndFrame()
	})
	if err != nil {
		t.ctx.AbandonFrame()
		return err
	}
	return endErr
}

// PumpFrames runs n frames with the last build function, stopping at the
// first error.
func (t *Tester) PumpFrames(n int) error {
	for range n {
		if err := t.Pump(); err != nil {
			return err
		}
	}
	return nil
}

// Pointer returns the pointer state the next frame will sample.
func (t *Tester) Pointer() graphics.Pointer {
	return t.pointer.Pointer()
}

// Last returns the draw list submitted by the last finished frame.
func (t *Tester) Last() graphics.Frame {
	return t.renderer.Last()
}

// Frames returns every submitted draw list in order.
func (t *Tester) Frames() []graphics.Frame {
	return t.renderer.Frames
}

// Find evaluates finder against the last frame's tree.
func (t *Tester) Find(finder Finder) FinderResult {
	return FinderResult{
		widgets: finder.Evaluate(t.ctx.Tree()),
		tree:    t.ctx.Tree(),
		finder:  finder,
	}
}

// Widget returns the record for id.
func (t *Tester) Widget(id core.WidgetID) *core.Widget {
	return t.ctx.Widget(id)
}
