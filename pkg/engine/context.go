// Package engine runs the immediate-mode frame loop. A Context owns the
// widget cache, the per-frame arena and the collaborators a frame needs.
//
// A frame looks like:
//
//	ctx.BeginFrame()
//	ctx.Parent("window", core.Sized(core.Pixels(400), core.ChildrenSum()), func() {
//		ctx.Declare("Save##toolbar", core.Attrs{}.WithFlags(core.FlagClickable|core.FlagDrawText))
//	})
//	err := ctx.EndFrame()
//
// Context is not safe for concurrent use.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-drift/immediate/pkg/arena"
	"github.com/go-drift/immediate/pkg/config"
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
	"github.com/go-drift/immediate/pkg/layout"
)

// Option configures a Context.
type Option func(*Context)

// WithMetrics sets the font metrics collaborator. The default is Go
// Regular through golang.org/x/image.
func WithMetrics(m graphics.FontMetrics) Option {
	return func(c *Context) { c.pipeline.Metrics = m }
}

// WithPointer sets the pointer source sampled at BeginFrame.
func WithPointer(p graphics.PointerSource) Option {
	return func(c *Context) { c.pointer = p }
}

// WithRenderer sets the renderer that receives each finished draw list.
func WithRenderer(r graphics.Renderer) Option {
	return func(c *Context) { c.renderer = r }
}

// WithLogger sets the logger for frame diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithTheme sets the style defaults.
func WithTheme(d core.Defaults) Option {
	return func(c *Context) { c.theme = d }
}

// WithClock sets the time source for frame timings.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// WithResourceLog replaces the log that records resource samples.
func WithResourceLog(l *ResourceLog) Option {
	return func(c *Context) { c.resources = l }
}

// WithInspector publishes every finished frame to in.
func WithInspector(in *Inspector) Option {
	return func(c *Context) { c.inspector = in }
}

// Context is the explicit frame state of one UI.
type Context struct {
	cfg *config.Resolved

	cacheArena *arena.Arena
	frameArena *arena.Arena
	cache      *core.Cache
	style      *core.Style
	tree       *core.Tree
	list       *graphics.DrawList
	pipeline   layout.Pipeline

	pointer   graphics.PointerSource
	renderer  graphics.Renderer
	logger    *slog.Logger
	theme     core.Defaults
	trace     *FrameTraceBuffer
	resources *ResourceLog
	inspector *Inspector
	now       func() time.Time

	frame   uint64
	inFrame bool
	began   time.Time
	peaks   map[string]int
}

// NewContext builds a context from cfg. A nil cfg uses config.Default().
func NewContext(cfg *config.Resolved, opts ...Option) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Context{
		cfg:        cfg,
		cacheArena: arena.New("cache"),
		frameArena: arena.New("frame"),
		pointer:    graphics.StaticPointer{},
		logger:     slog.Default(),
		theme:      core.BuiltinDefaults,
		trace:      NewFrameTraceBuffer(0, 0),
		resources:  NewResourceLog(0, 0),
		peaks:      make(map[string]int),
		now:        time.Now,
	}
	c.pipeline.Viewport = cfg.ViewportRect()
	for _, opt := range opts {
		opt(c)
	}
	if c.pipeline.Metrics == nil {
		m, err := graphics.NewDefaultFaceMetrics()
		if err != nil {
			return nil, errors.New("engine.NewContext", errors.KindConfig, fmt.Errorf("default font: %w", err))
		}
		c.pipeline.Metrics = m
	}

	c.cache = core.NewCache(c.cacheArena, cfg.Buckets, cfg.CacheCapacity)
	c.style = core.NewStyle(c.frameArena, c.theme, cfg.StyleDepth)
	c.tree = core.NewTree(c.cache, c.style)
	c.list = graphics.NewDrawList(c.frameArena, cfg.Capacity())
	return c, nil
}

// BeginFrame starts a frame: the frame arena and style stacks are reset,
// the frame index advances and the pointer is sampled.
func (c *Context) BeginFrame() {
	if c.inFrame {
		errors.Fatalf("engine.BeginFrame", errors.KindStructure, "",
			"frame %d still open: %w", c.frame, errors.ErrUnbalanced)
	}
	c.began = c.now()
	c.frameArena.Reset()
	c.style.Reset()
	c.frame++
	c.inFrame = true
	c.tree.Begin(c.frame, c.pointer.Pointer())
}

// EndFrame lays out and paints the declared tree, evicts widgets that
// were not declared recently and submits the draw list. The draw list
// stays readable until the next BeginFrame.
func (c *Context) EndFrame() error {
	const op = "engine.EndFrame"
	if !c.inFrame {
		errors.Fatalf(op, errors.KindStructure, "", "no frame open: %w", errors.ErrUnbalanced)
	}
	c.tree.End()
	c.inFrame = false

	var sample FrameSample
	sample.Frame = c.frame
	sample.Timestamp = c.began.UnixMilli()
	phase := c.now()
	lap := func() float64 {
		now := c.now()
		d := durationToMillis(now.Sub(phase))
		phase = now
		return d
	}
	sample.Phases.DeclareMs = durationToMillis(phase.Sub(c.began))

	if err := c.pipeline.Layout(c.tree); err != nil {
		return err
	}
	sample.Phases.LayoutMs = lap()

	c.pipeline.Paint(c.tree, c.list)
	sample.Phases.PaintMs = lap()

	evicted := c.cache.Sweep(c.frame, c.cfg.TTL)
	sample.Phases.SweepMs = lap()

	if c.renderer != nil {
		if err := c.renderer.Submit(c.list); err != nil {
			e := errors.New(op, errors.KindRender, fmt.Errorf("submit frame %d: %w", c.frame, err))
			errors.Report(e)
			return e
		}
	}
	sample.Phases.SubmitMs = lap()

	sample.Counts = FrameCounts{
		Widgets:   c.tree.Len(),
		Boxes:     len(c.list.Boxes()),
		GlyphRuns: len(c.list.Runs()),
		Glyphs:    c.list.GlyphMark(),
		Evicted:   evicted,
		Cached:    c.cache.Len(),
	}
	elapsed := c.now().Sub(c.began)
	sample.FrameMs = durationToMillis(elapsed)
	c.trace.Add(sample, elapsed)
	c.sampleResources()

	if evicted > 0 {
		c.logger.Debug("evicted widgets", "frame", c.frame, "count", evicted, "cached", sample.Counts.Cached)
	}
	c.logPeaks()
	if c.inspector != nil {
		c.inspector.publish(c, sample)
	}
	return nil
}

// AbandonFrame discards the open frame after a fatal error was recovered
// with errors.Catch, so that the next BeginFrame can proceed. It is a no-op
// when no frame is open.
func (c *Context) AbandonFrame() {
	c.tree.Abandon()
	c.style.Reset()
	c.inFrame = false
}

// logPeaks logs arena slabs whose high-water mark grew this frame.
func (c *Context) logPeaks() {
	for _, a := range []*arena.Arena{c.cacheArena, c.frameArena} {
		for _, s := range a.Stats() {
			if s.Peak <= c.peaks[s.Name] {
				continue
			}
			c.peaks[s.Name] = s.Peak
			c.logger.Debug("arena high-water mark", "slab", s.Name, "peak", s.Peak, "cap", s.Cap)
		}
	}
}

// Declare declares a widget under the open parent, or as the root.
func (c *Context) Declare(name string, a core.Attrs) core.WidgetID {
	return c.tree.Declare(name, a)
}

// DeclareScoped declares name scoped to the open parent.
func (c *Context) DeclareScoped(name string, a core.Attrs) core.WidgetID {
	return c.tree.DeclareScoped(name, a)
}

// LookupIn returns the widget declared with DeclareScoped under name
// while parent was open.
func (c *Context) LookupIn(parent core.WidgetID, name string) (*core.Widget, bool) {
	id, ok := c.tree.LookupIn(parent, name)
	if !ok {
		return nil, false
	}
	return c.cache.Get(id), true
}

// OpenParent makes id the parent of subsequent declarations.
func (c *Context) OpenParent(id core.WidgetID) { c.tree.OpenParent(id) }

// CloseParent closes the innermost open parent.
func (c *Context) CloseParent() core.WidgetID { return c.tree.CloseParent() }

// Parent declares name, runs body with it open as the parent and closes
// it again.
func (c *Context) Parent(name string, a core.Attrs, body func()) core.WidgetID {
	id := c.tree.Declare(name, a)
	c.tree.OpenParent(id)
	body()
	c.tree.CloseParent()
	return id
}

// Style returns the style stacks.
func (c *Context) Style() *core.Style { return c.style }

// Tree returns the tree assembler.
func (c *Context) Tree() *core.Tree { return c.tree }

// Widget returns the record for id.
func (c *Context) Widget(id core.WidgetID) *core.Widget { return c.cache.Get(id) }

// Lookup returns the widget declared under name in the current or last
// finished frame.
func (c *Context) Lookup(name string) (*core.Widget, bool) {
	id, ok := c.tree.Lookup(name)
	if !ok {
		return nil, false
	}
	return c.cache.Get(id), true
}

// Clicked reports whether the widget was pressed this frame. It is false
// for NoWidget.
func (c *Context) Clicked(id core.WidgetID) bool {
	return id.Valid() && c.cache.Get(id).Active
}

// Frame returns the index of the current or last frame. Frames start at 1.
func (c *Context) Frame() uint64 { return c.frame }

// DrawList returns the last painted draw list.
func (c *Context) DrawList() *graphics.DrawList { return c.list }

// SetViewport changes the layout viewport from the next EndFrame on.
func (c *Context) SetViewport(r graphics.Rect) { c.pipeline.Viewport = r }

// SetRenderer replaces the renderer from the next EndFrame on. A nil
// renderer drops finished draw lists.
func (c *Context) SetRenderer(r graphics.Renderer) { c.renderer = r }

// SetTheme replaces the style defaults from the next declaration on.
// Values pushed on the stacks are kept.
func (c *Context) SetTheme(d core.Defaults) {
	c.theme = d
	c.style.SetDefaults(d)
}

// Trace returns the frame trace buffer.
func (c *Context) Trace() *FrameTraceBuffer { return c.trace }

// Resources returns the resource log.
func (c *Context) Resources() *ResourceLog { return c.resources }

// Stats reports cache and arena usage.
type Stats struct {
	Frame  uint64
	Cache  core.CacheStats
	Arenas []arena.Stats
}

// Stats returns the current usage.
func (c *Context) Stats() Stats {
	return Stats{
		Frame:  c.frame,
		Cache:  c.cache.Stats(),
		Arenas: append(c.cacheArena.Stats(), c.frameArena.Stats()...),
	}
}
