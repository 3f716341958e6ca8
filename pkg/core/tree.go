package core

import (
	"iter"

	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

// Tree assembles the current frame's widget tree from declarations. It
// holds the open-parent stack and the frame root; both are reset by Begin.
type Tree struct {
	cache   *Cache
	style   *Style
	parents []WidgetID
	root    WidgetID
	frame   uint64
	pointer graphics.Pointer
	open    bool
	count   int
}

// NewTree returns a tree that resolves declarations against cache and
// falls back to style for unset attributes.
func NewTree(cache *Cache, style *Style) *Tree {
	return &Tree{
		cache:   cache,
		style:   style,
		parents: make([]WidgetID, 0, 32),
	}
}

// Begin starts frame, which must be greater than every earlier frame. The
// pointer is used for hit testing against last frame's rectangles.
func (t *Tree) Begin(frame uint64, pointer graphics.Pointer) {
	if t.open {
		errors.Fatalf("core.Tree.Begin", errors.KindStructure, "",
			"frame %d begun while frame %d is open: %w", frame, t.frame, errors.ErrUnbalanced)
	}
	t.frame = frame
	t.pointer = pointer
	t.parents = t.parents[:0]
	t.root = NoWidget
	t.open = true
	t.count = 0
}

// End closes the frame. Open parents or pushed style values are fatal.
func (t *Tree) End() {
	if len(t.parents) > 0 {
		top := t.cache.Get(t.parents[len(t.parents)-1])
		errors.Fatalf("core.Tree.End", errors.KindStructure, top.Name,
			"%d parents still open: %w", len(t.parents), errors.ErrUnbalanced)
	}
	if names := t.style.Unbalanced(); len(names) > 0 {
		errors.Fatalf("core.Tree.End", errors.KindStructure, "",
			"style stacks %v still pushed: %w", names, errors.ErrUnbalanced)
	}
	t.open = false
}

// Abandon closes a frame that was cut short by a fatal error without
// checking balance. The widgets declared so far stay cached.
func (t *Tree) Abandon() {
	t.parents = t.parents[:0]
	t.open = false
}

// Frame returns the current frame index.
func (t *Tree) Frame() uint64 { return t.frame }

// Root returns the frame root, or NoWidget before the first declaration.
func (t *Tree) Root() WidgetID { return t.root }

// Len returns the number of widgets declared this frame.
func (t *Tree) Len() int { return t.count }

// Cache returns the widget cache.
func (t *Tree) Cache() *Cache { return t.cache }

// Style returns the style stacks.
func (t *Tree) Style() *Style { return t.style }

// Widget returns the record for id.
func (t *Tree) Widget(id WidgetID) *Widget { return t.cache.Get(id) }

// Lookup returns the widget declared this frame under name.
func (t *Tree) Lookup(name string) (WidgetID, bool) {
	id, ok := t.cache.Lookup(KeyFromName(name))
	if !ok || !t.cache.Get(id).DeclaredIn(t.frame) {
		return NoWidget, false
	}
	return id, true
}

// LookupIn returns the widget declared this frame with DeclareScoped
// under name while parent was open.
func (t *Tree) LookupIn(parent WidgetID, name string) (WidgetID, bool) {
	id, ok := t.cache.Lookup(KeyFromNameSeeded(t.cache.Get(parent).Key, name))
	if !ok || !t.cache.Get(id).DeclaredIn(t.frame) {
		return NoWidget, false
	}
	return id, true
}

// Declare resolves name against the cache, refreshes the widget's
// per-frame attributes from a and the style stacks, and links it under
// the open parent, or makes it the root. Names are global: the same name
// twice in one frame is fatal wherever it is declared.
func (t *Tree) Declare(name string, a Attrs) WidgetID {
	return t.declare("core.Tree.Declare", name, KeyFromName(name), a)
}

// DeclareScoped is Declare with name scoped to the open parent, so equal
// names under different parents are different widgets. Without an open
// parent it behaves like Declare. Find scoped widgets with LookupIn.
func (t *Tree) DeclareScoped(name string, a Attrs) WidgetID {
	if len(t.parents) == 0 {
		return t.declare("core.Tree.DeclareScoped", name, KeyFromName(name), a)
	}
	parent := t.cache.Get(t.parents[len(t.parents)-1])
	return t.declare("core.Tree.DeclareScoped", name, KeyFromNameSeeded(parent.Key, name), a)
}

func (t *Tree) declare(op, name string, key Key, a Attrs) WidgetID {
	if !t.open {
		errors.Fatalf(op, errors.KindStructure, name, "declaration outside a frame: %w", errors.ErrUnbalanced)
	}

	id, hit := t.cache.Resolve(key)
	w := t.cache.Get(id)
	if hit && w.DeclaredIn(t.frame) {
		errors.Fatalf(op, errors.KindStructure, name, "%w", errors.ErrDuplicateKey)
	}
	if !hit {
		w.FirstFrame = t.frame
	}
	w.Name = name
	w.LastFrame = t.frame
	w.resetTree()
	t.apply(w, name, a)

	w.Hot, w.Active = ResolveInteraction(w, t.pointer)
	scroll(w, t.pointer)

	if len(t.parents) == 0 {
		if t.root.Valid() {
			errors.Fatalf(op, errors.KindStructure, name,
				"root %q already declared: %w", t.cache.Get(t.root).Name, errors.ErrDuplicateRoot)
		}
		t.root = id
	} else {
		t.link(t.parents[len(t.parents)-1], id)
	}
	t.count++
	return id
}

func (t *Tree) apply(w *Widget, name string, a Attrs) {
	s := t.style
	w.Flags = a.Flags.Or(s.Flags.Get())
	w.Size[graphics.AxisX] = a.SizeX.Or(s.SizeX.Get())
	w.Size[graphics.AxisY] = a.SizeY.Or(s.SizeY.Get())
	w.Background = a.Background.Or(s.Background.Get())
	w.TextColor = a.TextColor.Or(s.TextColor.Get())
	w.BorderColor = a.BorderColor.Or(s.BorderColor.Get())
	w.Softness = a.Softness.Or(s.Softness.Get())
	w.BorderThickness = a.BorderThickness.Or(s.BorderThickness.Get())
	w.CornerRadius = a.CornerRadius.Or(s.CornerRadius.Get())
	w.Font = a.Font.Or(s.Font.Get())
	w.FontSize = a.FontSize.Or(s.FontSize.Get())
	w.Margin = a.Margin.Or(s.Margin.Get())

	switch text, ok := a.Text.Get(); {
	case ok:
		w.Text = text
	case s.Text.Depth() > 0:
		w.Text = s.Text.Get()
	default:
		w.Text = DisplayText(name)
	}
}

func (t *Tree) link(parentID, id WidgetID) {
	p := t.cache.Get(parentID)
	w := t.cache.Get(id)
	for axis := graphics.AxisX; axis < graphics.AxisCount; axis++ {
		if w.Size[axis].Kind == SizePercentOfParent && p.Size[axis].Kind.ContentDependent() {
			errors.Fatalf("core.Tree.Declare", errors.KindLayout, w.Name,
				"%s-axis percent size under %s parent %q: %w",
				axis, p.Size[axis].Kind, p.Name, errors.ErrUnsupportedLayout)
		}
	}

	w.Parent = parentID
	w.Prev = p.Last
	if p.Last.Valid() {
		t.cache.Get(p.Last).Next = id
	} else {
		p.First = id
	}
	p.Last = id
	p.ChildCount++
}

// OpenParent makes id the parent of subsequent declarations until the
// matching CloseParent.
func (t *Tree) OpenParent(id WidgetID) {
	if !id.Valid() || !t.cache.Get(id).DeclaredIn(t.frame) {
		errors.Fatalf("core.Tree.OpenParent", errors.KindStructure, "",
			"widget %d not declared this frame: %w", id, errors.ErrUnbalanced)
	}
	t.parents = append(t.parents, id)
}

// CloseParent closes the innermost open parent and returns it. Closing
// with no parent open is fatal.
func (t *Tree) CloseParent() WidgetID {
	if len(t.parents) == 0 {
		errors.Fatalf("core.Tree.CloseParent", errors.KindStructure, "",
			"no open parent: %w", errors.ErrUnbalanced)
	}
	id := t.parents[len(t.parents)-1]
	t.parents = t.parents[:len(t.parents)-1]
	return id
}

// Depth returns the number of open parents.
func (t *Tree) Depth() int { return len(t.parents) }

// Children iterates the children of id in declaration order.
func (t *Tree) Children(id WidgetID) iter.Seq[WidgetID] {
	return func(yield func(WidgetID) bool) {
		for c := t.cache.Get(id).First; c.Valid(); c = t.cache.Get(c).Next {
			if !yield(c) {
				return
			}
		}
	}
}

// PreOrder visits the frame tree parents-first.
func (t *Tree) PreOrder(visit func(WidgetID)) {
	if t.root.Valid() {
		t.preOrder(t.root, visit)
	}
}

func (t *Tree) preOrder(id WidgetID, visit func(WidgetID)) {
	visit(id)
	for c := range t.Children(id) {
		t.preOrder(c, visit)
	}
}

// PostOrder visits the frame tree children-first.
func (t *Tree) PostOrder(visit func(WidgetID)) {
	if t.root.Valid() {
		t.postOrder(t.root, visit)
	}
}

func (t *Tree) postOrder(id WidgetID, visit func(WidgetID)) {
	for c := range t.Children(id) {
		t.postOrder(c, visit)
	}
	visit(id)
}
