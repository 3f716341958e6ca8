package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/immediate/pkg/arena"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

type fixture struct {
	cacheArena *arena.Arena
	frameArena *arena.Arena
	cache      *Cache
	style      *Style
	tree       *Tree
	frame      uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	old := errors.DefaultHandler
	errors.SetHandler(errors.DiscardHandler{})
	t.Cleanup(func() { errors.SetHandler(old) })

	f := &fixture{
		cacheArena: arena.New("cache"),
		frameArena: arena.New("frame"),
	}
	f.cache = NewCache(f.cacheArena, 64, 4096)
	f.style = NewStyle(f.frameArena, BuiltinDefaults, 32)
	f.tree = NewTree(f.cache, f.style)
	return f
}

func (f *fixture) begin(p graphics.Pointer) {
	f.frame++
	f.frameArena.Reset()
	f.style.Reset()
	f.tree.Begin(f.frame, p)
}

func TestKeyFromNameDeterministic(t *testing.T) {
	assert.Equal(t, KeyFromName("toolbar/save"), KeyFromName("toolbar/save"))
	assert.NotEqual(t, KeyFromName("save"), KeyFromName("Save"))
	assert.NotEqual(t, NoKey, KeyFromName(""))
}

func TestKeyFromNameNoCollisions(t *testing.T) {
	const n = 20000
	seen := make(map[Key]string, n)
	for i := range n {
		name := fmt.Sprintf("panel-%d/row-%d/button##%d", i%97, i, i*7)
		k := KeyFromName(name)
		if prev, dup := seen[k]; dup {
			t.Fatalf("collision between %q and %q", prev, name)
		}
		seen[k] = name
	}
}

func TestKeyFromNameSeededScopesIdentity(t *testing.T) {
	a := KeyFromNameSeeded(KeyFromName("dialog-a"), "ok")
	b := KeyFromNameSeeded(KeyFromName("dialog-b"), "ok")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, KeyFromNameSeeded(KeyFromName("dialog-a"), "ok"))
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "Save", DisplayText("Save##toolbar"))
	assert.Equal(t, "Plain", DisplayText("Plain"))
	assert.Equal(t, "", DisplayText("##hidden"))
}

func TestCacheResolveHitAndMiss(t *testing.T) {
	f := newFixture(t)
	k := KeyFromName("a")

	id, hit := f.cache.Resolve(k)
	require.False(t, hit)
	f.cache.Get(id).Text = "persisted"

	again, hit := f.cache.Resolve(k)
	require.True(t, hit)
	assert.Equal(t, id, again)
	assert.Equal(t, "persisted", f.cache.Get(again).Text)
	assert.Equal(t, 1, f.cache.Len())
}

func TestCacheChainsCollidingBuckets(t *testing.T) {
	f := newFixture(t)
	cache := NewCache(f.cacheArena, 1, 128)

	ids := make([]WidgetID, 10)
	for i := range ids {
		ids[i], _ = cache.Resolve(Key(i + 1))
	}
	for i, id := range ids {
		got, ok := cache.Lookup(Key(i + 1))
		require.True(t, ok)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, 10, cache.Stats().LongestChain)

	cache.Evict(ids[4])
	_, ok := cache.Lookup(Key(5))
	assert.False(t, ok)
	got, ok := cache.Lookup(Key(10))
	require.True(t, ok)
	assert.Equal(t, ids[9], got)
}

func TestCacheReusesFreedRecordsZeroed(t *testing.T) {
	f := newFixture(t)
	id, _ := f.cache.Resolve(Key(7))
	f.cache.Get(id).Text = "stale"
	f.cache.Evict(id)

	reused, hit := f.cache.Resolve(Key(8))

	assert.False(t, hit)
	assert.Equal(t, id, reused)
	assert.Equal(t, "", f.cache.Get(reused).Text)
	assert.Equal(t, Key(8), f.cache.Get(reused).Key)
	assert.Equal(t, CacheStats{Live: 1, Free: 0, Slots: 1, Buckets: 64, LongestChain: 1}, f.cache.Stats())
}

func TestCacheCapacityIsFatal(t *testing.T) {
	f := newFixture(t)
	cache := NewCache(f.cacheArena, 8, 2)
	cache.Resolve(Key(1))
	cache.Resolve(Key(2))

	err := errors.Catch(func() { cache.Resolve(Key(3)) })

	assert.True(t, errors.Is(err, errors.ErrCapacity))
}

func TestSweepEvictsUndeclaredWidgets(t *testing.T) {
	f := newFixture(t)

	f.begin(graphics.Pointer{})
	root := f.tree.Declare("root", Attrs{})
	f.tree.OpenParent(root)
	f.tree.Declare("kept", Attrs{})
	f.tree.Declare("dropped", Attrs{})
	f.tree.CloseParent()
	f.tree.End()
	assert.Equal(t, 0, f.cache.Sweep(f.frame, 1))

	f.begin(graphics.Pointer{})
	root = f.tree.Declare("root", Attrs{})
	f.tree.OpenParent(root)
	f.tree.Declare("kept", Attrs{})
	f.tree.CloseParent()
	f.tree.End()

	assert.Equal(t, 1, f.cache.Sweep(f.frame, 1))
	_, ok := f.cache.Lookup(KeyFromName("dropped"))
	assert.False(t, ok)
	_, ok = f.cache.Lookup(KeyFromName("kept"))
	assert.True(t, ok)
	assert.Equal(t, 0, f.cache.Sweep(f.frame, 0), "ttl 0 disables eviction")
}

func TestStackPushGetPop(t *testing.T) {
	f := newFixture(t)
	s := f.style.Background

	assert.Equal(t, BuiltinDefaults.Background, s.Get())
	s.Push(graphics.ColorRed)
	assert.Equal(t, graphics.ColorRed, s.Get())
	s.Push(graphics.ColorBlue)
	assert.Equal(t, graphics.ColorBlue, s.Get())
	s.Pop()
	assert.Equal(t, graphics.ColorRed, s.Get())
	s.Pop()
	assert.Equal(t, BuiltinDefaults.Background, s.Get())
	assert.Equal(t, 0, s.Depth())
}

func TestStacksAreIndependent(t *testing.T) {
	f := newFixture(t)
	pop := f.style.FontSize.PushScope(24)
	assert.Equal(t, float32(24), f.style.FontSize.Get())
	assert.Equal(t, BuiltinDefaults.CornerRadius, f.style.CornerRadius.Get())
	assert.Equal(t, []string{"font-size"}, f.style.Unbalanced())
	pop()
	assert.Empty(t, f.style.Unbalanced())
}

func TestStackPopEmptyIsFatal(t *testing.T) {
	f := newFixture(t)
	err := errors.Catch(f.style.Margin.Pop)
	assert.True(t, errors.Is(err, errors.ErrUnbalanced))
	assert.Equal(t, errors.KindStructure, errors.KindOf(err))
}

func TestStackDepthBoundedByFrameArena(t *testing.T) {
	f := newFixture(t)
	err := errors.Catch(func() {
		for range 33 {
			f.style.Softness.Push(1)
		}
	})
	assert.True(t, errors.Is(err, errors.ErrCapacity))
}

func TestDeclareIdentityStableAcrossFrames(t *testing.T) {
	f := newFixture(t)

	f.begin(graphics.Pointer{})
	root := f.tree.Declare("root", Attrs{})
	f.tree.OpenParent(root)
	left := f.tree.Declare("left", Attrs{})
	f.tree.OpenParent(left)
	item := f.tree.Declare("item", Attrs{})
	f.tree.CloseParent()
	right := f.tree.Declare("right", Attrs{})
	f.tree.CloseParent()
	f.tree.End()
	f.tree.Widget(item).TextExtent = graphics.Size{Width: 12, Height: 4}
	assert.Equal(t, left, f.tree.Widget(item).Parent)

	f.begin(graphics.Pointer{})
	root2 := f.tree.Declare("root", Attrs{})
	f.tree.OpenParent(root2)
	f.tree.Declare("left", Attrs{})
	right2 := f.tree.Declare("right", Attrs{})
	f.tree.OpenParent(right2)
	item2 := f.tree.Declare("item", Attrs{})
	f.tree.CloseParent()
	f.tree.CloseParent()
	f.tree.End()

	assert.Equal(t, root, root2)
	assert.Equal(t, right, right2)
	assert.Equal(t, item, item2)
	w := f.tree.Widget(item2)
	assert.Equal(t, right2, w.Parent)
	assert.Equal(t, graphics.Size{Width: 12, Height: 4}, w.TextExtent)
	assert.Equal(t, uint64(1), w.FirstFrame)
	assert.Equal(t, 0, f.tree.Widget(left).ChildCount)
}

func TestDeclareLinksSiblingsInOrder(t *testing.T) {
	f := newFixture(t)
	f.begin(graphics.Pointer{})
	root := f.tree.Declare("root", Attrs{})
	f.tree.OpenParent(root)
	a := f.tree.Declare("a", Attrs{})
	b := f.tree.Declare("b", Attrs{})
	c := f.tree.Declare("c", Attrs{})
	f.tree.CloseParent()
	f.tree.End()

	var got []WidgetID
	for id := range f.tree.Children(root) {
		got = append(got, id)
	}
	assert.Equal(t, []WidgetID{a, b, c}, got)
	assert.Equal(t, a, f.tree.Widget(b).Prev)
	assert.Equal(t, c, f.tree.Widget(root).Last)
	assert.Equal(t, 3, f.tree.Widget(root).ChildCount)
	assert.Equal(t, 4, f.tree.Len())
}

func TestDeclareFallsBackToStyle(t *testing.T) {
	f := newFixture(t)
	f.begin(graphics.Pointer{})
	f.style.Background.Push(graphics.ColorGreen)
	f.style.Text.Push("from-style")
	root := f.tree.Declare("root", Attrs{})
	f.tree.OpenParent(root)
	explicit := f.tree.Declare("explicit", Attrs{}.WithBackground(graphics.ColorRed).WithText("mine"))
	f.tree.CloseParent()
	f.style.Text.Pop()
	f.style.Background.Pop()
	f.tree.OpenParent(root)
	named := f.tree.Declare("Label##1", Attrs{})
	f.tree.CloseParent()
	f.tree.End()

	assert.Equal(t, graphics.ColorGreen, f.tree.Widget(root).Background)
	assert.Equal(t, "from-style", f.tree.Widget(root).Text)
	assert.Equal(t, graphics.ColorRed, f.tree.Widget(explicit).Background)
	assert.Equal(t, "mine", f.tree.Widget(explicit).Text)
	assert.Equal(t, "Label", f.tree.Widget(named).Text)
	assert.Equal(t, BuiltinDefaults.Background, f.tree.Widget(named).Background)
}

func TestStructuralMisuseIsFatal(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *fixture)
		want error
	}{
		{
			name: "second root",
			run: func(f *fixture) {
				f.tree.Declare("a", Attrs{})
				f.tree.Declare("b", Attrs{})
			},
			want: errors.ErrDuplicateRoot,
		},
		{
			name: "duplicate name",
			run: func(f *fixture) {
				root := f.tree.Declare("a", Attrs{})
				f.tree.OpenParent(root)
				f.tree.Declare("a", Attrs{})
			},
			want: errors.ErrDuplicateKey,
		},
		{
			name: "close without open",
			run:  func(f *fixture) { f.tree.CloseParent() },
			want: errors.ErrUnbalanced,
		},
		{
			name: "end with open parent",
			run: func(f *fixture) {
				f.tree.OpenParent(f.tree.Declare("a", Attrs{}))
				f.tree.End()
			},
			want: errors.ErrUnbalanced,
		},
		{
			name: "end with pushed style",
			run: func(f *fixture) {
				f.style.CornerRadius.Push(4)
				f.tree.End()
			},
			want: errors.ErrUnbalanced,
		},
		{
			name: "percent under children-sum",
			run: func(f *fixture) {
				root := f.tree.Declare("row", Sized(ChildrenSum(), Pixels(10)))
				f.tree.OpenParent(root)
				f.tree.Declare("half", Sized(Percent(0.5), Pixels(10)))
			},
			want: errors.ErrUnsupportedLayout,
		},
		{
			name: "no widget",
			run:  func(f *fixture) { f.tree.Widget(NoWidget) },
			want: errors.ErrInvalidWidget,
		},
		{
			name: "id past the slab",
			run:  func(f *fixture) { f.cache.Get(WidgetID(1000)) },
			want: errors.ErrInvalidWidget,
		},
		{
			name: "scoped duplicate under one parent",
			run: func(f *fixture) {
				f.tree.OpenParent(f.tree.Declare("list", Attrs{}))
				f.tree.DeclareScoped("item", Attrs{})
				f.tree.DeclareScoped("item", Attrs{})
			},
			want: errors.ErrDuplicateKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.begin(graphics.Pointer{})
			err := errors.Catch(func() { tt.run(f) })
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDeclareScopedSeparatesParents(t *testing.T) {
	f := newFixture(t)
	declare := func() (a, b WidgetID) {
		f.tree.OpenParent(f.tree.Declare("root", Attrs{}))
		f.tree.OpenParent(f.tree.Declare("left", Attrs{}))
		a = f.tree.DeclareScoped("Save##0", Attrs{})
		f.tree.CloseParent()
		f.tree.OpenParent(f.tree.Declare("right", Attrs{}))
		b = f.tree.DeclareScoped("Save##0", Attrs{})
		f.tree.CloseParent()
		f.tree.CloseParent()
		return a, b
	}

	f.begin(graphics.Pointer{})
	a, b := declare()
	f.tree.End()
	require.NotEqual(t, a, b)
	assert.Equal(t, "Save", f.tree.Widget(a).Text)

	left, ok := f.tree.Lookup("left")
	require.True(t, ok)
	found, ok := f.tree.LookupIn(left, "Save##0")
	require.True(t, ok)
	assert.Equal(t, a, found)
	_, ok = f.tree.Lookup("Save##0")
	assert.False(t, ok, "scoped names are not global")

	f.begin(graphics.Pointer{})
	a2, b2 := declare()
	f.tree.End()
	assert.Equal(t, a, a2)
	assert.Equal(t, b, b2)
}

func TestDeclareScopedAtRootIsGlobal(t *testing.T) {
	f := newFixture(t)
	f.begin(graphics.Pointer{})
	id := f.tree.DeclareScoped("root", Attrs{})
	f.tree.End()

	found, ok := f.tree.Lookup("root")
	require.True(t, ok)
	assert.Equal(t, id, found)
}

func TestPercentUnderFixedParentAccepted(t *testing.T) {
	f := newFixture(t)
	f.begin(graphics.Pointer{})
	root := f.tree.Declare("panel", Sized(Pixels(200), ChildrenSum()))
	f.tree.OpenParent(root)
	f.tree.Declare("half", Sized(Percent(0.5), Pixels(10)))
	f.tree.CloseParent()
	f.tree.End()
}

func TestResolveInteraction(t *testing.T) {
	rect := graphics.RectFromLTWH(0, 0, 100, 40)
	inside := graphics.Offset{X: 50, Y: 20}
	tests := []struct {
		name       string
		flags      Flags
		clip       graphics.Rect
		clipped    bool
		pointer    graphics.Pointer
		hot, activ bool
	}{
		{"inside up", FlagClickable, graphics.Rect{}, false, graphics.Pointer{Position: inside}, true, false},
		{"inside down", FlagClickable, graphics.Rect{}, false, graphics.Pointer{Position: inside, Down: true}, true, true},
		{"outside down", FlagClickable, graphics.Rect{}, false, graphics.Pointer{Position: graphics.Offset{X: 150, Y: 20}, Down: true}, false, false},
		{"not clickable", FlagDrawBackground, graphics.Rect{}, false, graphics.Pointer{Position: inside, Down: true}, false, false},
		{"inside clip", FlagClickable, graphics.RectFromLTWH(0, 0, 100, 30), false, graphics.Pointer{Position: inside, Down: true}, true, true},
		{"cut by clip", FlagClickable, graphics.RectFromLTWH(0, 0, 100, 10), false, graphics.Pointer{Position: inside, Down: true}, false, false},
		{"clipped out", FlagClickable, graphics.Rect{}, true, graphics.Pointer{Position: inside, Down: true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Widget{Rect: rect, Flags: tt.flags, Clip: tt.clip, Clipped: tt.clipped}
			hot, active := ResolveInteraction(w, tt.pointer)
			assert.Equal(t, tt.hot, hot)
			assert.Equal(t, tt.activ, active)
		})
	}
}

func TestDeclareUsesPreviousFrameRect(t *testing.T) {
	f := newFixture(t)
	inside := graphics.Pointer{Position: graphics.Offset{X: 5, Y: 5}, Down: true}

	f.begin(inside)
	id := f.tree.Declare("button", Attrs{}.WithFlags(FlagClickable))
	f.tree.End()
	assert.False(t, f.tree.Widget(id).Hot, "no rectangle before the first layout")
	f.tree.Widget(id).Rect = graphics.RectFromLTWH(0, 0, 10, 10)

	f.begin(inside)
	f.tree.Declare("button", Attrs{}.WithFlags(FlagClickable))
	f.tree.End()
	assert.True(t, f.tree.Widget(id).Hot)
	assert.True(t, f.tree.Widget(id).Active)
}

func TestScrollClampsToContent(t *testing.T) {
	f := newFixture(t)
	f.begin(graphics.Pointer{})
	id := f.tree.Declare("list", Attrs{}.WithFlags(FlagScroll))
	f.tree.End()
	w := f.tree.Widget(id)
	w.Rect = graphics.RectFromLTWH(0, 0, 100, 100)
	w.Computed = graphics.Size{Width: 100, Height: 100}
	w.Content = graphics.Size{Width: 100, Height: 130}

	f.begin(graphics.Pointer{Position: graphics.Offset{X: 10, Y: 10}, Wheel: graphics.Offset{Y: 50}})
	f.tree.Declare("list", Attrs{}.WithFlags(FlagScroll))
	f.tree.End()

	assert.Equal(t, graphics.Offset{X: 0, Y: 30}, f.tree.Widget(id).ViewOffset)
}
