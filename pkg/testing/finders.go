package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/graphics"
)

// Finder locates widgets in the last frame's tree.
type Finder interface {
	// Evaluate returns all matching widgets (depth-first pre-order).
	Evaluate(tree *core.Tree) []core.WidgetID
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	widgets []core.WidgetID
	tree    *core.Tree
	finder  Finder
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() core.WidgetID {
	if len(r.widgets) == 0 {
		panic(fmt.Sprintf("Finder found no widgets: %s", r.description()))
	}
	return r.widgets[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) core.WidgetID {
	if index < 0 || index >= len(r.widgets) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.widgets), r.description()))
	}
	return r.widgets[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []core.WidgetID {
	return r.widgets
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.widgets)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.widgets) > 0
}

// Widget returns the record of the first match. Panics if no matches.
func (r FinderResult) Widget() *core.Widget {
	return r.tree.Widget(r.First())
}

// Rect returns the laid out rectangle of the first match.
func (r FinderResult) Rect() graphics.Rect {
	return r.Widget().Rect
}

// --- Concrete finders ---

// nameFinder matches widgets declared under an exact name.
type nameFinder struct {
	name string
}

func (f *nameFinder) Evaluate(tree *core.Tree) []core.WidgetID {
	id, ok := tree.Lookup(f.name)
	if !ok {
		return nil
	}
	return []core.WidgetID{id}
}

func (f *nameFinder) Description() string {
	return fmt.Sprintf("ByName(%q)", f.name)
}

// ByName returns a finder that matches the widget declared under name,
// including any "##" or "###" suffix.
func ByName(name string) Finder {
	return &nameFinder{name: name}
}

// ByKey returns a finder that matches the widget whose key equals key.
func ByKey(key core.Key) Finder {
	return &predicateFinder{
		fn:   func(w *core.Widget) bool { return w.Key == key },
		desc: fmt.Sprintf("ByKey(%016x)", uint64(key)),
	}
}

// ByText returns a finder that matches widgets whose resolved text equals
// text exactly.
func ByText(text string) Finder {
	return &predicateFinder{
		fn:   func(w *core.Widget) bool { return w.Text == text },
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining returns a finder that matches widgets whose resolved
// text contains substring.
func ByTextContaining(substring string) Finder {
	return &predicateFinder{
		fn:   func(w *core.Widget) bool { return strings.Contains(w.Text, substring) },
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// ByFlags returns a finder that matches widgets carrying every bit of
// flags.
func ByFlags(flags core.Flags) Finder {
	return &predicateFinder{
		fn:   func(w *core.Widget) bool { return w.Flags.Has(flags) },
		desc: fmt.Sprintf("ByFlags(%#x)", uint16(flags)),
	}
}

// predicateFinder matches widgets satisfying a predicate.
type predicateFinder struct {
	fn   func(*core.Widget) bool
	desc string
}

func (f *predicateFinder) Evaluate(tree *core.Tree) []core.WidgetID {
	return collectMatches(tree, tree.Root(), f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches widgets satisfying fn.
func ByPredicate(fn func(*core.Widget) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds widgets matching 'matching' that are descendants
// of widgets matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(tree *core.Tree) []core.WidgetID {
	ancestors := f.of.Evaluate(tree)
	if len(ancestors) == 0 {
		return nil
	}
	var results []core.WidgetID
	seen := make(map[core.WidgetID]bool)
	for _, match := range f.matching.Evaluate(tree) {
		for _, ancestor := range ancestors {
			if !seen[match] && isAncestorOf(tree, ancestor, match) {
				seen[match] = true
				results = append(results, match)
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches widgets satisfying 'matching'
// that are descendants of widgets matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds widgets matching 'matching' that are ancestors
// of widgets matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(tree *core.Tree) []core.WidgetID {
	descendants := f.of.Evaluate(tree)
	if len(descendants) == 0 {
		return nil
	}
	var results []core.WidgetID
	seen := make(map[core.WidgetID]bool)
	for _, candidate := range f.matching.Evaluate(tree) {
		for _, desc := range descendants {
			if !seen[candidate] && isAncestorOf(tree, candidate, desc) {
				seen[candidate] = true
				results = append(results, candidate)
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches widgets satisfying 'matching'
// that are ancestors of widgets matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// isAncestorOf walks the parent links up from descendant.
func isAncestorOf(tree *core.Tree, ancestor, descendant core.WidgetID) bool {
	for p := tree.Widget(descendant).Parent; p.Valid(); p = tree.Widget(p).Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// collectMatches performs a depth-first pre-order traversal from root,
// collecting widgets that satisfy the predicate.
func collectMatches(tree *core.Tree, root core.WidgetID, predicate func(*core.Widget) bool) []core.WidgetID {
	if !root.Valid() {
		return nil
	}
	var results []core.WidgetID
	walkTree(tree, root, func(id core.WidgetID) {
		if predicate(tree.Widget(id)) {
			results = append(results, id)
		}
	})
	return results
}

func walkTree(tree *core.Tree, id core.WidgetID, visit func(core.WidgetID)) {
	visit(id)
	for c := range tree.Children(id) {
		walkTree(tree, c, visit)
	}
}
