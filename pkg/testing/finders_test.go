package testing

import (
	"testing"

	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/graphics"
)

func pumpCounter(t *testing.T) *Tester {
	t.Helper()
	tester := NewTesterWithT(t)
	c := &counter{}
	if err := tester.Frame(c.build); err != nil {
		t.Fatal(err)
	}
	return tester
}

func TestByName(t *testing.T) {
	tester := pumpCounter(t)

	result := tester.Find(ByName("inc##counter"))
	if result.Count() != 1 {
		t.Fatalf("expected 1 match, got %d", result.Count())
	}
	if want := graphics.RectFromLTWH(0, 0, 12, 16); !result.Rect().Equal(want) {
		t.Errorf("expected rect %v, got %v", want, result.Rect())
	}
	if tester.Find(ByName("inc")).Exists() {
		t.Error("expected the suffix to be part of the name")
	}
}

func TestByText(t *testing.T) {
	tester := pumpCounter(t)

	if !tester.Find(ByText("+")).Exists() {
		t.Error("expected to find '+'")
	}
	if tester.Find(ByText("missing")).Exists() {
		t.Error("expected no match for 'missing'")
	}
	// Undecorated names display as themselves.
	if tester.Find(ByText("counter")).Widget().Name != "counter" {
		t.Error("expected the root to match its display text")
	}
}

func TestByTextContaining(t *testing.T) {
	tester := pumpCounter(t)

	if got := tester.Find(ByTextContaining("count")).Count(); got != 1 {
		t.Errorf("expected 1 match, got %d", got)
	}
}

func TestByFlagsAndKey(t *testing.T) {
	tester := pumpCounter(t)

	if got := tester.Find(ByFlags(core.FlagDrawText)).Count(); got != 2 {
		t.Errorf("expected 2 text widgets, got %d", got)
	}
	if got := tester.Find(ByFlags(core.FlagClickable | core.FlagDrawText)).Count(); got != 1 {
		t.Errorf("expected 1 clickable text widget, got %d", got)
	}

	result := tester.Find(ByKey(core.KeyFromName("value##counter")))
	if !result.Exists() || result.Widget().Text != "0" {
		t.Error("expected to find the value label by key")
	}
}

func TestDescendantAndAncestor(t *testing.T) {
	tester := pumpCounter(t)

	d := tester.Find(Descendant(ByName("counter"), ByFlags(core.FlagDrawText)))
	if d.Count() != 2 {
		t.Errorf("expected 2 descendants, got %d", d.Count())
	}
	if tester.Find(Descendant(ByName("value##counter"), ByFlags(0))).Exists() {
		t.Error("expected a leaf to have no descendants")
	}

	a := tester.Find(Ancestor(ByText("+"), ByPredicate(func(*core.Widget) bool { return true })))
	if a.Count() != 1 || a.Widget().Name != "counter" {
		t.Errorf("expected the counter as the only ancestor, got %d matches", a.Count())
	}
}

func TestFinderResult_Order(t *testing.T) {
	tester := pumpCounter(t)

	all := tester.Find(ByFlags(0))
	if all.Count() != 3 {
		t.Fatalf("expected 3 widgets, got %d", all.Count())
	}
	names := []string{"counter", "inc##counter", "value##counter"}
	for i, want := range names {
		if got := tester.Widget(all.At(i)).Name; got != want {
			t.Errorf("match %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestFinderResult_PanicsWhenEmpty(t *testing.T) {
	tester := pumpCounter(t)
	result := tester.Find(ByText("missing"))

	defer func() {
		if recover() == nil {
			t.Error("expected First to panic with no matches")
		}
	}()
	result.First()
}

func TestFinderResult_AtOutOfRange(t *testing.T) {
	tester := pumpCounter(t)
	result := tester.Find(ByText("+"))

	defer func() {
		if recover() == nil {
			t.Error("expected At to panic out of range")
		}
	}()
	result.At(1)
}
