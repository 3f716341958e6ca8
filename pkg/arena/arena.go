// Package arena provides bump allocation with two lifetimes.
//
// An [Arena] groups typed [Slab]s that share a lifetime. Resetting the
// arena resets every slab at once, in O(slabs), without returning memory to
// the runtime. [Arena.Mark] and [Arena.ResetTo] give temporary scopes
// inside a lifetime.
//
// The engine uses one long-lived cache arena (widget records) and one frame
// arena (config cells, draw primitives) that is reset at every frame start.
package arena

import (
	"github.com/go-drift/immediate/pkg/errors"
)

// Stats describes the usage of one slab.
type Stats struct {
	Name string
	// Len is the number of live items.
	Len int
	// Cap is the hard item limit.
	Cap int
	// Peak is the high-water mark. It survives Reset.
	Peak int
}

type slab interface {
	mark() int
	resetTo(n int)
	stats() Stats
}

// Arena groups slabs that are reset together.
type Arena struct {
	name   string
	slabs  []slab
	resets uint64
}

// New returns an empty arena. Slabs are attached with [NewSlab].
func New(name string) *Arena {
	return &Arena{name: name}
}

// Name returns the arena name used in diagnostics.
func (a *Arena) Name() string { return a.name }

// Generation counts how many times the arena has been reset.
func (a *Arena) Generation() uint64 { return a.resets }

// Mark is a snapshot of every slab's length.
type Mark struct {
	arena *Arena
	lens  []int
}

// Mark records the current length of every slab.
func (a *Arena) Mark() Mark {
	m := Mark{arena: a, lens: make([]int, len(a.slabs))}
	for i, s := range a.slabs {
		m.lens[i] = s.mark()
	}
	return m
}

// ResetTo releases everything allocated after m was taken. Slabs attached
// after the mark are reset to empty.
func (a *Arena) ResetTo(m Mark) {
	if m.arena != a {
		errors.Fatalf("arena.Arena.ResetTo", errors.KindStructure, "",
			"mark belongs to arena %q, not %q: %w", m.arena.Name(), a.name, errors.ErrUnbalanced)
	}
	for i, s := range a.slabs {
		if i < len(m.lens) {
			s.resetTo(m.lens[i])
		} else {
			s.resetTo(0)
		}
	}
}

// Reset releases every allocation in every slab.
func (a *Arena) Reset() {
	for _, s := range a.slabs {
		s.resetTo(0)
	}
	a.resets++
}

// Stats returns one entry per slab, in attach order.
func (a *Arena) Stats() []Stats {
	out := make([]Stats, len(a.slabs))
	for i, s := range a.slabs {
		out[i] = s.stats()
	}
	return out
}
