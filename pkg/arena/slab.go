package arena

import (
	"github.com/go-drift/immediate/pkg/errors"
)

const minSlabChunk = 64

// Slab is a typed bump allocator with a hard item limit.
//
// Items are addressed by index. Pointers returned by [Slab.At] stay valid
// until the next [Slab.Alloc], which may move the backing array.
type Slab[T any] struct {
	arena string
	name  string
	items []T
	limit int
	peak  int
}

// NewSlab attaches a slab of at most limit items to a. Backing storage
// grows on demand up to the limit.
func NewSlab[T any](a *Arena, name string, limit int) *Slab[T] {
	if limit <= 0 {
		errors.Fatalf("arena.NewSlab", errors.KindConfig, "",
			"slab %q: limit must be positive, got %d", name, limit)
	}
	initial := min(limit, minSlabChunk)
	s := &Slab[T]{
		arena: a.name,
		name:  name,
		items: make([]T, 0, initial),
		limit: limit,
	}
	a.slabs = append(a.slabs, s)
	return s
}

// Alloc reserves one zeroed item and returns its index. Exceeding the
// limit is fatal.
func (s *Slab[T]) Alloc() int {
	n := len(s.items)
	if n >= s.limit {
		errors.Fatalf("arena.Slab.Alloc", errors.KindCapacity, "",
			"%s/%s: %d items: %w", s.arena, s.name, s.limit, errors.ErrCapacity)
	}
	if n == cap(s.items) {
		grown := make([]T, n, min(max(2*n, minSlabChunk), s.limit))
		copy(grown, s.items)
		s.items = grown
	}
	var zero T
	s.items = append(s.items, zero)
	if n+1 > s.peak {
		s.peak = n + 1
	}
	return n
}

// Push allocates an item holding v and returns its index.
func (s *Slab[T]) Push(v T) int {
	i := s.Alloc()
	s.items[i] = v
	return i
}

// At returns a pointer to item i.
func (s *Slab[T]) At(i int) *T {
	return &s.items[i]
}

// Items returns the live items. The slice aliases slab storage.
func (s *Slab[T]) Items() []T {
	return s.items
}

// Len returns the number of live items.
func (s *Slab[T]) Len() int { return len(s.items) }

// Cap returns the item limit.
func (s *Slab[T]) Cap() int { return s.limit }

// Mark returns the current length for a later [Slab.ResetTo].
func (s *Slab[T]) Mark() int { return len(s.items) }

// ResetTo drops every item allocated after mark n.
func (s *Slab[T]) ResetTo(n int) { s.resetTo(n) }

func (s *Slab[T]) mark() int { return len(s.items) }

func (s *Slab[T]) resetTo(n int) {
	if n < 0 || n > len(s.items) {
		errors.Fatalf("arena.Slab.ResetTo", errors.KindStructure, "",
			"%s/%s: mark %d outside [0,%d]: %w", s.arena, s.name, n, len(s.items), errors.ErrUnbalanced)
	}
	clear(s.items[n:])
	s.items = s.items[:n]
}

func (s *Slab[T]) stats() Stats {
	return Stats{Name: s.arena + "/" + s.name, Len: len(s.items), Cap: s.limit, Peak: s.peak}
}
