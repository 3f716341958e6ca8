package engine

// ring keeps the most recent values up to a fixed count. It is not
// synchronized; owners guard it with their own lock.
type ring[T any] struct {
	items []T
	next  int
	count int
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{items: make([]T, max(capacity, 1))}
}

func (r *ring[T]) push(v T) {
	r.items[r.next] = v
	r.next = (r.next + 1) % len(r.items)
	if r.count < len(r.items) {
		r.count++
	}
}

// ordered returns a copy of the values, oldest first.
func (r *ring[T]) ordered() []T {
	if r.count == 0 {
		return nil
	}
	out := make([]T, 0, r.count)
	if r.count == len(r.items) {
		out = append(out, r.items[r.next:]...)
		return append(out, r.items[:r.next]...)
	}
	return append(out, r.items[:r.count]...)
}

func (r *ring[T]) last() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.items[(r.next+len(r.items)-1)%len(r.items)], true
}

func (r *ring[T]) capacity() int { return len(r.items) }
