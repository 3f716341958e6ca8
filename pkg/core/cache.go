package core

import (
	"github.com/go-drift/immediate/pkg/arena"
	"github.com/go-drift/immediate/pkg/errors"
)

type bucket struct {
	first WidgetID
	last  WidgetID
}

// CacheStats summarizes cache occupancy.
type CacheStats struct {
	Live         int
	Free         int
	Slots        int
	Buckets      int
	LongestChain int
}

// Cache maps keys to widget records through a fixed bucket table with
// chained collisions. Records live in a slab of the cache arena; evicted
// records go on a free list and are reused before the slab grows.
type Cache struct {
	slots   *arena.Slab[Widget]
	buckets []bucket
	free    WidgetID
	nfree   int
	live    int
}

// NewCache attaches a widget slab of at most capacity records to the
// cache arena. The bucket table never resizes.
func NewCache(a *arena.Arena, buckets, capacity int) *Cache {
	if buckets <= 0 {
		errors.Fatalf("core.NewCache", errors.KindConfig, "", "bucket count must be positive, got %d", buckets)
	}
	return &Cache{
		slots:   arena.NewSlab[Widget](a, "widgets", capacity),
		buckets: make([]bucket, buckets),
	}
}

// Get returns the record for id. The pointer is valid until the next
// Resolve that misses.
func (c *Cache) Get(id WidgetID) *Widget {
	if !id.Valid() || int(id) > c.slots.Len() {
		errors.Fatalf("core.Cache.Get", errors.KindStructure, "", "widget %d of %d: %w", id, c.slots.Len(), errors.ErrInvalidWidget)
	}
	return c.slots.At(int(id) - 1)
}

// Len returns the number of live records.
func (c *Cache) Len() int { return c.live }

func (c *Cache) bucketOf(key Key) *bucket {
	return &c.buckets[uint64(key)%uint64(len(c.buckets))]
}

// Lookup finds key without inserting.
func (c *Cache) Lookup(key Key) (WidgetID, bool) {
	for id := c.bucketOf(key).first; id.Valid(); id = c.Get(id).hashNext {
		if c.Get(id).Key == key {
			return id, true
		}
	}
	return NoWidget, false
}

// Resolve returns the record for key, inserting a zeroed record at the
// tail of its chain on a miss. hit reports whether the record existed.
func (c *Cache) Resolve(key Key) (id WidgetID, hit bool) {
	if id, ok := c.Lookup(key); ok {
		return id, true
	}

	if c.free.Valid() {
		id = c.free
		c.free = c.Get(id).hashNext
		c.nfree--
	} else {
		id = WidgetID(c.slots.Alloc() + 1)
	}

	b := c.bucketOf(key)
	w := c.Get(id)
	*w = Widget{Key: key, hashPrev: b.last}
	if b.last.Valid() {
		c.Get(b.last).hashNext = id
	} else {
		b.first = id
	}
	b.last = id
	c.live++
	return id, false
}

// Evict unlinks id from its chain and moves it to the free list.
func (c *Cache) Evict(id WidgetID) {
	w := c.Get(id)
	b := c.bucketOf(w.Key)
	if w.hashPrev.Valid() {
		c.Get(w.hashPrev).hashNext = w.hashNext
	} else {
		b.first = w.hashNext
	}
	if w.hashNext.Valid() {
		c.Get(w.hashNext).hashPrev = w.hashPrev
	} else {
		b.last = w.hashPrev
	}

	*w = Widget{hashNext: c.free}
	c.free = id
	c.nfree++
	c.live--
}

// Sweep evicts every live record not declared within the last ttl frames
// as of frame. A ttl of zero disables eviction. It returns the number of
// records evicted.
func (c *Cache) Sweep(frame, ttl uint64) int {
	if ttl == 0 {
		return 0
	}
	evicted := 0
	for i := range c.slots.Len() {
		id := WidgetID(i + 1)
		w := c.Get(id)
		if w.Key == NoKey {
			continue
		}
		if frame-w.LastFrame >= ttl {
			c.Evict(id)
			evicted++
		}
	}
	return evicted
}

// Stats reports occupancy and the longest chain.
func (c *Cache) Stats() CacheStats {
	s := CacheStats{
		Live:    c.live,
		Free:    c.nfree,
		Slots:   c.slots.Len(),
		Buckets: len(c.buckets),
	}
	for _, b := range c.buckets {
		n := 0
		for id := b.first; id.Valid(); id = c.Get(id).hashNext {
			n++
		}
		s.LongestChain = max(s.LongestChain, n)
	}
	return s
}
