// Package cache implements the two-level rule-content cache: an in-memory
// LRU tier with byte/entry budgets and TTL, plus an optional sqlite-backed
// disk tier for spill-over.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

// entry is the value stored in the LRU list, paired with its key so eviction
// can remove it from the index map too.
type entry struct {
	key       string
	value     []byte
	tags      []string
	priority  int
	createdAt time.Time
	expiresAt time.Time
}

func (e *entry) size() int { return len(e.value) }

// Stats is a snapshot of tier counters, returned by Stats().
type Stats struct {
	Entries       int
	Bytes         int
	Hits          int64
	Misses        int64
	Evictions     int64
	ExpiredEvicts int64
}

// Tier is an in-memory LRU cache bounded by entry count and total bytes,
// with per-entry TTL and tag-based bulk invalidation.
type Tier struct {
	mu           sync.Mutex
	ll           *list.List
	index        map[string]*list.Element
	maxEntries   int
	maxBytes     int
	maxEntrySize int
	bytes        int
	now          func() time.Time

	hits, misses, evictions, expiredEvicts int64
}

// Option configures a Tier at construction.
type Option func(*Tier)

// WithMaxEntrySize caps a single Put's payload; Put returns false above it.
func WithMaxEntrySize(n int) Option {
	return func(t *Tier) { t.maxEntrySize = n }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tier) { t.now = now }
}

// NewTier builds an in-memory LRU tier with the given entry-count and
// byte budgets (0 means unlimited).
func NewTier(maxEntries, maxBytes int, opts ...Option) *Tier {
	t := &Tier{
		ll:         list.New(),
		index:      make(map[string]*list.Element),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the cached value for key. An expired entry is evicted lazily
// on access and counts as a miss.
func (t *Tier) Get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.index[key]
	if !ok {
		t.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if !e.expiresAt.IsZero() && t.now().After(e.expiresAt) {
		t.removeElement(el)
		t.expiredEvicts++
		t.misses++
		return nil, false
	}
	t.ll.MoveToFront(el)
	t.hits++
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

// Put stores value under key with an optional ttl (0 = no expiry), tags for
// bulk invalidation, and an eviction priority: once expired entries are gone,
// lower priority is evicted first and recency only breaks ties between equal
// priorities. Returns false without storing if value
// exceeds the configured max entry size.
func (t *Tier) Put(key string, value []byte, ttl time.Duration, tags []string, priority int) bool {
	if t.maxEntrySize > 0 && len(value) > t.maxEntrySize {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = t.now().Add(ttl)
	}

	if el, ok := t.index[key]; ok {
		old := el.Value.(*entry)
		t.bytes -= old.size()
		el.Value = &entry{key: key, value: stored, tags: tags, priority: priority, createdAt: t.now(), expiresAt: expiresAt}
		t.bytes += len(stored)
		t.ll.MoveToFront(el)
	} else {
		e := &entry{key: key, value: stored, tags: tags, priority: priority, createdAt: t.now(), expiresAt: expiresAt}
		el := t.ll.PushFront(e)
		t.index[key] = el
		t.bytes += len(stored)
	}

	t.evictToFit()
	return true
}

// evictToFit evicts expired entries first, then lowest-priority, then
// least-recently-used, until both budgets are satisfied.
func (t *Tier) evictToFit() {
	t.evictExpired()

	for (t.maxEntries > 0 && t.ll.Len() > t.maxEntries) || (t.maxBytes > 0 && t.bytes > t.maxBytes) {
		victim := t.lowestPriorityElement()
		if victim == nil {
			break
		}
		t.removeElement(victim)
		t.evictions++
	}
}

func (t *Tier) evictExpired() {
	now := t.now()
	for el := t.ll.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry)
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			t.removeElement(el)
			t.expiredEvicts++
		}
		el = prev
	}
}

// lowestPriorityElement scans from the back (least recently used) and picks
// the lowest-priority element, breaking ties by LRU order.
func (t *Tier) lowestPriorityElement() *list.Element {
	var victim *list.Element
	lowest := int(^uint(0) >> 1)
	for el := t.ll.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.priority < lowest {
			lowest, victim = e.priority, el
		}
	}
	return victim
}

func (t *Tier) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	t.ll.Remove(el)
	delete(t.index, e.key)
	t.bytes -= e.size()
}

// Invalidate removes a single key.
func (t *Tier) Invalidate(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.index[key]
	if !ok {
		return false
	}
	t.removeElement(el)
	return true
}

// InvalidateTag removes every entry carrying the given tag, returning the
// count removed.
func (t *Tier) InvalidateTag(tag string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var toRemove []*list.Element
	for el := t.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		for _, tg := range e.tags {
			if tg == tag {
				toRemove = append(toRemove, el)
				break
			}
		}
	}
	for _, el := range toRemove {
		t.removeElement(el)
	}
	return len(toRemove)
}

// Clear empties the tier.
func (t *Tier) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ll.Init()
	t.index = make(map[string]*list.Element)
	t.bytes = 0
}

// Stats returns a snapshot of tier counters.
func (t *Tier) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Entries:       t.ll.Len(),
		Bytes:         t.bytes,
		Hits:          t.hits,
		Misses:        t.misses,
		Evictions:     t.evictions,
		ExpiredEvicts: t.expiredEvicts,
	}
}

// ToDomainEntries exports the current tier contents as domain.CacheEntry
// records, mainly for disk-tier spill-over or inspection.
func (t *Tier) ToDomainEntries() []domain.CacheEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.CacheEntry, 0, t.ll.Len())
	for el := t.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		out = append(out, domain.CacheEntry{
			Key: e.key, Value: e.value, Tags: e.tags,
			CreatedAt: e.createdAt, ExpiresAt: e.expiresAt, Size: e.size(),
		})
	}
	return out
}


