// Package cache holds recently fetched datasets in memory so repeated
// requests for the same location and window skip the upstream call.
package cache

import (
	"container/list"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
)

// Cache is a TTL-bounded LRU of normalized datasets keyed by request shape.
// Safe for concurrent use.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry struct {
	key       string
	dataset   domain.Dataset
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// New creates a Cache. maxEntries of zero or less disables the size bound.
func New(ttl time.Duration, maxEntries int, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// KeyFor derives the cache key for a fetch request. Coordinates are rounded
// to four decimals so jittery inputs for the same place share an entry, and
// variables are joined in canonical order so equal sets share one key no
// matter how the caller ordered them.
func KeyFor(loc domain.Location, start, end time.Time, vars []domain.Variable) string {
	names := make([]string, 0, len(vars))
	seen := make(map[domain.Variable]bool, len(vars))
	for _, v := range domain.Variables {
		for _, requested := range vars {
			if requested == v && !seen[v] {
				names = append(names, string(v))
				seen[v] = true
			}
		}
	}
	window := "forecast"
	if !start.IsZero() || !end.IsZero() {
		window = start.Format("2006-01-02") + ".." + end.Format("2006-01-02")
	}
	return fmt.Sprintf("%s,%s|%s|%s|%s",
		strconv.FormatFloat(loc.Latitude, 'f', 4, 64),
		strconv.FormatFloat(loc.Longitude, 'f', 4, 64),
		loc.Timezone,
		window,
		strings.Join(names, "+"),
	)
}

// Get returns the cached dataset for key, or false on a miss. An expired
// entry counts as a miss and is dropped.
func (c *Cache) Get(key string) (domain.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	ent := el.Value.(*entry)
	if c.clock.Now().After(ent.expiresAt) {
		c.removeLocked(el)
		c.misses++
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return ent.dataset, true
}

// Put stores a dataset under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache) Put(key string, dataset domain.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry)
		ent.dataset = dataset
		ent.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry{key: key, dataset: dataset, expiresAt: expiresAt})
	c.items[key] = el

	if c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest != nil {
			c.removeLocked(oldest)
			c.evictions++
			c.logger.Debug("cache entry evicted", "key", oldest.Value.(*entry).key)
		}
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   c.order.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Clear drops every entry and returns how many were removed. Counters are
// kept so effectiveness history survives an operator clear.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.order.Len()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	return n
}

func (c *Cache) removeLocked(el *list.Element) {
	ent := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, ent.key)
}
