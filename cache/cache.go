// Package cache provides the in-memory store for decoded assets.
//
// Entries are ranked by activity: every Add of an existing name and every
// Get raises the entry's counter. When the process memory estimate exceeds
// the configured budget after an Add, the cache evicts the single entry
// with the lowest activity, preferring the earliest inserted on ties.
//
// Only one entry is evicted per Add. A burst of large insertions can keep
// the process above budget for several Adds before enough entries are gone;
// this is a pressure-relief valve, not a hard limit.
package cache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
)

// DefaultBudget is the default memory budget (256MB).
const DefaultBudget = 256 << 20

// ErrNotFound is returned by Get when the name is not cached.
var ErrNotFound = errors.New("cache: entry not found")

// Estimator reports the current memory usage the budget is compared against.
type Estimator func() uint64

// Cache is an activity-ranked asset store. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries []*entry // insertion order
	byName  map[string]*entry
	stats   Stats

	budget   uint64
	estimate Estimator
	onEvict  func(name string, payload any)
	logger   *slog.Logger
}

type entry struct {
	name     string
	payload  any
	activity int
}

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithBudget sets the memory budget in bytes. Zero disables eviction.
func WithBudget(bytes uint64) Option {
	return func(c *Cache) {
		c.budget = bytes
	}
}

// WithEstimator replaces the process heap estimate used for eviction.
func WithEstimator(fn Estimator) Option {
	return func(c *Cache) {
		c.estimate = fn
	}
}

// WithOnEvict registers a hook called after an evicted payload has been
// released and before its entry is dropped.
func WithOnEvict(fn func(name string, payload any)) Option {
	return func(c *Cache) {
		c.onEvict = fn
	}
}

// WithLogger sets the logger for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		byName:   make(map[string]*entry),
		budget:   DefaultBudget,
		estimate: HeapInUse,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Add stores payload under name with activity 1. If name is already cached
// its activity is raised and the existing payload is kept; payload is
// discarded. Afterwards at most one entry is evicted if memory is over
// budget.
func (c *Cache) Add(name string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byName[name]; ok {
		e.activity++
	} else {
		e := &entry{name: name, payload: payload, activity: 1}
		c.entries = append(c.entries, e)
		c.byName[name] = e
	}
	c.relieve()
}

// Get returns the payload cached under name and raises its activity.
func (c *Cache) Get(name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byName[name]
	if !ok {
		c.stats.Misses++
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c.stats.Hits++
	e.activity++
	return e.payload, nil
}

// Exists reports whether name is cached without touching its activity.
func (c *Cache) Exists(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byName[name]
	return ok
}

// Activity returns the activity counter of name.
func (c *Cache) Activity(name string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byName[name]
	if !ok {
		return 0, false
	}
	return e.activity, true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Names returns the cached names in insertion order.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Stats returns a snapshot of the traffic counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Remove releases and drops name. It reports whether name was cached.
func (c *Cache) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.name == name {
			c.drop(i)
			return true
		}
	}
	return false
}

// Clear releases and drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.entries) > 0 {
		c.drop(len(c.entries) - 1)
	}
}

// relieve evicts one entry when the estimate is over budget.
// Callers must hold c.mu.
func (c *Cache) relieve() {
	if c.budget == 0 || c.estimate == nil || len(c.entries) == 0 {
		return
	}
	usage := c.estimate()
	if usage <= c.budget {
		return
	}

	victim := 0
	for i, e := range c.entries {
		if e.activity < c.entries[victim].activity {
			victim = i
		}
	}
	name := c.entries[victim].name
	c.drop(victim)
	c.stats.Evictions++
	c.log().Debug("cache over budget, evicted entry",
		"name", name,
		"usage", humanize.IBytes(usage),
		"budget", humanize.IBytes(c.budget),
		"remaining", len(c.entries))
}

// drop releases entries[i] and removes it. Callers must hold c.mu.
func (c *Cache) drop(i int) {
	e := c.entries[i]
	if closer, ok := e.payload.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.log().Warn("release cached asset", "name", e.name, "error", err)
		}
	}
	if c.onEvict != nil {
		c.onEvict(e.name, e.payload)
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	delete(c.byName, e.name)
}
