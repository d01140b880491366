package cache

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/api"
)

// Kind identifies the mutation being applied to the cache.
type Kind int

const (
	// Created prepends the task; the dashboard shows newest first.
	Created Kind = iota
	// Updated replaces the entry with a matching id, or appends when no
	// entry matches (a missed create).
	Updated
	// Deleted removes the entry by id; a no-op when the id is absent.
	Deleted
)

// Filter selects a subset of the cached tasks. The zero value matches
// everything; set fields are ANDed together.
type Filter struct {
	// Status matches exactly when set.
	Status api.Status
	// Priority matches exactly when set.
	Priority api.Priority
	// Search is a case-insensitive substring matched against title or
	// description.
	Search string
}

// Matches reports whether the task satisfies every set criterion.
func (f Filter) Matches(t api.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Status == "" && f.Priority == "" && f.Search == ""
}

// Stats are the dashboard aggregates, always computed over the whole
// cache rather than the filtered view.
type Stats struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// Cache holds the authoritative local copy of the session's tasks and
// derives filtered views and aggregates from it. All writes funnel
// through Apply, Replace and Clear; no other component mutates the task
// slice directly.
type Cache struct {
	mu      sync.RWMutex
	tasks   []api.Task
	filter  Filter
	issued  uint64
	now     func() time.Time
	subs    map[int]func()
	nextSub int
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source used for overdue derivation.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		now:  time.Now,
		subs: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply folds a confirmed mutation into the cache and notifies
// subscribers once the new state is in place.
func (c *Cache) Apply(kind Kind, task api.Task) {
	c.mu.Lock()
	switch kind {
	case Created:
		c.tasks = append([]api.Task{task}, c.tasks...)
	case Updated:
		replaced := false
		for i := range c.tasks {
			if c.tasks[i].ID == task.ID {
				c.tasks[i] = task
				replaced = true
				break
			}
		}
		if !replaced {
			c.tasks = append(c.tasks, task)
		}
	case Deleted:
		for i := range c.tasks {
			if c.tasks[i].ID == task.ID {
				c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()
	c.notify()
}

// Begin hands out a generation number for a list fetch. Replace only
// accepts the tasks from the most recently issued generation, so a slow
// response cannot clobber a newer one.
func (c *Cache) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Replace swaps the whole cache for the given task list. It reports
// whether the list was accepted; a stale generation is discarded.
func (c *Cache) Replace(gen uint64, tasks []api.Task) bool {
	c.mu.Lock()
	if gen != c.issued {
		c.mu.Unlock()
		return false
	}
	c.tasks = append([]api.Task(nil), tasks...)
	c.mu.Unlock()
	c.notify()
	return true
}

// Clear empties the cache, e.g. on logout or when the session gate finds
// no authenticated user.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.tasks = nil
	c.mu.Unlock()
	c.notify()
}

// Tasks returns a copy of the full cache in order.
func (c *Cache) Tasks() []api.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]api.Task(nil), c.tasks...)
}

// Len returns the number of cached tasks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Get returns the cached task with the given id.
func (c *Cache) Get(id api.ID) (api.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return api.Task{}, false
}

// SetFilter replaces the active filter criteria.
func (c *Cache) SetFilter(f Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	c.notify()
}

// Filter returns the active filter criteria.
func (c *Cache) Filter() Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// View returns the tasks matching the active filter, preserving cache
// order.
func (c *Cache) View() []api.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	view := make([]api.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if c.filter.Matches(t) {
			view = append(view, t)
		}
	}
	return view
}

// Stats derives the dashboard aggregates from the whole cache. Overdue
// counts tasks whose due date is strictly before now and whose status is
// not completed.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	s := Stats{Total: len(c.tasks)}
	for _, t := range c.tasks {
		switch t.Status {
		case api.StatusPending:
			s.Pending++
		case api.StatusInProgress:
			s.InProgress++
		case api.StatusCompleted:
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		rate := float64(s.Completed) / float64(s.Total) * 100
		s.CompletionRate = math.Round(rate*100) / 100
	}
	return s
}

// Subscribe registers fn to run after every cache change, once the new
// state is observable through View and Stats. It returns an unsubscribe
// function.
func (c *Cache) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// notify invokes a snapshot of the subscribers outside all locks, so a
// callback may read or even mutate the cache. A mutation from inside a
// callback triggers a fresh notification round; callbacks that mutate
// unconditionally will recurse.
func (c *Cache) notify() {
	c.mu.RLock()
	fns := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
