package reconcile

import (
	"sync"

	"reservas-backend/internal/model"
)

// Cache holds the committed reservations of the active date together with
// a (shift, table) index. Readers get copies. The list and index are only
// ever swapped whole, so a reader never sees a half-applied refetch.
type Cache struct {
	mu      sync.RWMutex
	date    string
	items   []model.Reservation
	index   map[model.Key]int
	version uint64
}

// NewCache creates an empty cache with no active date.
func NewCache() *Cache {
	return &Cache{index: map[model.Key]int{}}
}

// Reset clears the cache and makes date the active date.
func (c *Cache) Reset(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = date
	c.swap(nil)
}

// Date returns the active date.
func (c *Cache) Date() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.date
}

// Version increments on every change to the cached list.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Replace swaps in items fetched for date. It reports false and leaves the
// cache untouched if date is no longer the active date.
func (c *Cache) Replace(date string, items []model.Reservation) bool {
	next := make([]model.Reservation, len(items))
	copy(next, items)

	c.mu.Lock()
	defer c.mu.Unlock()
	if date != c.date {
		return false
	}
	c.swap(next)
	return true
}

// update builds the next list from a copy of the current one and swaps it in.
// fn reports whether it changed anything. Nothing happens if date is stale.
func (c *Cache) update(date string, fn func(items []model.Reservation) ([]model.Reservation, bool)) (stale, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if date != c.date {
		return true, false
	}
	current := make([]model.Reservation, len(c.items))
	copy(current, c.items)
	next, changed := fn(current)
	if changed {
		c.swap(next)
	}
	return false, changed
}

// swap must be called with mu held.
func (c *Cache) swap(items []model.Reservation) {
	index := make(map[model.Key]int, len(items))
	for i, r := range items {
		index[r.Key()] = i
	}
	c.items = items
	c.index = index
	c.version++
}

// Lookup returns the reservation at (shift, table).
func (c *Cache) Lookup(shift model.Shift, table int) (model.Reservation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[model.Key{Shift: shift, TableNumber: table}]
	if !ok {
		return model.Reservation{}, false
	}
	return c.items[i], true
}

// Snapshot returns a copy of the cached list in fetch order.
func (c *Cache) Snapshot() []model.Reservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Reservation, len(c.items))
	copy(out, c.items)
	return out
}

// View is a consistent read of the cache.
type View struct {
	Date         string              `json:"date"`
	Version      uint64              `json:"version"`
	Reservations []model.Reservation `json:"reservations"`
}

// View returns the date, version and reservations read under one lock.
func (c *Cache) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Reservation, len(c.items))
	copy(out, c.items)
	return View{Date: c.date, Version: c.version, Reservations: out}
}
