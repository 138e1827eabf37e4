package editor

import (
	"context"
	"slices"
	"sync"

	"github.com/meikuraledutech/workflow"
)

// Catalog is the displayed workflow list and the active-selection pointer.
type Catalog struct {
	mu       sync.RWMutex
	entries  []workflow.Summary
	selected string
}

// NewCatalog creates a Catalog holding entries.
func NewCatalog(entries ...workflow.Summary) *Catalog {
	return &Catalog{entries: slices.Clone(entries)}
}

// Refresh replaces the list with the one the service reports.
func (c *Catalog) Refresh(ctx context.Context, svc workflow.Service) error {
	list, err := svc.List(ctx)
	if err != nil {
		return err
	}
	c.Set(list)
	return nil
}

// Set replaces the list.
func (c *Catalog) Set(entries []workflow.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = slices.Clone(entries)
}

// Entries returns a copy of the list.
func (c *Catalog) Entries() []workflow.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := slices.Clone(c.entries)
	if out == nil {
		out = []workflow.Summary{}
	}
	return out
}

// Add appends an entry.
func (c *Catalog) Add(e workflow.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

// Remove drops the entry with id and reports whether it existed.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = slices.DeleteFunc(c.entries, func(e workflow.Summary) bool { return e.ID == id })
	return len(c.entries) != n
}

// Rename swaps id from for id to in the entry and, if it points at from,
// in the selection.
func (c *Catalog) Rename(from, to string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == from {
		c.selected = to
	}
	for i := range c.entries {
		if c.entries[i].ID == from {
			c.entries[i].ID = to
			return true
		}
	}
	return false
}

// Select sets the active workflow id.
func (c *Catalog) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
}

// Selected returns the active workflow id.
func (c *Catalog) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}
