package store

import (
	"fmt"
	"sync"

	"github.com/xraph/usecase/dispatcher"
)

// Named is the surface a Group needs from each member store.
type Named interface {
	Name() string
	Attach(d *dispatcher.Dispatcher) (detach func())
	Snapshot() any
}

// Group combines named stores into one collaborator. Its snapshot is a
// map from store name to that store's snapshot.
type Group struct {
	mu     sync.RWMutex
	stores []Named
}

// NewGroup returns a group of the given stores. Names must be unique.
func NewGroup(stores ...Named) (*Group, error) {
	seen := make(map[string]bool, len(stores))
	for _, s := range stores {
		if seen[s.Name()] {
			return nil, fmt.Errorf("store: duplicate store name %q", s.Name())
		}
		seen[s.Name()] = true
	}
	return &Group{stores: stores}, nil
}

// Attach attaches every member to d. The returned function detaches all
// of them.
func (g *Group) Attach(d *dispatcher.Dispatcher) (detach func()) {
	g.mu.RLock()
	detaches := make([]func(), 0, len(g.stores))
	for _, s := range g.stores {
		detaches = append(detaches, s.Attach(d))
	}
	g.mu.RUnlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, fn := range detaches {
				fn()
			}
		})
	}
}

// Snapshot returns map[string]any keyed by store name.
func (g *Group) Snapshot() any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]any, len(g.stores))
	for _, s := range g.stores {
		out[s.Name()] = s.Snapshot()
	}
	return out
}

// Store returns the member with the given name.
func (g *Group) Store(name string) (Named, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, s := range g.stores {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}
