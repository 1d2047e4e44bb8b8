// Package table maps object identifiers to exposed objects.
//
// Requests from the page are routed by identifier only. Root names are kept
// separately so the init script can be rebuilt in exposure order.
package table

import (
	"strings"
	"sync"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/shared/id"
)

// Table is safe for concurrent use. Lookups vastly outnumber registrations.
type Table struct {
	mu sync.RWMutex

	byID     map[id.ObjectID]*object.Object
	explicit map[id.ObjectID]*object.Object
	roots    map[string]*object.Object
	order    []string
}

// New creates an empty table
func New() *Table {
	return &Table{
		byID:     make(map[id.ObjectID]*object.Object),
		explicit: make(map[id.ObjectID]*object.Object),
		roots:    make(map[string]*object.Object),
	}
}

// Register inserts or replaces the mapping for objID
func (t *Table) Register(objID id.ObjectID, obj *object.Object) {
	if obj == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.explicit[objID] = obj
	t.byID[objID] = obj
}

// FindByID returns the object registered under objID
func (t *Table) FindByID(objID id.ObjectID) (*object.Object, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	obj, ok := t.byID[objID]
	if !ok {
		return nil, bridgeerr.New(bridgeerr.KindObjectNotFound, "lookup", string(objID))
	}
	return obj, nil
}

// SetRoot exposes obj under a top-level name and registers its whole
// subtree. Exposing a new object under an existing name replaces it in
// place; identifiers no longer reachable from any root are dropped.
func (t *Table) SetRoot(name string, obj *object.Object) error {
	if name == "" || strings.Contains(name, ".") {
		return bridgeerr.New(bridgeerr.KindRegistration, "expose", name).
			WithDetail("root name must be non-empty and must not contain '.'")
	}
	if obj == nil {
		return bridgeerr.New(bridgeerr.KindRegistration, "expose", name).WithDetail("nil object")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.roots[name]; !exists {
		t.order = append(t.order, name)
	}
	t.roots[name] = obj
	t.reindex()
	return nil
}

// reindex rebuilds the identifier index from the roots and explicit
// registrations. Caller holds the write lock.
func (t *Table) reindex() {
	byID := make(map[id.ObjectID]*object.Object, len(t.byID))
	for objID, obj := range t.explicit {
		byID[objID] = obj
	}
	for _, name := range t.order {
		t.roots[name].Walk(func(o *object.Object) {
			byID[o.ID()] = o
		})
	}
	t.byID = byID
}

// Root returns the object exposed under name
func (t *Table) Root(name string) (*object.Object, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	obj, ok := t.roots[name]
	return obj, ok
}

// Roots returns the root bindings in first-exposure order
func (t *Table) Roots() []object.Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]object.Binding, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, object.Binding{Name: name, Object: t.roots[name]})
	}
	return out
}

// Len returns the number of addressable objects
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
