// Package collision indexes regression term names by their xxHash64 ID and
// detects duplicate names and hash collisions.
package collision

import (
	"fmt"

	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/internal/hash"
)

// Tracker maps term IDs to coefficient positions. Names sharing an ID are
// kept in a side table so lookups stay exact after a collision.
type Tracker struct {
	ids          map[uint64]int
	names        []string
	byName       map[string]int // only populated once a collision is seen
	hasCollision bool
}

// NewTracker creates a tracker sized for n names.
func NewTracker(n int) *Tracker {
	return &Tracker{
		ids:   make(map[uint64]int, n),
		names: make([]string, 0, n),
	}
}

// Track records name at the next coefficient position.
//
// An empty name returns ErrInvalidTermName and a repeated name returns
// ErrDuplicateTerm. Two different names with the same hash are not an error;
// the collision flag is set and later lookups compare names.
func (t *Tracker) Track(name string) error {
	if name == "" {
		return fmt.Errorf("%w: position %d", errs.ErrInvalidTermName, len(t.names))
	}

	id := hash.TermID(name)
	if pos, ok := t.ids[id]; ok {
		if t.names[pos] == name {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateTerm, name)
		}
		if _, dup := t.byName[name]; dup {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateTerm, name)
		}
		if !t.hasCollision {
			t.hasCollision = true
			t.byName = make(map[string]int, len(t.names)+1)
			for i, n := range t.names {
				t.byName[n] = i
			}
		}
	}

	pos := len(t.names)
	if _, ok := t.ids[id]; !ok {
		t.ids[id] = pos
	}
	t.names = append(t.names, name)
	if t.hasCollision {
		t.byName[name] = pos
	}

	return nil
}

// Lookup returns the coefficient position of name.
func (t *Tracker) Lookup(name string) (int, bool) {
	if t.hasCollision {
		pos, ok := t.byName[name]
		return pos, ok
	}

	pos, ok := t.ids[hash.TermID(name)]
	if !ok || t.names[pos] != name {
		return 0, false
	}

	return pos, true
}

// HasCollision reports whether two tracked names share a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Names returns the tracked names in insertion order.
func (t *Tracker) Names() []string {
	return t.names
}

// Count returns the number of tracked names.
func (t *Tracker) Count() int {
	return len(t.names)
}

// Reset clears all tracked names and collision state, keeping capacity.
func (t *Tracker) Reset() {
	clear(t.ids)
	t.names = t.names[:0]
	t.byName = nil
	t.hasCollision = false
}
