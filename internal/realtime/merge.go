// Package realtime pushes row changes to connected clients and models how
// those clients fold the change feed into a consistent view. The feed is
// at-least-once and possibly reordered, so merging must be idempotent.
package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Change feed operations. Both are upserts from the view's perspective.
const (
	OpInsert = "insert"
	OpUpdate = "update"
)

// Versioned is a row that can be merged into a view: identified by id,
// ordered by its updated_at timestamp.
type Versioned interface {
	RowID() uuid.UUID
	RowUpdatedAt() time.Time
}

// Change is one inbound change notification.
type Change[T Versioned] struct {
	Op  string
	Row T
}

// View is a snapshot built from a change feed, keyed by row id with
// last-write-wins on updated_at. Applying the same notifications in any
// order, with any duplication, converges to the same state.
type View[T Versioned] struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]T
}

func NewView[T Versioned]() *View[T] {
	return &View[T]{rows: make(map[uuid.UUID]T)}
}

// Apply merges one notification and reports whether the view changed.
// A duplicate or a notification older than the stored row is a no-op.
func (v *View[T]) Apply(ch Change[T]) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := ch.Row.RowID()
	if existing, ok := v.rows[id]; ok {
		if !ch.Row.RowUpdatedAt().After(existing.RowUpdatedAt()) {
			return false
		}
	}
	v.rows[id] = ch.Row
	return true
}

// Get returns the current version of a row.
func (v *View[T]) Get(id uuid.UUID) (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	row, ok := v.rows[id]
	return row, ok
}

// Len returns the number of distinct rows in the view.
func (v *View[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rows)
}

// Rows returns the current rows in unspecified order.
func (v *View[T]) Rows() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]T, 0, len(v.rows))
	for _, row := range v.rows {
		out = append(out, row)
	}
	return out
}
