package services

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/skein-data/skein-engine/pkg/models"
)

// SelectionStore is the orchestrating state container the stateless engine
// leans on: it owns the current FieldSelection set and hands out
// monotonically increasing sequence numbers so that a propagation result
// arriving after a newer selection can be recognized as stale and
// discarded. It enforces the selection invariants: at most one selection
// per (table, column), and an empty selection is removed, never stored.
type SelectionStore struct {
	id uuid.UUID

	mu         sync.Mutex
	selections map[string]*models.FieldSelection
	seq        uint64
}

// NewSelectionStore creates an empty store with a fresh session identity.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{
		id:         uuid.New(),
		selections: make(map[string]*models.FieldSelection),
	}
}

// ID returns the session identity of this store.
func (s *SelectionStore) ID() uuid.UUID {
	return s.id
}

func selectionKey(table, column string) string {
	return table + "\x00" + column
}

// Replace sets the selection on a field to exactly the given values.
// An empty value list clears the field.
func (s *SelectionStore) Replace(table, column string, values ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) == 0 {
		delete(s.selections, selectionKey(table, column))
		s.bump()
		return
	}
	s.selections[selectionKey(table, column)] = models.NewFieldSelection(table, column, values...)
	s.bump()
}

// Toggle flips one value's membership in a field's selection, removing the
// selection entirely when its last value is toggled off.
func (s *SelectionStore) Toggle(table, column string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := selectionKey(table, column)
	sel, ok := s.selections[key]
	if !ok {
		s.selections[key] = models.NewFieldSelection(table, column, value)
		s.bump()
		return
	}
	if sel.Has(value) {
		sel.Remove(value)
		if sel.Len() == 0 {
			delete(s.selections, key)
		}
	} else {
		sel.Add(value)
	}
	s.bump()
}

// ClearField removes the selection on one field.
func (s *SelectionStore) ClearField(table, column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, selectionKey(table, column))
	s.bump()
}

// ClearAll removes every selection.
func (s *SelectionStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections = make(map[string]*models.FieldSelection)
	s.bump()
}

// Selections returns a deep-copied snapshot of the current selection set,
// ordered by table then column.
func (s *SelectionStore) Selections() []*models.FieldSelection {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*models.FieldSelection, 0, len(s.selections))
	for _, sel := range s.selections {
		snapshot = append(snapshot, sel.Clone())
	}
	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Table != snapshot[j].Table {
			return snapshot[i].Table < snapshot[j].Table
		}
		return snapshot[i].Column < snapshot[j].Column
	})
	return snapshot
}

// Sequence returns the current sequence number. Every mutation bumps it.
func (s *SelectionStore) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// IsCurrent reports whether a propagation tagged with seq is still the
// latest; callers discard the result of any request that is not.
func (s *SelectionStore) IsCurrent(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == seq
}

// bump must be called with the lock held.
func (s *SelectionStore) bump() {
	s.seq++
}
