package notebook

import (
	"sync"

	"github.com/google/uuid"
)

// IDFunc generates cell identifiers.
type IDFunc func() string

// Store is the ordered cell sequence. Lookups by unknown id are no-ops that
// report false.
type Store struct {
	mu     sync.RWMutex
	cells  []Cell
	newID  IDFunc
	issued map[string]struct{}
}

// NewStore creates an empty store. A nil newID falls back to random UUIDs.
func NewStore(newID IDFunc) *Store {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Store{newID: newID, issued: make(map[string]struct{})}
}

// Add appends an empty, active cell and returns it.
func (s *Store) Add() Cell {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Cell{ID: s.freshID(), Active: true}
	s.cells = append(s.cells, c)
	return c
}

// freshID draws ids until one has never been issued. Caller holds mu.
func (s *Store) freshID() string {
	for {
		id := s.newID()
		if _, seen := s.issued[id]; seen || id == "" {
			continue
		}
		s.issued[id] = struct{}{}
		return id
	}
}

// Edit replaces the source of the cell with the given id.
func (s *Store) Edit(id, source string) bool {
	return s.update(id, func(c *Cell) { c.Source = source })
}

// ToggleActive flips the cell's Active flag.
func (s *Store) ToggleActive(id string) bool {
	return s.update(id, func(c *Cell) { c.Active = !c.Active })
}

// SetActive sets the cell's Active flag.
func (s *Store) SetActive(id string, active bool) bool {
	return s.update(id, func(c *Cell) { c.Active = active })
}

// SetExecutionResult overwrites the result and log of a cell.
func (s *Store) SetExecutionResult(id, result, log string) bool {
	return s.update(id, func(c *Cell) {
		c.Result = result
		c.Log = log
	})
}

func (s *Store) update(id string, fn func(*Cell)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	fn(&s.cells[i])
	return true
}

// Remove deletes the cell; later cells shift up by one.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.cells = append(s.cells[:i], s.cells[i+1:]...)
	return true
}

// Get returns a copy of the cell.
func (s *Store) Get(id string) (Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return Cell{}, false
	}
	return s.cells[i], true
}

// Index returns the position of the cell, or -1.
func (s *Store) Index(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(id)
}

func (s *Store) index(id string) int {
	for i := range s.cells {
		if s.cells[i].ID == id {
			return i
		}
	}
	return -1
}

// Cells returns a snapshot of the sequence in order.
func (s *Store) Cells() []Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Len returns the number of cells.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}
