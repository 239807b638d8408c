package store

import (
	"sync"

	"fintrack/internal/core"
)

// Selection is the edit-mode state: Closed, or Open with the record being edited.
type Selection struct {
	mu     sync.Mutex
	record core.Record
	open   bool
}

// Select opens the selection on r. Selecting again replaces the record.
func (s *Selection) Select(r core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = r
	s.open = true
}

// Clear closes the selection from any state.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = core.Record{}
	s.open = false
}

// ClearIf closes the selection only when it is open on id.
func (s *Selection) ClearIf(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || s.record.ID != id {
		return false
	}
	s.record = core.Record{}
	s.open = false
	return true
}

// Current returns the selected record and whether the selection is open.
func (s *Selection) Current() (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, s.open
}
