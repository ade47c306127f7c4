package repositories

import (
	"sync"

	"blogapi/internal/models"
)

// Entity is a record kind that can live in a MemoryStore.
type Entity[T any] interface {
	EntityID() int
	Clone() T
}

// MemoryStore is an insertion-ordered in-memory collection of records with a
// monotonic id counter. Ids start at 1 and are never reused, even after deletion.
//
// Lookups by id scan the collection linearly.
type MemoryStore[T Entity[T]] struct {
	mu      sync.RWMutex
	records []T
	nextID  int
}

// NewMemoryStore creates an empty store whose first record gets id 1.
func NewMemoryStore[T Entity[T]]() *MemoryStore[T] {
	return &MemoryStore[T]{nextID: 1}
}

// List returns the page of the records accepted by match selected by opts, in
// insertion order. A nil match accepts every record.
func (s *MemoryStore[T]) List(opts models.ListOptions, match func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.records
	if match != nil {
		matched = make([]T, 0, len(s.records))
		for _, r := range s.records {
			if match(r) {
				matched = append(matched, r)
			}
		}
	}

	start, end := opts.Window(len(matched))
	result := make([]T, 0, end-start)
	for _, r := range matched[start:end] {
		result = append(result, r.Clone())
	}
	return result
}

// Get returns the record with the given id.
func (s *MemoryStore[T]) Get(id int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return s.records[i].Clone(), true
}

// Find returns the first record accepted by match.
func (s *MemoryStore[T]) Find(match func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if match(r) {
			return r.Clone(), true
		}
	}
	var zero T
	return zero, false
}

// Insert reserves the next id, builds the record with it and appends it.
// build must return a record carrying the id it was given.
func (s *MemoryStore[T]) Insert(build func(id int) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	record := build(id).Clone()
	s.records = append(s.records, record)
	s.nextID++
	return record.Clone()
}

// Modify applies fn to the stored record with the given id.
func (s *MemoryStore[T]) Modify(id int, fn func(*T)) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	record := s.records[i].Clone()
	fn(&record)
	s.records[i] = record
	return record.Clone(), true
}

// Remove deletes the record with the given id and reports whether it existed.
func (s *MemoryStore[T]) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return true
}

// Len returns the number of stored records.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// indexOf must be called with s.mu held.
func (s *MemoryStore[T]) indexOf(id int) int {
	for i, r := range s.records {
		if r.EntityID() == id {
			return i
		}
	}
	return -1
}
