package notify

import "sync"

// Store correlates job ids with their completion records. Records are written
// once (first writer wins) and read many times. There is no eviction; the
// store lives for the life of the process.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]Record),
	}
}

// Put stores rec under jobID if no record exists yet. It reports whether the
// record was stored; false means an earlier record is already in place and
// rec was discarded.
func (s *Store) Put(jobID string, rec Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[jobID]; ok {
		return false
	}
	s.records[jobID] = rec
	return true
}

func (s *Store) Get(jobID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[jobID]
	return rec, ok
}

// Partition splits jobIDs into records already resolved here and ids still
// pending. Input order is preserved in both halves.
func (s *Store) Partition(jobIDs []string) (found []Record, pending []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found = make([]Record, 0, len(jobIDs))
	pending = make([]string, 0)
	for _, id := range jobIDs {
		if rec, ok := s.records[id]; ok {
			found = append(found, rec)
		} else {
			pending = append(pending, id)
		}
	}
	return found, pending
}
