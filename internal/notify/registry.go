package notify

import "sync"

// Registry tracks which live listeners are waiting on which job ids.
// Membership is per (job id, listener) pair: one connection watching three
// ids appears in three sets.
type Registry struct {
	mu        sync.Mutex
	listeners map[string][]Listener
}

func NewRegistry() *Registry {
	return &Registry{
		listeners: make(map[string][]Listener),
	}
}

// Subscribe registers l for jobID. It returns immediately; the caller owns
// its own timeout if the id never resolves.
func (r *Registry) Subscribe(jobID string, l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners[jobID] = append(r.listeners[jobID], l)
}

// Unsubscribe removes one registration of l from jobID's set and reports
// whether l was still registered. Unsubscribing a listener that was already
// drained or never subscribed is a no-op. Empty sets are removed entirely.
func (r *Registry) Unsubscribe(jobID string, l Listener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.listeners[jobID]
	if !ok {
		return false
	}
	for i, existing := range set {
		if existing == l {
			set = append(set[:i], set[i+1:]...)
			if len(set) == 0 {
				delete(r.listeners, jobID)
			} else {
				r.listeners[jobID] = set
			}
			return true
		}
	}
	return false
}

// DrainAndClear atomically removes and returns every listener registered for
// jobID. Listeners subscribing after the drain see only the store fast path.
func (r *Registry) DrainAndClear(jobID string) []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.listeners[jobID]
	delete(r.listeners, jobID)
	return set
}

// PendingIDs returns every job id that currently has at least one listener.
func (r *Registry) PendingIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) count(jobID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[jobID])
}
