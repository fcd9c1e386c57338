package notify

import "github.com/emotune/emotune/pkg/log"

// CompletionHook observes the first resolution of a job id. Hooks run
// synchronously inside Resolve, before fan-out.
type CompletionHook func(jobID string, rec Record)

// Broker ties the correlation store to the subscription registry: Resolve
// records a completion once, then fans it out to every listener attached at
// that moment. The webhook path and the reconciliation path both converge
// here.
type Broker struct {
	store    *Store
	registry *Registry
	hooks    []CompletionHook
}

func NewBroker(store *Store, registry *Registry, hooks ...CompletionHook) *Broker {
	return &Broker{
		store:    store,
		registry: registry,
		hooks:    hooks,
	}
}

// Resolve stores rec for jobID (first writer wins) and delivers the stored
// record to every listener drained from the registry. Draining before
// delivering guarantees each listener at most one delivery per job; listeners
// attaching after the drain are served from the store instead. A failed
// delivery to one listener never blocks the others and never surfaces to the
// caller. Resolve returns only after delivery has been attempted to every
// drained listener.
func (b *Broker) Resolve(jobID string, rec Record) {
	if b.store.Put(jobID, rec) {
		for _, hook := range b.hooks {
			hook(jobID, rec)
		}
	}

	drained := b.registry.DrainAndClear(jobID)
	if len(drained) == 0 {
		return
	}

	// Deliver the stored record, not the argument: a losing concurrent
	// Resolve must fan out the winner's payload.
	canonical, _ := b.store.Get(jobID)
	for _, l := range drained {
		if err := l.Deliver(canonical); err != nil {
			log.Warn("Dropped delivery of job %s to a listener: %v", jobID, err)
		}
	}
}
