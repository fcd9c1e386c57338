package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/emotune/emotune/internal/notify"
	"github.com/emotune/emotune/pkg/log"
	"github.com/google/uuid"
)

// sseListener adapts one event-stream connection to the notify.Listener
// capability. The channel is buffered to the number of watched ids, and each
// id is delivered at most once, so Deliver never blocks the broker.
type sseListener struct {
	id string
	ch chan notify.Record
}

func newSSEListener(capacity int) *sseListener {
	return &sseListener{
		id: uuid.NewString(),
		ch: make(chan notify.Record, capacity),
	}
}

func (l *sseListener) Deliver(rec notify.Record) error {
	select {
	case l.ch <- rec:
		return nil
	default:
		return fmt.Errorf("listener %s: delivery buffer full", l.id)
	}
}

// handleEvents opens the long-lived push channel. Ids already resolved are
// served from the store immediately; the rest register this connection as a
// listener until their result arrives or the caller disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ids := splitIDs(r.URL.Query().Get("clipIds"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "clipIds is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	l := newSSEListener(len(ids))
	subscribed := make([]string, 0, len(ids))
	defer func() {
		// Idempotent: ids drained by a resolution in the meantime are no-ops.
		for _, id := range subscribed {
			s.registry.Unsubscribe(id, l)
		}
		if len(subscribed) > 0 {
			log.Debug("Listener %s detached from %d id(s)", l.id, len(subscribed))
		}
	}()

	awaiting := 0
	for _, id := range ids {
		if rec, ok := s.store.Get(id); ok {
			if !writeCompleteEvent(w, flusher, rec) {
				return
			}
			continue
		}

		s.registry.Subscribe(id, l)
		// The id may have resolved between the store miss and the
		// subscribe. If we can still unsubscribe, no fan-out touched us
		// and the store is authoritative; otherwise the drain already
		// queued a delivery on our channel.
		if rec, ok := s.store.Get(id); ok && s.registry.Unsubscribe(id, l) {
			if !writeCompleteEvent(w, flusher, rec) {
				return
			}
			continue
		}
		subscribed = append(subscribed, id)
		awaiting++
	}

	if awaiting == 0 {
		return
	}
	log.Debug("Listener %s attached, awaiting %d of %d id(s)", l.id, awaiting, len(ids))

	keepAlive := time.NewTicker(s.keepAliveInterval)
	defer keepAlive.Stop()

	for awaiting > 0 {
		select {
		case <-r.Context().Done():
			return
		case rec := <-l.ch:
			if !writeCompleteEvent(w, flusher, rec) {
				return
			}
			awaiting--
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeCompleteEvent(w http.ResponseWriter, flusher http.Flusher, rec notify.Record) bool {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "event: complete\ndata: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
