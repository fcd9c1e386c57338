package wait

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emotune/emotune/internal/config"
	"github.com/emotune/emotune/internal/notify"
	"github.com/emotune/emotune/pkg/log"
)

// State is the wait strategy's position in its lifecycle.
type State string

const (
	StateStarted       State = "started"
	StateAwaitingPush  State = "awaiting_push"
	StateAwaitingPull  State = "awaiting_pull"
	StateResolved      State = "resolved"
	StatePullExhausted State = "pull_exhausted"
)

// ErrExhausted is returned when neither the push channel nor the poll budget
// produced a result. It is a retryable condition for the caller, not a fatal
// one.
var ErrExhausted = errors.New("generation result did not arrive in time")

// PushSource is the live subscription channel: Await blocks until a
// completion for one of ids arrives, or ctx ends.
type PushSource interface {
	Await(ctx context.Context, ids []string) (notify.Record, error)
}

// Poller is the reconciliation fallback: one bounded status query.
type Poller interface {
	Poll(ctx context.Context, ids []string) (found []notify.Record, pending []string, err error)
}

// Config tunes the wait strategy. Zero values fall back to the reference
// behavior: 120s push window, 5s poll spacing, 30 attempts.
type Config struct {
	PushTimeout  time.Duration
	PollInterval time.Duration
	PollAttempts int
	Clock        Clock
}

// FromConfig converts the env-driven wait settings into a strategy Config.
// Non-positive values fall through to the built-in defaults.
func FromConfig(c config.WaitConfig) Config {
	return Config{
		PushTimeout:  time.Duration(c.PushTimeoutSec) * time.Second,
		PollInterval: time.Duration(c.PollIntervalSec) * time.Second,
		PollAttempts: c.PollAttempts,
	}
}

func (c Config) withDefaults() Config {
	if c.PushTimeout <= 0 {
		c.PushTimeout = 120 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = 30
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	return c
}

// Waiter runs the client-side wait for one generation request: a bounded
// wait on the push channel, then bounded-attempt polling. Terminal states
// are StateResolved and StatePullExhausted.
type Waiter struct {
	cfg  Config
	push PushSource
	poll Poller

	mu    sync.Mutex
	state State
}

func New(push PushSource, poll Poller, cfg Config) *Waiter {
	return &Waiter{
		cfg:   cfg.withDefaults(),
		push:  push,
		poll:  poll,
		state: StateStarted,
	}
}

// State returns the current lifecycle position.
func (w *Waiter) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Waiter) transition(next State) {
	w.mu.Lock()
	w.state = next
	w.mu.Unlock()
}

// Wait blocks until a completion record for one of ids arrives, the caller's
// ctx is canceled, or both phases are exhausted. Canceling ctx aborts the
// push attachment and the poll loop without leaking either.
func (w *Waiter) Wait(ctx context.Context, ids []string) (notify.Record, error) {
	if len(ids) == 0 {
		return notify.Record{}, fmt.Errorf("no job ids to wait for")
	}

	rec, ok, err := w.awaitPush(ctx, ids)
	if err != nil {
		return notify.Record{}, err
	}
	if ok {
		w.transition(StateResolved)
		return rec, nil
	}

	return w.awaitPull(ctx, ids)
}

type pushResult struct {
	rec notify.Record
	err error
}

// awaitPush attaches to the push source for at most cfg.PushTimeout. The
// boolean reports whether a record arrived; a timeout is not an error here,
// it hands over to the pull phase.
func (w *Waiter) awaitPush(ctx context.Context, ids []string) (notify.Record, bool, error) {
	w.transition(StateAwaitingPush)

	pushCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan pushResult, 1)
	go func() {
		rec, err := w.push.Await(pushCtx, ids)
		results <- pushResult{rec: rec, err: err}
	}()

	select {
	case <-ctx.Done():
		return notify.Record{}, false, ctx.Err()
	case <-w.cfg.Clock.After(w.cfg.PushTimeout):
		log.Debug("Push window elapsed, falling back to polling for %v", ids)
		return notify.Record{}, false, nil
	case res := <-results:
		if res.err != nil {
			if ctx.Err() != nil {
				return notify.Record{}, false, ctx.Err()
			}
			// A broken stream is not terminal; the pull phase covers it.
			log.Warn("Push channel failed, falling back to polling: %v", res.err)
			return notify.Record{}, false, nil
		}
		return res.rec, true, nil
	}
}

func (w *Waiter) awaitPull(ctx context.Context, ids []string) (notify.Record, error) {
	w.transition(StateAwaitingPull)

	for attempt := 1; attempt <= w.cfg.PollAttempts; attempt++ {
		found, _, err := w.poll.Poll(ctx, ids)
		if err != nil {
			log.Warn("Poll attempt %d/%d failed: %v", attempt, w.cfg.PollAttempts, err)
		} else if len(found) > 0 {
			w.transition(StateResolved)
			return found[0], nil
		}

		select {
		case <-ctx.Done():
			return notify.Record{}, ctx.Err()
		case <-w.cfg.Clock.After(w.cfg.PollInterval):
		}
	}

	w.transition(StatePullExhausted)
	return notify.Record{}, ErrExhausted
}
