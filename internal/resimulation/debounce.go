package resimulation

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Dan9191/savings-planner/internal/models"
)

// Debouncer coalesces bursts of calls per key with trailing-edge semantics:
// a call proceeds only if no newer call for the same key arrived during the
// quiet period. Keys are independent.
type Debouncer struct {
	quiet time.Duration

	mu   sync.Mutex
	next uint64 // shared by all keys so a sequence is never reused
	keys map[string]*pending
}

type pending struct {
	latest  uint64
	waiters int
}

// NewDebouncer initializes a debouncer. A zero quiet period lets every call through.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet: quiet,
		keys:  make(map[string]*pending),
	}
}

// Key builds the debounce key for a goal of a plan.
func Key(planID string, goalIndex int) string {
	return planID + "/" + strconv.Itoa(goalIndex)
}

// Wait blocks for the quiet period. It returns models.ErrSuperseded when a
// newer call for the same key arrived meanwhile, or the context error if
// ctx ends first. A cancelled call still counts as the newest one, so
// older waiters stay superseded.
func (d *Debouncer) Wait(ctx context.Context, key string) error {
	if d.quiet <= 0 {
		return nil
	}

	d.mu.Lock()
	d.next++
	mine := d.next
	p, ok := d.keys[key]
	if !ok {
		p = &pending{}
		d.keys[key] = p
	}
	p.latest = mine
	p.waiters++
	d.mu.Unlock()
	defer d.leave(key, p)

	timer := time.NewTimer(d.quiet)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if p.latest != mine {
		return models.ErrSuperseded
	}
	return nil
}

// leave forgets the key once its last waiter is gone.
func (d *Debouncer) leave(key string, p *pending) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.waiters--
	if p.waiters == 0 && d.keys[key] == p {
		delete(d.keys, key)
	}
}
