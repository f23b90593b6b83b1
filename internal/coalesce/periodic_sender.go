// Package coalesce implements the latest-wins, bounded-rate output buffer
// shared by every direction of the bridge (spec.md §4.2, C2), grounded on
// original_source/src/periodic_update_sender.rs.
package coalesce

import (
	"errors"
	"sync"
	"time"
)

// ErrSinkClosed is returned by SetValue once the drainer has observed the
// sink reject an emission.
var ErrSinkClosed = errors.New("coalesce: sink closed")

// Sink receives one coalesced value. It returns ErrSinkClosed (or a wrapped
// form of it) when the underlying destination can no longer accept values.
type Sink[T any] func(value T) error

// PeriodicUpdateSender buffers writes to a single latest-wins slot and
// drains it to sink at most once per period. A drainer goroutine runs only
// while there is outstanding work; it exits after one empty tick.
type PeriodicUpdateSender[T any] struct {
	sink   Sink[T]
	period time.Duration

	mu      sync.Mutex
	pending *T
	active  bool
	failed  error
	done    chan struct{}
}

// New constructs a sender. It does not probe the sink; a closed sink is only
// discovered on the first emission attempt, matching the contract for
// sinks (such as channels) with no synchronous closed-check.
func New[T any](sink Sink[T], period time.Duration) *PeriodicUpdateSender[T] {
	return &PeriodicUpdateSender[T]{sink: sink, period: period}
}

// SetValue replaces the pending slot, discarding any unflushed value, and
// ensures a drainer is running. It returns ErrSinkClosed if a previous
// drainer observed the sink close.
func (p *PeriodicUpdateSender[T]) SetValue(value T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failed != nil {
		return p.failed
	}

	v := value
	p.pending = &v

	if !p.active {
		p.active = true
		p.done = make(chan struct{})
		go p.drain(p.done)
	}
	return nil
}

// IsSending reports whether a drainer is currently alive. A true result is
// the local-authority signal used for echo suppression: while the drainer
// is alive, the sender (not the console) currently owns this control.
func (p *PeriodicUpdateSender[T]) IsSending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *PeriodicUpdateSender[T]) drain(done chan struct{}) {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	defer close(done)

	for range ticker.C {
		p.mu.Lock()
		v := p.pending
		if v == nil {
			p.active = false
			p.mu.Unlock()
			return
		}
		p.pending = nil
		sink := p.sink
		p.mu.Unlock()

		if err := sink(*v); err != nil {
			p.mu.Lock()
			p.active = false
			p.failed = errors.Join(ErrSinkClosed, err)
			p.mu.Unlock()
			return
		}
	}
}
