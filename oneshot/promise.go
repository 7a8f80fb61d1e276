// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"context"
	"sync"
)

// A Promise is a one-shot completion handle. The zero value is not
// usable; create instances with New, Succeeded, or Failed.
//
// A Promise is safe for concurrent use. It is settled at most once:
// the first call to Succeed or Fail wins and later calls are no-ops,
// so a waiter observes exactly one success or exactly one failure.
type Promise struct {
	done chan struct{}

	mu      sync.Mutex
	settled bool
	err     error
}

// New returns a new unsettled Promise.
func New() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Succeeded returns a Promise that is already settled successfully.
// Waiting on it never blocks.
func Succeeded() *Promise {
	p := New()
	p.Succeed()
	return p
}

// Failed returns a Promise that is already settled with err.
func Failed(err error) *Promise {
	p := New()
	p.Fail(err)
	return p
}

// Succeed settles the Promise successfully. It is a no-op if the
// Promise is already settled.
func (p *Promise) Succeed() {
	p.settle(nil)
}

// Fail settles the Promise with err. It is a no-op if the Promise is
// already settled. A nil err is a programmer error.
func (p *Promise) Fail(err error) {
	if err == nil {
		panic("oneshot: fail with nil error")
	}
	p.settle(err)
}

func (p *Promise) settle(err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.settled = true
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

// Done returns a channel that is closed once the Promise is settled.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Err returns the settlement error, or nil if the Promise succeeded or
// is not yet settled. Callers should only consult Err after Done is
// closed.
func (p *Promise) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Wait blocks until the Promise is settled or the context is done. It
// returns the settlement error, or the context error if the context
// won.
func (p *Promise) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
