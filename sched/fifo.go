// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sched

import (
	"sync"

	"github.com/reqwire/reqwire/request"
)

// A FIFO is a run queue for requests. Enqueued requests are dispatched
// in order, with at most the configured number running at a time; a
// dispatch goroutine that finishes one request goes on to run the next
// queued one. FIFO is safe for concurrent use by multiple goroutines.
type FIFO struct {
	lock    sync.Mutex
	limit   int
	running int
	queue   []entry
}

type entry struct {
	id  request.ID
	run func()
}

// NewFIFO constructs a FIFO dispatching at most concurrency requests
// at a time.
func NewFIFO(concurrency int) *FIFO {
	if concurrency < 1 {
		panic("sched: concurrency must be at least 1")
	}
	return &FIFO{limit: concurrency}
}

// Enqueue submits a request under the given ID. If a dispatch slot is
// free the request starts immediately; otherwise it waits its turn.
// The run function is invoked on a dispatch goroutine, a fresh one if
// it starts immediately, otherwise the one whose slot it inherits. It
// must block until the request is finished, since its return is what
// frees the dispatch slot.
func (f *FIFO) Enqueue(id request.ID, run func()) {
	if run == nil {
		panic("sched: nil run function")
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.running < f.limit {
		f.running++
		go f.dispatch(run)
		return
	}
	f.queue = append(f.queue, entry{id: id, run: run})
}

// CancelRequest removes a still-queued request so it never runs, and
// reports whether it did so. A request that was already dispatched, or
// was never enqueued, is left alone and false is returned.
func (f *FIFO) CancelRequest(id request.ID) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	for i := range f.queue {
		if f.queue[i].id == id {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return true
		}
	}
	return false
}

// QueuedCount returns the number of requests waiting for a dispatch
// slot.
func (f *FIFO) QueuedCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.queue)
}

func (f *FIFO) dispatch(run func()) {
	for {
		run()

		f.lock.Lock()
		if len(f.queue) == 0 {
			f.running--
			f.lock.Unlock()
			return
		}
		run = f.queue[0].run
		f.queue = f.queue[1:]
		f.lock.Unlock()
	}
}
