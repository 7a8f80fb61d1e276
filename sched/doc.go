// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package sched provides a request scheduler: the component that holds
requests between submission and execution and supports cancelling them
while they wait.

A FIFO dispatches enqueued requests in submission order, running at
most its concurrency limit at a time. A request that is cancelled while
still queued never runs; cancelling a request that has already been
dispatched is a no-op here, because from that point on cancellation is
the executing request's own business (task.StateMachine.Fail).

	f := sched.NewFIFO(8)
	f.Enqueue(id, func() { ... execute the request ... })
	...
	f.CancelRequest(id)
*/
package sched
