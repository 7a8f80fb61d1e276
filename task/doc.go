// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package task contains the task-side request state machine: the state of
one HTTP request as seen by its owner, on the other side of the
executor from the connection.

Where package conn worries about the wire, this machine worries about
the request's whole life: waiting in a scheduler queue, binding to an
executor, feeding the request body producer with backpressure through
one-shot acks, buffering response body parts ahead of a pull-based
consumer, intercepting redirects, and cancellation from any direction.

The two machines never touch each other. The executor between them
turns the conn machine's actions into calls on this one and vice
versa, hopping goroutines as needed; this machine's methods must
themselves be serialized by their owner.

Methods return per-operation action values (ResumeAction, WriteAction,
ConsumeAction, ...) rather than one shared action type, because the
legal follow-ups differ per operation and the type system may as well
say so.
*/
package task
