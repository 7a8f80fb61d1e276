// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package reqwire implements the per-request core of an asynchronous
HTTP client: a pair of cooperating state machines that carry one
request from submission to exactly-once completion, plus the
transaction driver that bridges them.

The connection-side machine (package conn) sees the request as the
socket does: head and body framing going out, writability-driven
backpressure on the body producer, response parsing coming back, the
idle-read timeout. The task-side machine (package task) sees the
request as its owner does: queueing, executor binding, upload acks,
download buffering ahead of a pull-based consumer, redirects, and
cancellation. The machines share no memory and never call each other;
each transition returns an action value, and this package's Transaction
and ConnectionHandler execute those actions against one another.

A minimal round trip wires a delegate, a body producer, and a wire:

	tx := reqwire.NewTransaction(reqwire.TransactionConfig{
		Head:     head,
		Framing:  framing,
		Producer: reqwire.NewBytesProducer(body, 4096),
		Delegate: delegate,
	})
	h := reqwire.NewConnectionHandler(tx, wire, true, timeout.DefaultPolicy)
	h.Start()
	// transport feeds h.ResponseHeadReceived, h.ResponseBodyPartReceived,
	// h.ReadCompleted, h.ResponseEndReceived, h.ChannelInactive, ...

Everything below the Wire interface, connecting, TLS, pooling, and the
bytes-to-frames codec, is someone else's problem and stays behind that
interface.

To observe the request lifecycle, install handlers into a HandlerGroup,
in the manner of:

	handlers := &reqwire.HandlerGroup{}
	handlers.PushBack(reqwire.RequestEnded, reqwire.HandlerFunc(
		func(_ reqwire.Event, tx *reqwire.Transaction) {
			log.Printf("request %s done: %v", tx.ID(), tx.Err())
		}))
*/
package reqwire
