// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqwire

import "strconv"

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Transaction to observe its
// lifecycle.
type Event int

const (
	// RequestQueued identifies the event that occurs when the request
	// is placed in a scheduler queue to wait for a connection.
	//
	// When the transaction fires RequestQueued, no executor is bound
	// yet and nothing has been sent.
	RequestQueued Event = iota
	// RequestWillExecute identifies the event that occurs when the
	// request is bound to an executor, immediately before the request
	// head is sent, or held for sending until the channel becomes
	// writable.
	RequestWillExecute
	// ResponseHeadReceived identifies the event that occurs when the
	// response head arrives, after redirect interception has been
	// decided but regardless of its outcome.
	//
	// When the transaction fires ResponseHeadReceived, the response
	// head is available from the transaction. The response body has
	// not been delivered yet.
	ResponseHeadReceived
	// RequestRedirected identifies the event that occurs when a
	// response was intercepted as a redirect and the request is about
	// to be handed back for re-execution against the target URL.
	//
	// The delegate never observes the intercepted response;
	// RequestRedirected is the only externally visible trace of it.
	RequestRedirected
	// RequestEnded identifies the event that occurs when the request
	// reaches its terminal state, immediately before the delegate's
	// terminal callback. It fires exactly once per transaction that
	// terminates, and never for one that ends in a redirect.
	RequestEnded
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of event types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"RequestQueued",
	"RequestWillExecute",
	"ResponseHeadReceived",
	"RequestRedirected",
	"RequestEnded",
}

// Events returns a slice containing all events which can occur in the
// life of a transaction, in the order in which they would occur.
func Events() []Event {
	return []Event{
		RequestQueued,
		RequestWillExecute,
		ResponseHeadReceived,
		RequestRedirected,
		RequestEnded,
	}
}

// Name returns the event's name.
func (evt Event) Name() string {
	if evt < 0 || evt >= eventSentinel {
		return "Event(" + strconv.Itoa(int(evt)) + ")"
	}
	return eventNames[evt]
}

// String returns the event's name.
func (evt Event) String() string {
	return evt.Name()
}
