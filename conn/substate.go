// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import "github.com/reqwire/reqwire/request"

// bodyStream is the response-stream sub-state: a small FIFO of
// response body parts plus a flag saying whether the consumer above is
// caught up. It is what gives the machine two-way backpressure: it
// withholds Read from the channel while the consumer is behind, and it
// batches inbound parts so they are handed up once per read burst
// rather than once per part.
type bodyStream struct {
	buffered []request.Part

	// waitingForDemand is set after a batch has been handed up and
	// cleared when the consumer demands more. While set, no further
	// channel reads are requested.
	waitingForDemand bool
}

func newBodyStream() *bodyStream {
	return &bodyStream{}
}

func (s *bodyStream) receivedBodyPart(p request.Part) {
	s.buffered = append(s.buffered, p)
}

// channelReadComplete returns the batch to hand up at the end of a
// read burst, or nil if nothing arrived. Handing up a batch puts the
// sub-state into waiting-for-demand.
func (s *bodyStream) channelReadComplete() []request.Part {
	if len(s.buffered) == 0 {
		return nil
	}
	batch := s.buffered
	s.buffered = nil
	s.waitingForDemand = true
	return batch
}

// read answers whether the channel should issue another read.
func (s *bodyStream) read() Action {
	if s.waitingForDemand {
		return Wait{}
	}
	return Read{}
}

// demandMoreResponseBodyParts records that the consumer is caught up
// and wants more.
func (s *bodyStream) demandMoreResponseBodyParts() Action {
	if len(s.buffered) > 0 {
		// Bytes are already in hand; they go up at the next read
		// burst boundary.
		return Wait{}
	}
	s.waitingForDemand = false
	return Read{}
}

// end drains whatever is still buffered. The sub-state is dead
// afterwards.
func (s *bodyStream) end() []request.Part {
	remaining := s.buffered
	s.buffered = nil
	return remaining
}
