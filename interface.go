// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqwire

import (
	"io"

	"github.com/reqwire/reqwire/request"
)

// A Delegate receives the user-facing life of one request: the
// response head, the response body one part at a time, and exactly one
// terminal callback, Succeed or Fail, never both and never twice.
//
// Delegate methods are invoked on the transaction's calling goroutines
// and should return promptly; a Delegate that wants to process body
// parts slowly exerts backpressure simply by taking its time, since
// the next part is not requested until ReceiveResponseBodyPart
// returns.
//
// Returning a non-nil error from ReceiveResponseBodyPart abandons the
// request: the transaction cancels the execution and Fail is invoked,
// with this error or with a connection error that was already in
// flight, whichever happened first.
type Delegate interface {
	ReceiveResponseHead(head request.ResponseHead)
	ReceiveResponseBodyPart(part request.Part) error
	Succeed()
	Fail(err error)
}

// A BodyProducer supplies the request body one part at a time.
// NextPart returns io.EOF when the body is complete, and any other
// error to fail the request. NextPart is called from a single
// goroutine owned by the transaction and may block; backpressure from
// the connection is applied between calls, so a producer never runs
// ahead of the wire.
type BodyProducer interface {
	NextPart() (request.Part, error)
}

// NewBytesProducer returns a BodyProducer streaming b in parts of at
// most chunkSize bytes.
func NewBytesProducer(b []byte, chunkSize int) BodyProducer {
	if chunkSize < 1 {
		panic("reqwire: chunk size must be at least 1")
	}
	return &bytesProducer{rest: b, chunkSize: chunkSize}
}

type bytesProducer struct {
	rest      []byte
	chunkSize int
}

func (p *bytesProducer) NextPart() (request.Part, error) {
	if len(p.rest) == 0 {
		return request.Part{}, io.EOF
	}
	n := p.chunkSize
	if n > len(p.rest) {
		n = len(p.rest)
	}
	part := request.PartOf(p.rest[:n])
	p.rest = p.rest[n:]
	return part, nil
}

// A Wire is the connection handler's surface onto the transport: the
// serialization of heads, parts, and terminators into bytes, the
// issuing of reads, and teardown. Implementations live with the
// transport; reqwire only calls them.
//
// Wire methods are invoked in transition order from the goroutines
// feeding the connection handler.
type Wire interface {
	// WriteRequestHead serializes the request head.
	WriteRequestHead(head request.Head)
	// WriteBodyPart serializes one request body part.
	WriteBodyPart(part request.Part)
	// WriteRequestEnd serializes the request terminator.
	WriteRequestEnd()
	// IssueRead asks the transport to read more response bytes.
	IssueRead()
	// Close tears the connection down.
	Close()
}
