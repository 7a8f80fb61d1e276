// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"fmt"

	"github.com/reqwire/reqwire/clienterror"
	"github.com/reqwire/reqwire/request"
)

type phase int

const (
	phaseInitialized phase = iota
	phaseWaitForWritable
	phaseRunning
	phaseFinished
	phaseFailed
)

var phaseNames = []string{
	"initialized",
	"waitForChannelToBecomeWritable",
	"running",
	"finished",
	"failed",
}

func (p phase) String() string {
	return phaseNames[p]
}

type requestPhase int

const (
	// requestStreaming: the request body is still being produced.
	requestStreaming requestPhase = iota
	// requestEndSent: the request, terminator included, is fully on
	// the wire (or needs no body at all).
	requestEndSent
)

type responsePhase int

const (
	responseWaitingForHead responsePhase = iota
	responseReceivingBody
	responseEndReceived
)

// A StateMachine drives one HTTP request on one channel. It is not
// safe for concurrent use: all methods must be called from the
// goroutine that owns the channel.
//
// Every method returns the single Action the caller must execute.
// Once a terminal action (SucceedRequest or FailRequest) has been
// returned, the machine absorbs further events and answers Wait, so
// late timers, reads, and cancellations after completion are harmless.
type StateMachine struct {
	phase    phase
	writable bool

	// head and framing delayed until the channel becomes writable.
	// Meaningful only in phaseWaitForWritable.
	pendingHead    request.Head
	pendingFraming request.BodyFraming

	reqPhase requestPhase
	// expectedBodyLength is the declared request body length, or -1
	// for chunked bodies. Meaningful only while requestStreaming.
	expectedBodyLength int64
	sentBodyBytes      int64
	producerPaused     bool

	respPhase responsePhase
	respHead  request.ResponseHead
	body      *bodyStream
}

// New creates a machine for one request attempt on a channel whose
// current writability is isChannelWritable.
func New(isChannelWritable bool) *StateMachine {
	return &StateMachine{
		writable:           isChannelWritable,
		expectedBodyLength: -1,
	}
}

// Start begins the request. If the channel is writable the returned
// action sends the request head immediately; otherwise the head is
// held until the next WritabilityChanged(true).
func (m *StateMachine) Start(head request.Head, framing request.BodyFraming) Action {
	if m.phase != phaseInitialized {
		panic(fmt.Sprintf("conn: start in state %v", m.phase))
	}
	if !m.writable {
		m.phase = phaseWaitForWritable
		m.pendingHead = head
		m.pendingFraming = framing
		return Wait{}
	}
	return m.sendHead(head, framing)
}

func (m *StateMachine) sendHead(head request.Head, framing request.BodyFraming) Action {
	m.phase = phaseRunning
	m.respPhase = responseWaitingForHead
	startBody := framing.StartsBody()
	if startBody {
		m.reqPhase = requestStreaming
		if n, ok := framing.ExpectedLength(); ok {
			m.expectedBodyLength = n
		}
	} else {
		m.reqPhase = requestEndSent
	}
	return SendRequestHead{Head: head, StartBody: startBody}
}

// WritabilityChanged records the channel's new writability. Repeated
// calls with the same value are allowed. Losing writability while the
// body producer runs pauses it; regaining writability resumes it,
// unless an error-class response has permanently short-circuited the
// upload.
func (m *StateMachine) WritabilityChanged(writable bool) Action {
	was := m.writable
	m.writable = writable

	switch m.phase {
	case phaseInitialized, phaseFinished, phaseFailed:
		return Wait{}
	case phaseWaitForWritable:
		if !writable {
			return Wait{}
		}
		head, framing := m.pendingHead, m.pendingFraming
		m.pendingHead, m.pendingFraming = request.Head{}, request.BodyFraming{}
		return m.sendHead(head, framing)
	case phaseRunning:
		if m.reqPhase != requestStreaming {
			return Wait{}
		}
		if was && !writable && !m.producerPaused {
			m.producerPaused = true
			return PauseRequestBodyStream{}
		}
		if !was && writable && m.producerPaused {
			if m.uploadShortCircuited() {
				return Wait{}
			}
			m.producerPaused = false
			return ResumeRequestBodyStream{}
		}
		return Wait{}
	}
	panic(fmt.Sprintf("conn: writability changed in state %v", m.phase))
}

// uploadShortCircuited reports whether an error-class response head
// has arrived. Once it has, the producer stays paused for good.
func (m *StateMachine) uploadShortCircuited() bool {
	return m.respPhase != responseWaitingForHead && m.respHead.Status >= 300
}

// RequestStreamPartReceived accepts one request body part from the
// producer. The cumulative body size is checked against the declared
// length; overshooting it fails the request, because the wire can no
// longer be kept in sync with the head already sent.
func (m *StateMachine) RequestStreamPartReceived(part request.Part) Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseRunning:
	default:
		panic(fmt.Sprintf("conn: request body part in state %v", m.phase))
	}
	if m.reqPhase != requestStreaming {
		panic("conn: request body part after request stream finished")
	}

	if m.uploadShortCircuited() {
		if !m.producerPaused {
			panic("conn: producer running after error-class response")
		}
		return Wait{}
	}

	m.sentBodyBytes += int64(part.Len())
	if m.expectedBodyLength >= 0 && m.sentBodyBytes > m.expectedBodyLength {
		return m.failWith(clienterror.BodyLengthMismatch, FinalClose)
	}
	return SendBodyPart{Part: part}
}

// RequestStreamFinished accepts the end of the request body stream.
func (m *StateMachine) RequestStreamFinished() Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseRunning:
	default:
		panic(fmt.Sprintf("conn: request stream finished in state %v", m.phase))
	}
	if m.reqPhase != requestStreaming {
		panic("conn: request stream finished twice")
	}

	if m.uploadShortCircuited() {
		// The upload was discarded; the response end settles the
		// request.
		return Wait{}
	}

	if m.expectedBodyLength >= 0 && m.sentBodyBytes != m.expectedBodyLength {
		return m.failWith(clienterror.BodyLengthMismatch, FinalClose)
	}

	if m.respPhase == responseEndReceived {
		m.phase = phaseFinished
		return SucceedRequest{Final: FinalSendRequestEnd}
	}
	m.reqPhase = requestEndSent
	return SendRequestEnd{}
}

// ChannelReadHead accepts a parsed response head from the channel.
// Interim 1xx responses are ignored. An error-class head received
// while the request body is still streaming pauses the producer
// permanently; the caller learns this via the
// ForwardResponseHead.PauseRequestBodyStream flag.
func (m *StateMachine) ChannelReadHead(head request.ResponseHead) Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseRunning:
	default:
		panic(fmt.Sprintf("conn: response head in state %v", m.phase))
	}
	if m.respPhase != responseWaitingForHead {
		panic("conn: second response head")
	}

	if head.Informational() {
		return Wait{}
	}

	m.respHead = head
	m.respPhase = responseReceivingBody
	m.body = newBodyStream()

	if head.Status >= 300 && m.reqPhase == requestStreaming && !m.producerPaused {
		m.producerPaused = true
		return ForwardResponseHead{Head: head, PauseRequestBodyStream: true}
	}
	return ForwardResponseHead{Head: head}
}

// ChannelReadBodyPart accepts one response body part from the channel.
// Parts are buffered and handed up in batches at ChannelReadComplete.
func (m *StateMachine) ChannelReadBodyPart(part request.Part) Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseRunning:
	default:
		panic(fmt.Sprintf("conn: response body part in state %v", m.phase))
	}
	if m.respPhase != responseReceivingBody {
		panic("conn: response body part without response head")
	}
	m.body.receivedBodyPart(part)
	return Wait{}
}

// ChannelReadEnd accepts the end of the response.
func (m *StateMachine) ChannelReadEnd() Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseRunning:
	default:
		panic(fmt.Sprintf("conn: response end in state %v", m.phase))
	}
	if m.respPhase != responseReceivingBody {
		panic("conn: response end without response head")
	}

	remaining := m.body.end()
	m.body = nil

	if m.respHead.Status >= 300 && m.reqPhase == requestStreaming {
		// The request body was cut short, so the connection cannot be
		// reused.
		m.phase = phaseFinished
		return SucceedRequest{Final: FinalClose, Trailing: remaining}
	}
	if m.reqPhase == requestEndSent {
		m.phase = phaseFinished
		return SucceedRequest{Final: FinalNone, Trailing: remaining}
	}

	// Success-class response finished before the request body did.
	m.respPhase = responseEndReceived
	if len(remaining) > 0 {
		return ForwardResponseBodyParts{Parts: remaining}
	}
	return Wait{}
}

// ChannelReadComplete marks the end of a read burst. If response body
// parts are buffered, they are handed up as one batch.
func (m *StateMachine) ChannelReadComplete() Action {
	if m.phase == phaseRunning && m.respPhase == responseReceivingBody {
		if batch := m.body.channelReadComplete(); len(batch) > 0 {
			return ForwardResponseBodyParts{Parts: batch}
		}
	}
	return Wait{}
}

// Read answers whether the channel should issue another read right
// now. While the consumer is behind on already forwarded body parts,
// the answer is Wait, which is what propagates backpressure to the
// remote via TCP.
func (m *StateMachine) Read() Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	}
	if m.phase == phaseRunning && m.respPhase == responseReceivingBody {
		return m.body.read()
	}
	return Read{}
}

// DemandMoreResponseBodyParts records that the consumer has caught up
// and wants more response body.
func (m *StateMachine) DemandMoreResponseBodyParts() Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseRunning:
	default:
		panic(fmt.Sprintf("conn: demand in state %v", m.phase))
	}
	switch m.respPhase {
	case responseReceivingBody:
		return m.body.demandMoreResponseBodyParts()
	case responseEndReceived:
		return Wait{}
	}
	panic("conn: demand before response head")
}

// IdleReadTimeoutTriggered fails the request because the connection
// stayed silent too long after the request was fully sent. Firing the
// timeout before the request end was sent is a programmer error: the
// idle-read window must only be armed after SendRequestEnd, or after a
// SendRequestHead whose StartBody is false.
func (m *StateMachine) IdleReadTimeoutTriggered() Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		// Timer raced the terminal event.
		return Wait{}
	case phaseRunning:
		if m.reqPhase != requestEndSent {
			panic("conn: idle read timeout before request end sent")
		}
		return m.failWith(clienterror.ReadTimeout, FinalClose)
	}
	panic(fmt.Sprintf("conn: idle read timeout in state %v", m.phase))
}

// RequestCancelled fails the request on behalf of its owner.
func (m *StateMachine) RequestCancelled() Action {
	return m.fail(clienterror.Cancelled)
}

// ChannelInactive fails the request because the channel went away
// underneath it.
func (m *StateMachine) ChannelInactive() Action {
	return m.fail(clienterror.RemoteConnectionClosed)
}

// ErrorHappened fails the request with an error surfaced by the
// channel pipeline.
func (m *StateMachine) ErrorHappened(err error) Action {
	if err == nil {
		panic("conn: nil error")
	}
	return m.fail(err)
}

func (m *StateMachine) fail(err error) Action {
	switch m.phase {
	case phaseFinished, phaseFailed:
		return Wait{}
	case phaseInitialized, phaseWaitForWritable:
		// The head never hit the wire; the connection is unaffected.
		return m.failWith(err, FinalNone)
	default:
		return m.failWith(err, FinalClose)
	}
}

func (m *StateMachine) failWith(err error, final FinalStreamAction) Action {
	m.phase = phaseFailed
	m.body = nil
	return FailRequest{Err: err, Final: final}
}
