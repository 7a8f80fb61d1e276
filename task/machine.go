// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package task

import (
	"fmt"
	urlpkg "net/url"

	"github.com/reqwire/reqwire/clienterror"
	"github.com/reqwire/reqwire/oneshot"
	"github.com/reqwire/reqwire/redirect"
	"github.com/reqwire/reqwire/request"
)

type phase int

const (
	phaseInitialized phase = iota
	phaseQueued
	phaseExecuting
	phaseRedirected
	phaseFinished
)

var phaseNames = []string{
	"initialized",
	"queued",
	"executing",
	"redirected",
	"finished",
}

func (p phase) String() string {
	return phaseNames[p]
}

type reqStreamState int

const (
	reqStreamInitialized reqStreamState = iota
	reqStreamProducing
	reqStreamPaused
	reqStreamFinished
)

type respStreamState int

const (
	respStreamInitialized respStreamState = iota
	respStreamBuffering
	respStreamWaitingForRemote
)

// nextStep is the buffering sub-state's flag: what the consumer will
// find once the FIFO runs dry.
type nextStep int

const (
	nextAskExecutorForMore nextStep = iota
	nextEOF
	nextError
)

// A StateMachine tracks one HTTP request from the point of view of its
// owner. It is not safe for concurrent use: the owner must serialize
// all method calls, hopping events from other goroutines onto its own
// before feeding them in.
//
// The machine holds its Scheduler and Executor only as opaque handles
// and drops them on terminal transitions; it never invokes them.
type StateMachine struct {
	policy redirect.Policy

	phase     phase
	scheduler Scheduler
	executor  Executor

	reqStream reqStreamState
	// ack is the producer's pending completion handle. Non-nil only
	// while reqStreamPaused and a write has arrived; settled on every
	// transition that releases or abandons the producer.
	ack *oneshot.Promise

	respStream respStreamState
	fifo       []request.Part
	next       nextStep
	nextErr    error

	finishedErr error

	redirectHead request.ResponseHead
	redirectURL  *urlpkg.URL
}

// New creates a machine for one request. The policy decides whether a
// response is intercepted as a redirect; nil means never.
func New(policy redirect.Policy) *StateMachine {
	return &StateMachine{policy: policy}
}

// RequestWasQueued records that the request was placed in a scheduler
// queue. Queueing races execution: if the request already advanced
// past initialized by the time this lands, the call is a no-op.
func (m *StateMachine) RequestWasQueued(s Scheduler) {
	if s == nil {
		panic("task: nil scheduler")
	}
	if m.phase != phaseInitialized {
		// Late call; the request is already executing or done.
		return
	}
	m.phase = phaseQueued
	m.scheduler = s
}

// WillExecuteRequest binds the request to an executor. It returns true
// if execution should proceed, and false if the request was already
// cancelled while queued.
func (m *StateMachine) WillExecuteRequest(e Executor) bool {
	if e == nil {
		panic("task: nil executor")
	}
	switch m.phase {
	case phaseInitialized, phaseQueued:
		m.phase = phaseExecuting
		m.scheduler = nil
		m.executor = e
		m.reqStream = reqStreamInitialized
		m.respStream = respStreamInitialized
		return true
	case phaseFinished:
		if m.finishedErr != nil {
			return false
		}
	}
	panic(fmt.Sprintf("task: will execute in state %v", m.phase))
}

// ResumeRequestBodyStream lets the request body producer run: started
// for the first time, or released from a pause by succeeding its
// pending ack. Resumes that arrive after the producer finished, or
// after the request was redirected or finished, are ignored.
func (m *StateMachine) ResumeRequestBodyStream() ResumeAction {
	switch m.phase {
	case phaseExecuting:
		switch m.reqStream {
		case reqStreamInitialized:
			m.reqStream = reqStreamProducing
			return StartWriter{}
		case reqStreamPaused:
			m.reqStream = reqStreamProducing
			if ack := m.ack; ack != nil {
				m.ack = nil
				return SucceedAck{Ack: ack}
			}
			return NoAction{}
		case reqStreamProducing, reqStreamFinished:
			return NoAction{}
		}
	case phaseRedirected, phaseFinished:
		return NoAction{}
	}
	panic(fmt.Sprintf("task: resume in state %v", m.phase))
}

// PauseRequestBodyStream stops handing out completed acks: the next
// write will receive a pending one. No-op unless the producer is
// currently running.
func (m *StateMachine) PauseRequestBodyStream() {
	if m.phase == phaseExecuting && m.reqStream == reqStreamProducing {
		m.reqStream = reqStreamPaused
	}
}

// WriteNextRequestPart accepts one body part from the producer. The
// returned Write carries the ack the producer must await before its
// next part: already settled while producing, pending while paused. At
// most one pending ack exists at a time; a paused producer writing
// repeatedly is a protocol violation upstream, but reusing the pending
// ack keeps it harmless.
func (m *StateMachine) WriteNextRequestPart(part request.Part) WriteAction {
	switch m.phase {
	case phaseExecuting:
		switch m.reqStream {
		case reqStreamProducing:
			return Write{Part: part, Executor: m.executor, Ack: oneshot.Succeeded()}
		case reqStreamPaused:
			if m.ack == nil {
				m.ack = oneshot.New()
			}
			return Write{Part: part, Executor: m.executor, Ack: m.ack}
		case reqStreamFinished:
			e := m.executor
			m.terminate(clienterror.WriteAfterRequestSent)
			return FailTask{Err: clienterror.WriteAfterRequestSent, Executor: e}
		case reqStreamInitialized:
			panic("task: write before writer started")
		}
	case phaseRedirected, phaseFinished:
		return FailFuture{Err: clienterror.RequestStreamCancelled}
	}
	panic(fmt.Sprintf("task: write in state %v", m.phase))
}

// FinishRequestBodyStream accepts the end of the producer's body
// stream, or its failure if err is non-nil. A failure fails the whole
// task; finishing after a redirect or cancellation is ignored.
func (m *StateMachine) FinishRequestBodyStream(err error) FinishAction {
	switch m.phase {
	case phaseExecuting:
		switch m.reqStream {
		case reqStreamProducing, reqStreamPaused:
			ack := m.ack
			m.ack = nil
			if err != nil {
				e := m.executor
				m.terminate(err)
				return ForwardStreamFailureAndFailTask{Executor: e, Err: err, Ack: ack}
			}
			m.reqStream = reqStreamFinished
			return ForwardStreamFinished{Executor: m.executor, Ack: ack}
		case reqStreamFinished:
			panic("task: request stream finished twice")
		case reqStreamInitialized:
			panic("task: request stream finished before writer started")
		}
	case phaseRedirected, phaseFinished:
		return NoAction{}
	}
	panic(fmt.Sprintf("task: finish in state %v", m.phase))
}

// ReceiveResponseHead accepts the response head and reports whether to
// forward it to the delegate. A head the redirect policy claims is
// swallowed: the machine moves to redirected, abandons the producer,
// and waits for the response to play out so the request can be
// re-executed elsewhere.
func (m *StateMachine) ReceiveResponseHead(head request.ResponseHead) bool {
	switch m.phase {
	case phaseExecuting:
	case phaseFinished:
		// Raced a cancellation; the response is nobody's business now.
		return false
	default:
		panic(fmt.Sprintf("task: response head in state %v", m.phase))
	}
	if m.respStream != respStreamInitialized {
		panic("task: second response head")
	}

	if m.policy != nil {
		if u, ok := m.policy.Follow(head.Status, head.Header); ok {
			m.phase = phaseRedirected
			m.redirectHead = head
			m.redirectURL = u
			if ack := m.ack; ack != nil {
				m.ack = nil
				ack.Fail(clienterror.RequestStreamCancelled)
			}
			return false
		}
	}

	m.respStream = respStreamBuffering
	m.next = nextAskExecutorForMore
	return true
}

// ReceiveResponseBodyParts accepts a batch of response body parts. If
// the consumer is blocked waiting on the remote, the first part is
// returned for immediate delivery and the rest are buffered; otherwise
// everything is buffered and the zero Part and false are returned.
func (m *StateMachine) ReceiveResponseBodyParts(parts []request.Part) (request.Part, bool) {
	switch m.phase {
	case phaseExecuting:
	case phaseRedirected, phaseFinished:
		// The response is being discarded; so are its bytes.
		return request.Part{}, false
	default:
		panic(fmt.Sprintf("task: response body in state %v", m.phase))
	}
	if len(parts) == 0 {
		return request.Part{}, false
	}

	switch m.respStream {
	case respStreamBuffering:
		if m.next == nextAskExecutorForMore {
			m.fifo = append(m.fifo, parts...)
		}
		return request.Part{}, false
	case respStreamWaitingForRemote:
		first := parts[0]
		m.fifo = append(m.fifo, parts[1:]...)
		m.respStream = respStreamBuffering
		return first, true
	}
	panic("task: response body without response head")
}

// SucceedRequest accepts the successful end of the response, with any
// trailing body parts the connection still held. The task itself
// succeeds only once the consumer has drained everything buffered; if
// the request was redirected, this is where the redirect is finally
// acted on.
func (m *StateMachine) SucceedRequest(final []request.Part) ResponseEndAction {
	switch m.phase {
	case phaseRedirected:
		head, u := m.redirectHead, m.redirectURL
		m.terminate(nil)
		return Redirect{Head: head, URL: u}
	case phaseExecuting:
	case phaseFinished:
		return NoAction{}
	default:
		panic(fmt.Sprintf("task: response end in state %v", m.phase))
	}

	switch m.respStream {
	case respStreamBuffering:
		switch m.next {
		case nextError:
			// A failure beat the response end; teardown is underway.
			return NoAction{}
		case nextEOF:
			panic("task: response ended twice")
		}
		if len(m.fifo) == 0 && len(final) == 0 {
			m.terminate(nil)
			return SucceedTask{}
		}
		m.fifo = append(m.fifo, final...)
		m.next = nextEOF
		return NoAction{}
	case respStreamWaitingForRemote:
		if len(final) == 0 {
			m.terminate(nil)
			return SucceedTask{}
		}
		first := final[0]
		m.fifo = append(m.fifo, final[1:]...)
		m.respStream = respStreamBuffering
		m.next = nextEOF
		return Consume{Part: first}
	}
	panic("task: response end without response head")
}

// ConsumeMoreBodyData reports the outcome of delivering the previous
// part to the consumer, then asks what to feed it next.
func (m *StateMachine) ConsumeMoreBodyData(prev error) ConsumeAction {
	if prev != nil {
		return m.failWithConsumptionError(prev)
	}
	switch m.phase {
	case phaseExecuting:
	case phaseFinished:
		return NoAction{}
	default:
		panic(fmt.Sprintf("task: consume in state %v", m.phase))
	}

	switch m.respStream {
	case respStreamBuffering:
		if len(m.fifo) > 0 {
			p := m.fifo[0]
			m.fifo = m.fifo[1:]
			return Consume{Part: p}
		}
		switch m.next {
		case nextAskExecutorForMore:
			m.respStream = respStreamWaitingForRemote
			return RequestMoreFromExecutor{Executor: m.executor}
		case nextEOF:
			m.terminate(nil)
			return FinishStream{}
		case nextError:
			err := m.nextErr
			m.terminate(err)
			return FailTask{Err: err}
		}
	case respStreamWaitingForRemote:
		panic("task: consumer demanded twice")
	}
	panic("task: consume before response head")
}

// failWithConsumptionError applies the first-error-wins rule: a
// connection error already parked in the buffer outranks the
// consumer's error, and in that case the executor is already gone and
// is not cancelled again.
func (m *StateMachine) failWithConsumptionError(e error) ConsumeAction {
	switch m.phase {
	case phaseExecuting:
	case phaseFinished:
		return NoAction{}
	default:
		panic(fmt.Sprintf("task: consumption error in state %v", m.phase))
	}

	switch m.respStream {
	case respStreamBuffering:
		if m.next == nextError {
			err := m.nextErr
			m.terminate(err)
			return FailTask{Err: err}
		}
		ex := m.executor
		m.terminate(e)
		return FailTask{Err: e, Executor: ex}
	case respStreamWaitingForRemote:
		panic("task: consumption error while waiting for remote")
	}
	panic("task: consumption error before response head")
}

// Fail cancels the request from any state. In the one special case, a
// fully received response whose buffer the consumer is still draining,
// the state survives: the error is parked after the buffered data and
// only the executor is cancelled, so the consumer finishes the drain
// and then observes the failure.
func (m *StateMachine) Fail(err error) FailAction {
	if err == nil {
		panic("task: nil error")
	}
	switch m.phase {
	case phaseInitialized:
		m.terminate(err)
		return FailTask{Err: err}
	case phaseQueued:
		s := m.scheduler
		m.terminate(err)
		return FailTask{Err: err, Scheduler: s}
	case phaseExecuting:
		if ack := m.ack; ack != nil {
			m.ack = nil
			ack.Fail(err)
		}
		switch m.respStream {
		case respStreamBuffering:
			switch m.next {
			case nextEOF:
				m.next = nextError
				m.nextErr = err
				return CancelExecutor{Executor: m.executor}
			case nextError:
				// First error wins; just make sure the executor goes.
				return CancelExecutor{Executor: m.executor}
			}
			ex := m.executor
			m.terminate(err)
			return FailTask{Err: err, Executor: ex}
		case respStreamWaitingForRemote, respStreamInitialized:
			ex := m.executor
			m.terminate(err)
			return FailTask{Err: err, Executor: ex}
		}
	case phaseRedirected:
		m.terminate(err)
		return FailTask{Err: err}
	case phaseFinished:
		return NoAction{}
	}
	panic(fmt.Sprintf("task: fail in state %v", m.phase))
}

// terminate moves to finished and drops every handle the machine
// holds. An abandoned producer still waiting on an ack is released
// with a failure so it stops producing.
func (m *StateMachine) terminate(err error) {
	m.phase = phaseFinished
	m.finishedErr = err
	m.scheduler = nil
	m.executor = nil
	m.fifo = nil
	m.redirectHead = request.ResponseHead{}
	m.redirectURL = nil
	if ack := m.ack; ack != nil {
		m.ack = nil
		if err != nil {
			ack.Fail(err)
		} else {
			ack.Fail(clienterror.RequestStreamCancelled)
		}
	}
}
