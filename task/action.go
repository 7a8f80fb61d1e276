// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package task

import (
	urlpkg "net/url"

	"github.com/reqwire/reqwire/oneshot"
	"github.com/reqwire/reqwire/request"
)

// An Executor is the machine's handle on the connection-side execution
// of its request. The machine never calls it; it stores the handle and
// returns it inside actions so the caller knows which execution to
// write to, demand from, or cancel.
type Executor interface {
	// WriteRequestBodyPart forwards one request body part to the
	// connection.
	WriteRequestBodyPart(part request.Part)
	// FinishRequestBodyStream forwards the end of the request body.
	FinishRequestBodyStream()
	// DemandResponseBodyStream signals that the consumer wants another
	// response body chunk.
	DemandResponseBodyStream()
	// CancelRequest abandons the execution.
	CancelRequest()
}

// A Scheduler is the machine's handle on the queue holding its request
// before execution. As with Executor, the machine only stores and
// returns it.
type Scheduler interface {
	// CancelRequest removes the identified request from the queue, and
	// reports whether it was still queued.
	CancelRequest(id request.ID) bool
}

// ResumeAction is the instruction returned by ResumeRequestBodyStream.
type ResumeAction interface {
	isResumeAction()
}

// StartWriter instructs the caller to start the request body producer
// for the first time.
type StartWriter struct{}

// SucceedAck instructs the caller to succeed the ack the paused
// producer is waiting on, letting it write the next part.
type SucceedAck struct {
	Ack *oneshot.Promise
}

// WriteAction is the instruction returned by WriteNextRequestPart.
type WriteAction interface {
	isWriteAction()
}

// Write instructs the caller to forward the part to the executor and
// then await Ack before producing the next part. The ack is already
// settled while the producer is running free; it is pending while the
// producer is paused.
type Write struct {
	Part     request.Part
	Executor Executor
	Ack      *oneshot.Promise
}

// FailFuture instructs the caller to fail only the producer's await
// with Err, leaving the task itself alone. It is returned for writes
// that arrive after the request has been redirected or finished: the
// producer must stop, but there is no task left to fail.
type FailFuture struct {
	Err error
}

// FinishAction is the instruction returned by FinishRequestBodyStream.
type FinishAction interface {
	isFinishAction()
}

// ForwardStreamFinished instructs the caller to forward the end of the
// request body to the executor and succeed the producer's outstanding
// ack, if any.
type ForwardStreamFinished struct {
	Executor Executor
	Ack      *oneshot.Promise
}

// ForwardStreamFailureAndFailTask instructs the caller to tell the
// executor the body stream failed, fail the producer's outstanding ack
// if any, and fail the task with Err.
type ForwardStreamFailureAndFailTask struct {
	Executor Executor
	Err      error
	Ack      *oneshot.Promise
}

// ResponseEndAction is the instruction returned by SucceedRequest.
type ResponseEndAction interface {
	isResponseEndAction()
}

// SucceedTask instructs the caller to report the request successfully
// complete to the delegate.
type SucceedTask struct{}

// Redirect instructs the caller to re-execute the request against URL
// instead of reporting the response to the delegate.
type Redirect struct {
	Head request.ResponseHead
	URL  *urlpkg.URL
}

// ConsumeAction is the instruction returned by ConsumeMoreBodyData.
type ConsumeAction interface {
	isConsumeAction()
}

// Consume instructs the caller to deliver one response body part to
// the consumer. It is returned both from ConsumeMoreBodyData, and from
// SucceedRequest when the consumer was already waiting for the part.
type Consume struct {
	Part request.Part
}

// RequestMoreFromExecutor instructs the caller to ask the executor for
// more response body.
type RequestMoreFromExecutor struct {
	Executor Executor
}

// FinishStream instructs the caller to report the end of the response
// body, and with it the success of the request, to the delegate.
type FinishStream struct{}

// FailAction is the instruction returned by Fail.
type FailAction interface {
	isFailAction()
}

// FailTask instructs the caller to report the request failed with Err,
// cancelling the queued request via Scheduler and/or the running
// execution via Executor where those handles are non-nil.
type FailTask struct {
	Err       error
	Scheduler Scheduler
	Executor  Executor
}

// CancelExecutor instructs the caller to cancel the execution without
// failing the task yet: the consumer still has buffered response data
// to drain, and the failure surfaces when the drain completes.
type CancelExecutor struct {
	Executor Executor
}

// NoAction instructs the caller to do nothing. It is returned where an
// operation arrives too late to matter, for example against an already
// finished task.
type NoAction struct{}

func (StartWriter) isResumeAction() {}
func (SucceedAck) isResumeAction()  {}
func (NoAction) isResumeAction()    {}

func (Write) isWriteAction()      {}
func (FailFuture) isWriteAction() {}
func (FailTask) isWriteAction()   {}

func (ForwardStreamFinished) isFinishAction()           {}
func (ForwardStreamFailureAndFailTask) isFinishAction() {}
func (NoAction) isFinishAction()                        {}

func (SucceedTask) isResponseEndAction() {}
func (Consume) isResponseEndAction()     {}
func (Redirect) isResponseEndAction()    {}
func (NoAction) isResponseEndAction()    {}

func (Consume) isConsumeAction()                 {}
func (RequestMoreFromExecutor) isConsumeAction() {}
func (FinishStream) isConsumeAction()            {}
func (FailTask) isConsumeAction()                {}
func (NoAction) isConsumeAction()                {}

func (FailTask) isFailAction()       {}
func (CancelExecutor) isFailAction() {}
func (NoAction) isFailAction()       {}
