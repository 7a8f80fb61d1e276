// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"strconv"

	"github.com/reqwire/reqwire/request"
)

// An Action is the machine's instruction to its caller, returned from
// every transition. Exactly one variant is returned per transition;
// the caller executes it and feeds the next event in.
//
// Action is a closed set: the variants below are the only
// implementations.
type Action interface {
	isAction()
}

// SendRequestHead instructs the caller to serialize the request head
// onto the wire. StartBody reports whether a body stream follows; if
// false, the head completes the request and the caller should not
// expect body parts.
type SendRequestHead struct {
	Head      request.Head
	StartBody bool
}

// SendBodyPart instructs the caller to serialize one request body part
// onto the wire.
type SendBodyPart struct {
	Part request.Part
}

// SendRequestEnd instructs the caller to serialize the request
// terminator (for chunked bodies, the zero-length chunk).
type SendRequestEnd struct{}

// PauseRequestBodyStream instructs the caller to stop the request body
// producer until a ResumeRequestBodyStream follows.
type PauseRequestBodyStream struct{}

// ResumeRequestBodyStream instructs the caller to let a previously
// paused request body producer continue.
type ResumeRequestBodyStream struct{}

// ForwardResponseHead instructs the caller to deliver the response
// head to the request's owner. If PauseRequestBodyStream is true the
// caller must also stop the request body producer: the response status
// short-circuits the upload and the producer will not be resumed.
type ForwardResponseHead struct {
	Head                   request.ResponseHead
	PauseRequestBodyStream bool
}

// ForwardResponseBodyParts instructs the caller to deliver a batch of
// response body parts to the request's owner.
type ForwardResponseBodyParts struct {
	Parts []request.Part
}

// SucceedRequest reports the request complete. Trailing carries any
// response body parts still buffered at completion; they must be
// delivered before success is announced. Final says what to do with
// the connection.
type SucceedRequest struct {
	Final    FinalStreamAction
	Trailing []request.Part
}

// FailRequest reports the request failed. Final says what to do with
// the connection. A machine emits at most one terminal action
// (SucceedRequest or FailRequest) in its lifetime.
type FailRequest struct {
	Err   error
	Final FinalStreamAction
}

// Read instructs the caller to issue another channel read: the machine
// wants more inbound bytes.
type Read struct{}

// Wait instructs the caller to do nothing.
type Wait struct{}

func (SendRequestHead) isAction()          {}
func (SendBodyPart) isAction()             {}
func (SendRequestEnd) isAction()           {}
func (PauseRequestBodyStream) isAction()   {}
func (ResumeRequestBodyStream) isAction()  {}
func (ForwardResponseHead) isAction()      {}
func (ForwardResponseBodyParts) isAction() {}
func (SucceedRequest) isAction()           {}
func (FailRequest) isAction()              {}
func (Read) isAction()                     {}
func (Wait) isAction()                     {}

// A FinalStreamAction accompanies every terminal action and tells the
// connection's owner whether the wire underneath is salvageable.
type FinalStreamAction int

const (
	// FinalNone means the request never reached the wire; the
	// connection is unaffected.
	FinalNone FinalStreamAction = iota
	// FinalClose means the connection can no longer be trusted to be
	// in sync and must be torn down.
	FinalClose
	// FinalSendRequestEnd means the request succeeded but the request
	// terminator still needs to be serialized onto the wire.
	FinalSendRequestEnd
)

var finalStreamActionNames = []string{
	"None",
	"Close",
	"SendRequestEnd",
}

func (a FinalStreamAction) String() string {
	if a < 0 || int(a) >= len(finalStreamActionNames) {
		return "FinalStreamAction(" + strconv.Itoa(int(a)) + ")"
	}
	return finalStreamActionNames[a]
}
