// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqwire

import (
	"sync"
	"time"

	"github.com/reqwire/reqwire/clienterror"
	"github.com/reqwire/reqwire/conn"
	"github.com/reqwire/reqwire/request"
	"github.com/reqwire/reqwire/task"
)

// A ConnectionHandler binds one Transaction to one connection. It owns
// the connection-side state machine, translates transport events into
// machine transitions, and executes the returned actions against the
// Wire on one side and the Transaction on the other.
//
// The transport must feed the handler's channel-facing methods
// (WritabilityChanged, ResponseHeadReceived, ...) from a single
// goroutine, its event loop. The task-facing methods, which implement
// task.Executor, arrive from the transaction's goroutines; the machine
// transition under the handler's lock is the serialization point.
type ConnectionHandler struct {
	tx   *Transaction
	wire Wire
	idle time.Duration

	lock    sync.Mutex
	machine *conn.StateMachine
	timer   *time.Timer
}

// An IdleReadTimeoutPolicy is the subset of timeout.Policy the handler
// consults; declared locally to keep the dependency arrow pointing the
// right way.
type IdleReadTimeoutPolicy interface {
	IdleRead(head request.Head) time.Duration
}

// NewConnectionHandler creates a handler driving tx over wire. The
// writable flag is the channel's writability at creation time; idle
// decides the idle-read timeout (nil disables it).
func NewConnectionHandler(tx *Transaction, wire Wire, writable bool, idle IdleReadTimeoutPolicy) *ConnectionHandler {
	if tx == nil {
		panic("reqwire: nil transaction")
	}
	if wire == nil {
		panic("reqwire: nil wire")
	}
	h := &ConnectionHandler{
		tx:      tx,
		wire:    wire,
		machine: conn.New(writable),
	}
	if idle != nil {
		h.idle = idle.IdleRead(tx.Head())
	}
	return h
}

// Start binds the transaction to this handler and sends the request
// head, or arranges for it to be sent when the channel next becomes
// writable. If the transaction was cancelled while queued, Start does
// nothing.
func (h *ConnectionHandler) Start() {
	if !h.tx.execute(h) {
		return
	}
	h.lock.Lock()
	a := h.machine.Start(h.tx.Head(), h.tx.framing)
	h.lock.Unlock()
	h.perform(a)
}

// WritabilityChanged reports the channel's new writability.
func (h *ConnectionHandler) WritabilityChanged(writable bool) {
	h.lock.Lock()
	a := h.machine.WritabilityChanged(writable)
	h.lock.Unlock()
	h.perform(a)
}

// ResponseHeadReceived feeds a parsed response head in.
func (h *ConnectionHandler) ResponseHeadReceived(head request.ResponseHead) {
	h.lock.Lock()
	a := h.machine.ChannelReadHead(head)
	h.lock.Unlock()
	h.perform(a)
}

// ResponseBodyPartReceived feeds one parsed response body part in.
func (h *ConnectionHandler) ResponseBodyPartReceived(part request.Part) {
	h.lock.Lock()
	a := h.machine.ChannelReadBodyPart(part)
	h.lock.Unlock()
	h.perform(a)
}

// ResponseEndReceived feeds the end of the response in.
func (h *ConnectionHandler) ResponseEndReceived() {
	h.lock.Lock()
	a := h.machine.ChannelReadEnd()
	h.lock.Unlock()
	h.perform(a)
}

// ReadCompleted marks the end of a read burst, flushing buffered
// response body parts upward as one batch.
func (h *ConnectionHandler) ReadCompleted() {
	h.lock.Lock()
	a := h.machine.ChannelReadComplete()
	h.lock.Unlock()
	h.perform(a)
}

// ReadRequested asks whether the transport should issue another read,
// and issues it via the Wire if so.
func (h *ConnectionHandler) ReadRequested() {
	h.lock.Lock()
	a := h.machine.Read()
	h.lock.Unlock()
	h.perform(a)
}

// ChannelInactive reports that the connection went away.
func (h *ConnectionHandler) ChannelInactive() {
	h.lock.Lock()
	a := h.machine.ChannelInactive()
	h.lock.Unlock()
	h.perform(a)
}

// ErrorHappened reports a transport error. The raw error is classified
// into the client error surface before it reaches the machine.
func (h *ConnectionHandler) ErrorHappened(err error) {
	h.lock.Lock()
	a := h.machine.ErrorHappened(clienterror.Coerce(err))
	h.lock.Unlock()
	h.perform(a)
}

// WriteRequestBodyPart implements task.Executor.
func (h *ConnectionHandler) WriteRequestBodyPart(part request.Part) {
	h.lock.Lock()
	a := h.machine.RequestStreamPartReceived(part)
	h.lock.Unlock()
	h.perform(a)
}

// FinishRequestBodyStream implements task.Executor.
func (h *ConnectionHandler) FinishRequestBodyStream() {
	h.lock.Lock()
	a := h.machine.RequestStreamFinished()
	h.lock.Unlock()
	h.perform(a)
}

// DemandResponseBodyStream implements task.Executor.
func (h *ConnectionHandler) DemandResponseBodyStream() {
	h.lock.Lock()
	a := h.machine.DemandMoreResponseBodyParts()
	h.lock.Unlock()
	h.perform(a)
}

// CancelRequest implements task.Executor.
func (h *ConnectionHandler) CancelRequest() {
	h.lock.Lock()
	a := h.machine.RequestCancelled()
	h.lock.Unlock()
	h.perform(a)
}

var _ task.Executor = (*ConnectionHandler)(nil)

func (h *ConnectionHandler) perform(a conn.Action) {
	switch x := a.(type) {
	case conn.SendRequestHead:
		h.wire.WriteRequestHead(x.Head)
		if x.StartBody {
			h.tx.resumeBody()
		} else {
			// The head was the whole request; the idle-read window
			// opens now.
			h.armIdleTimer()
		}
	case conn.SendBodyPart:
		h.wire.WriteBodyPart(x.Part)
	case conn.SendRequestEnd:
		h.wire.WriteRequestEnd()
		h.armIdleTimer()
	case conn.PauseRequestBodyStream:
		h.tx.pauseBody()
	case conn.ResumeRequestBodyStream:
		h.tx.resumeBody()
	case conn.ForwardResponseHead:
		if x.PauseRequestBodyStream {
			h.tx.pauseBody()
		}
		h.stopIdleTimer()
		h.tx.receiveResponseHead(x.Head)
	case conn.ForwardResponseBodyParts:
		h.tx.receiveResponseBodyParts(x.Parts)
	case conn.SucceedRequest:
		h.stopIdleTimer()
		h.tx.succeedRequest(x.Trailing)
		switch x.Final {
		case conn.FinalClose:
			h.wire.Close()
		case conn.FinalSendRequestEnd:
			h.wire.WriteRequestEnd()
		}
	case conn.FailRequest:
		h.stopIdleTimer()
		h.tx.fail(x.Err)
		if x.Final == conn.FinalClose {
			h.wire.Close()
		}
	case conn.Read:
		h.wire.IssueRead()
	case conn.Wait:
	}
}

func (h *ConnectionHandler) armIdleTimer() {
	if h.idle <= 0 {
		return
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.idle, h.idleTimeoutFired)
}

func (h *ConnectionHandler) stopIdleTimer() {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *ConnectionHandler) idleTimeoutFired() {
	h.lock.Lock()
	a := h.machine.IdleReadTimeoutTriggered()
	h.lock.Unlock()
	h.perform(a)
}
