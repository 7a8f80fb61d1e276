// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqwire

import (
	"context"
	"io"
	urlpkg "net/url"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/reqwire/reqwire/clienterror"
	"github.com/reqwire/reqwire/redirect"
	"github.com/reqwire/reqwire/request"
	"github.com/reqwire/reqwire/task"
)

var emptyHandlers = HandlerGroup{}

// TransactionConfig carries everything a Transaction needs at birth.
type TransactionConfig struct {
	// Head is the prepared request head.
	Head request.Head
	// Framing is the request body framing metadata, normally derived
	// from the head via request.FramingOf.
	Framing request.BodyFraming
	// Producer supplies the request body. It must be non-nil exactly
	// when Framing.StartsBody() reports true.
	Producer BodyProducer
	// Delegate receives the response and the terminal outcome. It is
	// required.
	Delegate Delegate
	// Redirect decides whether responses are intercepted as
	// redirects. If nil, they never are.
	Redirect redirect.Policy
	// OnRedirect is invoked when an intercepted response has fully
	// arrived and the request should be re-executed against the
	// target URL, normally by building a fresh Transaction with the
	// same Delegate. If nil, redirects are intercepted but dropped.
	OnRedirect func(head request.ResponseHead, target *urlpkg.URL)
	// Handlers observes the transaction lifecycle. Optional.
	Handlers *HandlerGroup
	// Logger receives debug and trace output. If nil, the logrus
	// standard logger is used.
	Logger *logrus.Logger
}

// A Transaction drives one request attempt from the owner's side. It
// owns the task-side state machine, feeds the body producer with
// backpressure, pulls response body parts for the delegate, and
// guarantees the delegate at most one terminal callback: exactly one,
// unless the attempt ends in a redirect, which goes to OnRedirect
// instead.
//
// A Transaction implements task.Executor indirectly: the
// ConnectionHandler bound to it by Start is the executor handle the
// machine holds.
type Transaction struct {
	id       request.ID
	head     request.Head
	framing  request.BodyFraming
	producer BodyProducer
	delegate Delegate
	onRedir  func(request.ResponseHead, *urlpkg.URL)
	handlers *HandlerGroup
	log      *logrus.Entry

	lock    sync.Mutex
	machine *task.StateMachine

	terminalOnce sync.Once
	terminalErr  error

	respHead request.ResponseHead
	haveHead bool
}

// NewTransaction creates a transaction for one request attempt.
func NewTransaction(cfg TransactionConfig) *Transaction {
	if cfg.Delegate == nil {
		panic("reqwire: nil delegate")
	}
	if cfg.Framing.StartsBody() && cfg.Producer == nil {
		panic("reqwire: body framing declared but no producer")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	handlers := cfg.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	id := request.NewID()
	return &Transaction{
		id:       id,
		head:     cfg.Head,
		framing:  cfg.Framing,
		producer: cfg.Producer,
		delegate: cfg.Delegate,
		onRedir:  cfg.OnRedirect,
		handlers: handlers,
		log: logger.WithFields(logrus.Fields{
			"request": id,
			"method":  cfg.Head.Method,
		}),
		machine: task.New(cfg.Redirect),
	}
}

// ID returns the transaction's request ID.
func (tx *Transaction) ID() request.ID {
	return tx.id
}

// Head returns the request head.
func (tx *Transaction) Head() request.Head {
	return tx.head
}

// ResponseHead returns the response head and whether one has arrived.
func (tx *Transaction) ResponseHead() (request.ResponseHead, bool) {
	tx.lock.Lock()
	defer tx.lock.Unlock()
	return tx.respHead, tx.haveHead
}

// Err returns the transaction's terminal error, or nil before
// termination or after success.
func (tx *Transaction) Err() error {
	tx.lock.Lock()
	defer tx.lock.Unlock()
	return tx.terminalErr
}

// Queued records that the request was placed in the scheduler's queue.
func (tx *Transaction) Queued(s task.Scheduler) {
	tx.lock.Lock()
	tx.machine.RequestWasQueued(s)
	tx.lock.Unlock()
	tx.handlers.run(RequestQueued, tx)
	tx.log.Debug("request queued")
}

// Cancel fails the request from any state. It is the one entry point
// safe to call from any goroutine at any time.
func (tx *Transaction) Cancel() {
	tx.fail(clienterror.Cancelled)
}

// execute binds the transaction to its executor. It returns false if
// the request was cancelled while queued, in which case nothing must
// be sent.
func (tx *Transaction) execute(e task.Executor) bool {
	tx.lock.Lock()
	ok := tx.machine.WillExecuteRequest(e)
	tx.lock.Unlock()
	if !ok {
		return false
	}
	tx.handlers.run(RequestWillExecute, tx)
	tx.log.Debug("request executing")
	return true
}

// resumeBody starts the body producer, or releases it from a pause.
func (tx *Transaction) resumeBody() {
	tx.lock.Lock()
	a := tx.machine.ResumeRequestBodyStream()
	tx.lock.Unlock()
	switch r := a.(type) {
	case task.StartWriter:
		go tx.runWriter()
	case task.SucceedAck:
		r.Ack.Succeed()
	case task.NoAction:
	}
}

// pauseBody stops handing the producer completed acks.
func (tx *Transaction) pauseBody() {
	tx.lock.Lock()
	tx.machine.PauseRequestBodyStream()
	tx.lock.Unlock()
}

// runWriter is the producer loop. It runs on its own goroutine, one
// per transaction with a body, and exits when the body is finished,
// the request dies, or the producer is abandoned by a redirect.
func (tx *Transaction) runWriter() {
	for {
		part, err := tx.producer.NextPart()
		if err == io.EOF {
			tx.finishBody(nil)
			return
		}
		if err != nil {
			tx.finishBody(err)
			return
		}

		tx.lock.Lock()
		a := tx.machine.WriteNextRequestPart(part)
		tx.lock.Unlock()

		switch w := a.(type) {
		case task.Write:
			w.Executor.WriteRequestBodyPart(w.Part)
			if err := w.Ack.Wait(context.Background()); err != nil {
				// The request was failed or redirected away; the
				// machine already arranged the fallout.
				return
			}
		case task.FailFuture:
			return
		case task.FailTask:
			if w.Executor != nil {
				w.Executor.CancelRequest()
			}
			tx.deliverFailure(w.Err)
			return
		}
	}
}

func (tx *Transaction) finishBody(err error) {
	tx.lock.Lock()
	a := tx.machine.FinishRequestBodyStream(err)
	tx.lock.Unlock()
	switch f := a.(type) {
	case task.ForwardStreamFinished:
		if f.Ack != nil {
			f.Ack.Succeed()
		}
		f.Executor.FinishRequestBodyStream()
	case task.ForwardStreamFailureAndFailTask:
		if f.Ack != nil {
			f.Ack.Fail(f.Err)
		}
		f.Executor.CancelRequest()
		tx.deliverFailure(f.Err)
	case task.NoAction:
	}
}

// receiveResponseHead accepts the response head from the connection
// side.
func (tx *Transaction) receiveResponseHead(head request.ResponseHead) {
	tx.lock.Lock()
	forward := tx.machine.ReceiveResponseHead(head)
	tx.respHead = head
	tx.haveHead = true
	tx.lock.Unlock()

	if tx.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		if dump, err := jsoniter.ConfigFastest.MarshalToString(head.Header); err == nil {
			tx.log.WithField("header", dump).Trace("response head received")
		}
	}
	tx.log.WithField("status", head.Status).Debug("response head received")
	tx.handlers.run(ResponseHeadReceived, tx)

	if !forward {
		// Intercepted as a redirect; resolved when the response ends.
		return
	}
	tx.delegate.ReceiveResponseHead(head)
	tx.consume(nil)
}

// receiveResponseBodyParts accepts a batch of response body parts from
// the connection side.
func (tx *Transaction) receiveResponseBodyParts(parts []request.Part) {
	tx.lock.Lock()
	first, ok := tx.machine.ReceiveResponseBodyParts(parts)
	tx.lock.Unlock()
	if !ok {
		return
	}
	tx.consumeStartingWith(first)
}

// succeedRequest accepts the successful end of the response, with any
// trailing parts, from the connection side.
func (tx *Transaction) succeedRequest(trailing []request.Part) {
	tx.lock.Lock()
	a := tx.machine.SucceedRequest(trailing)
	tx.lock.Unlock()
	switch r := a.(type) {
	case task.SucceedTask:
		tx.deliverSuccess()
	case task.Consume:
		tx.consumeStartingWith(r.Part)
	case task.Redirect:
		tx.handlers.run(RequestRedirected, tx)
		tx.log.WithField("target", r.URL.String()).Debug("request redirected")
		if tx.onRedir != nil {
			tx.onRedir(r.Head, r.URL)
		}
	case task.NoAction:
	}
}

// fail pushes a failure into the task machine and executes the
// fallout.
func (tx *Transaction) fail(err error) {
	tx.lock.Lock()
	a := tx.machine.Fail(err)
	tx.lock.Unlock()
	switch f := a.(type) {
	case task.FailTask:
		if f.Scheduler != nil {
			f.Scheduler.CancelRequest(tx.id)
		}
		if f.Executor != nil {
			f.Executor.CancelRequest()
		}
		tx.deliverFailure(f.Err)
	case task.CancelExecutor:
		// The consumer still has buffered data to drain; the failure
		// surfaces when the drain completes.
		f.Executor.CancelRequest()
	case task.NoAction:
	}
}

// consumeStartingWith delivers one part to the delegate and then keeps
// pulling.
func (tx *Transaction) consumeStartingWith(part request.Part) {
	tx.consume(tx.delegate.ReceiveResponseBodyPart(part))
}

// consume is the pull loop between the buffered response stream and
// the delegate.
func (tx *Transaction) consume(prev error) {
	for {
		tx.lock.Lock()
		a := tx.machine.ConsumeMoreBodyData(prev)
		tx.lock.Unlock()
		prev = nil

		switch c := a.(type) {
		case task.Consume:
			prev = tx.delegate.ReceiveResponseBodyPart(c.Part)
		case task.RequestMoreFromExecutor:
			c.Executor.DemandResponseBodyStream()
			return
		case task.FinishStream:
			tx.deliverSuccess()
			return
		case task.FailTask:
			if c.Executor != nil {
				c.Executor.CancelRequest()
			}
			tx.deliverFailure(c.Err)
			return
		case task.NoAction:
			return
		}
	}
}

func (tx *Transaction) deliverSuccess() {
	tx.terminalOnce.Do(func() {
		tx.log.Debug("request succeeded")
		tx.handlers.run(RequestEnded, tx)
		tx.delegate.Succeed()
	})
}

func (tx *Transaction) deliverFailure(err error) {
	tx.terminalOnce.Do(func() {
		tx.lock.Lock()
		tx.terminalErr = err
		tx.lock.Unlock()
		tx.log.WithError(err).Debug("request failed")
		tx.handlers.run(RequestEnded, tx)
		tx.delegate.Fail(err)
	})
}
