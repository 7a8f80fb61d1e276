// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package task

import (
	"errors"
	"net/http"
	urlpkg "net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqwire/reqwire/clienterror"
	"github.com/reqwire/reqwire/redirect"
	"github.com/reqwire/reqwire/request"
)

type executorStub struct{ name string }

func (*executorStub) WriteRequestBodyPart(request.Part) {}
func (*executorStub) FinishRequestBodyStream()          {}
func (*executorStub) DemandResponseBodyStream()         {}
func (*executorStub) CancelRequest()                    {}

type schedulerStub struct{ name string }

func (*schedulerStub) CancelRequest(request.ID) bool { return true }

func part(s string) request.Part {
	return request.PartOf([]byte(s))
}

func resp(status int) request.ResponseHead {
	return request.ResponseHead{Status: status, Proto: "HTTP/1.1"}
}

func mustParseURL(t *testing.T, s string) *urlpkg.URL {
	u, err := urlpkg.Parse(s)
	require.NoError(t, err)
	return u
}

func TestQueueAndExecute(t *testing.T) {
	m := New(nil)
	s := &schedulerStub{name: "s"}
	e := &executorStub{name: "e"}

	m.RequestWasQueued(s)
	assert.True(t, m.WillExecuteRequest(e))

	// Late queue notification loses the race and is ignored.
	m.RequestWasQueued(s)
	assert.Equal(t, StartWriter{}, m.ResumeRequestBodyStream())
}

func TestLateQueueAfterExecute(t *testing.T) {
	m := New(nil)
	e := &executorStub{}
	assert.True(t, m.WillExecuteRequest(e))
	m.RequestWasQueued(&schedulerStub{})
	// Still executing: the writer can start.
	assert.Equal(t, StartWriter{}, m.ResumeRequestBodyStream())
}

func TestCancelWhileQueued(t *testing.T) {
	m := New(nil)
	s := &schedulerStub{}

	m.RequestWasQueued(s)
	a := m.Fail(clienterror.Cancelled)
	require.IsType(t, FailTask{}, a)
	ft := a.(FailTask)
	assert.Same(t, clienterror.Cancelled, ft.Err)
	assert.Same(t, s, ft.Scheduler)
	assert.Nil(t, ft.Executor)

	assert.False(t, m.WillExecuteRequest(&executorStub{}))
}

func TestCancelBeforeQueued(t *testing.T) {
	m := New(nil)
	a := m.Fail(clienterror.Cancelled)
	require.IsType(t, FailTask{}, a)
	ft := a.(FailTask)
	assert.Nil(t, ft.Scheduler)
	assert.Nil(t, ft.Executor)
}

func TestWriteAckProtocol(t *testing.T) {
	m := New(nil)
	e := &executorStub{}
	require.True(t, m.WillExecuteRequest(e))
	require.Equal(t, StartWriter{}, m.ResumeRequestBodyStream())

	t.Run("ProducingAckIsSettled", func(t *testing.T) {
		a := m.WriteNextRequestPart(part("a"))
		require.IsType(t, Write{}, a)
		w := a.(Write)
		assert.Equal(t, part("a"), w.Part)
		assert.Same(t, e, w.Executor)
		select {
		case <-w.Ack.Done():
		default:
			t.Fatal("ack not settled while producing")
		}
		assert.NoError(t, w.Ack.Err())
	})

	t.Run("PausedAckIsPendingAndReused", func(t *testing.T) {
		m.PauseRequestBodyStream()
		w1 := m.WriteNextRequestPart(part("b")).(Write)
		select {
		case <-w1.Ack.Done():
			t.Fatal("ack settled while paused")
		default:
		}
		w2 := m.WriteNextRequestPart(part("c")).(Write)
		assert.Same(t, w1.Ack, w2.Ack)
	})

	t.Run("ResumeSucceedsAck", func(t *testing.T) {
		w := m.WriteNextRequestPart(part("d")).(Write)
		a := m.ResumeRequestBodyStream()
		require.IsType(t, SucceedAck{}, a)
		assert.Same(t, w.Ack, a.(SucceedAck).Ack)
		// Only one ack may be outstanding; it is gone now.
		assert.Equal(t, NoAction{}, m.ResumeRequestBodyStream())
	})

	t.Run("ResumeWhilePausedWithoutWriter", func(t *testing.T) {
		m.PauseRequestBodyStream()
		assert.Equal(t, NoAction{}, m.ResumeRequestBodyStream())
	})
}

func TestFinishRequestBodyStream(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m := New(nil)
		e := &executorStub{}
		m.WillExecuteRequest(e)
		m.ResumeRequestBodyStream()
		a := m.FinishRequestBodyStream(nil)
		require.IsType(t, ForwardStreamFinished{}, a)
		f := a.(ForwardStreamFinished)
		assert.Same(t, e, f.Executor)
		assert.Nil(t, f.Ack)
	})
	t.Run("SuccessWhilePaused", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		m.ResumeRequestBodyStream()
		m.PauseRequestBodyStream()
		w := m.WriteNextRequestPart(part("x")).(Write)
		a := m.FinishRequestBodyStream(nil).(ForwardStreamFinished)
		assert.Same(t, w.Ack, a.Ack)
	})
	t.Run("ProducerError", func(t *testing.T) {
		boom := errors.New("boom")
		m := New(nil)
		e := &executorStub{}
		m.WillExecuteRequest(e)
		m.ResumeRequestBodyStream()
		a := m.FinishRequestBodyStream(boom)
		require.IsType(t, ForwardStreamFailureAndFailTask{}, a)
		f := a.(ForwardStreamFailureAndFailTask)
		assert.Same(t, e, f.Executor)
		assert.Same(t, boom, f.Err)
		// Task is dead; a late resume is absorbed.
		assert.Equal(t, NoAction{}, m.ResumeRequestBodyStream())
	})
	t.Run("Twice", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		m.ResumeRequestBodyStream()
		m.FinishRequestBodyStream(nil)
		assert.Panics(t, func() { m.FinishRequestBodyStream(nil) })
	})
}

func TestWriteAfterRequestSent(t *testing.T) {
	m := New(nil)
	e := &executorStub{}
	m.WillExecuteRequest(e)
	m.ResumeRequestBodyStream()
	m.FinishRequestBodyStream(nil)

	a := m.WriteNextRequestPart(part("late"))
	require.IsType(t, FailTask{}, a)
	ft := a.(FailTask)
	assert.Same(t, clienterror.WriteAfterRequestSent, ft.Err)
	assert.Same(t, e, ft.Executor)

	// The task is finished now; later writes fail only the producer.
	a = m.WriteNextRequestPart(part("later"))
	require.IsType(t, FailFuture{}, a)
	assert.Same(t, clienterror.RequestStreamCancelled, a.(FailFuture).Err)
}

func TestReceiveResponseHeadForwards(t *testing.T) {
	m := New(nil)
	m.WillExecuteRequest(&executorStub{})
	assert.True(t, m.ReceiveResponseHead(resp(200)))
}

func TestConsumeLoop(t *testing.T) {
	m := New(nil)
	e := &executorStub{}
	m.WillExecuteRequest(e)
	require.True(t, m.ReceiveResponseHead(resp(200)))

	// Parts arriving while the consumer is busy are buffered.
	first, ok := m.ReceiveResponseBodyParts([]request.Part{part("a"), part("b")})
	assert.False(t, ok)
	assert.Zero(t, first)

	// The consumer drains the buffer one part at a time.
	assert.Equal(t, Consume{Part: part("a")}, m.ConsumeMoreBodyData(nil))
	assert.Equal(t, Consume{Part: part("b")}, m.ConsumeMoreBodyData(nil))

	// Buffer dry: the machine points the consumer's demand at the
	// executor and parks it waiting for the remote.
	a := m.ConsumeMoreBodyData(nil)
	require.IsType(t, RequestMoreFromExecutor{}, a)
	assert.Same(t, e, a.(RequestMoreFromExecutor).Executor)

	// Parts arriving for a waiting consumer: first one is handed over
	// immediately, the rest buffer.
	first, ok = m.ReceiveResponseBodyParts([]request.Part{part("c"), part("d")})
	assert.True(t, ok)
	assert.Equal(t, part("c"), first)
	assert.Equal(t, Consume{Part: part("d")}, m.ConsumeMoreBodyData(nil))

	// Response ends while the consumer is busy with "d".
	assert.Equal(t, NoAction{}, m.SucceedRequest([]request.Part{part("e")}))
	assert.Equal(t, Consume{Part: part("e")}, m.ConsumeMoreBodyData(nil))
	assert.Equal(t, FinishStream{}, m.ConsumeMoreBodyData(nil))
}

func TestSucceedRequestEmptyResponse(t *testing.T) {
	m := New(nil)
	m.WillExecuteRequest(&executorStub{})
	m.ReceiveResponseHead(resp(204))
	assert.Equal(t, SucceedTask{}, m.SucceedRequest(nil))
}

func TestSucceedRequestWhileConsumerWaiting(t *testing.T) {
	m := New(nil)
	e := &executorStub{}
	m.WillExecuteRequest(e)
	m.ReceiveResponseHead(resp(200))
	require.IsType(t, RequestMoreFromExecutor{}, m.ConsumeMoreBodyData(nil))

	t.Run("WithTrailingParts", func(t *testing.T) {
		a := m.SucceedRequest([]request.Part{part("x"), part("y")})
		assert.Equal(t, Consume{Part: part("x")}, a)
		assert.Equal(t, Consume{Part: part("y")}, m.ConsumeMoreBodyData(nil))
		assert.Equal(t, FinishStream{}, m.ConsumeMoreBodyData(nil))
	})
}

func TestSucceedRequestWaitingNoTrailing(t *testing.T) {
	m := New(nil)
	m.WillExecuteRequest(&executorStub{})
	m.ReceiveResponseHead(resp(200))
	require.IsType(t, RequestMoreFromExecutor{}, m.ConsumeMoreBodyData(nil))
	assert.Equal(t, SucceedTask{}, m.SucceedRequest(nil))
}

func TestRedirectSwallowsResponse(t *testing.T) {
	base := mustParseURL(t, "https://example.com/a")
	policy := redirect.NewPolicy(redirect.DefaultDecider, redirect.NewLocationResolver(base))

	m := New(policy)
	m.WillExecuteRequest(&executorStub{})
	m.ResumeRequestBodyStream()

	h := resp(302)
	h.Header = http.Header{"Location": {"/b"}}
	assert.False(t, m.ReceiveResponseHead(h))

	// Response body of the redirect is discarded wholesale.
	first, ok := m.ReceiveResponseBodyParts([]request.Part{part("ignored")})
	assert.False(t, ok)
	assert.Zero(t, first)

	// Producer writes after the redirect fail softly, not the task.
	a := m.WriteNextRequestPart(part("p"))
	require.IsType(t, FailFuture{}, a)
	assert.Same(t, clienterror.RequestStreamCancelled, a.(FailFuture).Err)
	assert.Equal(t, NoAction{}, m.FinishRequestBodyStream(nil))

	// The delegate sees exactly one Redirect, no success.
	end := m.SucceedRequest(nil)
	require.IsType(t, Redirect{}, end)
	r := end.(Redirect)
	assert.Equal(t, h, r.Head)
	assert.Equal(t, "https://example.com/b", r.URL.String())
}

func TestRedirectFailsPausedProducerAck(t *testing.T) {
	base := mustParseURL(t, "https://example.com/a")
	policy := redirect.NewPolicy(redirect.DefaultDecider, redirect.NewLocationResolver(base))

	m := New(policy)
	m.WillExecuteRequest(&executorStub{})
	m.ResumeRequestBodyStream()
	m.PauseRequestBodyStream()
	w := m.WriteNextRequestPart(part("x")).(Write)

	h := resp(301)
	h.Header = http.Header{"Location": {"/moved"}}
	assert.False(t, m.ReceiveResponseHead(h))

	select {
	case <-w.Ack.Done():
		assert.Same(t, clienterror.RequestStreamCancelled, w.Ack.Err())
	default:
		t.Fatal("paused producer not released on redirect")
	}
}

func TestNonRedirectStatusWithPolicy(t *testing.T) {
	base := mustParseURL(t, "https://example.com/a")
	policy := redirect.NewPolicy(redirect.DefaultDecider, redirect.NewLocationResolver(base))

	m := New(policy)
	m.WillExecuteRequest(&executorStub{})
	assert.True(t, m.ReceiveResponseHead(resp(200)))
}

// First-error-wins: a failure arriving while the consumer drains a
// fully received response is parked, survives a later consumer error,
// and is what finally fails the task.
func TestFirstErrorWins(t *testing.T) {
	connErr := errors.New("connection torn")
	consErr := errors.New("consumer choked")

	m := New(nil)
	e := &executorStub{}
	m.WillExecuteRequest(e)
	m.ReceiveResponseHead(resp(200))
	m.ReceiveResponseBodyParts([]request.Part{part("a"), part("b")})
	require.Equal(t, NoAction{}, m.SucceedRequest(nil)) // next=eof, consumer busy

	a := m.Fail(connErr)
	require.IsType(t, CancelExecutor{}, a)
	assert.Same(t, e, a.(CancelExecutor).Executor)

	// The drain continues past the parked error.
	assert.Equal(t, Consume{Part: part("a")}, m.ConsumeMoreBodyData(nil))

	// Consumer now reports its own error; the parked one outranks it
	// and the executor, already cancelled, is left out of the action.
	got := m.ConsumeMoreBodyData(consErr)
	require.IsType(t, FailTask{}, got)
	ft := got.(FailTask)
	assert.Same(t, connErr, ft.Err)
	assert.Nil(t, ft.Executor)
}

func TestFailDuringDrainSurfacesAfterDrain(t *testing.T) {
	connErr := errors.New("connection torn")

	m := New(nil)
	m.WillExecuteRequest(&executorStub{})
	m.ReceiveResponseHead(resp(200))
	m.ReceiveResponseBodyParts([]request.Part{part("a")})
	require.Equal(t, NoAction{}, m.SucceedRequest(nil))
	require.IsType(t, CancelExecutor{}, m.Fail(connErr))

	assert.Equal(t, Consume{Part: part("a")}, m.ConsumeMoreBodyData(nil))
	got := m.ConsumeMoreBodyData(nil)
	require.IsType(t, FailTask{}, got)
	assert.Same(t, connErr, got.(FailTask).Err)
}

func TestRepeatedFailKeepsOriginalError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	m := New(nil)
	e := &executorStub{}
	m.WillExecuteRequest(e)
	m.ReceiveResponseHead(resp(200))
	m.ReceiveResponseBodyParts([]request.Part{part("a")})
	require.Equal(t, NoAction{}, m.SucceedRequest(nil))
	require.IsType(t, CancelExecutor{}, m.Fail(first))

	// A second failure while draining keeps the first error.
	a := m.Fail(second)
	require.IsType(t, CancelExecutor{}, a)
	assert.Same(t, e, a.(CancelExecutor).Executor)

	m.ConsumeMoreBodyData(nil) // drains "a"
	got := m.ConsumeMoreBodyData(nil)
	require.IsType(t, FailTask{}, got)
	assert.Same(t, first, got.(FailTask).Err)
}

func TestFailWhileExecuting(t *testing.T) {
	t.Run("BeforeResponse", func(t *testing.T) {
		m := New(nil)
		e := &executorStub{}
		m.WillExecuteRequest(e)
		a := m.Fail(clienterror.Cancelled)
		require.IsType(t, FailTask{}, a)
		ft := a.(FailTask)
		assert.Same(t, e, ft.Executor)
		assert.Nil(t, ft.Scheduler)
	})
	t.Run("WhileBufferingLive", func(t *testing.T) {
		m := New(nil)
		e := &executorStub{}
		m.WillExecuteRequest(e)
		m.ReceiveResponseHead(resp(200))
		a := m.Fail(clienterror.Cancelled)
		require.IsType(t, FailTask{}, a)
		assert.Same(t, e, a.(FailTask).Executor)
	})
	t.Run("WhileWaitingForRemote", func(t *testing.T) {
		m := New(nil)
		e := &executorStub{}
		m.WillExecuteRequest(e)
		m.ReceiveResponseHead(resp(200))
		require.IsType(t, RequestMoreFromExecutor{}, m.ConsumeMoreBodyData(nil))
		a := m.Fail(clienterror.Cancelled)
		require.IsType(t, FailTask{}, a)
		assert.Same(t, e, a.(FailTask).Executor)
	})
	t.Run("FailsPausedProducer", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		m.ResumeRequestBodyStream()
		m.PauseRequestBodyStream()
		w := m.WriteNextRequestPart(part("x")).(Write)
		m.Fail(clienterror.Cancelled)
		<-w.Ack.Done()
		assert.Same(t, clienterror.Cancelled, w.Ack.Err())
	})
}

func TestFailAfterRedirect(t *testing.T) {
	base := mustParseURL(t, "https://example.com/a")
	policy := redirect.NewPolicy(redirect.DefaultDecider, redirect.NewLocationResolver(base))
	m := New(policy)
	m.WillExecuteRequest(&executorStub{})
	h := resp(302)
	h.Header = http.Header{"Location": {"/b"}}
	m.ReceiveResponseHead(h)

	a := m.Fail(clienterror.Cancelled)
	require.IsType(t, FailTask{}, a)
	ft := a.(FailTask)
	assert.Nil(t, ft.Scheduler)
	assert.Nil(t, ft.Executor)
}

func TestTerminalAbsorption(t *testing.T) {
	m := New(nil)
	m.WillExecuteRequest(&executorStub{})
	m.ReceiveResponseHead(resp(204))
	require.Equal(t, SucceedTask{}, m.SucceedRequest(nil))

	assert.Equal(t, NoAction{}, m.Fail(clienterror.Cancelled))
	assert.Equal(t, NoAction{}, m.ResumeRequestBodyStream())
	assert.Equal(t, NoAction{}, m.ConsumeMoreBodyData(nil))
	assert.Equal(t, NoAction{}, m.SucceedRequest(nil))
	assert.False(t, m.ReceiveResponseHead(resp(200)))
	first, ok := m.ReceiveResponseBodyParts([]request.Part{part("x")})
	assert.False(t, ok)
	assert.Zero(t, first)
}

func TestPreconditions(t *testing.T) {
	t.Run("NilArguments", func(t *testing.T) {
		m := New(nil)
		assert.PanicsWithValue(t, "task: nil scheduler", func() { m.RequestWasQueued(nil) })
		assert.PanicsWithValue(t, "task: nil executor", func() { m.WillExecuteRequest(nil) })
		assert.PanicsWithValue(t, "task: nil error", func() { m.Fail(nil) })
	})
	t.Run("ResumeBeforeExecute", func(t *testing.T) {
		assert.Panics(t, func() { New(nil).ResumeRequestBodyStream() })
	})
	t.Run("HeadBeforeExecute", func(t *testing.T) {
		assert.Panics(t, func() { New(nil).ReceiveResponseHead(resp(200)) })
	})
	t.Run("SecondHead", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		m.ReceiveResponseHead(resp(200))
		assert.Panics(t, func() { m.ReceiveResponseHead(resp(200)) })
	})
	t.Run("ConsumeBeforeHead", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		assert.Panics(t, func() { m.ConsumeMoreBodyData(nil) })
	})
	t.Run("ConsumerDemandsTwice", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		m.ReceiveResponseHead(resp(200))
		m.ConsumeMoreBodyData(nil)
		assert.Panics(t, func() { m.ConsumeMoreBodyData(nil) })
	})
	t.Run("ConsumptionErrorWhileWaitingForRemote", func(t *testing.T) {
		m := New(nil)
		m.WillExecuteRequest(&executorStub{})
		m.ReceiveResponseHead(resp(200))
		m.ConsumeMoreBodyData(nil)
		assert.Panics(t, func() { m.ConsumeMoreBodyData(errors.New("boom")) })
	})
}
