// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package conn contains the connection-side request state machine: the
state of one HTTP request as seen from the channel it runs on.

The machine tracks request body framing, writability-driven
backpressure on the body producer, response parsing progress, and the
idle-read timeout window. It holds no channel, no socket, and no lock;
every public method is a synchronous transition that mutates the
machine in place and returns a single Action telling the caller what to
do on its behalf: write bytes, forward response data to the request's
owner, issue a channel read, or tear the request down.

All methods must be called from the channel's event loop (or whatever
single goroutine owns the machine). Events originating elsewhere, such
as cancellation, must hop onto that goroutine first.

The caller is expected to act on every returned Action, including the
terminal ones: SucceedRequest and FailRequest carry a FinalStreamAction
saying whether the connection underneath is still usable.
*/
package conn
