// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/reqwire/reqwire/request"
)

// A Policy decides the idle-read timeout for a request: how long the
// connection may stay silent after the request has been fully sent
// before the request is failed with a read timeout. A zero or negative
// return value disables the timeout for that request.
//
// Implementations of Policy must be safe for concurrent use by
// multiple goroutines.
type Policy interface {
	// IdleRead returns the idle-read timeout to arm once the request
	// end has been sent on the wire.
	IdleRead(head request.Head) time.Duration
}

// DefaultPolicy is the default idle-read timeout policy. It allows the
// connection to stay silent for 30 seconds after the request is fully
// sent.
var DefaultPolicy Policy = Fixed(30 * time.Second)

// Infinite is a built-in policy which never times out an idle read.
var Infinite Policy = Fixed(0)

// Fixed constructs a policy that uses the same idle-read timeout for
// every request. A non-positive d disables the timeout.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (f fixed) IdleRead(_ request.Head) time.Duration {
	return time.Duration(f)
}

// The PolicyFunc type is an adapter to allow the use of ordinary
// functions as timeout policies, for example to give slow endpoints a
// longer leash by path.
type PolicyFunc func(head request.Head) time.Duration

// IdleRead calls f(head).
func (f PolicyFunc) IdleRead(head request.Head) time.Duration {
	return f(head)
}
