// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package redirect provides the redirect policy injected into the
task-side request state machine.

A Policy is consulted at most once per response, with the response
status and headers. If it yields a target URL, the machine intercepts
the response: nothing is forwarded to the delegate, and the request is
re-executed against the target once the current response has fully
arrived.

The default building blocks follow standard HTTP semantics: statuses
301, 302, 303, 307, and 308 with a Location header redirect, and the
Location value is resolved against the request URL:

	p := redirect.NewPolicy(redirect.DefaultDecider, redirect.NewLocationResolver(reqURL))
	m := task.New(p)

Use Never (or a nil policy) to disable redirect interception, leaving
3xx responses to flow to the delegate like any other response. Policies
must be pure: no side effects, same answer for the same head.
*/
package redirect
