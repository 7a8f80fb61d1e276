// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the value types shared by the two request state
machines: the request head, the response head, body parts, and the body
framing metadata derived from the request headers.

The types in this package are deliberately dumb. A Head is the already
prepared request line plus headers; how it is serialized onto the wire
is the transport's business. A ResponseHead is the parsed status line
plus headers; how bytes became that head is equally not this package's
business. The state machines only ever branch on ResponseHead.Status.

Framing metadata is the one piece of header interpretation the machines
do need: whether the request carries no body, a body of known length, or
a chunked stream. Derive it once, before the request is started:

	f, err := request.FramingOf(head.Header)
	...
	action := machine.Start(head, f)

A fixed-size framing carries the expected byte count; the connection
state machine enforces that the streamed body matches it exactly.
*/
package request
