// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package clienterror defines the error surface the request state
machines present to their owners, plus classification of raw transport
errors into that surface.

Every terminal failure a machine reports is one of the errors defined
here, directly or wrapping a cause. Compare with errors.Is:

	if errors.Is(err, clienterror.Cancelled) {
		...
	}

Raw errors surfaced by the transport (socket errors, deadline
expiries) can be classified with Coerce before being fed into a
machine, so the owner of the request observes the documented surface
rather than platform error codes.
*/
package clienterror
