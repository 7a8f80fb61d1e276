// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package clienterror

import (
	"errors"
	"syscall"
)

// Coerce classifies a raw transport error into the client error
// surface, wrapping err as the cause. An err that is already an *Error
// is returned unchanged.
//
// Classification looks at wrapped causes within err, not just err
// itself. An error whose chain has a Timeout() function reporting true
// is a read timeout; ECONNREFUSED is a connect timeout; everything
// else, including ECONNRESET, EPIPE, and plain EOFs, is classified as a
// closed remote connection, because by the time a transport error
// reaches a request machine the connection is unusable either way.
//
// Coerce never consults Temporary(), as its semantics aren't entirely
// clear.
func Coerce(err error) *Error {
	if err == nil {
		panic("clienterror: coerce nil error")
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return &Error{Code: CodeReadTimeout, cause: err}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ECONNREFUSED {
		return &Error{Code: CodeConnectTimeout, cause: err}
	}

	return &Error{Code: CodeRemoteConnectionClosed, cause: err}
}

type hasTimeout interface {
	Timeout() bool
}
