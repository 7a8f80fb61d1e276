// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package clienterror

import "strconv"

// A Code identifies one error in the client error surface.
type Code int

const (
	// CodeCancelled indicates the request was cancelled by its owner.
	CodeCancelled Code = iota + 1
	// CodeRemoteConnectionClosed indicates the remote peer closed the
	// connection before the request completed.
	CodeRemoteConnectionClosed
	// CodeReadTimeout indicates no response bytes arrived within the
	// idle-read timeout after the request was fully sent.
	CodeReadTimeout
	// CodeBodyLengthMismatch indicates the streamed request body did
	// not match the length declared in the request head.
	CodeBodyLengthMismatch
	// CodeWriteAfterRequestSent indicates a body part was written
	// after the request body stream was finished.
	CodeWriteAfterRequestSent
	// CodeRequestStreamCancelled indicates the request body stream was
	// abandoned, for example because the response redirected the
	// request elsewhere.
	CodeRequestStreamCancelled
	// CodeUnsupportedApplicationProtocol indicates TLS negotiation
	// settled on an application protocol the client cannot speak.
	CodeUnsupportedApplicationProtocol
	// CodeConnectTimeout indicates the connection could not be
	// established in time.
	CodeConnectTimeout
)

var codeText = map[Code]string{
	CodeCancelled:                      "request was cancelled",
	CodeRemoteConnectionClosed:         "remote connection closed",
	CodeReadTimeout:                    "read timeout",
	CodeBodyLengthMismatch:             "request body length does not match Content-Length header",
	CodeWriteAfterRequestSent:          "body part written after request stream finished",
	CodeRequestStreamCancelled:         "request body stream cancelled",
	CodeUnsupportedApplicationProtocol: "server offered unsupported application protocol",
	CodeConnectTimeout:                 "connect timeout",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return "clienterror.Code(" + strconv.Itoa(int(c)) + ")"
}

// An Error is one error of the client error surface, optionally
// wrapping the lower-level cause it was classified from.
type Error struct {
	// Code identifies the error.
	Code Code

	// Protocol is the rejected application protocol name. It is set
	// only for CodeUnsupportedApplicationProtocol.
	Protocol string

	cause error
}

// Singleton values for the parameterless errors of the surface.
// Terminal machine actions carry these values, so errors.Is against
// them works without unwrapping.
var (
	Cancelled              = &Error{Code: CodeCancelled}
	RemoteConnectionClosed = &Error{Code: CodeRemoteConnectionClosed}
	ReadTimeout            = &Error{Code: CodeReadTimeout}
	BodyLengthMismatch     = &Error{Code: CodeBodyLengthMismatch}
	WriteAfterRequestSent  = &Error{Code: CodeWriteAfterRequestSent}
	RequestStreamCancelled = &Error{Code: CodeRequestStreamCancelled}
	ConnectTimeout         = &Error{Code: CodeConnectTimeout}
)

// ServerOfferedUnsupportedApplicationProtocol returns the error
// reporting that TLS negotiation settled on the named protocol.
func ServerOfferedUnsupportedApplicationProtocol(name string) *Error {
	return &Error{Code: CodeUnsupportedApplicationProtocol, Protocol: name}
}

func (e *Error) Error() string {
	msg := "reqwire: " + e.Code.String()
	if e.Code == CodeUnsupportedApplicationProtocol && e.Protocol != "" {
		msg += " " + strconv.Quote(e.Protocol)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the classified cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code, so a classified error
// compares equal to its singleton: errors.Is(Coerce(err), ReadTimeout).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
