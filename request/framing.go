// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/net/http/httpguts"
)

// A FramingKind classifies how a request body is delimited on the wire.
type FramingKind int

const (
	// FramingNone indicates the request carries no body at all.
	FramingNone FramingKind = iota
	// FramingFixed indicates a body of a length declared up front via
	// Content-Length.
	FramingFixed
	// FramingStream indicates a chunked body whose length is unknown
	// until the producer finishes it.
	FramingStream
)

var framingKindNames = []string{
	"None",
	"Fixed",
	"Stream",
}

func (k FramingKind) String() string {
	if k < 0 || int(k) >= len(framingKindNames) {
		return "FramingKind(" + strconv.Itoa(int(k)) + ")"
	}
	return framingKindNames[k]
}

// BodyFraming is the body delimitation metadata the connection state
// machine needs to police a request body: whether there is one, and if
// its size is declared, how many bytes the producer has promised.
type BodyFraming struct {
	// Kind classifies the framing.
	Kind FramingKind

	// Length is the declared body length in bytes. It is meaningful
	// only when Kind is FramingFixed.
	Length int64
}

// NoBody is the framing of a request without a body.
var NoBody = BodyFraming{Kind: FramingNone}

// FixedSize returns the framing of a body whose exact length is
// declared up front.
func FixedSize(n int64) BodyFraming {
	if n < 0 {
		panic("request: negative body length")
	}
	return BodyFraming{Kind: FramingFixed, Length: n}
}

// Stream is the framing of a chunked body of unknown length.
var Stream = BodyFraming{Kind: FramingStream}

// StartsBody reports whether sending the request head must be followed
// by a request body stream. A missing body and a declared length of
// zero both mean the head is the whole request.
func (f BodyFraming) StartsBody() bool {
	switch f.Kind {
	case FramingNone:
		return false
	case FramingFixed:
		return f.Length > 0
	case FramingStream:
		return true
	default:
		panic(fmt.Sprintf("request: invalid framing kind %d", f.Kind))
	}
}

// ExpectedLength returns the declared body length and whether one was
// declared.
func (f BodyFraming) ExpectedLength() (int64, bool) {
	if f.Kind == FramingFixed {
		return f.Length, true
	}
	return 0, false
}

// FramingOf derives the body framing from a prepared request header
// block: a Transfer-Encoding containing the chunked token means a
// streamed body, a Content-Length means a fixed-size body, and neither
// means no body at all.
//
// A header block that declares both, carries several conflicting
// Content-Length values, or carries a malformed Content-Length, is
// rejected; a request framed from it could never be kept in sync with
// the wire.
func FramingOf(header http.Header) (BodyFraming, error) {
	chunked := httpguts.HeaderValuesContainsToken(header.Values("Transfer-Encoding"), "chunked")
	lengths := header.Values("Content-Length")

	if chunked {
		if len(lengths) > 0 {
			return BodyFraming{}, errors.New("request: both Transfer-Encoding and Content-Length set")
		}
		return Stream, nil
	}

	if len(lengths) == 0 {
		return NoBody, nil
	}
	n, err := strconv.ParseInt(lengths[0], 10, 64)
	if err != nil || n < 0 {
		return BodyFraming{}, fmt.Errorf("request: malformed Content-Length %q", lengths[0])
	}
	for _, l := range lengths[1:] {
		if l != lengths[0] {
			return BodyFraming{}, errors.New("request: conflicting Content-Length values")
		}
	}
	return FixedSize(n), nil
}
