// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
)

// An ID identifies one logical request for the lifetime of its
// execution, across queueing, execution, and any redirect-driven
// re-execution. It is an opaque token: schedulers key their run queues
// on it and nothing else reads its contents.
type ID string

// NewID returns a new unique request ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// A Head is the request line and header block of a single HTTP request,
// fully prepared for the wire. The connection state machine treats it
// as an opaque payload of the SendRequestHead action; it never inspects
// or mutates it.
type Head struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent. The body
	// framing headers (Content-Length, Transfer-Encoding) must agree
	// with the framing metadata passed alongside the head; use
	// FramingOf to derive one from the other.
	Header http.Header
}

// Validate checks that the head is structurally fit to send: it has a
// URL, and every header field name and value is valid per RFC 9110.
//
// Validate exists for the benefit of the code assembling heads from
// user input. The state machines assume heads handed to them are
// already valid.
func (h Head) Validate() error {
	if h.URL == nil {
		return errors.New("request: head has no URL")
	}
	for name, values := range h.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("request: invalid header field name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("request: invalid value for header field %q", name)
			}
		}
	}
	return nil
}

// A ResponseHead is the parsed status line and header block of a
// response. The state machines branch only on Status; everything else
// is carried through to the delegate untouched.
type ResponseHead struct {
	// Status is the numeric HTTP status code, e.g. 200.
	Status int

	// Proto is the protocol version string, e.g. "HTTP/1.1".
	Proto string

	// Header contains the response header fields.
	Header http.Header
}

// Informational reports whether the head is a 1xx interim response.
func (h ResponseHead) Informational() bool {
	return h.Status < 200
}

// A Part is one contiguous chunk of request or response body bytes.
// Parts flow through the machines by reference; neither machine copies
// or inspects the payload beyond its length.
type Part struct {
	Data []byte
}

// PartOf wraps a byte slice in a Part without copying.
func PartOf(b []byte) Part {
	return Part{Data: b}
}

// Len returns the payload length in bytes.
func (p Part) Len() int {
	return len(p.Data)
}
