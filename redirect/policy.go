// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"net/http"
	urlpkg "net/url"
)

// A Policy decides whether a response redirects the request, and where
// to. Follow returns the redirect target and true to intercept the
// response, or false to let it flow to the delegate.
//
// Implementations of Policy must be pure functions of the status and
// header: the state machine calls Follow at most once per response and
// assumes the answer would not change if it asked again.
type Policy interface {
	Follow(status int, header http.Header) (*urlpkg.URL, bool)
}

// Never is a policy that never redirects.
var Never Policy = never{}

type never struct{}

func (never) Follow(_ int, _ http.Header) (*urlpkg.URL, bool) {
	return nil, false
}

// A Decider decides whether a response status and header block
// constitute a redirect at all, without resolving the target.
type Decider interface {
	Decide(status int, header http.Header) bool
}

// A Resolver resolves the redirect target of a response already known
// to be a redirect. Returning an error means the target is unusable
// (absent, malformed, or an unsupported scheme) and the response is
// not followed.
type Resolver interface {
	Resolve(status int, header http.Header) (*urlpkg.URL, error)
}

// NewPolicy composes a Decider and a Resolver into a Policy.
func NewPolicy(d Decider, r Resolver) Policy {
	if d == nil {
		panic("redirect: nil decider")
	}
	if r == nil {
		panic("redirect: nil resolver")
	}
	return policy{decider: d, resolver: r}
}

type policy struct {
	decider  Decider
	resolver Resolver
}

func (p policy) Follow(status int, header http.Header) (*urlpkg.URL, bool) {
	if !p.decider.Decide(status, header) {
		return nil, false
	}
	u, err := p.resolver.Resolve(status, header)
	if err != nil {
		return nil, false
	}
	return u, true
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as redirect deciders. It also provides the logical
// composition methods And and Or.
type DeciderFunc func(status int, header http.Header) bool

// Decide calls f(status, header).
func (f DeciderFunc) Decide(status int, header http.Header) bool {
	return f(status, header)
}

// And composes two deciders into one which redirects only if both
// sub-deciders agree. Short-circuit logic is used, so g is not
// evaluated if f declines.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(status int, header http.Header) bool {
		return f(status, header) && g(status, header)
	}
}

// Or composes two deciders into one which redirects if either
// sub-decider agrees. Short-circuit logic is used, so g is not
// evaluated if f accepts.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(status int, header http.Header) bool {
		return f(status, header) || g(status, header)
	}
}

// DefaultDecider redirects on the standard redirect statuses (301, 302,
// 303, 307, 308) when a Location header is present.
var DefaultDecider = StatusCode(
	http.StatusMovedPermanently,
	http.StatusFound,
	http.StatusSeeOther,
	http.StatusTemporaryRedirect,
	http.StatusPermanentRedirect,
).And(HasLocation)

// HasLocation is a decider that requires a non-empty Location header.
var HasLocation DeciderFunc = func(_ int, header http.Header) bool {
	return header.Get("Location") != ""
}

// StatusCode constructs a decider that redirects exactly on the listed
// status codes.
func StatusCode(statuses ...int) DeciderFunc {
	set := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(status int, _ http.Header) bool {
		_, ok := set[status]
		return ok
	}
}
