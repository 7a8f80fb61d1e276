// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
)

// NewLocationResolver returns a Resolver that reads the Location
// header and resolves it against base, the URL of the request being
// redirected. Only http and https targets are accepted; a redirect
// into another scheme is not a request this client can re-execute.
func NewLocationResolver(base *urlpkg.URL) Resolver {
	if base == nil {
		panic("redirect: nil base URL")
	}
	return locationResolver{base: base}
}

type locationResolver struct {
	base *urlpkg.URL
}

func (r locationResolver) Resolve(_ int, header http.Header) (*urlpkg.URL, error) {
	loc := header.Get("Location")
	if loc == "" {
		return nil, errors.New("redirect: no Location header")
	}
	u, err := urlpkg.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("redirect: malformed Location %q: %w", loc, err)
	}
	u = r.base.ResolveReference(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("redirect: unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

// The ResolverFunc type is an adapter to allow the use of ordinary
// functions as resolvers.
type ResolverFunc func(status int, header http.Header) (*urlpkg.URL, error)

// Resolve calls f(status, header).
func (f ResolverFunc) Resolve(status int, header http.Header) (*urlpkg.URL, error) {
	return f(status, header)
}
