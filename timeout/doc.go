// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package timeout provides the idle-read timeout policy consulted by the
transaction driver.

The idle-read timeout bounds how long a fully sent request may sit
waiting for response bytes. It is armed only once the request end has
gone onto the wire, and firing it is only legal in that phase; earlier
phases have their own timeouts (connect, body write) which belong to
the transport, not to this package.

Use Fixed to bound every request the same way, or Infinite to disable
the timeout:

	d := policy.IdleRead(head)
	if d > 0 {
		timer = time.AfterFunc(d, fire)
	}
*/
package timeout
