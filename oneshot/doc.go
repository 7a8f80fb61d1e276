// Copyright 2026 The reqwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package oneshot provides the one-shot completion handle the request
body producer awaits to implement upload backpressure.

A Promise is settled at most once, with either a success or a failure,
and that one settlement is what every waiter observes. The producer
writes a body part, receives a Promise from the write action, and blocks
on Wait until the connection side is ready for the next part:

	w := machine.WriteNextRequestPart(part).(task.Write)
	...
	if err := w.Ack.Wait(ctx); err != nil {
		// the request failed or was redirected away
	}

Settling an already settled Promise is a no-op; the first settlement
wins. This keeps the racing settlement paths (resume on the task side,
failure on either side) from needing to coordinate.
*/
package oneshot
