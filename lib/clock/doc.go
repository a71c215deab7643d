// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Code that timestamps events or runs on a periodic schedule accepts a
// Clock instead of calling time.Now or time.NewTicker directly. In
// production, Real() provides the standard library behavior. In tests,
// Fake() provides a clock that advances only when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	console := &console.Console{Clock: c, ...}
//	go console.Run(ctx)
//	c.WaitForTickers(1)           // wait for Run to create its ticker
//	c.Advance(20 * time.Millisecond) // deliver one tick
package clock
