// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for debugbridge packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. These are the only place in
// the test suite where real wall-clock timeouts are used.
//
// [DialPeer] opens a raw TCP connection that plays the remote end of a
// bridge session: it writes NUL-terminated frames, reads frames back
// with a deadline, and can drop the connection with a reset instead of
// an orderly close.
//
// [UniqueID] generates monotonically increasing identifiers so message
// bodies from different tests or cycles are distinguishable.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
