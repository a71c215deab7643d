// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge provides a single-peer TCP debug channel between a host
// process and a remote tool, such as a running game talking to an
// external debugger.
//
// A [Bridge] owns one background worker goroutine. The worker is the
// only code that touches the listener or the connection; the rest of the
// process talks to it exclusively through two mailboxes, one carrying
// commands (outbound messages, terminate) to the worker and one carrying
// events (message received, peer connected, peer disconnected) back.
// Neither direction ever blocks the caller.
//
// The worker cycles through three states:
//
//   - Listening: accept with a short deadline, checking for Shutdown
//     between attempts so a bridge nobody connects to still stops
//     promptly. The listener is closed as soon as a peer is accepted,
//     so a second peer's dial is refused for the length of the session.
//   - Connected: discard messages queued before the peer arrived, then
//     loop: read whatever the peer has sent (bounded by a short read
//     deadline), publish each complete frame, then write every message
//     queued at that moment. When the peer resets or closes, publish
//     PeerDisconnected, bind the same address again, and go back to
//     Listening. Failing to bind it again stops the worker.
//   - Terminated: optionally send a farewell frame, close the
//     connection, exit.
//
// Frames are NUL-terminated UTF-8 (see package nulframe). The frame
// "ping" is a heartbeat and is never published.
//
// Failures other than a vanished peer are reported as [*SessionError]
// and handed to the bridge's [ErrorPolicy], which decides whether the
// worker stops ([DispositionFatal], the default via [FailFast]) or only
// drops the session ([DispositionDisconnect]). A fatal stop is returned
// from [Bridge.Shutdown] and [Bridge.Wait]; it never panics.
//
// The handle-side connection flag ([Bridge.Connected]) is a mirror
// updated as the handle consumes events, so it may lag the worker until
// the next Drain. Once the worker has exited it always reports false.
package bridge
