// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package peer implements the game side of a debug bridge connection,
// for exercising a bridge without a game attached. A [Client] dials the
// bridge, sends each input line as a frame, prints every frame it
// receives, and keeps the connection warm with heartbeat frames.
//
// The session ends when the bridge closes the connection, when it
// sends the configured farewell frame, or when the caller's context is
// cancelled. Input ending half-closes the connection and waits for the
// bridge to finish.
package peer
