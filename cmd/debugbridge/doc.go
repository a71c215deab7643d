// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// debugbridge is a single-peer TCP debug console for a running game.
//
// "debugbridge serve" listens for the game's debug connection, relays
// lines typed on stdin to it as NUL-terminated frames, and prints what
// the game sends back. When the game disconnects the bridge goes back
// to listening on the same address. SIGINT or SIGTERM shuts the bridge
// down in order: queued lines are written, the optional farewell frame
// is sent, and the connection is closed.
//
// "debugbridge dial" plays the game's side against a running bridge,
// including heartbeats, for testing without a game.
//
// "debugbridge replay" prints a transcript recorded with
// "serve --record".
package main
