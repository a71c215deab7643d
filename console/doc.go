// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console is the interactive front end of "debugbridge serve".
//
// A [Console] reads lines from its input and queues each non-empty line
// on a bridge as an outbound message. On a fixed tick it drains the
// bridge's events and prints them:
//
//	* connected 127.0.0.1:53122
//	peer> player_x=10
//	* disconnected
//
// Peer text is untrusted, so escape sequences are stripped before it
// reaches the terminal. When a transcript writer is attached, every
// printed event and every sent line is recorded.
package console
