// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"time"
)

// commandKind distinguishes the commands the handle sends the worker.
type commandKind int

const (
	commandMessage commandKind = iota
	commandTerminate
)

// command is one unit of work for the worker.
type command struct {
	kind commandKind
	text string
}

// EventKind distinguishes the events the worker publishes.
type EventKind int

const (
	// EventMessage carries one inbound frame from the peer.
	EventMessage EventKind = iota

	// EventPeerConnected is published when a peer is accepted.
	EventPeerConnected

	// EventPeerDisconnected is published when a session ends and the
	// worker goes back to listening. It is not published for the
	// session that is open when the bridge shuts down.
	EventPeerDisconnected
)

// String returns the kind name used in logs and transcripts.
func (kind EventKind) String() string {
	switch kind {
	case EventMessage:
		return "message"
	case EventPeerConnected:
		return "connected"
	case EventPeerDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("unknown(%d)", int(kind))
	}
}

// Event is a notification from the worker.
type Event struct {
	Kind EventKind

	// Text is the message body. Empty for connection events.
	Text string

	// Remote is the address of the peer the event concerns.
	Remote string

	// Time is the worker clock's reading when the event was published.
	Time time.Time
}
