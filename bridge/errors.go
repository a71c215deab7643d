// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol matches a SessionError caused by bytes that violate
	// the framing contract: a frame that is not valid UTF-8.
	ErrProtocol = errors.New("bridge: protocol violation")

	// ErrStopped is returned by WaitForFirstConnection when the worker
	// exits cleanly before any peer connected.
	ErrStopped = errors.New("bridge: worker stopped")
)

// ErrorClass groups the failures a session can hit.
type ErrorClass int

const (
	// ClassPeerGone is a reset, EOF, or broken pipe. It always ends the
	// session as a disconnect and is never passed to an ErrorPolicy.
	ClassPeerGone ErrorClass = iota

	// ClassProtocol is a frame that is not valid UTF-8.
	ClassProtocol

	// ClassIO is any other socket error, including an expired write
	// deadline.
	ClassIO
)

// String returns the class name used in logs.
func (class ErrorClass) String() string {
	switch class {
	case ClassPeerGone:
		return "peer_gone"
	case ClassProtocol:
		return "protocol"
	case ClassIO:
		return "io"
	default:
		return fmt.Sprintf("unknown(%d)", int(class))
	}
}

// SessionError describes a failure on the active connection.
type SessionError struct {
	// Class is the failure category the ErrorPolicy decides on.
	Class ErrorClass

	// Op is the operation that failed: "read", "decode", or "write".
	Op string

	// Remote is the peer's address.
	Remote string

	// Err is the underlying error.
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("bridge: %s from %s (%s): %v", e.Op, e.Remote, e.Class, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Is makes every ClassProtocol error match ErrProtocol.
func (e *SessionError) Is(target error) bool {
	return target == ErrProtocol && e.Class == ClassProtocol
}

// Disposition is an ErrorPolicy's verdict on a SessionError.
type Disposition int

const (
	// DispositionFatal stops the worker. The error is returned from
	// Wait and Shutdown.
	DispositionFatal Disposition = iota

	// DispositionDisconnect drops the session, emits
	// EventPeerDisconnected, and goes back to listening.
	DispositionDisconnect
)

// ErrorPolicy decides whether a session failure stops the worker or only
// ends the session. It runs on the worker goroutine and must not block.
type ErrorPolicy func(*SessionError) Disposition

// FailFast is the default policy: every unanticipated failure stops the
// worker.
func FailFast(*SessionError) Disposition { return DispositionFatal }

// TolerateProtocolErrors treats a misbehaving peer as a disconnect and
// keeps serving, while other I/O failures remain fatal.
func TolerateProtocolErrors(sessionError *SessionError) Disposition {
	if sessionError.Class == ClassProtocol {
		return DispositionDisconnect
	}
	return DispositionFatal
}
