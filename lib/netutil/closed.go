// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies the errors a socket owner sees, so callers
// can tell an ordinary peer disconnect or poll timeout from a genuine
// failure without matching on error strings.
package netutil

import (
	"errors"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// IsPeerGone reports whether err means the remote end went away: EOF,
// an already-closed connection, broken pipe, connection reset, or a
// connection aborted before it was accepted. These end a session
// normally and are not failures of the local process.
func IsPeerGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		switch errno {
		case unix.EPIPE, unix.ECONNRESET, unix.ECONNABORTED:
			return true
		}
	}
	return false
}

// IsTimeout reports whether err is an expired read, write, or accept
// deadline. For a socket polled with short deadlines this is the
// "nothing ready yet" outcome, not an error.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netError net.Error
	return errors.As(err, &netError) && netError.Timeout()
}

// IsRefused reports whether a dial failed because nothing was listening.
// A bridge in session refuses dials until it listens again.
func IsRefused(err error) bool {
	var errno unix.Errno
	return errors.As(err, &errno) && errno == unix.ECONNREFUSED
}
