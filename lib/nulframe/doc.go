// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nulframe implements the debug bridge wire framing: UTF-8 text
// messages, each terminated by a single 0x00 byte. There is no length
// prefix. A sender writes one frame per application-level message; a
// receiver reads arbitrary chunks and splits them at NUL bytes.
//
// [Encode] produces one frame. [Decoder] consumes chunks as they come
// off the socket and returns complete frames in arrival order. Bytes
// after the last NUL in a chunk are held until a later chunk completes
// the frame, so a message split across two reads is reassembled rather
// than surfaced as two fragments. Runs of NUL bytes (the padding some
// peers append) produce no frames.
//
// The literal frame [HeartbeatToken] is reserved for liveness checks.
// This package only defines it; dropping heartbeats is the caller's job.
package nulframe
