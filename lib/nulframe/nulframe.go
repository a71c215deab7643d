// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nulframe

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Delimiter terminates every frame on the wire.
const Delimiter byte = 0x00

// HeartbeatToken is the reserved frame a peer sends to check the
// connection. It never carries application payload.
const HeartbeatToken = "ping"

// FarewellToken is the frame a bridge conventionally sends before it
// closes the connection on shutdown, telling the peer to exit.
const FarewellToken = "kill"

// DefaultMaxFrameSize bounds how many bytes a Decoder buffers while
// waiting for a terminator: 64 KiB. A longer unterminated run is
// delivered as a frame of its own.
const DefaultMaxFrameSize = 64 << 10

// ErrInvalidUTF8 is returned when a frame is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("nulframe: frame is not valid UTF-8")

// Encode returns text followed by the frame delimiter.
func Encode(text string) []byte {
	frame := make([]byte, 0, len(text)+1)
	frame = append(frame, text...)
	return append(frame, Delimiter)
}

// Decoder splits a byte stream into frames. The zero value is usable and
// applies DefaultMaxFrameSize. A Decoder is not safe for concurrent use.
type Decoder struct {
	// MaxFrameSize is the largest unterminated frame the decoder will
	// hold. Once more is buffered, the held text is delivered as a frame
	// and buffering starts over. Zero means DefaultMaxFrameSize.
	MaxFrameSize int

	pending []byte
}

// Feed appends chunk to the decoder's buffer and returns every frame the
// buffer now completes, in order. On error the frames decoded before the
// offending one are still returned, and the buffer is discarded: the
// stream is no longer trustworthy.
func (d *Decoder) Feed(chunk []byte) ([]string, error) {
	d.pending = append(d.pending, chunk...)

	var frames []string
	for {
		index := bytes.IndexByte(d.pending, Delimiter)
		if index < 0 {
			break
		}
		frame := d.pending[:index]
		d.pending = d.pending[index+1:]
		if len(frame) == 0 {
			continue
		}
		if !utf8.Valid(frame) {
			d.Reset()
			return frames, fmt.Errorf("%w (%d bytes)", ErrInvalidUTF8, len(frame))
		}
		frames = append(frames, string(frame))
	}

	if len(d.pending) > d.limit() {
		frame, err := d.flush()
		if err != nil {
			return frames, err
		}
		if frame != "" {
			frames = append(frames, frame)
		}
	}

	// Compact so a long session does not pin an ever-growing backing
	// array behind a short pending slice.
	if len(d.pending) == 0 {
		d.pending = d.pending[:0:0]
	}
	return frames, nil
}

// flush releases an over-long unterminated run as a frame. A rune cut
// off at the end of the buffer stays behind for the next chunk.
func (d *Decoder) flush() (string, error) {
	cut := len(d.pending)
	for tail := 1; tail < utf8.UTFMax && tail <= cut; tail++ {
		if utf8.RuneStart(d.pending[cut-tail]) {
			if !utf8.FullRune(d.pending[cut-tail:]) {
				cut -= tail
			}
			break
		}
	}
	if !utf8.Valid(d.pending[:cut]) {
		size := len(d.pending)
		d.Reset()
		return "", fmt.Errorf("%w (%d unterminated bytes)", ErrInvalidUTF8, size)
	}
	frame := string(d.pending[:cut])
	d.pending = append([]byte(nil), d.pending[cut:]...)
	return frame, nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.pending)
}

// Reset discards any partial frame. Call it when the underlying
// connection is replaced.
func (d *Decoder) Reset() {
	d.pending = nil
}

func (d *Decoder) limit() int {
	if d.MaxFrameSize > 0 {
		return d.MaxFrameSize
	}
	return DefaultMaxFrameSize
}
