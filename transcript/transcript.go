// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/debugbridge/lib/codec"
)

// Direction says what an Entry records.
type Direction string

const (
	// Inbound is a message from the peer.
	Inbound Direction = "in"

	// Outbound is a message sent to the peer.
	Outbound Direction = "out"

	// Connect is a peer connecting.
	Connect Direction = "connect"

	// Disconnect is a peer going away.
	Disconnect Direction = "disconnect"
)

// Entry is one transcript record.
type Entry struct {
	Time      time.Time `cbor:"time"`
	Direction Direction `cbor:"direction"`
	Remote    string    `cbor:"remote,omitempty"`
	Text      string    `cbor:"text,omitempty"`
}

// Compression selects how the CBOR stream is wrapped on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ErrTruncated is returned by Reader.Next when the transcript ends in
// the middle of an entry.
var ErrTruncated = errors.New("transcript: truncated entry")

// ParseCompression parses a compression name. The empty string means
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("transcript: unknown compression %q (valid: none, zstd, lz4)", name)
	}
}

// CompressionForPath infers compression from a file extension.
func CompressionForPath(path string) Compression {
	switch filepath.Ext(path) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Writer appends entries to a transcript. It is safe for concurrent
// use.
type Writer struct {
	mu         sync.Mutex
	encoder    *codec.Encoder
	compressor io.WriteCloser
	buffered   *bufio.Writer
	file       io.Closer
	closed     bool
}

// Create creates (or truncates) the transcript file at path. An empty
// compression is inferred from the extension.
func Create(path string, compression Compression) (*Writer, error) {
	if compression == "" {
		compression = CompressionForPath(path)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("transcript: creating %s: %w", path, err)
	}
	writer, err := NewWriter(file, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.file = file
	return writer, nil
}

// NewWriter returns a Writer that encodes entries to w. Close flushes
// the compressor but does not close w.
func NewWriter(w io.Writer, compression Compression) (*Writer, error) {
	writer := &Writer{}

	switch compression {
	case "", CompressionNone:
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("transcript: zstd writer: %w", err)
		}
		writer.compressor = encoder
		w = encoder
	case CompressionLZ4:
		encoder := lz4.NewWriter(w)
		writer.compressor = encoder
		w = encoder
	default:
		return nil, fmt.Errorf("transcript: unknown compression %q", compression)
	}

	writer.buffered = bufio.NewWriter(w)
	writer.encoder = codec.NewEncoder(writer.buffered)
	return writer, nil
}

// Write appends one entry.
func (w *Writer) Write(entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("transcript: write after close")
	}
	if err := w.encoder.Encode(entry); err != nil {
		return fmt.Errorf("transcript: encoding entry: %w", err)
	}
	return nil
}

// Flush pushes buffered entries through the compressor to the
// underlying writer. Compressed formats may still hold a partial block
// until Close.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.buffered.Flush()
}

// Close flushes everything and closes the file if the Writer owns one.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.buffered.Flush()
	if w.compressor != nil {
		err = errors.Join(err, w.compressor.Close())
	}
	if w.file != nil {
		err = errors.Join(err, w.file.Close())
	}
	if err != nil {
		return fmt.Errorf("transcript: closing: %w", err)
	}
	return nil
}

// Reader decodes entries from a transcript.
type Reader struct {
	decoder *codec.Decoder
	release func()
	file    io.Closer
}

// Open opens the transcript at path, inferring compression from the
// extension.
func Open(path string) (*Reader, error) {
	return OpenWith(path, CompressionForPath(path))
}

// OpenWith opens the transcript at path with an explicit compression.
func OpenWith(path string, compression Compression) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: opening %s: %w", path, err)
	}
	reader, err := NewReader(file, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.file = file
	return reader, nil
}

// NewReader returns a Reader that decodes entries from r.
func NewReader(r io.Reader, compression Compression) (*Reader, error) {
	reader := &Reader{}

	switch compression {
	case "", CompressionNone:
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("transcript: zstd reader: %w", err)
		}
		reader.release = decoder.Close
		r = decoder
	case CompressionLZ4:
		r = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("transcript: unknown compression %q", compression)
	}

	reader.decoder = codec.NewDecoder(bufio.NewReader(r))
	return reader, nil
}

// Next returns the next entry, io.EOF after the last one, or
// ErrTruncated if the stream ends partway through an entry.
func (r *Reader) Next() (Entry, error) {
	var entry Entry
	err := r.decoder.Decode(&entry)
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, io.EOF):
		return Entry{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Entry{}, ErrTruncated
	default:
		return Entry{}, fmt.Errorf("transcript: decoding entry: %w", err)
	}
}

// All reads every remaining entry. A truncated tail is returned
// alongside the complete entries before it.
func (r *Reader) All() ([]Entry, error) {
	var entries []Entry
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

// Close releases decompressor resources and the file, if owned.
func (r *Reader) Close() error {
	if r.release != nil {
		r.release()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
