// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nulframe

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	got := Encode("hello")
	want := []byte{'h', 'e', 'l', 'l', 'o', 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(hello) = %v, want %v", got, want)
	}

	if got := Encode(""); !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("Encode(\"\") = %v, want a lone delimiter", got)
	}
}

func TestDecoder_Feed(t *testing.T) {
	tests := []struct {
		name     string
		chunks   []string
		want     []string
		buffered int
	}{
		{
			name:   "single frame",
			chunks: []string{"hello\x00"},
			want:   []string{"hello"},
		},
		{
			name:   "coalesced frames",
			chunks: []string{"a\x00b\x00"},
			want:   []string{"a", "b"},
		},
		{
			name:   "split across reads",
			chunks: []string{"hel", "lo\x00wor", "ld\x00"},
			want:   []string{"hello", "world"},
		},
		{
			name:   "nul padding produces nothing",
			chunks: []string{"x\x00\x00\x00", "\x00"},
			want:   []string{"x"},
		},
		{
			name:     "unterminated tail is held",
			chunks:   []string{"done\x00part"},
			want:     []string{"done"},
			buffered: 4,
		},
		{
			name:   "multibyte rune split across reads",
			chunks: []string{"caf\xc3", "\xa9\x00"},
			want:   []string{"café"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var decoder Decoder
			var got []string
			for _, chunk := range test.chunks {
				frames, err := decoder.Feed([]byte(chunk))
				if err != nil {
					t.Fatalf("Feed(%q): %v", chunk, err)
				}
				got = append(got, frames...)
			}
			if !slices.Equal(got, test.want) {
				t.Errorf("frames = %q, want %q", got, test.want)
			}
			if decoder.Buffered() != test.buffered {
				t.Errorf("Buffered() = %d, want %d", decoder.Buffered(), test.buffered)
			}
		})
	}
}

func TestDecoder_InvalidUTF8(t *testing.T) {
	var decoder Decoder
	frames, err := decoder.Feed([]byte("ok\x00\xff\xfe\x00after\x00"))
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if !slices.Equal(frames, []string{"ok"}) {
		t.Errorf("frames before the violation = %q, want [ok]", frames)
	}
	if decoder.Buffered() != 0 {
		t.Errorf("decoder kept %d bytes after a violation", decoder.Buffered())
	}
}

func TestDecoder_OverlongRunDelivered(t *testing.T) {
	decoder := Decoder{MaxFrameSize: 8}
	if frames, err := decoder.Feed([]byte("12345678")); err != nil || len(frames) != 0 {
		t.Fatalf("run at the limit = %q, %v; want it held", frames, err)
	}
	frames, err := decoder.Feed([]byte("9"))
	if err != nil {
		t.Fatalf("Feed past the limit: %v", err)
	}
	if !slices.Equal(frames, []string{"123456789"}) {
		t.Fatalf("frames = %q, want the held run", frames)
	}
	if decoder.Buffered() != 0 {
		t.Fatalf("Buffered() = %d after delivering the run", decoder.Buffered())
	}

	frames, err = decoder.Feed([]byte("end\x00"))
	if err != nil || !slices.Equal(frames, []string{"end"}) {
		t.Fatalf("frames after the run = %q, %v", frames, err)
	}
}

func TestDecoder_OverlongRunKeepsSplitRune(t *testing.T) {
	decoder := Decoder{MaxFrameSize: 4}
	frames, err := decoder.Feed([]byte("abcd\xc3"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !slices.Equal(frames, []string{"abcd"}) {
		t.Fatalf("frames = %q, want the text before the partial rune", frames)
	}
	frames, err = decoder.Feed([]byte("\xa9\x00"))
	if err != nil || !slices.Equal(frames, []string{"é"}) {
		t.Fatalf("frames = %q, %v; want the completed rune", frames, err)
	}
}

func TestDecoder_OverlongRunInvalidUTF8(t *testing.T) {
	decoder := Decoder{MaxFrameSize: 4}
	_, err := decoder.Feed([]byte("ab\xffcd"))
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if decoder.Buffered() != 0 {
		t.Errorf("decoder kept %d bytes after a violation", decoder.Buffered())
	}
}

func TestDecoder_DefaultLimit(t *testing.T) {
	var decoder Decoder
	frames, err := decoder.Feed([]byte(strings.Repeat("a", DefaultMaxFrameSize) + "\x00"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 1 || len(frames[0]) != DefaultMaxFrameSize {
		t.Fatalf("expected one %d-byte frame", DefaultMaxFrameSize)
	}
}

func TestDecoder_Reset(t *testing.T) {
	var decoder Decoder
	if _, err := decoder.Feed([]byte("stale")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	decoder.Reset()
	frames, err := decoder.Feed([]byte("fresh\x00"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !slices.Equal(frames, []string{"fresh"}) {
		t.Fatalf("frames = %q, want [fresh]", frames)
	}
}
