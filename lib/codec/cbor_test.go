// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

type sampleRecord struct {
	Direction string    `cbor:"direction"`
	Text      string    `cbor:"text,omitempty"`
	Time      time.Time `cbor:"time"`
}

// encode returns the bytes of v as a one-item sequence.
func encode(t *testing.T, v any) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := NewEncoder(&buffer).Encode(v); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buffer.Bytes()
}

func TestRoundtrip(t *testing.T) {
	original := sampleRecord{
		Direction: "in",
		Text:      "line one\nline two",
		Time:      time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC),
	}

	var decoded sampleRecord
	if err := NewDecoder(bytes.NewReader(encode(t, original))).Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Direction != original.Direction || decoded.Text != original.Text {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if !decoded.Time.Equal(original.Time) {
		t.Errorf("time = %v, want %v (nanoseconds must survive)", decoded.Time, original.Time)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}

	first := encode(t, value)
	for range 10 {
		if !bytes.Equal(first, encode(t, value)) {
			t.Fatal("encoding differs between calls for the same map")
		}
	}
}

func TestEncodeTimeIsTagged(t *testing.T) {
	data := encode(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	// 0xc0 is tag 0 (standard date/time string).
	if len(data) == 0 || data[0] != 0xc0 {
		t.Fatalf("time encoded as % x, want a tag 0 prefix", data)
	}
}

func TestSequenceStream(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, direction := range []string{"connect", "in", "out"} {
		if err := encoder.Encode(sampleRecord{Direction: direction}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var got []string
	for {
		var record sampleRecord
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got = append(got, record.Direction)
	}
	if len(got) != 3 || got[0] != "connect" || got[2] != "out" {
		t.Fatalf("decoded directions = %v", got)
	}
}
