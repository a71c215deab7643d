// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2) and RFC 3339 timestamps carried under tag 0,
// so a transcript stays readable by generic CBOR tooling.
var encMode cbor.EncMode

// decMode accepts standard CBOR. Unknown fields are silently ignored so
// older readers can open newer transcripts.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TimeTag = cbor.EncTagRequired
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Records are read back from files that may be truncated by a
		// crash; cap nesting and lengths so a corrupt tail cannot make
		// the decoder allocate without bound.
		MaxNestedLevels:  16,
		MaxArrayElements: 1 << 16,
		MaxMapPairs:      1 << 16,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encoder is a CBOR stream encoder. Type alias so consumers import only
// lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder. Type alias so consumers import only
// lib/codec, not fxamacker/cbor directly.
type Decoder = cbor.Decoder

// NewEncoder returns an encoder that writes a CBOR sequence (RFC 8742)
// to w, one item per Encode call.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a decoder that reads a CBOR sequence from r. Decode
// returns io.EOF after the last complete item.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
