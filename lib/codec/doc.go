// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the project's CBOR encoding configuration.
//
// The bridge wire protocol is plain NUL-terminated text and does not use
// this package. CBOR is the format for on-disk records, currently
// session transcripts, where a compact self-describing binary encoding
// with native timestamps beats line-oriented text (message bodies may
// contain any character, including newlines).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes.
//
// Records are written and read as CBOR sequences, one record after
// another in a file:
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
package codec
