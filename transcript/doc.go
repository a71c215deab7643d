// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcript records a debug bridge session to a file and reads
// it back.
//
// A transcript is a CBOR sequence of [Entry] records, one per message in
// either direction and one per connect or disconnect, optionally wrapped
// in a zstd or lz4 stream. The compression is chosen explicitly or
// inferred from the file extension (".zst", ".lz4"). Entries are
// encoded with lib/codec, so timestamps keep nanosecond precision.
//
// [Create] opens a file-backed [Writer]; [NewWriter] wraps any
// io.Writer. [Open] and [NewReader] are the reading counterparts. A
// transcript cut short by a crash is readable up to its last complete
// entry; [Reader.Next] reports the truncation as ErrTruncated rather
// than a decode error.
package transcript
