// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for debugbridge.
//
// Configuration is loaded from a single file specified by either the
// DEBUGBRIDGE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no discovery and no automatic file
// search. Values not present in the file keep their [Default].
//
// Variable expansion is performed on listen.address and transcript.path
// after loading: ${VAR} and ${VAR:-default} patterns are expanded from
// the environment. No other environment variables override config
// values.
//
// Key exports:
//
//   - [Config] -- master struct with Listen, Bridge, Log, Transcript
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Configure] -- applies the file to a [bridge.Bridge]
package config
