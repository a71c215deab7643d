// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/debugbridge/bridge"
	"github.com/bureau-foundation/debugbridge/lib/nulframe"
	"github.com/bureau-foundation/debugbridge/transcript"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "debugbridge.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Listen.Address != "127.0.0.1:6510" {
		t.Errorf("expected address=127.0.0.1:6510, got %s", cfg.Listen.Address)
	}
	if cfg.Bridge.ProtocolErrors != ProtocolErrorsFatal {
		t.Errorf("expected protocol_errors=fatal, got %s", cfg.Bridge.ProtocolErrors)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresEnvironment(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DEBUGBRIDGE_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "DEBUGBRIDGE_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithEnvironment(t *testing.T) {
	t.Setenv(EnvironmentVariable, writeConfig(t, `
listen:
  address: 127.0.0.1:7000
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Listen.Address != "127.0.0.1:7000" {
		t.Errorf("expected address=127.0.0.1:7000, got %s", cfg.Listen.Address)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level to survive, got %q", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
listen:
  address: 0.0.0.0:6600

bridge:
  accept_poll_interval: 100ms
  read_poll_interval: 5ms
  write_timeout: 2s
  close_grace: 1s
  read_buffer_size: 4096
  max_frame_size: 8192
  farewell: kill
  protocol_errors: disconnect

log:
  level: debug

transcript:
  path: /tmp/session.cbor.zst
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Bridge.Farewell != "kill" {
		t.Errorf("expected farewell=kill, got %q", cfg.Bridge.Farewell)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, %v; want debug", level, err)
	}
	compression, err := cfg.TranscriptCompression()
	if err != nil || compression != transcript.CompressionZstd {
		t.Errorf("TranscriptCompression() = %q, %v; want zstd", compression, err)
	}

	var b bridge.Bridge
	if err := cfg.Configure(&b); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if b.ListenAddr != "0.0.0.0:6600" {
		t.Errorf("ListenAddr = %s", b.ListenAddr)
	}
	if b.AcceptPollInterval != 100*time.Millisecond || b.ReadPollInterval != 5*time.Millisecond {
		t.Errorf("poll intervals = %v, %v", b.AcceptPollInterval, b.ReadPollInterval)
	}
	if b.WriteTimeout != 2*time.Second || b.CloseGrace != time.Second {
		t.Errorf("write timeout %v, close grace %v", b.WriteTimeout, b.CloseGrace)
	}
	if b.ReadBufferSize != 4096 || b.MaxFrameSize != 8192 {
		t.Errorf("sizes = %d, %d", b.ReadBufferSize, b.MaxFrameSize)
	}
	if b.Farewell != "kill" {
		t.Errorf("Farewell = %q", b.Farewell)
	}
	protocolError := &bridge.SessionError{Class: bridge.ClassProtocol}
	if b.ErrorPolicy == nil || b.ErrorPolicy(protocolError) != bridge.DispositionDisconnect {
		t.Error("protocol_errors: disconnect did not install a tolerant policy")
	}
}

func TestConfigure_KeepsCallerSettings(t *testing.T) {
	cfg := Default()
	cfg.Bridge.WriteTimeout = "9s"
	cfg.Bridge.Farewell = "bye"

	b := bridge.Bridge{
		ListenAddr:   "127.0.0.1:0",
		WriteTimeout: time.Second,
		Farewell:     "kill",
	}
	if err := cfg.Configure(&b); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if b.ListenAddr != "127.0.0.1:0" || b.WriteTimeout != time.Second || b.Farewell != "kill" {
		t.Errorf("caller settings overwritten: %s %v %q", b.ListenAddr, b.WriteTimeout, b.Farewell)
	}
	protocolError := &bridge.SessionError{Class: bridge.ClassProtocol}
	if b.ErrorPolicy(protocolError) != bridge.DispositionFatal {
		t.Error("default policy is not fail-fast")
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("DEBUGBRIDGE_TEST_PORT", "7100")
	t.Setenv("DEBUGBRIDGE_TEST_UNSET", "")

	cfg, err := LoadFile(writeConfig(t, `
listen:
  address: 127.0.0.1:${DEBUGBRIDGE_TEST_PORT}
transcript:
  path: ${DEBUGBRIDGE_TEST_UNSET:-/var/tmp}/session.cbor
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Listen.Address != "127.0.0.1:7100" {
		t.Errorf("expected expanded address, got %s", cfg.Listen.Address)
	}
	if cfg.Transcript.Path != "/var/tmp/session.cbor" {
		t.Errorf("expected default applied, got %s", cfg.Transcript.Path)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Listen.Address = ""
	cfg.Bridge.WriteTimeout = "soon"
	cfg.Bridge.CloseGrace = "-1s"
	cfg.Bridge.MaxFrameSize = -1
	cfg.Bridge.ProtocolErrors = "ignore"
	cfg.Log.Level = "loud"
	cfg.Transcript.Compression = "gzip"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() accepted an invalid config")
	}
	for _, want := range []string{
		"listen.address",
		"bridge.write_timeout",
		"bridge.close_grace",
		"bridge.max_frame_size",
		"bridge.protocol_errors",
		"log.level",
		"transcript.compression",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "listen: [not, a, map]\n")); err == nil {
		t.Error("expected error for malformed YAML")
	}
	if _, err := LoadFile(writeConfig(t, "bridge:\n  read_poll_interval: fast\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestFarewellDefault(t *testing.T) {
	var b bridge.Bridge
	if err := Default().Configure(&b); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if b.Farewell != nulframe.FarewellToken {
		t.Errorf("default Farewell = %q, want %q", b.Farewell, nulframe.FarewellToken)
	}

	cfg, err := LoadFile(writeConfig(t, "bridge:\n  farewell: \"\"\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	var silent bridge.Bridge
	if err := cfg.Configure(&silent); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if silent.Farewell != "" {
		t.Errorf("explicit empty farewell became %q", silent.Farewell)
	}
}
