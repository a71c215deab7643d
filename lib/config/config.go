// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/debugbridge/bridge"
	"github.com/bureau-foundation/debugbridge/lib/nulframe"
	"github.com/bureau-foundation/debugbridge/transcript"
)

// EnvironmentVariable names the config file for [Load].
const EnvironmentVariable = "DEBUGBRIDGE_CONFIG"

// Protocol error handling modes for bridge.protocol_errors.
const (
	ProtocolErrorsFatal      = "fatal"
	ProtocolErrorsDisconnect = "disconnect"
)

// Config is the master configuration for debugbridge.
type Config struct {
	// Listen configures the bridge's TCP endpoint.
	Listen ListenConfig `yaml:"listen"`

	// Bridge configures worker timing, framing, and error handling.
	Bridge BridgeConfig `yaml:"bridge"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Transcript configures session recording.
	Transcript TranscriptConfig `yaml:"transcript"`
}

// ListenConfig configures the bridge's TCP endpoint.
type ListenConfig struct {
	// Address is the host:port to listen on.
	// Default: 127.0.0.1:6510
	Address string `yaml:"address"`
}

// BridgeConfig configures the bridge worker. Durations are strings in
// time.ParseDuration form; empty means the bridge default.
type BridgeConfig struct {
	AcceptPollInterval string `yaml:"accept_poll_interval"`
	ReadPollInterval   string `yaml:"read_poll_interval"`
	WriteTimeout       string `yaml:"write_timeout"`
	CloseGrace         string `yaml:"close_grace"`

	// ReadBufferSize and MaxFrameSize are byte counts; zero means the
	// bridge default.
	ReadBufferSize int `yaml:"read_buffer_size"`
	MaxFrameSize   int `yaml:"max_frame_size"`

	// Farewell is sent to a connected peer on shutdown. An explicit
	// empty string disables it.
	// Default: kill
	Farewell string `yaml:"farewell"`

	// ProtocolErrors is "fatal" (stop the bridge) or "disconnect" (drop
	// the offending session and keep listening).
	// Default: fatal
	ProtocolErrors string `yaml:"protocol_errors"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// TranscriptConfig configures session recording.
type TranscriptConfig struct {
	// Path is the transcript file. Empty disables recording.
	Path string `yaml:"path"`

	// Compression is none, zstd, or lz4. Empty infers it from Path.
	Compression string `yaml:"compression"`
}

// Default returns the default configuration. These are the values used
// for any field the loaded file leaves out.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Address: "127.0.0.1:6510",
		},
		Bridge: BridgeConfig{
			Farewell:       nulframe.FarewellToken,
			ProtocolErrors: ProtocolErrorsFatal,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the DEBUGBRIDGE_CONFIG environment
// variable. If it is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your debugbridge.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, expands
// variables, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// address and path fields.
func (c *Config) expandVariables() {
	c.Listen.Address = expandVars(c.Listen.Address)
	c.Transcript.Path = expandVars(c.Transcript.Path)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration for errors. Every problem is
// reported, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen.Address == "" {
		errs = append(errs, fmt.Errorf("listen.address is required"))
	}

	durations := []struct {
		name  string
		value string
	}{
		{"bridge.accept_poll_interval", c.Bridge.AcceptPollInterval},
		{"bridge.read_poll_interval", c.Bridge.ReadPollInterval},
		{"bridge.write_timeout", c.Bridge.WriteTimeout},
		{"bridge.close_grace", c.Bridge.CloseGrace},
	}
	for _, duration := range durations {
		if _, err := parseDuration(duration.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", duration.name, err))
		}
	}

	if c.Bridge.ReadBufferSize < 0 {
		errs = append(errs, fmt.Errorf("bridge.read_buffer_size must not be negative"))
	}
	if c.Bridge.MaxFrameSize < 0 {
		errs = append(errs, fmt.Errorf("bridge.max_frame_size must not be negative"))
	}

	if _, err := c.errorPolicy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := transcript.ParseCompression(c.Transcript.Compression); err != nil {
		errs = append(errs, fmt.Errorf("transcript.compression: %w", err))
	}

	return errors.Join(errs...)
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return level, nil
}

// TranscriptCompression returns the configured compression, inferring
// it from the path when none is set.
func (c *Config) TranscriptCompression() (transcript.Compression, error) {
	if c.Transcript.Compression == "" {
		return transcript.CompressionForPath(c.Transcript.Path), nil
	}
	return transcript.ParseCompression(c.Transcript.Compression)
}

// Configure copies the listen and bridge settings onto b. Fields the
// caller has already set on b are left alone, so command-line flags
// applied before Configure take precedence over the file.
func (c *Config) Configure(b *bridge.Bridge) error {
	if b.ListenAddr == "" {
		b.ListenAddr = c.Listen.Address
	}

	targets := []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"bridge.accept_poll_interval", c.Bridge.AcceptPollInterval, &b.AcceptPollInterval},
		{"bridge.read_poll_interval", c.Bridge.ReadPollInterval, &b.ReadPollInterval},
		{"bridge.write_timeout", c.Bridge.WriteTimeout, &b.WriteTimeout},
		{"bridge.close_grace", c.Bridge.CloseGrace, &b.CloseGrace},
	}
	for _, field := range targets {
		duration, err := parseDuration(field.value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", field.name, err)
		}
		if *field.target == 0 {
			*field.target = duration
		}
	}

	if b.ReadBufferSize == 0 {
		b.ReadBufferSize = c.Bridge.ReadBufferSize
	}
	if b.MaxFrameSize == 0 {
		b.MaxFrameSize = c.Bridge.MaxFrameSize
	}
	if b.Farewell == "" {
		b.Farewell = c.Bridge.Farewell
	}
	if b.ErrorPolicy == nil {
		policy, err := c.errorPolicy()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		b.ErrorPolicy = policy
	}
	return nil
}

func (c *Config) errorPolicy() (bridge.ErrorPolicy, error) {
	switch c.Bridge.ProtocolErrors {
	case "", ProtocolErrorsFatal:
		return bridge.FailFast, nil
	case ProtocolErrorsDisconnect:
		return bridge.TolerateProtocolErrors, nil
	default:
		return nil, fmt.Errorf("bridge.protocol_errors must be one of: %s, %s",
			ProtocolErrorsFatal, ProtocolErrorsDisconnect)
	}
}

// parseDuration parses a non-negative duration; empty is zero.
func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("duration %s must not be negative", value)
	}
	return duration, nil
}
