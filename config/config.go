// Package config handles configuration loading and validation for
// ximclient-based applications.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ximclient/protocol"
)

// Style names accepted by Options.Style.
const (
	StyleNameDefault          = "default"
	StyleNamePreeditCallbacks = "preedit-callbacks"
)

// Options holds the configuration for an input-method client.
type Options struct {
	// Server is the input-method server name (the "@im=" value). Empty
	// means resolve it through the discovery package or take the
	// server's default.
	Server string `toml:"server" json:"server" yaml:"server"`

	// Screen is the X screen number the client connects on.
	Screen int `toml:"screen" json:"screen" yaml:"screen"`

	// Style selects the input style: "default" or "preedit-callbacks".
	Style string `toml:"style" json:"style" yaml:"style"`

	// Logging configures the protocol diagnostic sink.
	Logging LoggingOptions `toml:"logging" json:"logging" yaml:"logging"`
}

// LoggingOptions configures how engine diagnostics are handled.
type LoggingOptions struct {
	// Enabled installs a process logger forwarding engine diagnostics.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Level is the minimum slog level for forwarded lines: "debug",
	// "info", "warn" or "error".
	Level string `toml:"level" json:"level" yaml:"level"`
}

// DefaultOptions returns the defaults: default style on screen 0, with
// diagnostics forwarded at debug level.
func DefaultOptions() *Options {
	return &Options{
		Screen: 0,
		Style:  StyleNameDefault,
		Logging: LoggingOptions{
			Enabled: true,
			Level:   "debug",
		},
	}
}

// InputStyle maps the configured style name to its protocol value.
func (o *Options) InputStyle() (protocol.InputStyle, error) {
	switch o.Style {
	case "", StyleNameDefault:
		return protocol.StyleDefault, nil
	case StyleNamePreeditCallbacks:
		return protocol.StylePreeditCallbacks, nil
	default:
		return 0, fmt.Errorf("unknown input style %q", o.Style)
	}
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	if o.Screen < 0 {
		return fmt.Errorf("screen must be non-negative, got %d", o.Screen)
	}
	if _, err := o.InputStyle(); err != nil {
		return err
	}
	switch o.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", o.Logging.Level)
	}
	return nil
}

// Load reads options from path. The format is chosen by extension:
// .toml, or .yaml/.yml. Missing fields keep their defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	opts := DefaultOptions()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return opts, nil
}

// LoadOrDefault loads path if it exists and falls back to defaults when
// it does not.
func LoadOrDefault(path string) (*Options, error) {
	opts, err := Load(path)
	if err == nil {
		return opts, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return DefaultOptions(), nil
	}
	return nil, err
}
