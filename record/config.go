// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package record

import (
	"fmt"
	"strings"
)

// Mode selects how strictly the transactions embedded in a block are checked.
type Mode uint8

const (
	// ModeStrict runs the full transaction rules on every block entry.
	ModeStrict Mode = iota
	// ModePermissive only requires block entries to be key-value records and
	// keeps them opaque.
	ModePermissive
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModePermissive:
		return "permissive"
	default:
		return fmt.Sprintf("unknown mode (%d)", uint8(m))
	}
}

// ParseMode parses the textual name of a mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "strict":
		return ModeStrict, nil
	case "permissive":
		return ModePermissive, nil
	default:
		return 0, fmt.Errorf("unknown validation mode (%s)", name)
	}
}

// DefaultConfig is strict with length-only identifier checks.
var DefaultConfig = Config{
	Mode:      ModeStrict,
	HexDigits: false,
}

// Config holds the validation options.
type Config struct {
	Mode Mode

	// HexDigits additionally restricts addresses and signatures to hexadecimal
	// digits. Without it, only their length is checked.
	HexDigits bool
}

// Option is an option that can be given to the validator to configure optional
// parameters on initialization.
type Option func(*Config)

// WithMode sets the block validation mode.
func WithMode(mode Mode) Option {
	return func(cfg *Config) {
		cfg.Mode = mode
	}
}

// WithHexDigits enables or disables the hexadecimal charset rule.
func WithHexDigits(enabled bool) Option {
	return func(cfg *Config) {
		cfg.HexDigits = enabled
	}
}
