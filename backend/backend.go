// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package backend identifies the solver backends and carries the solve-time
// configuration: it consumes problems built with corneto/opt.
package backend

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pablormier/corneto/logger"
)

// ID represent a unique ID for a solver backend
type ID uint16

const (
	UNKNOWN ID = iota
	SIMPLEX
	GLPK
)

// Implemented return the list of solver backends implemented in corneto
func Implemented() []ID {
	return []ID{SIMPLEX, GLPK}
}

// String returns the string representation of a solver backend
func (id ID) String() string {
	switch id {
	case SIMPLEX:
		return "simplex"
	case GLPK:
		return "glpk"
	default:
		return "unknown"
	}
}

// Option defines option for altering the behavior of a backend's Solve
// method. See the descriptions of functions returning instances of this type
// for implemented options.
type Option func(*Config) error

// Config is the configuration for a solve with the options applied.
type Config struct {
	Verbosity int            // solver-native diagnostic output level, 0 = silent
	TimeLimit time.Duration  // 0 = unbounded
	Logger    zerolog.Logger // defaults to corneto.Logger
}

// NewConfig returns a default Config with given options opts applied.
func NewConfig(opts ...Option) (Config, error) {
	opt := Config{Logger: logger.Logger()}
	for _, option := range opts {
		if err := option(&opt); err != nil {
			return Config{}, err
		}
	}
	return opt, nil
}

// WithVerbosity requests solver-native diagnostic output. Level 0 (the
// default) is silent; higher levels are passed through to the underlying
// solver. Diagnostics are observable side effects only, never part of the
// solve contract.
func WithVerbosity(level int) Option {
	return func(opt *Config) error {
		if level < 0 {
			return fmt.Errorf("invalid verbosity level: %d", level)
		}
		opt.Verbosity = level
		return nil
	}
}

// WithTimeLimit bounds the solve with the solver-native time limit. On
// expiry the solve reports StatusTimedOut and symbol values are undefined.
func WithTimeLimit(d time.Duration) Option {
	return func(opt *Config) error {
		if d < 0 {
			return fmt.Errorf("invalid time limit: %v", d)
		}
		opt.TimeLimit = d
		return nil
	}
}

// WithLogger specifies a zerolog.Logger as the destination for backend
// diagnostics. By default, uses corneto/logger. zerolog.Nop() will disable
// logging.
func WithLogger(l zerolog.Logger) Option {
	return func(opt *Config) error {
		opt.Logger = l
		return nil
	}
}
