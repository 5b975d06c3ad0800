// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package corneto formulates biological-network inference problems as
// mathematical optimization programs and solves them through pluggable
// solver backends.
//
// corneto provides the following methods:
//   - Causal inference over signed prior-knowledge networks (methods/causal)
//   - Exact minimum-weight Steiner trees (methods/steiner)
//
// corneto supports the following solver backends:
//   - SIMPLEX (pure Go, gonum)
//   - GLPK (cgo, requires libglpk)
package corneto

import (
	"github.com/blang/semver/v4"

	"github.com/pablormier/corneto/backend"
)

var Version = semver.MustParse("0.3.0")

// Backends return the solver backends supported by corneto
func Backends() []backend.ID {
	return backend.Implemented()
}
