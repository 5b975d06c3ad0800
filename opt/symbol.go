// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package opt

import "math"

// DomainKind discriminates the numeric domain of a symbol.
type DomainKind uint8

const (
	KindContinuous DomainKind = iota
	KindBinary
	KindInteger
)

// Domain is the numeric domain of every entry of a symbol.
type Domain struct {
	Kind DomainKind
	Lo   float64
	Hi   float64
}

// Continuous returns a real domain bounded to [lo, hi]. Use math.Inf for
// one-sided or free variables.
func Continuous(lo, hi float64) Domain {
	return Domain{Kind: KindContinuous, Lo: lo, Hi: hi}
}

// Free returns an unbounded real domain.
func Free() Domain {
	return Domain{Kind: KindContinuous, Lo: math.Inf(-1), Hi: math.Inf(1)}
}

// NonNegative returns the real domain [0, +inf).
func NonNegative() Domain {
	return Domain{Kind: KindContinuous, Lo: 0, Hi: math.Inf(1)}
}

// Binary returns the {0, 1} domain.
func Binary() Domain {
	return Domain{Kind: KindBinary, Lo: 0, Hi: 1}
}

// Integer returns the integer domain restricted to [lo, hi].
func Integer(lo, hi float64) Domain {
	return Domain{Kind: KindInteger, Lo: lo, Hi: hi}
}

// Integral reports whether the domain requires integer values.
func (d Domain) Integral() bool {
	return d.Kind == KindBinary || d.Kind == KindInteger
}

// A Symbol is a named decision variable: a scalar (length 1) or a vector
// indexed by vertex or edge position. Its entries occupy a contiguous range
// of the owning Problem's variable space.
type Symbol struct {
	name   string
	offset int
	n      int
	domain Domain
	owner  *Problem
}

// Name returns the registration name of the symbol.
func (s *Symbol) Name() string { return s.name }

// Len returns the number of entries.
func (s *Symbol) Len() int { return s.n }

// Domain returns the numeric domain shared by all entries.
func (s *Symbol) Domain() Domain { return s.domain }
