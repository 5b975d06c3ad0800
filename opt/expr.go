// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package opt

import (
	"fmt"
	"strings"
)

// A Term is a coefficient applied to one decision variable.
type Term struct {
	Coeff float64
	VID   int
}

// An Expr is a linear combination of Term plus a constant. Expressions are
// pure values built through the constructor functions below; besides the
// variable IDs they track which symbols they were built from, so the Problem
// can reject expressions over symbols it does not own.
type Expr struct {
	terms    []Term
	syms     []*Symbol
	constant float64
}

// Const returns a constant expression.
func Const(k float64) Expr {
	return Expr{constant: k}
}

// At returns the i-th entry of a symbol as an expression.
func At(s *Symbol, i int) Expr {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("opt: index %d out of range for symbol %q of length %d", i, s.name, s.n))
	}
	return Expr{terms: []Term{{Coeff: 1, VID: s.offset + i}}, syms: []*Symbol{s}}
}

// Var returns a scalar symbol as an expression. Shortcut for At(s, 0).
func Var(s *Symbol) Expr {
	return At(s, 0)
}

// SumOf returns the sum of all entries of a symbol.
func SumOf(s *Symbol) Expr {
	terms := make([]Term, s.n)
	for i := range terms {
		terms[i] = Term{Coeff: 1, VID: s.offset + i}
	}
	return Expr{terms: terms, syms: []*Symbol{s}}
}

// Dot returns the inner product of a symbol with a coefficient vector of the
// same length.
func Dot(s *Symbol, coeffs []float64) Expr {
	if len(coeffs) != s.n {
		panic(fmt.Sprintf("opt: coefficient vector length %d does not match symbol %q of length %d", len(coeffs), s.name, s.n))
	}
	terms := make([]Term, 0, s.n)
	for i, c := range coeffs {
		if c == 0 {
			continue
		}
		terms = append(terms, Term{Coeff: c, VID: s.offset + i})
	}
	return Expr{terms: terms, syms: []*Symbol{s}}
}

// Sum returns the sum of the given expressions.
func Sum(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		out.terms = append(out.terms, e.terms...)
		for _, s := range e.syms {
			if n := len(out.syms); n == 0 || out.syms[n-1] != s {
				out.syms = append(out.syms, s)
			}
		}
		out.constant += e.constant
	}
	return out
}

// Scale returns c * e.
func Scale(c float64, e Expr) Expr {
	terms := make([]Term, len(e.terms))
	for i, t := range e.terms {
		terms[i] = Term{Coeff: c * t.Coeff, VID: t.VID}
	}
	return Expr{terms: terms, syms: e.syms, constant: c * e.constant}
}

// Sub returns a - b.
func Sub(a, b Expr) Expr {
	return Sum(a, Scale(-1, b))
}

// Terms returns the terms of the expression. The returned slice must not be
// mutated.
func (e Expr) Terms() []Term { return e.terms }

// Constant returns the constant part of the expression.
func (e Expr) Constant() float64 { return e.constant }

// Eval evaluates the expression against a full variable assignment.
func (e Expr) Eval(x []float64) float64 {
	v := e.constant
	for _, t := range e.terms {
		v += t.Coeff * x[t.VID]
	}
	return v
}

// Clone returns a copy with an independent term slice.
func (e Expr) Clone() Expr {
	terms := make([]Term, len(e.terms))
	copy(terms, e.terms)
	syms := make([]*Symbol, len(e.syms))
	copy(syms, e.syms)
	return Expr{terms: terms, syms: syms, constant: e.constant}
}

func (e Expr) String() string {
	var sb strings.Builder
	for i, t := range e.terms {
		if i > 0 {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "%g*x%d", t.Coeff, t.VID)
	}
	if e.constant != 0 || len(e.terms) == 0 {
		if len(e.terms) > 0 {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "%g", e.constant)
	}
	return sb.String()
}
