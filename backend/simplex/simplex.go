// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package simplex implements the pure-Go solver backend on top of gonum's
// LP simplex. Continuous problems are handed to the simplex directly; integer
// and binary domains are handled by branch-and-bound over the continuous
// relaxation, so the backend declares exact-integer capability.
package simplex

import (
	"errors"
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/pablormier/corneto/backend"
	"github.com/pablormier/corneto/opt"
)

const (
	simplexTol = 1e-10
	intTol     = 1e-6
	rankTol    = 1e-9
)

// Simplex is an opt.Backend. The zero value is ready to use; independent
// instances must be used for concurrent solves.
type Simplex struct{}

// New returns a simplex backend.
func New() *Simplex { return &Simplex{} }

// ID implements opt.Backend.
func (*Simplex) ID() backend.ID { return backend.SIMPLEX }

// Solve implements opt.Backend.
func (s *Simplex) Solve(p *opt.Problem, cfg backend.Config) ([]float64, opt.Status, error) {
	log := cfg.Logger
	prog := compile(p)
	log.Debug().
		Str("backend", s.ID().String()).
		Int("nbVars", prog.n).
		Int("nbConstraints", len(p.Constraints())).
		Int("nbIntegers", int(prog.integral.Count())).
		Msg("compiled problem")

	var deadline time.Time
	if cfg.TimeLimit > 0 {
		deadline = time.Now().Add(cfg.TimeLimit)
	}

	start := time.Now()
	x, st, nodes, err := prog.branchAndBound(deadline)
	evt := log.Debug()
	if cfg.Verbosity > 0 {
		evt = log.Info()
	}
	evt.
		Str("status", st.String()).
		Int("nodes", nodes).
		Dur("took", time.Since(start)).
		Msg("solver done")
	return x, st, err
}

// program is the solver-native representation compiled from a Problem; the
// backend exclusively owns it.
type program struct {
	n        int
	c        []float64 // minimization objective
	ineqRow  [][]float64
	ineqRHS  []float64
	eqRow    [][]float64
	eqRHS    []float64
	lo, hi   []float64
	integral *bitset.BitSet

	// set when equality elimination exposes a contradiction (0 = c)
	inconsistent bool
}

func compile(p *opt.Problem) *program {
	n := p.NbVars()
	prog := &program{n: n, c: make([]float64, n)}
	min := p.Minimization()
	for _, t := range min.Terms() {
		prog.c[t.VID] += t.Coeff
	}
	for _, cs := range p.Constraints() {
		row := make([]float64, n)
		for _, t := range cs.E.Terms() {
			row[t.VID] += t.Coeff
		}
		rhs := cs.RHS - cs.E.Constant()
		switch cs.Op {
		case opt.LE:
			prog.ineqRow = append(prog.ineqRow, row)
			prog.ineqRHS = append(prog.ineqRHS, rhs)
		case opt.GE:
			neg := make([]float64, n)
			for i, v := range row {
				neg[i] = -v
			}
			prog.ineqRow = append(prog.ineqRow, neg)
			prog.ineqRHS = append(prog.ineqRHS, -rhs)
		case opt.EQ:
			prog.eqRow = append(prog.eqRow, row)
			prog.eqRHS = append(prog.eqRHS, rhs)
		}
	}
	prog.lo, prog.hi = p.Bounds()
	prog.integral = p.Integrality()
	prog.reduceEqualities()
	return prog
}

// reduceEqualities brings the equality block to full row rank by Gaussian
// elimination with partial pivoting. Flow-style builders emit one balance row
// per vertex, and those rows are structurally dependent (each connected
// component's rows sum to zero); lp.Simplex rejects such a singular system
// outright. A nonzero right-hand side left on an eliminated row proves the
// system has no solution.
func (prog *program) reduceEqualities() {
	rows, rhs := prog.eqRow, prog.eqRHS
	rank := 0
	for col := 0; col < prog.n && rank < len(rows); col++ {
		pivot, maxAbs := -1, rankTol
		for r := rank; r < len(rows); r++ {
			if a := math.Abs(rows[r][col]); a > maxAbs {
				pivot, maxAbs = r, a
			}
		}
		if pivot < 0 {
			continue
		}
		rows[rank], rows[pivot] = rows[pivot], rows[rank]
		rhs[rank], rhs[pivot] = rhs[pivot], rhs[rank]
		for r := rank + 1; r < len(rows); r++ {
			if rows[r][col] == 0 {
				continue
			}
			f := rows[r][col] / rows[rank][col]
			for c := col; c < prog.n; c++ {
				rows[r][c] -= f * rows[rank][c]
			}
			rows[r][col] = 0
			rhs[r] -= f * rhs[rank]
		}
		rank++
	}
	for r := rank; r < len(rows); r++ {
		if math.Abs(rhs[r]) > rankTol {
			prog.inconsistent = true
			return
		}
	}
	prog.eqRow, prog.eqRHS = rows[:rank], rhs[:rank]
}

// relax solves the continuous relaxation under the given bound overrides.
func (prog *program) relax(lo, hi []float64) ([]float64, float64, error) {
	rows := make([][]float64, 0, len(prog.ineqRow)+2*prog.n)
	rhs := make([]float64, 0, len(prog.ineqRHS)+2*prog.n)
	rows = append(rows, prog.ineqRow...)
	rhs = append(rhs, prog.ineqRHS...)
	for i := 0; i < prog.n; i++ {
		if !math.IsInf(lo[i], -1) {
			row := make([]float64, prog.n)
			row[i] = -1
			rows = append(rows, row)
			rhs = append(rhs, -lo[i])
		}
		if !math.IsInf(hi[i], 1) {
			row := make([]float64, prog.n)
			row[i] = 1
			rows = append(rows, row)
			rhs = append(rhs, hi[i])
		}
	}
	if len(rows) == 0 {
		// Convert needs at least one inequality row; a vacuous one keeps the
		// feasible set unchanged.
		rows = append(rows, make([]float64, prog.n))
		rhs = append(rhs, 1)
	}
	g := mat.NewDense(len(rows), prog.n, nil)
	for i, row := range rows {
		g.SetRow(i, row)
	}
	var a mat.Matrix
	var b []float64
	if len(prog.eqRow) > 0 {
		ad := mat.NewDense(len(prog.eqRow), prog.n, nil)
		for i, row := range prog.eqRow {
			ad.SetRow(i, row)
		}
		a = ad
		b = prog.eqRHS
	}
	cNew, aNew, bNew := lp.Convert(prog.c, g, rhs, a, b)
	obj, xStd, err := lp.Simplex(cNew, aNew, bNew, simplexTol, nil)
	if err != nil {
		return nil, 0, err
	}
	x := make([]float64, prog.n)
	for i := 0; i < prog.n; i++ {
		x[i] = xStd[i] - xStd[prog.n+i] // Convert splits free variables
	}
	return x, obj, nil
}

// branchAndBound runs depth-first branch-and-bound on the fractional integer
// variables of the relaxation. For a purely continuous program it reduces to
// a single simplex call.
func (prog *program) branchAndBound(deadline time.Time) ([]float64, opt.Status, int, error) {
	if prog.inconsistent {
		return nil, opt.StatusInfeasible, 0, nil
	}
	type node struct {
		lo, hi []float64
	}
	root := node{lo: prog.lo, hi: prog.hi}
	stack := []node{root}
	var best []float64
	bestObj := math.Inf(1)
	rootNode := true
	nodes := 0

	for len(stack) > 0 {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, opt.StatusTimedOut, nodes, nil
		}
		nodes++
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, obj, err := prog.relax(nd.lo, nd.hi)
		atRoot := rootNode
		rootNode = false
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			if atRoot {
				return nil, opt.StatusInfeasible, nodes, nil
			}
			continue
		case errors.Is(err, lp.ErrUnbounded):
			return nil, opt.StatusUnbounded, nodes, nil
		case err != nil:
			return nil, opt.StatusSolverError, nodes, err
		}
		if obj >= bestObj-intTol {
			continue // cannot improve the incumbent
		}
		frac := prog.mostFractional(x)
		if frac < 0 {
			best = roundIntegral(x, prog.integral)
			bestObj = obj
			continue
		}
		lo2 := append([]float64(nil), nd.lo...)
		hi2 := append([]float64(nil), nd.hi...)
		hi2[frac] = math.Floor(x[frac])
		lo2[frac] = math.Ceil(x[frac])
		stack = append(stack,
			node{lo: nd.lo, hi: hi2}, // x[frac] <= floor
			node{lo: lo2, hi: nd.hi}, // x[frac] >= ceil
		)
	}
	if best == nil {
		return nil, opt.StatusInfeasible, nodes, nil
	}
	return best, opt.StatusOptimal, nodes, nil
}

// mostFractional returns the integral variable farthest from an integer
// value, or -1 when the assignment is integral within tolerance.
func (prog *program) mostFractional(x []float64) int {
	pick, worst := -1, intTol
	for i, ok := prog.integral.NextSet(0); ok; i, ok = prog.integral.NextSet(i + 1) {
		f := math.Abs(x[i] - math.Round(x[i]))
		if f > worst {
			pick, worst = int(i), f
		}
	}
	return pick
}

func roundIntegral(x []float64, integral *bitset.BitSet) []float64 {
	out := append([]float64(nil), x...)
	for i, ok := integral.NextSet(0); ok; i, ok = integral.NextSet(i + 1) {
		out[i] = math.Round(out[i])
	}
	return out
}
