// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

//go:build cgo

// Package glpkbe implements the solver backend targeting the GNU Linear
// Programming Kit through the cgo binding github.com/lukpank/go-glpk. It
// solves mixed-integer programs exactly with GLPK's branch-and-cut and is the
// variant of choice when libglpk is available.
//
// Building this package requires cgo and the GLPK development headers
// (libglpk-dev or equivalent).
package glpkbe

import (
	"fmt"
	"math"
	"time"

	"github.com/lukpank/go-glpk/glpk"

	"github.com/pablormier/corneto/backend"
	"github.com/pablormier/corneto/opt"
)

// GLPK is an opt.Backend. The zero value is ready to use; independent
// instances must be used for concurrent solves.
type GLPK struct{}

// New returns a GLPK backend.
func New() *GLPK { return &GLPK{} }

// ID implements opt.Backend.
func (*GLPK) ID() backend.ID { return backend.GLPK }

// Solve implements opt.Backend.
func (g *GLPK) Solve(p *opt.Problem, cfg backend.Config) ([]float64, opt.Status, error) {
	log := cfg.Logger
	if cfg.TimeLimit > 0 {
		// glp_iocp.tm_lim is not exposed by the binding; the solve runs
		// unbounded and the caller-facing contract degrades to best effort.
		log.Warn().Dur("timeLimit", cfg.TimeLimit).Msg("glpk backend ignores the time limit option")
	}

	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName("corneto")
	lp.SetObjDir(glpk.MIN)

	n := p.NbVars()
	lp.AddCols(n)
	lo, hi := p.Bounds()
	ints := p.Integrality()
	for j := 0; j < n; j++ {
		col := j + 1
		setColBounds(lp, col, lo[j], hi[j])
		if ints.Test(uint(j)) {
			if lo[j] == 0 && hi[j] == 1 {
				lp.SetColKind(col, glpk.BV)
			} else {
				lp.SetColKind(col, glpk.IV)
			}
		} else {
			lp.SetColKind(col, glpk.CV)
		}
	}

	min := p.Minimization()
	obj := make([]float64, n)
	for _, t := range min.Terms() {
		obj[t.VID] += t.Coeff
	}
	for j, c := range obj {
		lp.SetObjCoef(j+1, c)
	}

	constraints := p.Constraints()
	if len(constraints) > 0 {
		lp.AddRows(len(constraints))
	}
	row := make([]float64, n)
	for i, cs := range constraints {
		for j := range row {
			row[j] = 0
		}
		for _, t := range cs.E.Terms() {
			row[t.VID] += t.Coeff
		}
		ind := make([]int32, 1, n+1) // 1-based, first entry unused
		val := make([]float64, 1, n+1)
		for j, c := range row {
			if c == 0 {
				continue
			}
			ind = append(ind, int32(j+1))
			val = append(val, c)
		}
		lp.SetMatRow(i+1, ind, val)
		rhs := cs.RHS - cs.E.Constant()
		switch cs.Op {
		case opt.LE:
			lp.SetRowBnds(i+1, glpk.UP, 0, rhs)
		case opt.GE:
			lp.SetRowBnds(i+1, glpk.LO, rhs, 0)
		case opt.EQ:
			lp.SetRowBnds(i+1, glpk.FX, rhs, rhs)
		}
	}

	log.Debug().
		Str("backend", g.ID().String()).
		Int("nbVars", n).
		Int("nbConstraints", len(constraints)).
		Int("nbIntegers", int(ints.Count())).
		Msg("compiled problem")

	msgLev := glpk.MSG_OFF
	switch {
	case cfg.Verbosity == 1:
		msgLev = glpk.MSG_ERR
	case cfg.Verbosity == 2:
		msgLev = glpk.MSG_ON
	case cfg.Verbosity >= 3:
		msgLev = glpk.MSG_ALL
	}

	// Standard GLPK workflow: solve the LP relaxation with the simplex first,
	// then run the integer optimizer off that basis.
	start := time.Now()
	smcp := glpk.NewSmcp()
	smcp.SetMsgLev(msgLev)
	if err := lp.Simplex(smcp); err != nil {
		return nil, opt.StatusSolverError, fmt.Errorf("glpk simplex: %v", err)
	}
	switch lp.Status() {
	case glpk.OPT:
	case glpk.NOFEAS:
		return nil, opt.StatusInfeasible, nil
	case glpk.UNBND:
		return nil, opt.StatusUnbounded, nil
	default:
		return nil, opt.StatusSolverError, fmt.Errorf("glpk simplex: unexpected status %v", lp.Status())
	}

	hasInts := ints.Count() > 0
	if hasInts {
		iocp := glpk.NewIocp()
		iocp.SetPresolve(false)
		if err := lp.Intopt(iocp); err != nil {
			return nil, opt.StatusSolverError, fmt.Errorf("glpk intopt: %v", err)
		}
		switch lp.MipStatus() {
		case glpk.OPT:
		case glpk.NOFEAS:
			return nil, opt.StatusInfeasible, nil
		default:
			return nil, opt.StatusSolverError, fmt.Errorf("glpk intopt: unexpected status %v", lp.MipStatus())
		}
	}

	x := make([]float64, n)
	for j := 0; j < n; j++ {
		if hasInts {
			x[j] = lp.MipColVal(j + 1)
		} else {
			x[j] = lp.ColPrim(j + 1)
		}
	}
	log.Debug().Dur("took", time.Since(start)).Msg("solver done")
	return x, opt.StatusOptimal, nil
}

func setColBounds(lp *glpk.Prob, col int, lo, hi float64) {
	loInf := math.IsInf(lo, -1)
	hiInf := math.IsInf(hi, 1)
	switch {
	case loInf && hiInf:
		lp.SetColBnds(col, glpk.FR, 0, 0)
	case loInf:
		lp.SetColBnds(col, glpk.UP, 0, hi)
	case hiInf:
		lp.SetColBnds(col, glpk.LO, lo, 0)
	case lo == hi:
		lp.SetColBnds(col, glpk.FX, lo, hi)
	default:
		lp.SetColBnds(col, glpk.DB, lo, hi)
	}
}
