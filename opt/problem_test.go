// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package opt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pablormier/corneto/backend"
	"github.com/pablormier/corneto/opt"
)

// stubBackend returns a canned solve outcome; it lets the symbolic layer be
// tested without a numeric solver.
type stubBackend struct {
	x   []float64
	st  opt.Status
	err error

	lastCfg backend.Config
}

func (s *stubBackend) ID() backend.ID { return backend.UNKNOWN }

func (s *stubBackend) Solve(p *opt.Problem, cfg backend.Config) ([]float64, opt.Status, error) {
	s.lastCfg = cfg
	return s.x, s.st, s.err
}

func TestCreateSymbol(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(&stubBackend{})

	a, err := p.CreateSymbol("a", 3, opt.Binary())
	assert.NoError(err)
	assert.Equal("a", a.Name())
	assert.Equal(3, a.Len())

	_, err = p.CreateSymbol("a", 1, opt.Binary())
	assert.ErrorIs(err, opt.ErrNameCollision)

	_, err = p.CreateSymbol("", 1, opt.Binary())
	assert.Error(err)

	_, err = p.CreateSymbol("b", 0, opt.Binary())
	assert.Error(err)

	got, ok := p.Symbol("a")
	assert.True(ok)
	assert.Same(a, got)
	assert.Equal(3, p.NbVars())
}

func TestForeignSymbol(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(&stubBackend{})
	q := opt.NewProblem(&stubBackend{})

	a, err := p.CreateSymbol("a", 1, opt.Binary())
	assert.NoError(err)
	b, err := q.CreateSymbol("a", 4, opt.Binary())
	assert.NoError(err)

	// b's variable ids live outside p's variable space
	err = p.AddConstraint(opt.At(b, 3), opt.LE, 1)
	assert.ErrorIs(err, opt.ErrForeignSymbol)

	// a's ids fall inside q's variable space; ownership is by problem, not
	// by index range
	err = q.AddConstraint(opt.Var(a), opt.LE, 1)
	assert.ErrorIs(err, opt.ErrForeignSymbol)
	_, err = q.AddObjective(opt.SumOf(a), opt.Minimize, 1)
	assert.ErrorIs(err, opt.ErrForeignSymbol)
	_, err = q.Value(a)
	assert.ErrorIs(err, opt.ErrForeignSymbol)
}

func TestBoundsAndIntegrality(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(&stubBackend{})

	_, err := p.CreateSymbol("x", 2, opt.Continuous(-1, 4))
	assert.NoError(err)
	_, err = p.CreateSymbol("y", 1, opt.Binary())
	assert.NoError(err)

	lo, hi := p.Bounds()
	assert.Equal([]float64{-1, -1, 0}, lo)
	assert.Equal([]float64{4, 4, 1}, hi)

	ints := p.Integrality()
	assert.False(ints.Test(0))
	assert.False(ints.Test(1))
	assert.True(ints.Test(2))
}

func TestMinimizationScalarizesObjectives(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(&stubBackend{})

	x, err := p.CreateSymbol("x", 2, opt.Continuous(0, 1))
	assert.NoError(err)

	_, err = p.AddObjective(opt.SumOf(x), opt.Maximize, 1)
	assert.NoError(err)
	_, err = p.AddObjective(opt.At(x, 0), opt.Minimize, 0.5)
	assert.NoError(err)

	// maximize sum(x) w=1, minimize x0 w=0.5 -> minimize -x0 - x1 + 0.5*x0
	min := p.Minimization()
	assert.InDelta(-1.5, min.Eval([]float64{1, 1}), 1e-12)
	assert.InDelta(-0.5, min.Eval([]float64{1, 0}), 1e-12)
}

func TestSolveSnapshots(t *testing.T) {
	assert := require.New(t)
	stub := &stubBackend{x: []float64{1, 0}, st: opt.StatusOptimal}
	p := opt.NewProblem(stub)

	x, err := p.CreateSymbol("x", 2, opt.Binary())
	assert.NoError(err)
	obj, err := p.AddObjective(opt.SumOf(x), opt.Minimize, 1)
	assert.NoError(err)

	_, err = p.Value(x)
	assert.ErrorIs(err, opt.ErrNotSolved)

	st, err := p.Solve()
	assert.NoError(err)
	assert.Equal(opt.StatusOptimal, st)
	assert.Equal(opt.StatusOptimal, p.Status())

	vals, err := p.Value(x)
	assert.NoError(err)
	assert.Equal([]float64{1, 0}, vals)

	v, err := obj.Value()
	assert.NoError(err)
	assert.InDelta(1, v, 1e-12)

	// re-solving replaces the snapshot
	stub.x = []float64{0, 1}
	_, err = p.Solve()
	assert.NoError(err)
	vals, err = p.Value(x)
	assert.NoError(err)
	assert.Equal([]float64{0, 1}, vals)
}

func TestSolveFailureStatuses(t *testing.T) {
	cases := []struct {
		name string
		st   opt.Status
		want error
	}{
		{"infeasible", opt.StatusInfeasible, opt.ErrInfeasible},
		{"unbounded", opt.StatusUnbounded, opt.ErrUnbounded},
		{"timed out", opt.StatusTimedOut, opt.ErrTimedOut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			p := opt.NewProblem(&stubBackend{st: tc.st})
			x, err := p.CreateSymbol("x", 1, opt.Binary())
			assert.NoError(err)

			st, err := p.Solve()
			assert.ErrorIs(err, tc.want)
			assert.Equal(tc.st, st)

			// values are undefined, never stale zeros
			_, err = p.Value(x)
			assert.ErrorIs(err, opt.ErrNotSolved)
		})
	}
}

func TestSolveWrapsBackendDiagnostics(t *testing.T) {
	assert := require.New(t)
	diag := errors.New("license expired")
	p := opt.NewProblem(&stubBackend{st: opt.StatusSolverError, err: diag})
	_, err := p.CreateSymbol("x", 1, opt.Binary())
	assert.NoError(err)

	_, err = p.Solve()
	assert.ErrorIs(err, opt.ErrSolver)
	assert.Contains(err.Error(), "license expired")
}

func TestSolveEmptyProblem(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(&stubBackend{})
	_, err := p.Solve()
	assert.ErrorIs(err, opt.ErrEmptyProblem)
	assert.Equal(opt.StatusUnsolved, p.Status())
}

func TestSolveOptionsReachBackend(t *testing.T) {
	assert := require.New(t)
	stub := &stubBackend{x: []float64{0}, st: opt.StatusOptimal}
	p := opt.NewProblem(stub)
	_, err := p.CreateSymbol("x", 1, opt.Binary())
	assert.NoError(err)

	_, err = p.Solve(backend.WithVerbosity(2))
	assert.NoError(err)
	assert.Equal(2, stub.lastCfg.Verbosity)

	_, err = p.Solve(backend.WithVerbosity(-1))
	assert.Error(err)
}
