// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package simplex_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pablormier/corneto/backend"
	"github.com/pablormier/corneto/backend/simplex"
	"github.com/pablormier/corneto/opt"
)

func TestSolveLP(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	x, err := p.CreateSymbol("x", 2, opt.Continuous(0, 5))
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.SumOf(x), opt.GE, 2))
	obj, err := p.SetObjective(opt.SumOf(x), opt.Minimize)
	assert.NoError(err)

	st, err := p.Solve()
	assert.NoError(err)
	assert.Equal(opt.StatusOptimal, st)

	v, err := obj.Value()
	assert.NoError(err)
	assert.InDelta(2, v, 1e-6)
}

func TestSolveBinary(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	x, err := p.CreateSymbol("x", 2, opt.Binary())
	assert.NoError(err)
	// at most one of the two, prefer the heavier
	assert.NoError(p.AddConstraint(opt.SumOf(x), opt.LE, 1))
	obj, err := p.SetObjective(opt.Dot(x, []float64{3, 2}), opt.Maximize)
	assert.NoError(err)

	_, err = p.Solve()
	assert.NoError(err)

	v, err := obj.Value()
	assert.NoError(err)
	assert.InDelta(3, v, 1e-6)

	vals, err := p.Value(x)
	assert.NoError(err)
	assert.Equal([]float64{1, 0}, vals)
}

func TestSolveIntegerForcedOffRelaxation(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	// LP relaxation optimum is fractional (x = 1.5); branch-and-bound must
	// land on an integral point.
	x, err := p.CreateSymbol("x", 1, opt.Integer(0, 10))
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.Scale(2, opt.Var(x)), opt.LE, 3))
	obj, err := p.SetObjective(opt.Var(x), opt.Maximize)
	assert.NoError(err)

	_, err = p.Solve()
	assert.NoError(err)
	v, err := obj.Value()
	assert.NoError(err)
	assert.InDelta(1, v, 1e-6)
}

func TestInfeasible(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	x, err := p.CreateSymbol("x", 1, opt.Continuous(0, 1))
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.Var(x), opt.GE, 2))

	st, err := p.Solve()
	assert.ErrorIs(err, opt.ErrInfeasible)
	assert.Equal(opt.StatusInfeasible, st)

	_, err = p.Value(x)
	assert.ErrorIs(err, opt.ErrNotSolved)
}

func TestUnbounded(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	x, err := p.CreateSymbol("x", 1, opt.NonNegative())
	assert.NoError(err)
	_, err = p.SetObjective(opt.Var(x), opt.Maximize)
	assert.NoError(err)

	st, err := p.Solve()
	assert.ErrorIs(err, opt.ErrUnbounded)
	assert.Equal(opt.StatusUnbounded, st)
}

// Builders that emit one balance row per vertex of a flow network produce a
// structurally dependent equality system (each component's rows sum to zero);
// the backend must row-reduce it instead of handing the simplex a singular
// matrix.
func TestDependentEqualityRows(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	// one unit from a source to a sink over two parallel arcs; the sink's
	// balance row is the negated source row
	f, err := p.CreateSymbol("f", 2, opt.Continuous(0, 1))
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.SumOf(f), opt.EQ, 1))
	assert.NoError(p.AddConstraint(opt.Scale(-1, opt.SumOf(f)), opt.EQ, -1))
	obj, err := p.SetObjective(opt.Dot(f, []float64{3, 1}), opt.Minimize)
	assert.NoError(err)

	st, err := p.Solve()
	assert.NoError(err)
	assert.Equal(opt.StatusOptimal, st)

	v, err := obj.Value()
	assert.NoError(err)
	assert.InDelta(1, v, 1e-6)
}

func TestInconsistentEqualityRows(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	// the two rows sum to 0 = 1
	x, err := p.CreateSymbol("x", 2, opt.Continuous(0, 1))
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.Sub(opt.At(x, 0), opt.At(x, 1)), opt.EQ, 1))
	assert.NoError(p.AddConstraint(opt.Sub(opt.At(x, 1), opt.At(x, 0)), opt.EQ, 0))

	st, err := p.Solve()
	assert.ErrorIs(err, opt.ErrInfeasible)
	assert.Equal(opt.StatusInfeasible, st)
}

func TestTimeLimit(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(simplex.New())

	x, err := p.CreateSymbol("x", 4, opt.Binary())
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.SumOf(x), opt.LE, 2))
	_, err = p.SetObjective(opt.SumOf(x), opt.Maximize)
	assert.NoError(err)

	// a limit that expires before the first branch-and-bound node
	st, err := p.Solve(backend.WithTimeLimit(time.Nanosecond))
	assert.ErrorIs(err, opt.ErrTimedOut)
	assert.Equal(opt.StatusTimedOut, st)
}
