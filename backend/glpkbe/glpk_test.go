// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

//go:build cgo

package glpkbe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pablormier/corneto/backend/glpkbe"
	"github.com/pablormier/corneto/backend/simplex"
	"github.com/pablormier/corneto/opt"
)

func TestSolveMILP(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(glpkbe.New())

	x, err := p.CreateSymbol("x", 3, opt.Binary())
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.Dot(x, []float64{2, 3, 4}), opt.LE, 5))
	obj, err := p.SetObjective(opt.Dot(x, []float64{3, 4, 5}), opt.Maximize)
	assert.NoError(err)

	st, err := p.Solve()
	assert.NoError(err)
	assert.Equal(opt.StatusOptimal, st)

	v, err := obj.Value()
	assert.NoError(err)
	assert.InDelta(7, v, 1e-6) // items 1 and 2
}

func TestInfeasible(t *testing.T) {
	assert := require.New(t)
	p := opt.NewProblem(glpkbe.New())

	x, err := p.CreateSymbol("x", 1, opt.Continuous(0, 1))
	assert.NoError(err)
	assert.NoError(p.AddConstraint(opt.Var(x), opt.GE, 2))

	st, err := p.Solve()
	assert.ErrorIs(err, opt.ErrInfeasible)
	assert.Equal(opt.StatusInfeasible, st)
}

// Two exact-integer backends must agree on the optimal objective value for
// the same problem structure, even when individual variables tie.
func TestAgreesWithSimplexBackend(t *testing.T) {
	assert := require.New(t)

	build := func(b opt.Backend) *opt.Problem {
		p := opt.NewProblem(b)
		x, err := p.CreateSymbol("x", 4, opt.Binary())
		assert.NoError(err)
		assert.NoError(p.AddConstraint(opt.Dot(x, []float64{1, 1, 2, 2}), opt.LE, 3))
		_, err = p.SetObjective(opt.Dot(x, []float64{2, 2, 3, 3}), opt.Maximize)
		assert.NoError(err)
		return p
	}

	want := 0.0
	for i, b := range []opt.Backend{simplex.New(), glpkbe.New()} {
		p := build(b)
		_, err := p.Solve()
		assert.NoError(err)
		v, err := p.Objectives()[0].Value()
		assert.NoError(err)
		if i == 0 {
			want = v
			continue
		}
		assert.InDelta(want, v, 1e-6)
	}
}
