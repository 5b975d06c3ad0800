// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package opt

import "errors"

var (
	// ErrNameCollision indicates CreateSymbol was called with a name already
	// registered on the Problem.
	ErrNameCollision = errors.New("opt: symbol name collision")

	// ErrForeignSymbol indicates a constraint or objective references a
	// variable not registered on the Problem.
	ErrForeignSymbol = errors.New("opt: expression references a symbol not registered on this problem")

	// ErrEmptyProblem indicates Solve was called before any symbol was created.
	ErrEmptyProblem = errors.New("opt: problem has no variables")

	// ErrInfeasible indicates the solver proved no feasible solution exists.
	ErrInfeasible = errors.New("opt: problem is infeasible")

	// ErrUnbounded indicates the objective is unbounded over the feasible set.
	ErrUnbounded = errors.New("opt: problem is unbounded")

	// ErrTimedOut indicates the solver-native time limit expired; symbol
	// values are unknown, not absent.
	ErrTimedOut = errors.New("opt: solver time limit exceeded")

	// ErrSolver indicates the underlying solver failed for reasons outside
	// the problem's structure; the backend diagnostic is attached.
	ErrSolver = errors.New("opt: solver failure")

	// ErrNotSolved indicates symbol values were requested without a
	// preceding optimal solve.
	ErrNotSolved = errors.New("opt: problem not solved to optimality")
)
