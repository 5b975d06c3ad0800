// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package opt implements the backend-agnostic symbolic layer: decision
// symbols, linear expressions, constraints, objectives and the Problem
// container binding them to a solver backend.
//
// Problem builders are written solely against this package and the Backend
// interface, never against a concrete solver variant, so the same builder
// logic produces correct programs regardless of which variant is selected.
package opt

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/pablormier/corneto/backend"
)

// Op is a constraint relational operator.
type Op uint8

const (
	LE Op = iota
	EQ
	GE
)

func (op Op) String() string {
	switch op {
	case LE:
		return "<="
	case EQ:
		return "=="
	case GE:
		return ">="
	default:
		return "?"
	}
}

// A Constraint relates an expression to a right-hand side constant.
type Constraint struct {
	E   Expr
	Op  Op
	RHS float64
}

// Direction is the optimization sense of an objective.
type Direction uint8

const (
	Minimize Direction = iota
	Maximize
)

// An Objective is an expression to optimize. Problems may carry several;
// backends combine them as a weighted scalarization (see Minimization).
type Objective struct {
	expr   Expr
	dir    Direction
	weight float64
	value  float64
	solved bool
}

// Expr returns the objective expression.
func (o *Objective) Expr() Expr { return o.expr }

// Direction returns the optimization sense.
func (o *Objective) Direction() Direction { return o.dir }

// Weight returns the scalarization weight.
func (o *Objective) Weight() float64 { return o.weight }

// Value returns the objective value at the last optimal solve.
func (o *Objective) Value() (float64, error) {
	if !o.solved {
		return 0, ErrNotSolved
	}
	return o.value, nil
}

// Status is the outcome of a solve attempt.
type Status uint8

const (
	StatusUnsolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusTimedOut
	StatusSolverError
)

func (s Status) String() string {
	switch s {
	case StatusUnsolved:
		return "unsolved"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusTimedOut:
		return "timed out"
	case StatusSolverError:
		return "solver error"
	default:
		return "unknown"
	}
}

// Backend translates a Problem into a concrete solver's native representation
// and runs it. On StatusOptimal the returned vector assigns every variable;
// on any other status it is nil.
//
// Implementations exclusively own their compiled native representation; the
// Problem owns the symbol/constraint/objective registry.
type Backend interface {
	ID() backend.ID
	Solve(p *Problem, cfg backend.Config) ([]float64, Status, error)
}

// A Problem aggregates the symbols, constraints and objectives created
// against one Backend instance. It is populated incrementally, solved, then
// queried for symbol values. A Problem is not safe for concurrent use.
type Problem struct {
	b Backend

	symbols []*Symbol
	byName  map[string]*Symbol
	nbVars  int

	constraints []Constraint
	objectives  []*Objective

	status   Status
	solution []float64
}

// NewProblem returns an empty Problem bound to b.
func NewProblem(b Backend) *Problem {
	return &Problem{b: b, byName: make(map[string]*Symbol)}
}

// Backend returns the backend the problem is bound to.
func (p *Problem) Backend() Backend { return p.b }

// CreateSymbol registers a named decision variable of n entries.
func (p *Problem) CreateSymbol(name string, n int, d Domain) (*Symbol, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNameCollision)
	}
	if n < 1 {
		return nil, fmt.Errorf("opt: symbol %q must have at least one entry", name)
	}
	if _, ok := p.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameCollision, name)
	}
	s := &Symbol{name: name, offset: p.nbVars, n: n, domain: d, owner: p}
	p.symbols = append(p.symbols, s)
	p.byName[name] = s
	p.nbVars += n
	return s, nil
}

// Symbol returns a registered symbol by name.
func (p *Problem) Symbol(name string) (*Symbol, bool) {
	s, ok := p.byName[name]
	return s, ok
}

// AddConstraint appends e op rhs to the problem.
func (p *Problem) AddConstraint(e Expr, op Op, rhs float64) error {
	if err := p.checkOwned(e); err != nil {
		return err
	}
	p.constraints = append(p.constraints, Constraint{E: e, Op: op, RHS: rhs})
	return nil
}

// AddObjective appends an objective with the given scalarization weight.
func (p *Problem) AddObjective(e Expr, dir Direction, weight float64) (*Objective, error) {
	if err := p.checkOwned(e); err != nil {
		return nil, err
	}
	o := &Objective{expr: e, dir: dir, weight: weight}
	p.objectives = append(p.objectives, o)
	return o, nil
}

// SetObjective replaces all objectives with a single one of weight 1.
func (p *Problem) SetObjective(e Expr, dir Direction) (*Objective, error) {
	if err := p.checkOwned(e); err != nil {
		return nil, err
	}
	p.objectives = p.objectives[:0]
	return p.AddObjective(e, dir, 1)
}

// checkOwned verifies that every symbol an expression was built from belongs
// to this Problem. Variable id ranges of distinct Problems overlap, so the
// check is by owner identity, not by index.
func (p *Problem) checkOwned(e Expr) error {
	for _, s := range e.syms {
		if s.owner != p {
			return fmt.Errorf("%w: symbol %q was created on a different problem", ErrForeignSymbol, s.name)
		}
	}
	for _, t := range e.terms {
		if t.VID < 0 || t.VID >= p.nbVars {
			return fmt.Errorf("%w: variable id %d", ErrForeignSymbol, t.VID)
		}
	}
	return nil
}

// NbVars returns the size of the variable space.
func (p *Problem) NbVars() int { return p.nbVars }

// Symbols returns the registered symbols in creation order.
func (p *Problem) Symbols() []*Symbol { return p.symbols }

// Constraints returns the constraints in insertion order.
func (p *Problem) Constraints() []Constraint { return p.constraints }

// Objectives returns the objectives in insertion order.
func (p *Problem) Objectives() []*Objective { return p.objectives }

// Bounds expands the per-symbol domains into per-variable bound vectors.
func (p *Problem) Bounds() (lo, hi []float64) {
	lo = make([]float64, p.nbVars)
	hi = make([]float64, p.nbVars)
	for _, s := range p.symbols {
		for i := 0; i < s.n; i++ {
			lo[s.offset+i] = s.domain.Lo
			hi[s.offset+i] = s.domain.Hi
		}
	}
	return lo, hi
}

// Integrality returns the set of variables whose domain requires integer
// values.
func (p *Problem) Integrality() *bitset.BitSet {
	b := bitset.New(uint(p.nbVars))
	for _, s := range p.symbols {
		if !s.domain.Integral() {
			continue
		}
		for i := 0; i < s.n; i++ {
			b.Set(uint(s.offset + i))
		}
	}
	return b
}

// Minimization scalarizes the objectives into a single minimization
// expression: maximize terms are negated and each objective is scaled by its
// weight. With no objectives the result is the zero expression (pure
// feasibility problem).
func (p *Problem) Minimization() Expr {
	exprs := make([]Expr, 0, len(p.objectives))
	for _, o := range p.objectives {
		w := o.weight
		if o.dir == Maximize {
			w = -w
		}
		exprs = append(exprs, Scale(w, o.expr))
	}
	return Sum(exprs...)
}

// Solve dispatches the problem to its backend, blocking until the solver
// returns. On StatusOptimal every symbol value is populated and the error is
// nil; on any other status symbol values are undefined and a matching
// sentinel error is returned.
//
// Re-solving with different options replaces the previous value snapshot.
func (p *Problem) Solve(opts ...backend.Option) (Status, error) {
	cfg, err := backend.NewConfig(opts...)
	if err != nil {
		return StatusUnsolved, err
	}
	if p.nbVars == 0 {
		return StatusUnsolved, ErrEmptyProblem
	}
	x, st, err := p.b.Solve(p, cfg)
	p.status = st
	if st == StatusOptimal && err == nil {
		p.solution = x
		for _, o := range p.objectives {
			o.value = o.expr.Eval(x)
			o.solved = true
		}
		return st, nil
	}
	p.solution = nil
	for _, o := range p.objectives {
		o.solved = false
	}
	switch st {
	case StatusInfeasible:
		return st, ErrInfeasible
	case StatusUnbounded:
		return st, ErrUnbounded
	case StatusTimedOut:
		return st, ErrTimedOut
	default:
		if err == nil {
			err = fmt.Errorf("backend %s returned status %s", p.b.ID(), st)
		}
		return StatusSolverError, fmt.Errorf("%w: %v", ErrSolver, err)
	}
}

// Status returns the outcome of the last solve.
func (p *Problem) Status() Status { return p.status }

// Value returns a copy of the solved values of s.
func (p *Problem) Value(s *Symbol) ([]float64, error) {
	if s.owner != p {
		return nil, fmt.Errorf("%w: symbol %q was created on a different problem", ErrForeignSymbol, s.name)
	}
	if p.status != StatusOptimal || p.solution == nil {
		return nil, ErrNotSolved
	}
	out := make([]float64, s.n)
	copy(out, p.solution[s.offset:s.offset+s.n])
	return out, nil
}

// ValueAt returns the solved value of the i-th entry of s.
func (p *Problem) ValueAt(s *Symbol, i int) (float64, error) {
	if s.owner != p {
		return 0, fmt.Errorf("%w: symbol %q was created on a different problem", ErrForeignSymbol, s.name)
	}
	if p.status != StatusOptimal || p.solution == nil {
		return 0, ErrNotSolved
	}
	if i < 0 || i >= s.n {
		return 0, fmt.Errorf("opt: index %d out of range for symbol %q", i, s.name)
	}
	return p.solution[s.offset+i], nil
}
