// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package causal fits signed perturbation/measurement data to a
// prior-knowledge network: it recovers the sparsest activation/inhibition
// pattern that is explainable by a signed path from some perturbation and
// agrees with the measured signs.
package causal

import (
	"errors"
	"fmt"
	"math"

	"github.com/pablormier/corneto/backend"
	"github.com/pablormier/corneto/graph"
	"github.com/pablormier/corneto/opt"
)

// Symbol names registered on the returned Problem. Both are binary vectors
// indexed by vertex arena slot (graph.Graph.Slots).
const (
	SymbolActivated = "vertex_activated"
	SymbolInhibited = "vertex_inhibited"
)

var (
	// ErrNoPerturbations indicates an empty perturbation map.
	ErrNoPerturbations = errors.New("causal: no perturbations given")

	// ErrNoMeasurements indicates an empty measurement map.
	ErrNoMeasurements = errors.New("causal: no measurements given")

	// ErrBadState indicates a perturbation or measurement sign outside {-1, +1}.
	ErrBadState = errors.New("causal: state sign must be -1 or +1")
)

// defaultParsimony is small enough that dropping one active vertex can never
// pay for one unit of lost measurement fit.
const defaultParsimony = 1e-3

type config struct {
	parsimony float64
	strict    bool
	solveOpts []backend.Option
}

// Option alters how the inference problem is built and solved.
type Option func(*config) error

// WithParsimonyWeight sets the scalarization weight of the sparsity penalty.
// It must stay well below 1/(number of vertices) or sparsity starts trading
// against measurement fit.
func WithParsimonyWeight(w float64) Option {
	return func(c *config) error {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("causal: invalid parsimony weight %v", w)
		}
		c.parsimony = w
		return nil
	}
}

// WithStrictMeasurements pins measured vertices to their observed sign as
// hard constraints instead of objective terms. The solve then fails with
// opt.ErrInfeasible when no signed path explains some measurement.
func WithStrictMeasurements() Option {
	return func(c *config) error {
		c.strict = true
		return nil
	}
}

// WithSolveOptions forwards backend options to the solve performed by
// RunCausalInference.
func WithSolveOptions(opts ...backend.Option) Option {
	return func(c *config) error {
		c.solveOpts = opts
		return nil
	}
}

// RunCausalInference builds and solves the causal-consistency program for a
// prior-knowledge network. Perturbations are hard boundary conditions;
// measurements are fitting targets. The returned Problem is already solved;
// read the inferred states with States or through the registered symbols.
//
// The network is never mutated and is returned alongside the Problem for
// index lookups.
func RunCausalInference(perturbations, measurements map[graph.VertexID]int, network *graph.Graph, b opt.Backend, options ...Option) (*opt.Problem, *graph.Graph, error) {
	cfg := config{parsimony: defaultParsimony}
	for _, o := range options {
		if err := o(&cfg); err != nil {
			return nil, nil, err
		}
	}
	if len(perturbations) == 0 {
		return nil, nil, ErrNoPerturbations
	}
	if len(measurements) == 0 {
		return nil, nil, ErrNoMeasurements
	}
	for _, m := range []map[graph.VertexID]int{perturbations, measurements} {
		for id, sign := range m {
			if _, ok := network.Index(id); !ok {
				return nil, nil, fmt.Errorf("%w: %q", graph.ErrUnknownVertex, id)
			}
			if sign != -1 && sign != 1 {
				return nil, nil, fmt.Errorf("%w: %q has sign %d", ErrBadState, id, sign)
			}
		}
	}

	p := opt.NewProblem(b)
	slots := network.Slots()
	act, err := p.CreateSymbol(SymbolActivated, slots, opt.Binary())
	if err != nil {
		return nil, nil, err
	}
	inh, err := p.CreateSymbol(SymbolInhibited, slots, opt.Binary())
	if err != nil {
		return nil, nil, err
	}

	if err := addStateConstraints(p, network, act, inh, perturbations, measurements, cfg.strict); err != nil {
		return nil, nil, err
	}

	// Fit first, sparsity second: a weighted scalarization where the
	// parsimony weight only breaks ties among equal-fit solutions.
	fit := make([]opt.Expr, 0, len(measurements))
	for id, sign := range measurements {
		v, _ := network.Index(id)
		fit = append(fit, opt.Scale(float64(sign), opt.Sub(opt.At(act, v), opt.At(inh, v))))
	}
	if _, err := p.AddObjective(opt.Sum(fit...), opt.Maximize, 1); err != nil {
		return nil, nil, err
	}
	if _, err := p.AddObjective(opt.Sum(opt.SumOf(act), opt.SumOf(inh)), opt.Minimize, cfg.parsimony); err != nil {
		return nil, nil, err
	}

	if _, err := p.Solve(cfg.solveOpts...); err != nil {
		return p, network, err
	}
	return p, network, nil
}

// RunCausalInferenceFromInteractions is RunCausalInference over a
// prior-knowledge network given as (source, sign, target) tuples, the form
// public interaction resources ship in.
func RunCausalInferenceFromInteractions(perturbations, measurements map[graph.VertexID]int, pkn []graph.Interaction, b opt.Backend, options ...Option) (*opt.Problem, *graph.Graph, error) {
	network, err := graph.FromInteractions(pkn)
	if err != nil {
		return nil, nil, err
	}
	return RunCausalInference(perturbations, measurements, network, b, options...)
}

func addStateConstraints(p *opt.Problem, network *graph.Graph, act, inh *opt.Symbol, perturbations, measurements map[graph.VertexID]int, strict bool) error {
	slots := network.Slots()

	// Upstream support per vertex: the states an in-edge can propagate onto
	// its target, keyed by the target's slot.
	actSupport := make([][]opt.Expr, slots)
	inhSupport := make([][]opt.Expr, slots)
	for _, e := range network.Edges() {
		switch e.Sign {
		case graph.Activation:
			actSupport[e.To] = append(actSupport[e.To], opt.At(act, e.From))
			inhSupport[e.To] = append(inhSupport[e.To], opt.At(inh, e.From))
		case graph.Inhibition:
			actSupport[e.To] = append(actSupport[e.To], opt.At(inh, e.From))
			inhSupport[e.To] = append(inhSupport[e.To], opt.At(act, e.From))
		}
		// Neutral edges do not propagate signal.
	}

	live := make([]bool, slots)
	for v := range network.Vertices() {
		live[v] = true
	}
	for v := 0; v < slots; v++ {
		if !live[v] {
			// Tombstoned slot: no state.
			if err := p.AddConstraint(opt.At(act, v), opt.EQ, 0); err != nil {
				return err
			}
			if err := p.AddConstraint(opt.At(inh, v), opt.EQ, 0); err != nil {
				return err
			}
			continue
		}
		// A vertex holds at most one state.
		excl := opt.Sum(opt.At(act, v), opt.At(inh, v))
		if err := p.AddConstraint(excl, opt.LE, 1); err != nil {
			return err
		}
		id, _ := network.ID(v)
		if sign, ok := perturbations[id]; ok {
			// Perturbed vertices are pinned, not explained.
			if err := pinState(p, act, inh, v, sign); err != nil {
				return err
			}
			continue
		}
		// Explainability: a state requires some in-edge whose source holds a
		// compatible state.
		if err := p.AddConstraint(opt.Sub(opt.At(act, v), opt.Sum(actSupport[v]...)), opt.LE, 0); err != nil {
			return err
		}
		if err := p.AddConstraint(opt.Sub(opt.At(inh, v), opt.Sum(inhSupport[v]...)), opt.LE, 0); err != nil {
			return err
		}
		if strict {
			if sign, ok := measurements[id]; ok {
				if err := pinState(p, act, inh, v, sign); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func pinState(p *opt.Problem, act, inh *opt.Symbol, v, sign int) error {
	a, i := 0.0, 0.0
	if sign > 0 {
		a = 1
	} else {
		i = 1
	}
	if err := p.AddConstraint(opt.At(act, v), opt.EQ, a); err != nil {
		return err
	}
	return p.AddConstraint(opt.At(inh, v), opt.EQ, i)
}

// States reads the inferred sign per live vertex off a solved problem:
// +1 activated, -1 inhibited, 0 unexplained or inactive.
func States(p *opt.Problem, network *graph.Graph) (map[graph.VertexID]int, error) {
	act, ok := p.Symbol(SymbolActivated)
	if !ok {
		return nil, fmt.Errorf("causal: symbol %q not registered", SymbolActivated)
	}
	inh, ok := p.Symbol(SymbolInhibited)
	if !ok {
		return nil, fmt.Errorf("causal: symbol %q not registered", SymbolInhibited)
	}
	a, err := p.Value(act)
	if err != nil {
		return nil, err
	}
	i, err := p.Value(inh)
	if err != nil {
		return nil, err
	}
	out := make(map[graph.VertexID]int, network.NumVertices())
	for v, id := range network.Vertices() {
		out[id] = int(math.Round(a[v] - i[v]))
	}
	return out, nil
}
