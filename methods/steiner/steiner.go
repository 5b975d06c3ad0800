// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package steiner builds the exact minimum-weight Steiner tree program: the
// cheapest edge set connecting a terminal vertex set, allowing non-terminal
// vertices where they reduce total weight.
//
// Connectivity is enforced exactly with a single-commodity flow relaxation,
// not a spanning-tree heuristic: one terminal acts as the root supply node,
// every other terminal demands one unit, and flow may only traverse selected
// edges. Selected edges that do not route flow back to the root cannot occur
// in an optimum, so the readout is always a connected subgraph.
//
// Edges are used in their stored direction; for an undirected instance add
// one arc per direction (see ArcPair).
package steiner

import (
	"errors"
	"fmt"

	"github.com/pablormier/corneto/graph"
	"github.com/pablormier/corneto/opt"
)

// Symbol names registered on the returned Problem. The edge symbols are
// indexed by edge arena slot (graph.Graph.EdgeSlots), the terminal symbol by
// vertex arena slot.
const (
	SymbolSelected = "edge_selected"   // binary
	SymbolFlow     = "edge_flow"       // continuous in [0, |terminals|-1]
	SymbolTerminal = "vertex_terminal" // binary, pinned to the terminal set
)

// ErrNoTerminals indicates an empty terminal set.
var ErrNoTerminals = errors.New("steiner: no terminal vertices given")

// ExactSteinerTree builds the minimum-weight Steiner tree program over g for
// the given terminals. The first terminal is the flow root. The returned
// Problem is unsolved; after an optimal solve the tree weight is the value of
// the single objective and the edge set is read with SelectedSubgraph.
//
// A singleton terminal set is trivially connected: the program solves to
// objective zero and the subgraph is the terminal alone, no edges required.
//
// Solving fails with opt.ErrInfeasible when the terminals are not connected
// in g.
func ExactSteinerTree(g *graph.Graph, terminals []graph.VertexID, b opt.Backend) (*opt.Problem, *graph.Graph, error) {
	if len(terminals) == 0 {
		return nil, nil, ErrNoTerminals
	}
	seen := make(map[graph.VertexID]bool, len(terminals))
	roles := make(map[int]int) // vertex slot -> flow supply
	uniq := make([]graph.VertexID, 0, len(terminals))
	for _, id := range terminals {
		if seen[id] {
			continue
		}
		seen[id] = true
		v, ok := g.Index(id)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", graph.ErrUnknownVertex, id)
		}
		roles[v] = -1 // demand one unit
		uniq = append(uniq, id)
	}
	rootIdx, _ := g.Index(uniq[0])
	demand := float64(len(uniq) - 1)
	roles[rootIdx] = len(uniq) - 1 // the root supplies all demand

	p := opt.NewProblem(b)
	// Terminal membership is materialized as a pinned vector so the readout
	// can anchor terminals that span no selected edge.
	term, err := p.CreateSymbol(SymbolTerminal, g.Slots(), opt.Binary())
	if err != nil {
		return nil, nil, err
	}
	for v := 0; v < g.Slots(); v++ {
		pin := 0.0
		if _, ok := roles[v]; ok {
			pin = 1
		}
		if err := p.AddConstraint(opt.At(term, v), opt.EQ, pin); err != nil {
			return nil, nil, err
		}
	}

	eSlots := g.EdgeSlots()
	if eSlots == 0 {
		// A lone terminal needs no edges; more than one cannot be connected
		// without them.
		if demand > 0 {
			if err := p.AddConstraint(opt.Const(0), opt.EQ, demand); err != nil {
				return nil, nil, err
			}
		}
		if _, err := p.SetObjective(opt.Const(0), opt.Minimize); err != nil {
			return nil, nil, err
		}
		return p, g, nil
	}
	sel, err := p.CreateSymbol(SymbolSelected, eSlots, opt.Binary())
	if err != nil {
		return nil, nil, err
	}
	flow, err := p.CreateSymbol(SymbolFlow, eSlots, opt.Continuous(0, demand))
	if err != nil {
		return nil, nil, err
	}

	weights := make([]float64, eSlots)
	outFlow := make([][]opt.Expr, g.Slots())
	inFlow := make([][]opt.Expr, g.Slots())
	live := make([]bool, eSlots)
	for ei, e := range g.Edges() {
		live[ei] = true
		weights[ei] = e.Weight
		outFlow[e.From] = append(outFlow[e.From], opt.At(flow, ei))
		inFlow[e.To] = append(inFlow[e.To], opt.At(flow, ei))
		// Flow only traverses selected edges.
		capRow := opt.Sub(opt.At(flow, ei), opt.Scale(demand, opt.At(sel, ei)))
		if err := p.AddConstraint(capRow, opt.LE, 0); err != nil {
			return nil, nil, err
		}
	}
	for ei := 0; ei < eSlots; ei++ {
		if live[ei] {
			continue
		}
		// Tombstoned edge slots stay out of the tree.
		if err := p.AddConstraint(opt.At(sel, ei), opt.EQ, 0); err != nil {
			return nil, nil, err
		}
		if err := p.AddConstraint(opt.At(flow, ei), opt.EQ, 0); err != nil {
			return nil, nil, err
		}
	}

	// Flow conservation: supply at the root, unit demand at the other
	// terminals, balance everywhere else.
	for v := range g.Vertices() {
		balance := opt.Sub(opt.Sum(outFlow[v]...), opt.Sum(inFlow[v]...))
		if err := p.AddConstraint(balance, opt.EQ, float64(roles[v])); err != nil {
			return nil, nil, err
		}
	}

	// A tree over the live vertices never needs more edges than this; the
	// minimization already discourages cycles given non-negative weights.
	if err := p.AddConstraint(opt.SumOf(sel), opt.LE, float64(g.NumVertices()-1)); err != nil {
		return nil, nil, err
	}

	if _, err := p.SetObjective(opt.Dot(sel, weights), opt.Minimize); err != nil {
		return nil, nil, err
	}
	return p, g, nil
}

// SelectedSubgraph reads the solved selection back as an induced sub-Graph:
// every selected edge plus its endpoints, plus every terminal, preserving
// identifiers and relative insertion order.
func SelectedSubgraph(p *opt.Problem, g *graph.Graph) (*graph.Graph, error) {
	term, ok := p.Symbol(SymbolTerminal)
	if !ok {
		return nil, fmt.Errorf("steiner: symbol %q not registered", SymbolTerminal)
	}
	tv, err := p.Value(term)
	if err != nil {
		return nil, err
	}
	var x []float64
	if sel, ok := p.Symbol(SymbolSelected); ok {
		if x, err = p.Value(sel); err != nil {
			return nil, err
		}
	}
	sub := graph.New()
	keep := make(map[int]bool)
	for v := range g.Vertices() {
		if tv[v] >= 0.5 {
			keep[v] = true
		}
	}
	for ei, e := range g.Edges() {
		if ei < len(x) && x[ei] >= 0.5 {
			keep[e.From] = true
			keep[e.To] = true
		}
	}
	for v, id := range g.Vertices() {
		if keep[v] {
			if _, err := sub.AddVertex(id); err != nil {
				return nil, err
			}
		}
	}
	for ei, e := range g.Edges() {
		if ei >= len(x) || x[ei] < 0.5 {
			continue
		}
		from, _ := g.ID(e.From)
		to, _ := g.ID(e.To)
		if _, err := sub.AddEdge(from, to, e.Sign, e.Weight); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// ArcPair expands one undirected weighted edge into the two directed arcs the
// flow formulation needs. Both arcs carry the weight; an optimum selects at
// most one of them.
func ArcPair(g *graph.Graph, a, b graph.VertexID, weight float64) error {
	if _, err := g.AddEdge(a, b, graph.Neutral, weight); err != nil {
		return err
	}
	_, err := g.AddEdge(b, a, graph.Neutral, weight)
	return err
}
