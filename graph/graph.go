// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package graph implements the signed, weighted, directed multigraph the
// inference methods operate on.
//
// Vertices are addressed internally by a stable integer index assigned in
// insertion order; the caller-visible identity is an opaque VertexID. Indices
// are never recycled: removing a vertex tombstones its slot so outstanding
// index references stay valid. Edges store index pairs, not identifiers,
// giving O(1) adjacency traversal.
//
// A Graph is not safe for concurrent mutation. Once construction is done it
// may be shared read-only across any number of goroutines.
package graph

import (
	"errors"
	"iter"
	"math"

	"github.com/bits-and-blooms/bitset"
)

var (
	// ErrDuplicateVertex indicates AddVertex was called with an identifier already present.
	ErrDuplicateVertex = errors.New("graph: duplicate vertex")

	// ErrUnknownVertex indicates an operation referenced an absent (or removed) vertex.
	ErrUnknownVertex = errors.New("graph: unknown vertex")

	// ErrBadSign indicates an edge sign outside {-1, 0, +1}.
	ErrBadSign = errors.New("graph: edge sign must be -1, 0 or +1")

	// ErrBadWeight indicates a negative or non-finite edge weight.
	ErrBadWeight = errors.New("graph: edge weight must be finite and non-negative")
)

// VertexID is the caller-visible vertex identity.
type VertexID string

// Sign encodes the regulatory effect carried by an edge.
type Sign int8

const (
	Inhibition Sign = -1
	Neutral    Sign = 0
	Activation Sign = 1
)

// Direction selects which incident edges Neighbors yields.
type Direction uint8

const (
	Out Direction = iota
	In
	Both
)

// Edge connects two vertex indices with a sign and a non-negative weight.
type Edge struct {
	From   int
	To     int
	Sign   Sign
	Weight float64
}

// Interaction is the (source, sign, target) tuple form of a prior-knowledge
// network entry, as found in public signaling-network resources.
type Interaction struct {
	Source VertexID
	Sign   Sign
	Target VertexID
}

// Graph is an arena of vertices plus an edge list with per-direction
// adjacency. The zero value is not usable; call New.
type Graph struct {
	ids    []VertexID       // slot -> identifier, tombstones keep their slot
	index  map[VertexID]int // identifier -> slot
	alive  *bitset.BitSet   // live vertex slots
	edges  []Edge
	eAlive *bitset.BitSet // live edge slots
	out    [][]int32      // vertex slot -> outgoing edge indices
	in     [][]int32      // vertex slot -> incoming edge indices
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		index:  make(map[VertexID]int),
		alive:  bitset.New(0),
		eAlive: bitset.New(0),
	}
}

// FromInteractions builds a Graph from (source, sign, target) tuples,
// creating vertices on first mention in order of appearance.
func FromInteractions(interactions []Interaction) (*Graph, error) {
	g := New()
	for _, it := range interactions {
		for _, id := range []VertexID{it.Source, it.Target} {
			if _, ok := g.index[id]; !ok {
				if _, err := g.AddVertex(id); err != nil {
					return nil, err
				}
			}
		}
		if _, err := g.AddEdge(it.Source, it.Target, it.Sign, 1); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddVertex registers id and returns its index. Indices are assigned in
// insertion order and are stable for the lifetime of the Graph.
func (g *Graph) AddVertex(id VertexID) (int, error) {
	if _, ok := g.index[id]; ok {
		return -1, ErrDuplicateVertex
	}
	idx := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = idx
	g.alive.Set(uint(idx))
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return idx, nil
}

// AddEdge appends a directed edge src -> dst and returns its index. Parallel
// edges between the same pair are allowed.
func (g *Graph) AddEdge(src, dst VertexID, sign Sign, weight float64) (int, error) {
	u, err := g.liveIndex(src)
	if err != nil {
		return -1, err
	}
	v, err := g.liveIndex(dst)
	if err != nil {
		return -1, err
	}
	if sign < -1 || sign > 1 {
		return -1, ErrBadSign
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return -1, ErrBadWeight
	}
	ei := len(g.edges)
	g.edges = append(g.edges, Edge{From: u, To: v, Sign: sign, Weight: weight})
	g.eAlive.Set(uint(ei))
	g.out[u] = append(g.out[u], int32(ei))
	g.in[v] = append(g.in[v], int32(ei))
	return ei, nil
}

// RemoveVertex tombstones a vertex and all its incident edges. The slot index
// is never reused.
func (g *Graph) RemoveVertex(id VertexID) error {
	idx, err := g.liveIndex(id)
	if err != nil {
		return err
	}
	for _, ei := range g.out[idx] {
		g.eAlive.Clear(uint(ei))
	}
	for _, ei := range g.in[idx] {
		g.eAlive.Clear(uint(ei))
	}
	g.alive.Clear(uint(idx))
	delete(g.index, id)
	return nil
}

func (g *Graph) liveIndex(id VertexID) (int, error) {
	idx, ok := g.index[id]
	if !ok {
		return -1, ErrUnknownVertex
	}
	return idx, nil
}

// Index returns the stable index of a live vertex.
func (g *Graph) Index(id VertexID) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

// ID returns the identifier stored at a live vertex index.
func (g *Graph) ID(idx int) (VertexID, bool) {
	if idx < 0 || idx >= len(g.ids) || !g.alive.Test(uint(idx)) {
		return "", false
	}
	return g.ids[idx], true
}

// NumVertices counts live vertices.
func (g *Graph) NumVertices() int { return int(g.alive.Count()) }

// NumEdges counts live edges.
func (g *Graph) NumEdges() int { return int(g.eAlive.Count()) }

// Slots returns the size of the vertex arena, tombstones included. Symbol
// vectors indexed by vertex are dimensioned against this, not NumVertices.
func (g *Graph) Slots() int { return len(g.ids) }

// EdgeSlots returns the size of the edge arena, tombstones included.
func (g *Graph) EdgeSlots() int { return len(g.edges) }

// Edge returns the edge stored at a live edge index.
func (g *Graph) Edge(idx int) (Edge, bool) {
	if idx < 0 || idx >= len(g.edges) || !g.eAlive.Test(uint(idx)) {
		return Edge{}, false
	}
	return g.edges[idx], true
}

// Vertices iterates live vertices as (index, id), in index order. The
// sequence is restartable.
func (g *Graph) Vertices() iter.Seq2[int, VertexID] {
	return func(yield func(int, VertexID) bool) {
		for i, id := range g.ids {
			if !g.alive.Test(uint(i)) {
				continue
			}
			if !yield(i, id) {
				return
			}
		}
	}
}

// Edges iterates live edges as (index, edge), in index order.
func (g *Graph) Edges() iter.Seq2[int, Edge] {
	return func(yield func(int, Edge) bool) {
		for i, e := range g.edges {
			if !g.eAlive.Test(uint(i)) {
				continue
			}
			if !yield(i, e) {
				return
			}
		}
	}
}

// Neighbors iterates the live edges incident to id in the requested
// direction, yielding each edge with the vertex at its other end.
func (g *Graph) Neighbors(id VertexID, dir Direction) (iter.Seq2[Edge, VertexID], error) {
	idx, err := g.liveIndex(id)
	if err != nil {
		return nil, err
	}
	return func(yield func(Edge, VertexID) bool) {
		if dir == Out || dir == Both {
			for _, ei := range g.out[idx] {
				if !g.eAlive.Test(uint(ei)) {
					continue
				}
				e := g.edges[ei]
				if !yield(e, g.ids[e.To]) {
					return
				}
			}
		}
		if dir == In || dir == Both {
			for _, ei := range g.in[idx] {
				if !g.eAlive.Test(uint(ei)) {
					continue
				}
				e := g.edges[ei]
				if !yield(e, g.ids[e.From]) {
					return
				}
			}
		}
	}, nil
}

// Connected reports whether every vertex in ids is reachable from the first
// one, ignoring edge direction. An empty set is trivially connected.
func (g *Graph) Connected(ids []VertexID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	targets := bitset.New(uint(len(g.ids)))
	for _, id := range ids {
		idx, err := g.liveIndex(id)
		if err != nil {
			return false, err
		}
		targets.Set(uint(idx))
	}
	start, _ := g.liveIndex(ids[0])
	visited := bitset.New(uint(len(g.ids)))
	visited.Set(uint(start))
	queue := []int{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, adj := range [2][]int32{g.out[u], g.in[u]} {
			for _, ei := range adj {
				if !g.eAlive.Test(uint(ei)) {
					continue
				}
				e := g.edges[ei]
				w := e.From + e.To - u // other endpoint
				if !visited.Test(uint(w)) {
					visited.Set(uint(w))
					queue = append(queue, w)
				}
			}
		}
	}
	return visited.IsSuperSet(targets), nil
}

// Equal reports structural equality: same arena contents, same tombstones,
// same edges with signs and weights, same index assignment order.
func (g *Graph) Equal(o *Graph) bool {
	if len(g.ids) != len(o.ids) || len(g.edges) != len(o.edges) {
		return false
	}
	for i := range g.ids {
		if g.ids[i] != o.ids[i] || g.alive.Test(uint(i)) != o.alive.Test(uint(i)) {
			return false
		}
	}
	for i := range g.edges {
		if g.edges[i] != o.edges[i] || g.eAlive.Test(uint(i)) != o.eAlive.Test(uint(i)) {
			return false
		}
	}
	return true
}
