// Copyright 2023-2025 The corneto Authors.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bits-and-blooms/bitset"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

func bitsetFull(n int) *bitset.BitSet {
	b := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		b.Set(uint(i))
	}
	return b
}

// Serialization is schema-less CBOR wrapped in a zstd stream, preceded by a
// small uncompressed header. The dump is structural: the full vertex and edge
// arenas are written, tombstones included, so Load reproduces index
// assignment exactly.

var (
	ErrInvalidFormat      = errors.New("graph: not a corneto graph file")
	ErrUnsupportedVersion = errors.New("graph: unsupported graph file version")
)

var magic = [4]byte{'c', 'n', 't', 'o'}

const fileVersion = 1

type edgeRecord struct {
	From   int32   `cbor:"1,keyasint"`
	To     int32   `cbor:"2,keyasint"`
	Sign   int8    `cbor:"3,keyasint"`
	Weight float64 `cbor:"4,keyasint"`
}

type graphRecord struct {
	Version   uint32       `cbor:"1,keyasint"`
	Vertices  []VertexID   `cbor:"2,keyasint"`
	DeadVerts []uint32     `cbor:"3,keyasint"`
	Edges     []edgeRecord `cbor:"4,keyasint"`
	DeadEdges []uint32     `cbor:"5,keyasint"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Encode writes the graph to w.
func (g *Graph) Encode(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	rec := graphRecord{
		Version:  fileVersion,
		Vertices: g.ids,
		Edges:    make([]edgeRecord, len(g.edges)),
	}
	for i, e := range g.edges {
		rec.Edges[i] = edgeRecord{From: int32(e.From), To: int32(e.To), Sign: int8(e.Sign), Weight: e.Weight}
	}
	for i := range g.ids {
		if !g.alive.Test(uint(i)) {
			rec.DeadVerts = append(rec.DeadVerts, uint32(i))
		}
	}
	for i := range g.edges {
		if !g.eAlive.Test(uint(i)) {
			rec.DeadEdges = append(rec.DeadEdges, uint32(i))
		}
	}
	if err := encMode.NewEncoder(zw).Encode(&rec); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Decode reads a graph previously written by Encode.
func Decode(r io.Reader) (*Graph, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !bytes.Equal(hdr[:], magic[:]) {
		return nil, ErrInvalidFormat
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var rec graphRecord
	if err := cbor.NewDecoder(zr).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if rec.Version != fileVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
	}
	g := New()
	g.ids = rec.Vertices
	g.out = make([][]int32, len(g.ids))
	g.in = make([][]int32, len(g.ids))
	g.alive = bitsetFull(len(g.ids))
	for _, i := range rec.DeadVerts {
		g.alive.Clear(uint(i))
	}
	for i := range g.ids {
		if g.alive.Test(uint(i)) {
			g.index[g.ids[i]] = i
		}
	}
	g.edges = make([]Edge, len(rec.Edges))
	g.eAlive = bitsetFull(len(rec.Edges))
	for _, i := range rec.DeadEdges {
		g.eAlive.Clear(uint(i))
	}
	for i, e := range rec.Edges {
		if int(e.From) >= len(g.ids) || int(e.To) >= len(g.ids) || e.From < 0 || e.To < 0 {
			return nil, fmt.Errorf("%w: edge %d endpoint out of range", ErrInvalidFormat, i)
		}
		g.edges[i] = Edge{From: int(e.From), To: int(e.To), Sign: Sign(e.Sign), Weight: e.Weight}
		g.out[e.From] = append(g.out[e.From], int32(i))
		g.in[e.To] = append(g.in[e.To], int32(i))
	}
	return g, nil
}

// Save writes the graph to a file.
func Save(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return g.Encode(f)
}

// Load reads a graph from a file written by Save.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}
