package graph

import (
	"fmt"
	"sort"
	"sync/atomic"

	. "github.com/eggeek/oracle-search/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// graph structs
//*******************************************

type Node struct {
	X int32
	Y int32
}

type Edge struct {
	Tail   int32
	Head   int32
	Weight int32
}

type EdgePatch struct {
	Tail   int32
	Head   int32
	Weight int32
}

// MaxOutDegree is the hard cap imposed by the 32-bit first-move masks.
const MaxOutDegree = 32

//*******************************************
// graph
//*******************************************

// Graph is a directed weighted graph with dense node ids. Topology is
// fixed after construction; edge weights may be replaced via Perturb.
// Concurrent reads are safe, Perturb must be exclusive with reads.
type Graph struct {
	nodes       Array[Node]
	edges       Array[Edge]
	base        Array[int32]
	fwd_offsets Array[int32]
	bwd_offsets Array[int32]
	bwd_edges   Array[int32]
	has_reverse bool
	version     atomic.Uint64
}

// NewGraph sorts edges by tail node and builds the adjacency offsets.
// Incoming adjacency is only stored when reverse is set.
func NewGraph(nodes Array[Node], edges Array[Edge], reverse bool) (*Graph, error) {
	n := nodes.Length()
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Tail < edges[j].Tail
	})

	fwd_offsets := NewArray[int32](n + 1)
	for _, e := range edges {
		if e.Tail < 0 || int(e.Tail) >= n || e.Head < 0 || int(e.Head) >= n {
			return nil, fmt.Errorf("edge (%v -> %v) outside node range [0, %v)", e.Tail, e.Head, n)
		}
		if e.Weight < 0 {
			return nil, fmt.Errorf("edge (%v -> %v) has negative weight %v", e.Tail, e.Head, e.Weight)
		}
		fwd_offsets[e.Tail+1] += 1
	}
	for i := 0; i < n; i++ {
		if fwd_offsets[i+1] > MaxOutDegree {
			return nil, fmt.Errorf("node %v has out-degree %v, maximum is %v", i, fwd_offsets[i+1], MaxOutDegree)
		}
		fwd_offsets[i+1] += fwd_offsets[i]
	}

	base := NewArray[int32](edges.Length())
	for i, e := range edges {
		base[i] = e.Weight
	}
	g := &Graph{
		nodes:       nodes,
		edges:       edges,
		base:        base,
		fwd_offsets: fwd_offsets,
		has_reverse: reverse,
	}
	if reverse {
		if err := g.buildReverse(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (self *Graph) buildReverse() error {
	n := self.NodeCount()
	bwd_offsets := NewArray[int32](n + 1)
	for _, e := range self.edges {
		bwd_offsets[e.Head+1] += 1
	}
	for i := 0; i < n; i++ {
		if bwd_offsets[i+1] > MaxOutDegree {
			return fmt.Errorf("node %v has in-degree %v, maximum is %v", i, bwd_offsets[i+1], MaxOutDegree)
		}
		bwd_offsets[i+1] += bwd_offsets[i]
	}
	bwd_edges := NewArray[int32](self.EdgeCount())
	fill := NewArray[int32](n)
	for id, e := range self.edges {
		bwd_edges[bwd_offsets[e.Head]+fill[e.Head]] = int32(id)
		fill[e.Head] += 1
	}
	self.bwd_offsets = bwd_offsets
	self.bwd_edges = bwd_edges
	return nil
}

func (self *Graph) NodeCount() int {
	return self.nodes.Length()
}

func (self *Graph) EdgeCount() int {
	return self.edges.Length()
}

func (self *Graph) HasReverse() bool {
	return self.has_reverse
}

func (self *Graph) XY(node int32) (int32, int32) {
	n := self.nodes[node]
	return n.X, n.Y
}

func (self *Graph) Version() uint64 {
	return self.version.Load()
}

func (self *Graph) Weight(edge int32) int32 {
	return self.edges[edge].Weight
}

// BaseWeight returns the weight the edge carried at load time, before
// any perturbation. Oracles are built against these weights, so they
// bound the oracle's path costs from below as long as perturbations
// only increase weights.
func (self *Graph) BaseWeight(edge int32) int32 {
	return self.base[edge]
}

func (self *Graph) EdgeEnds(edge int32) (int32, int32) {
	e := self.edges[edge]
	return e.Tail, e.Head
}

func (self *Graph) OutDegree(node int32) int32 {
	return self.fwd_offsets[node+1] - self.fwd_offsets[node]
}

func (self *Graph) InDegree(node int32) int32 {
	return self.bwd_offsets[node+1] - self.bwd_offsets[node]
}

// ForOutEdges visits the outgoing edges of node in adjacency order.
// The index passed to the callback is the edge's bit position in
// first-move masks keyed on this node.
func (self *Graph) ForOutEdges(node int32, callback func(index int32, edge int32, head int32, weight int32)) {
	start := self.fwd_offsets[node]
	end := self.fwd_offsets[node+1]
	for id := start; id < end; id++ {
		e := self.edges[id]
		callback(id-start, id, e.Head, e.Weight)
	}
}

// ForInEdges visits the incoming edges of node. Only available when the
// graph was built with reverse adjacency.
func (self *Graph) ForInEdges(node int32, callback func(index int32, edge int32, tail int32, weight int32)) {
	start := self.bwd_offsets[node]
	end := self.bwd_offsets[node+1]
	for i := start; i < end; i++ {
		id := self.bwd_edges[i]
		e := self.edges[id]
		callback(i-start, id, e.Tail, e.Weight)
	}
}

// OutEdgeAt returns the index-th outgoing edge of node.
func (self *Graph) OutEdgeAt(node int32, index int32) (int32, int32, int32) {
	id := self.fwd_offsets[node] + index
	e := self.edges[id]
	return id, e.Head, e.Weight
}

// InEdgeAt returns the index-th incoming edge of node.
func (self *Graph) InEdgeAt(node int32, index int32) (int32, int32, int32) {
	id := self.bwd_edges[self.bwd_offsets[node]+index]
	e := self.edges[id]
	return id, e.Tail, e.Weight
}

// OutIndexOf returns the bit position of edge within tail's outgoing
// adjacency.
func (self *Graph) OutIndexOf(tail int32, edge int32) int32 {
	return edge - self.fwd_offsets[tail]
}

// InIndexOf returns the bit position of edge within head's incoming
// adjacency.
func (self *Graph) InIndexOf(head int32, edge int32) int32 {
	start := self.bwd_offsets[head]
	end := self.bwd_offsets[head+1]
	for i := start; i < end; i++ {
		if self.bwd_edges[i] == edge {
			return i - start
		}
	}
	return -1
}

func (self *Graph) FindOutEdge(tail int32, head int32) (int32, bool) {
	start := self.fwd_offsets[tail]
	end := self.fwd_offsets[tail+1]
	for id := start; id < end; id++ {
		if self.edges[id].Head == head {
			return id, true
		}
	}
	return -1, false
}

// Perturb replaces the weights of the given edges and bumps the graph
// version. An empty patch list still bumps the version. Returns the
// number of patches applied; unknown edges are skipped.
func (self *Graph) Perturb(patches List[EdgePatch]) int {
	applied := 0
	for _, p := range patches {
		id, ok := self.FindOutEdge(p.Tail, p.Head)
		if !ok {
			slog.Warn(fmt.Sprintf("perturb: no edge (%v -> %v) in graph", p.Tail, p.Head))
			continue
		}
		self.edges[id].Weight = p.Weight
		applied += 1
	}
	self.version.Add(1)
	return applied
}
