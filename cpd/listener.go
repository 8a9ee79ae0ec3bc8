package cpd

import (
	"github.com/eggeek/oracle-search/graph"
	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// oracle listeners
//*******************************************

// Listener records first-move masks into a row buffer while a Dijkstra
// sweep settles nodes. Each construction thread owns one listener and
// re-targets it per source via SetRun.
type Listener interface {
	OnSettle(node int32, parent int32, edge int32, tie bool)
	SetRun(source int32, buffer Array[uint32])
}

//*******************************************
// forward listener
//*******************************************

// ForwardListener builds rows for a forward table: masks index the
// outgoing edges of the source. A settled node inherits its parent's
// mask unless the parent is the source itself, in which case the mask
// is the single bit of the traversed edge. Equal-cost predecessors OR
// their masks together.
type ForwardListener struct {
	g      *graph.Graph
	source int32
	buffer Array[uint32]
}

func NewForwardListener(g *graph.Graph) *ForwardListener {
	return &ForwardListener{g: g}
}

func (self *ForwardListener) SetRun(source int32, buffer Array[uint32]) {
	self.source = source
	self.buffer = buffer
}

func (self *ForwardListener) OnSettle(node int32, parent int32, edge int32, tie bool) {
	if node == self.source {
		self.buffer[node] = 0
		return
	}
	var moves uint32
	if parent == self.source {
		moves = uint32(1) << uint32(self.g.OutIndexOf(parent, edge))
	} else {
		moves = self.buffer[parent]
	}
	if tie {
		self.buffer[node] |= moves
	} else {
		self.buffer[node] = moves
	}
}

//*******************************************
// reverse listener
//*******************************************

// ReverseListener builds rows for a reverse table. The Dijkstra sweep
// runs on the reverse graph, so the first move out of the source is an
// incoming edge of the source in forward orientation; masks index the
// source's incoming adjacency.
type ReverseListener struct {
	g      *graph.Graph
	source int32
	buffer Array[uint32]
}

func NewReverseListener(g *graph.Graph) *ReverseListener {
	return &ReverseListener{g: g}
}

func (self *ReverseListener) SetRun(source int32, buffer Array[uint32]) {
	self.source = source
	self.buffer = buffer
}

func (self *ReverseListener) OnSettle(node int32, parent int32, edge int32, tie bool) {
	if node == self.source {
		self.buffer[node] = 0
		return
	}
	var moves uint32
	if parent == self.source {
		moves = uint32(1) << uint32(self.g.InIndexOf(parent, edge))
	} else {
		moves = self.buffer[parent]
	}
	if tie {
		self.buffer[node] |= moves
	} else {
		self.buffer[node] = moves
	}
}
