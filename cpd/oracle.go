package cpd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/routing"
	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// oracle tables
//*******************************************

type Symbol uint8

const (
	FwdTable Symbol = iota
	RevTable
)

func ParseSymbol(s string) (Symbol, error) {
	switch s {
	case "forward-table":
		return FwdTable, nil
	case "reverse-table":
		return RevTable, nil
	}
	return FwdTable, fmt.Errorf("unknown cpd type %q", s)
}

func (self Symbol) String() string {
	if self == RevTable {
		return "reverse-table"
	}
	return "forward-table"
}

// Run is one run-length entry: all targets with preorder rank in
// [StartRank, next run's StartRank) share the first-move mask Moves.
type Run struct {
	StartRank uint32
	Moves     uint32
}

//*******************************************
// graph oracle
//*******************************************

// Oracle is a compressed path database over a fixed graph. Rows exist
// only for the sources this worker's blocks cover; querying a missing
// row reports no data and callers degrade gracefully.
//
// The order array doubles as both directions of the rank mapping over
// the oracle's lifetime: during construction order[rank] holds the
// node visited at that rank, after ValueIndexSwapArray order[node]
// holds the node's rank. Queries require the swapped form.
type Oracle struct {
	g       *graph.Graph
	typ     Symbol
	order   Array[int32]
	swapped bool
	rows    Array[Array[Run]]
	mu      sync.Mutex
}

func NewOracle(g *graph.Graph, typ Symbol) *Oracle {
	return &Oracle{
		g:     g,
		typ:   typ,
		order: NewArray[int32](g.NodeCount()),
		rows:  NewArray[Array[Run]](g.NodeCount()),
	}
}

func (self *Oracle) Type() Symbol {
	return self.typ
}

func (self *Oracle) IsReverse() bool {
	return self.typ == RevTable
}

// ComputeDFSPreorder assigns every node a rank by depth-first visit
// order from seed. Components unreachable from seed are visited from
// the lowest unvisited id so ranks always cover [0, N).
func (self *Oracle) ComputeDFSPreorder(seed int32) {
	n := self.g.NodeCount()
	visited := NewArray[bool](n)
	stack := NewList[int32](n)
	rank := 0

	visit := func(root int32) {
		if visited[root] {
			return
		}
		stack.Add(root)
		for stack.Length() > 0 {
			node := stack.Last()
			stack = stack[:stack.Length()-1]
			if visited[node] {
				continue
			}
			visited[node] = true
			self.order[rank] = node
			rank += 1
			// push in reverse adjacency order so the first edge is
			// visited first
			succs := NewList[int32](8)
			self.g.ForOutEdges(node, func(index int32, edge int32, head int32, weight int32) {
				succs.Add(head)
			})
			for i := succs.Length() - 1; i >= 0; i-- {
				if !visited[succs[i]] {
					stack.Add(succs[i])
				}
			}
		}
	}

	visit(seed)
	for id := int32(0); int(id) < n; id++ {
		visit(id)
	}
	self.swapped = false
}

// ValueIndexSwapArray inverts the order array in place so queries can
// translate a node id to its rank in O(1). Called once after all rows
// are built.
func (self *Oracle) ValueIndexSwapArray() {
	inverted := NewArray[int32](self.order.Length())
	for rank, node := range self.order {
		inverted[node] = int32(rank)
	}
	self.order = inverted
	self.swapped = true
}

// CompressRow folds a per-node first-move buffer into runs ordered by
// preorder rank. Must be called before the order array is swapped.
func (self *Oracle) CompressRow(buffer Array[uint32]) Array[Run] {
	runs := NewList[Run](16)
	for rank := 0; rank < self.order.Length(); rank++ {
		moves := buffer[self.order[rank]]
		if runs.Length() == 0 || runs.Last().Moves != moves {
			runs.Add(Run{StartRank: uint32(rank), Moves: moves})
		}
	}
	return Array[Run](runs)
}

// SetRow commits a compressed row to its per-source slot. Slots are
// independent, the lock only orders the writes.
func (self *Oracle) SetRow(source int32, runs Array[Run]) {
	self.mu.Lock()
	self.rows[source] = runs
	self.mu.Unlock()
}

// ComputeRow runs a full Dijkstra sweep from source with the listener
// recording first moves into buffer, then compresses the buffer into
// the source's row.
func (self *Oracle) ComputeRow(source int32, dijk *routing.Dijkstra, listener Listener, buffer Array[uint32]) {
	for i := range buffer {
		buffer[i] = 0
	}
	listener.SetRun(source, buffer)
	dijk.Run(source, listener)
	self.SetRow(source, self.CompressRow(buffer))
}

// GetFirstMove returns the first-move mask for travelling from source
// toward target. ok is false when the oracle has no row for source.
// A zero mask means the target is unreachable.
func (self *Oracle) GetFirstMove(source int32, target int32) (uint32, bool) {
	runs := self.rows[source]
	if runs.Length() == 0 {
		return 0, false
	}
	rank := uint32(self.order[target])
	// find the last run starting at or before the target's rank
	index := sort.Search(runs.Length(), func(i int) bool {
		return runs[i].StartRank > rank
	})
	return runs[index-1].Moves, true
}

// Merge copies the rows of another shard into this oracle. Shards must
// come from the same build: same graph, table type and node ordering.
func (self *Oracle) Merge(other *Oracle) error {
	if self.typ != other.typ {
		return fmt.Errorf("cannot merge %v into %v", other.typ, self.typ)
	}
	if other.order.Length() != self.order.Length() {
		return fmt.Errorf("cannot merge oracles over different graphs")
	}
	for i := range self.order {
		if self.order[i] != other.order[i] {
			return fmt.Errorf("cannot merge oracles with different node orderings")
		}
	}
	for source, runs := range other.rows {
		if runs.Length() > 0 {
			self.rows[source] = runs
		}
	}
	return nil
}

// HasRow reports whether the oracle covers source.
func (self *Oracle) HasRow(source int32) bool {
	return self.rows[source].Length() > 0
}
