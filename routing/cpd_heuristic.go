package routing

import (
	"math/bits"
	"sync"

	"github.com/eggeek/oracle-search/graph"
	. "github.com/eggeek/oracle-search/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// first-move oracle
//*******************************************

// FirstMoveOracle answers "which edge starts an optimal path" queries.
// For a forward table the mask indexes the outgoing edges of source;
// for a reverse table it indexes the incoming edges of source and the
// walk runs target-to-source.
type FirstMoveOracle interface {
	GetFirstMove(source int32, target int32) (uint32, bool)
	IsReverse() bool
}

// HValue is the result of one oracle walk. The walk follows first
// moves that were optimal for the weights the oracle was built with:
// costing it under those base weights gives Lower, a bound that stays
// admissible while perturbations only increase weights; costing it
// under the live weights gives Upper, the true cost of the extracted
// path right now.
type HValue struct {
	Lower    int64
	Upper    int64
	Complete bool
}

//*******************************************
// cpd heuristic
//*******************************************

// CPDHeuristic turns oracle walks into h-values. A complete walk is a
// concrete path, so it doubles as an incumbent solution for the
// search; under perturbation the path stays valid but possibly
// suboptimal, and the search falls back to exploration.
type CPDHeuristic struct {
	g           *graph.Graph
	oracle      FirstMoveOracle
	hscale      float64
	max_k_moves int
	warn_once   sync.Once
}

func NewCPDHeuristic(g *graph.Graph, oracle FirstMoveOracle, hscale float64) *CPDHeuristic {
	if hscale < 1.0 {
		hscale = 1.0
	}
	return &CPDHeuristic{
		g:      g,
		oracle: oracle,
		hscale: hscale,
	}
}

func (self *CPDHeuristic) SetHScale(hscale float64) {
	if hscale < 1.0 {
		hscale = 1.0
	}
	self.hscale = hscale
}

func (self *CPDHeuristic) HScale() float64 {
	return self.hscale
}

func (self *CPDHeuristic) SetMaxKMoves(k int) {
	self.max_k_moves = k
}

// H walks the oracle from u toward t without materializing the path.
func (self *CPDHeuristic) H(u int32, t int32) HValue {
	h, _ := self.walk(u, t, false)
	return h
}

// ExtractPath is H plus the node sequence from u to t.
func (self *CPDHeuristic) ExtractPath(u int32, t int32) (List[int32], HValue) {
	h, path := self.walk(u, t, true)
	return path, h
}

func (self *CPDHeuristic) walk(u int32, t int32, collect bool) (HValue, List[int32]) {
	var path List[int32]
	if collect {
		path = NewList[int32](16)
	}
	if self.oracle.IsReverse() {
		return self.walkReverse(u, t, path, collect)
	}
	return self.walkForward(u, t, path, collect)
}

func (self *CPDHeuristic) walkForward(u int32, t int32, path List[int32], collect bool) (HValue, List[int32]) {
	h := HValue{}
	cur := u
	if collect {
		path.Add(cur)
	}
	for steps := 0; cur != t; steps++ {
		if self.max_k_moves > 0 && steps >= self.max_k_moves {
			return h, path
		}
		if steps > self.g.NodeCount() {
			// a cycle means the oracle disagrees with the graph
			return h, path
		}
		moves, ok := self.nextMoves(cur, t)
		if !ok {
			return h, path
		}
		index := int32(bits.TrailingZeros32(moves))
		if index >= self.g.OutDegree(cur) {
			return h, path
		}
		edge, head, weight := self.g.OutEdgeAt(cur, index)
		h.Lower += int64(self.g.BaseWeight(edge))
		h.Upper += int64(weight)
		cur = head
		if collect {
			path.Add(cur)
		}
	}
	h.Complete = true
	return h, path
}

func (self *CPDHeuristic) walkReverse(u int32, t int32, path List[int32], collect bool) (HValue, List[int32]) {
	h := HValue{}
	cur := t
	if collect {
		path.Add(cur)
	}
	for steps := 0; cur != u; steps++ {
		if self.max_k_moves > 0 && steps >= self.max_k_moves {
			return h, path
		}
		if steps > self.g.NodeCount() {
			return h, path
		}
		moves, ok := self.nextMoves(cur, u)
		if !ok {
			return h, path
		}
		index := int32(bits.TrailingZeros32(moves))
		if index >= self.g.InDegree(cur) {
			return h, path
		}
		edge, tail, weight := self.g.InEdgeAt(cur, index)
		h.Lower += int64(self.g.BaseWeight(edge))
		h.Upper += int64(weight)
		cur = tail
		if collect {
			path.Add(cur)
		}
	}
	if collect {
		path = path.Reversed()
	}
	h.Complete = true
	return h, path
}

func (self *CPDHeuristic) nextMoves(cur int32, t int32) (uint32, bool) {
	moves, ok := self.oracle.GetFirstMove(cur, t)
	if !ok {
		self.warn_once.Do(func() {
			slog.Warn("oracle has no row for some sources, degrading to zero heuristic")
		})
		return 0, false
	}
	if moves == 0 {
		return 0, false
	}
	return moves, true
}
