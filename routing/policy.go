package routing

import (
	"github.com/eggeek/oracle-search/graph"
)

//*******************************************
// expansion policies
//*******************************************

// ExpansionPolicy generates the successors of a node. Variants differ
// in how aggressively they prune edges; all preserve optimality on
// their respective graph structures.
type ExpansionPolicy interface {
	Expand(node int32, parent int32, pi *Problem, yield func(succ int32, edge int32, weight int32))
	XY(node int32) (int32, int32)
}

//*******************************************
// simple graph policy
//*******************************************

// SimpleGraphPolicy yields every outgoing edge. With reverse set it
// walks incoming edges instead, which turns a forward search into a
// search on the reverse graph.
type SimpleGraphPolicy struct {
	g       *graph.Graph
	reverse bool
}

func NewSimpleGraphPolicy(g *graph.Graph, reverse bool) *SimpleGraphPolicy {
	return &SimpleGraphPolicy{g: g, reverse: reverse}
}

func (self *SimpleGraphPolicy) Expand(node int32, parent int32, pi *Problem, yield func(int32, int32, int32)) {
	if self.reverse {
		self.g.ForInEdges(node, func(index int32, edge int32, tail int32, weight int32) {
			yield(tail, edge, weight)
		})
	} else {
		self.g.ForOutEdges(node, func(index int32, edge int32, head int32, weight int32) {
			yield(head, edge, weight)
		})
	}
}

func (self *SimpleGraphPolicy) XY(node int32) (int32, int32) {
	return self.g.XY(node)
}

//*******************************************
// forward ch policy
//*******************************************

// FwdCHPolicy drives a forward-only search over a contraction
// hierarchy. Travelling up (parent rank below current) every neighbour
// is generated; travelling down only lower-ranked neighbours are.
type FwdCHPolicy struct {
	g   *graph.Graph
	chd *graph.CHData
}

func NewFwdCHPolicy(g *graph.Graph, chd *graph.CHData) *FwdCHPolicy {
	return &FwdCHPolicy{g: g, chd: chd}
}

func (self *FwdCHPolicy) Expand(node int32, parent int32, pi *Problem, yield func(int32, int32, int32)) {
	rank := self.chd.GetRank(node)
	down_only := parent >= 0 && self.chd.GetRank(parent) > rank
	self.g.ForOutEdges(node, func(index int32, edge int32, head int32, weight int32) {
		if down_only && self.chd.GetRank(head) >= rank {
			return
		}
		yield(head, edge, weight)
	})
}

func (self *FwdCHPolicy) XY(node int32) (int32, int32) {
	return self.g.XY(node)
}

//*******************************************
// forward ch policy with bounding boxes
//*******************************************

// FwdCHBBPolicy adds geometric pruning on down moves: a down edge is
// skipped when its bounding-box label does not contain the target's
// coordinates. Up moves are never pruned, which keeps the policy
// optimality-preserving.
type FwdCHBBPolicy struct {
	g   *graph.Graph
	chd *graph.CHData
}

func NewFwdCHBBPolicy(g *graph.Graph, chd *graph.CHData) *FwdCHBBPolicy {
	return &FwdCHBBPolicy{g: g, chd: chd}
}

func (self *FwdCHBBPolicy) Expand(node int32, parent int32, pi *Problem, yield func(int32, int32, int32)) {
	tx, ty := self.g.XY(pi.Target)
	rank := self.chd.GetRank(node)
	down_only := parent >= 0 && self.chd.GetRank(parent) > rank
	self.g.ForOutEdges(node, func(index int32, edge int32, head int32, weight int32) {
		if down_only {
			if self.chd.GetRank(head) >= rank {
				return
			}
			if !self.chd.BBoxes[edge].Contains(tx, ty) {
				return
			}
		}
		yield(head, edge, weight)
	})
}

func (self *FwdCHBBPolicy) XY(node int32) (int32, int32) {
	return self.g.XY(node)
}

//*******************************************
// forward ch policy with dfs id-ranges
//*******************************************

// FCHDFSPolicy prunes down edges whose dfs id-range label does not
// contain the target id.
type FCHDFSPolicy struct {
	g   *graph.Graph
	chd *graph.CHData
}

func NewFCHDFSPolicy(g *graph.Graph, chd *graph.CHData) *FCHDFSPolicy {
	return &FCHDFSPolicy{g: g, chd: chd}
}

func (self *FCHDFSPolicy) Expand(node int32, parent int32, pi *Problem, yield func(int32, int32, int32)) {
	rank := self.chd.GetRank(node)
	down_only := parent >= 0 && self.chd.GetRank(parent) > rank
	self.g.ForOutEdges(node, func(index int32, edge int32, head int32, weight int32) {
		if down_only {
			if self.chd.GetRank(head) >= rank {
				return
			}
			if !self.chd.Ranges[edge].Contains(pi.Target) {
				return
			}
		}
		yield(head, edge, weight)
	})
}

func (self *FCHDFSPolicy) XY(node int32) (int32, int32) {
	return self.g.XY(node)
}
