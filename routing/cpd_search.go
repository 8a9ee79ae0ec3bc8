package routing

import (
	"time"

	"github.com/eggeek/oracle-search/graph"
	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// cpd search
//*******************************************

// CPDSearch is an A* variant that uses oracle walks both as its
// heuristic and as a source of incumbent solutions. Every generated
// node gets one walk: the walk's lower bound orders the open list,
// a complete walk immediately yields a feasible path at its upper
// bound. On an unperturbed graph the two bounds coincide and the
// search terminates when the start node is popped, before any node is
// expanded; under perturbations the
// incumbent improves as the A* loop explores around the stale oracle
// moves.
type CPDSearch struct {
	g      *graph.Graph
	policy ExpansionPolicy
	heur   *CPDHeuristic
	pool   Flags[SearchNode]
	queue  *SearchQueue

	max_time       time.Duration
	max_expansions uint64
	fscale         float64
}

func NewCPDSearch(g *graph.Graph, policy ExpansionPolicy, heur *CPDHeuristic) *CPDSearch {
	conf := DefaultSearchConfig()
	return &CPDSearch{
		g:              g,
		policy:         policy,
		heur:           heur,
		pool:           NewNodePool(g.NodeCount()),
		queue:          NewSearchQueue(g.NodeCount()),
		max_time:       conf.MaxTime,
		max_expansions: conf.MaxExpansions,
		fscale:         conf.FScale,
	}
}

func (self *CPDSearch) Configure(conf SearchConfig) {
	self.heur.SetHScale(conf.HScale)
	self.heur.SetMaxKMoves(conf.MaxKMoves)
	self.max_time = conf.MaxTime
	self.max_expansions = conf.MaxExpansions
	if conf.FScale >= 1.0 {
		self.fscale = conf.FScale
	} else {
		self.fscale = 1.0
	}
}

func (self *CPDSearch) Heuristic() *CPDHeuristic {
	return self.heur
}

func (self *CPDSearch) GetPath(pi *Problem, sol *Solution) {
	start_time := time.Now()
	sol.Reset()
	self.pool.Reset()
	self.queue.Clear()

	s := pi.Start
	t := pi.Target
	if s == t {
		sol.Path = append(sol.Path, s)
		sol.Cost = 0
		sol.Finished = true
		sol.Met.TimeElapsed = time.Since(start_time)
		return
	}

	incumbent := int64(Infinity)
	incumbent_node := int32(-1)
	reached_target := false

	generate := func(node int32, parent int32, g int64) {
		sol.Met.NodesGenerated += 1
		n := self.pool.Get(node)
		if n.Status == StatusFresh {
			h := self.heur.H(node, t)
			n.H = h.Lower
			n.HUpper = h.Upper
			n.HFull = h.Complete
			n.HDone = true
			n.G = g
			n.F = g + self.scaled(n.H)
			n.Parent = parent
			n.Status = StatusOpen
			self.queue.Push(node, n.F, n.G)
			if h.Complete && g+h.Upper < incumbent {
				incumbent = g + h.Upper
				incumbent_node = node
			}
			return
		}
		if g >= n.G {
			return
		}
		n.G = g
		n.F = g + self.scaled(n.H)
		n.Parent = parent
		if n.Status == StatusClosed {
			n.Status = StatusOpen
			sol.Met.NodesReopen += 1
			self.queue.Push(node, n.F, n.G)
		} else {
			self.queue.Decrease(node, n.F, n.G)
		}
		if n.HFull && g+n.HUpper < incumbent {
			incumbent = g + n.HUpper
			incumbent_node = node
		}
	}

	generate(s, -1, 0)

	for {
		id, ok := self.queue.Pop()
		if !ok {
			break
		}
		n := self.pool.Get(id)
		if n.Status != StatusOpen {
			continue
		}

		if sol.Met.NodesExpanded >= self.max_expansions {
			sol.Cutoff = true
			break
		}
		if time.Since(start_time) > self.max_time {
			sol.Cutoff = true
			break
		}
		if id == t {
			if n.G < incumbent {
				incumbent = n.G
				incumbent_node = t
				reached_target = true
			}
			break
		}
		if incumbent < Infinity && float64(incumbent) <= self.fscale*float64(n.F) {
			break
		}

		n.Status = StatusClosed
		sol.Met.NodesExpanded += 1
		g := n.G
		self.policy.Expand(id, n.Parent, pi, func(succ int32, edge int32, weight int32) {
			generate(succ, id, g+int64(weight))
		})
	}

	sol.Met.NodesSurplus = uint64(self.queue.Len())
	sol.Met.HeapOps = self.queue.HeapOps()

	if incumbent_node >= 0 {
		sol.Cost = incumbent
		sol.Path = self.materialize(incumbent_node, t, reached_target)
		sol.Finished = sol.Path.Length() > 0 && sol.Path.Last() == t
	}
	sol.Met.TimeElapsed = time.Since(start_time)
}

func (self *CPDSearch) scaled(h int64) int64 {
	scale := self.heur.HScale()
	if scale == 1.0 {
		return h
	}
	return int64(float64(h) * scale)
}

// materialize rebuilds the incumbent path: the parent chain from the
// start to node, then the oracle walk from node to the target.
func (self *CPDSearch) materialize(node int32, t int32, reached bool) List[int32] {
	path := NewList[int32](16)
	for curr := node; curr >= 0; {
		path.Add(curr)
		curr = self.pool.Get(curr).Parent
	}
	path = path.Reversed()
	if reached || node == t {
		return path
	}
	tail, h := self.heur.ExtractPath(node, t)
	if !h.Complete {
		return path
	}
	for i := 1; i < tail.Length(); i++ {
		path.Add(tail[i])
	}
	return path
}
