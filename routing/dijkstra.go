package routing

import (
	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// dijkstra
//*******************************************

// SearchListener observes edge relaxations during a Dijkstra sweep.
// tie is set when the node is re-reached at its current best cost via
// a different predecessor.
type SearchListener interface {
	OnSettle(node int32, parent int32, edge int32, tie bool)
}

type DistFlag struct {
	Dist   int64
	Parent int32
	Edge   int32
}

type pq_item struct {
	node int32
	dist int64
}

// Dijkstra computes a full single-source shortest-path tree. One
// instance is reused across runs; flags reset lazily.
type Dijkstra struct {
	policy ExpansionPolicy
	flags  Flags[DistFlag]
}

func NewDijkstra(num_nodes int, policy ExpansionPolicy) *Dijkstra {
	return &Dijkstra{
		policy: policy,
		flags:  NewFlags[DistFlag](int32(num_nodes), DistFlag{Dist: Infinity, Parent: -1, Edge: -1}),
	}
}

// Run settles every node reachable from source. Relaxations are
// reported to the listener; parents are settled before their children
// so listeners may inherit state from the parent's slot.
func (self *Dijkstra) Run(source int32, listener SearchListener) {
	self.flags.Reset()
	heap := NewPriorityQueue[pq_item, int64](256)

	start_flag := self.flags.Get(source)
	start_flag.Dist = 0
	if listener != nil {
		listener.OnSettle(source, -1, -1, false)
	}
	heap.Enqueue(pq_item{source, 0}, 0)

	pi := Problem{Start: source, Target: -1}
	for {
		item, ok := heap.Dequeue()
		if !ok {
			break
		}
		curr_flag := self.flags.Get(item.node)
		if curr_flag.Dist < item.dist {
			continue
		}
		self.policy.Expand(item.node, curr_flag.Parent, &pi, func(succ int32, edge int32, weight int32) {
			succ_flag := self.flags.Get(succ)
			new_dist := item.dist + int64(weight)
			if new_dist < succ_flag.Dist {
				succ_flag.Dist = new_dist
				succ_flag.Parent = item.node
				succ_flag.Edge = edge
				if listener != nil {
					listener.OnSettle(succ, item.node, edge, false)
				}
				heap.Enqueue(pq_item{succ, new_dist}, new_dist)
			} else if new_dist == succ_flag.Dist && listener != nil {
				listener.OnSettle(succ, item.node, edge, true)
			}
		})
	}
}

// Distance returns the cost computed by the last Run, or Infinity.
func (self *Dijkstra) Distance(node int32) int64 {
	return self.flags.Get(node).Dist
}

// PathTo reconstructs the path from the last Run's source to node.
func (self *Dijkstra) PathTo(node int32) (List[int32], int64) {
	flag := self.flags.Get(node)
	if flag.Dist >= Infinity {
		return nil, Infinity
	}
	path := NewList[int32](16)
	for curr := node; curr >= 0; {
		path.Add(curr)
		curr = self.flags.Get(curr).Parent
	}
	return path.Reversed(), flag.Dist
}
