package routing

import (
	"testing"

	"github.com/eggeek/oracle-search/graph"
	. "github.com/eggeek/oracle-search/util"
	"github.com/stretchr/testify/require"
)

func chGraph(t *testing.T) *graph.Graph {
	nodes := Array[graph.Node]{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}}
	edges := Array[graph.Edge]{
		{Tail: 1, Head: 0, Weight: 1},
		{Tail: 1, Head: 2, Weight: 1},
		{Tail: 1, Head: 3, Weight: 4},
		{Tail: 2, Head: 3, Weight: 1},
	}
	g, err := graph.NewGraph(nodes, edges, false)
	require.NoError(t, err)
	return g
}

func expandAll(policy ExpansionPolicy, node int32, parent int32, pi *Problem) []int32 {
	succs := []int32{}
	policy.Expand(node, parent, pi, func(succ int32, edge int32, weight int32) {
		succs = append(succs, succ)
	})
	return succs
}

func TestSimplePolicy(t *testing.T) {
	g := chGraph(t)
	pi := &Problem{Start: 1, Target: 3}
	policy := NewSimpleGraphPolicy(g, false)
	require.ElementsMatch(t, []int32{0, 2, 3}, expandAll(policy, 1, -1, pi))
	require.Empty(t, expandAll(policy, 0, 1, pi))
}

func TestSimplePolicyReverse(t *testing.T) {
	nodes := NewArray[graph.Node](3)
	edges := Array[graph.Edge]{
		{Tail: 0, Head: 2, Weight: 1},
		{Tail: 1, Head: 2, Weight: 1},
	}
	g, err := graph.NewGraph(nodes, edges, true)
	require.NoError(t, err)
	pi := &Problem{Start: 2, Target: 0}
	policy := NewSimpleGraphPolicy(g, true)
	require.ElementsMatch(t, []int32{0, 1}, expandAll(policy, 2, -1, pi))
}

func TestFwdCHPolicy(t *testing.T) {
	g := chGraph(t)
	// node 0 is contracted first, then 1, then 2; 3 is on top
	chd := graph.NewCHData(Array[int32]{0, 1, 2, 3})
	policy := NewFwdCHPolicy(g, chd)
	pi := &Problem{Start: 1, Target: 3}

	// start node: everything is generated
	require.ElementsMatch(t, []int32{0, 2, 3}, expandAll(policy, 1, -1, pi))
	// travelling up from 0 (rank 0 -> 1): everything is generated
	require.ElementsMatch(t, []int32{0, 2, 3}, expandAll(policy, 1, 0, pi))
	// travelling down from 2 (rank 2 -> 1): only down neighbours
	require.ElementsMatch(t, []int32{0}, expandAll(policy, 1, 2, pi))
}

func TestFwdCHBBPolicy(t *testing.T) {
	g := chGraph(t)
	chd := graph.NewCHData(Array[int32]{0, 1, 2, 3})
	chd.BBoxes = NewArray[graph.BBox](g.EdgeCount())
	for i := range chd.BBoxes {
		chd.BBoxes[i] = graph.BBox{X1: 0, Y1: 0, X2: 20, Y2: 20}
	}
	// edge 1->0 can only reach node 0's corner of the map
	edge, ok := g.FindOutEdge(1, 0)
	require.True(t, ok)
	chd.BBoxes[edge] = graph.BBox{X1: 0, Y1: 0, X2: 2, Y2: 2}

	policy := NewFwdCHBBPolicy(g, chd)
	// up moves are never pruned, whatever the boxes say
	pi := &Problem{Start: 1, Target: 3}
	require.ElementsMatch(t, []int32{0, 2, 3}, expandAll(policy, 1, -1, pi))
	require.ElementsMatch(t, []int32{0, 2, 3}, expandAll(policy, 1, 0, pi))

	// down move from 2: target (10,5) is outside edge 1->0's box
	require.Empty(t, expandAll(policy, 1, 2, pi))
	pi_back := &Problem{Start: 1, Target: 0}
	require.ElementsMatch(t, []int32{0}, expandAll(policy, 1, 2, pi_back))
}

func TestFCHDFSPolicy(t *testing.T) {
	g := chGraph(t)
	chd := graph.NewCHData(Array[int32]{0, 1, 2, 3})
	chd.Ranges = NewArray[graph.IDRange](g.EdgeCount())
	for i := range chd.Ranges {
		chd.Ranges[i] = graph.IDRange{Lo: 0, Hi: 4}
	}
	edge, ok := g.FindOutEdge(1, 0)
	require.True(t, ok)
	chd.Ranges[edge] = graph.IDRange{Lo: 0, Hi: 1}

	policy := NewFCHDFSPolicy(g, chd)
	// down move from 2: edge 1->0 kept only when the target is in range
	pi := &Problem{Start: 2, Target: 0}
	require.ElementsMatch(t, []int32{0}, expandAll(policy, 1, 2, pi))
	pi_out := &Problem{Start: 2, Target: 3}
	require.Empty(t, expandAll(policy, 1, 2, pi_out))
}
