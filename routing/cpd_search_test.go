package routing_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/eggeek/oracle-search/cpd"
	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/routing"
	. "github.com/eggeek/oracle-search/util"
	"github.com/stretchr/testify/require"
)

func squareGraph(t *testing.T) *graph.Graph {
	nodes := Array[graph.Node]{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	edges := Array[graph.Edge]{
		{Tail: 0, Head: 1, Weight: 1},
		{Tail: 1, Head: 2, Weight: 1},
		{Tail: 2, Head: 3, Weight: 1},
		{Tail: 0, Head: 3, Weight: 5},
	}
	g, err := graph.NewGraph(nodes, edges, false)
	require.NoError(t, err)
	return g
}

func lineGraph(t *testing.T, n int) *graph.Graph {
	nodes := NewArray[graph.Node](n)
	edges := NewList[graph.Edge](n - 1)
	for i := 0; i < n-1; i++ {
		edges.Add(graph.Edge{Tail: int32(i), Head: int32(i + 1), Weight: 1})
	}
	g, err := graph.NewGraph(nodes, Array[graph.Edge](edges), false)
	require.NoError(t, err)
	return g
}

func buildFullOracle(t *testing.T, g *graph.Graph) *cpd.Oracle {
	nodes := NewList[int32](g.NodeCount())
	for i := 0; i < g.NodeCount(); i++ {
		nodes.Add(int32(i))
	}
	oracle := cpd.NewOracle(g, cpd.FwdTable)
	require.NoError(t, cpd.Build(g, oracle, nodes, 2, 0, false))
	return oracle
}

func newSearch(g *graph.Graph, oracle *cpd.Oracle) *routing.CPDSearch {
	heur := routing.NewCPDHeuristic(g, oracle, 1.0)
	return routing.NewCPDSearch(g, routing.NewSimpleGraphPolicy(g, false), heur)
}

// on an unperturbed graph the first oracle walk already is the answer
func TestSearchImmediateTermination(t *testing.T) {
	g := squareGraph(t)
	search := newSearch(g, buildFullOracle(t, g))

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)

	require.True(t, sol.Finished)
	require.Equal(t, int64(3), sol.Cost)
	require.Equal(t, []int32{0, 1, 2, 3}, []int32(sol.Path))
	require.Equal(t, uint64(0), sol.Met.NodesExpanded)
}

// perturbing the cheap edge must reroute the search onto the direct
// edge even though the oracle still points at the stale route
func TestSearchPerturbed(t *testing.T) {
	g := squareGraph(t)
	search := newSearch(g, buildFullOracle(t, g))

	g.Perturb(List[graph.EdgePatch]{{Tail: 0, Head: 1, Weight: 100}})

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)

	require.True(t, sol.Finished)
	require.Equal(t, int64(5), sol.Cost)
	require.Equal(t, []int32{0, 3}, []int32(sol.Path))

	// a fresh dijkstra agrees with the returned cost
	dijk := routing.NewDijkstra(g.NodeCount(), routing.NewSimpleGraphPolicy(g, false))
	dijk.Run(0, nil)
	require.Equal(t, dijk.Distance(3), sol.Cost)
}

func TestSearchStartEqualsTarget(t *testing.T) {
	g := squareGraph(t)
	search := newSearch(g, buildFullOracle(t, g))

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 2, Target: 2}, &sol)
	require.True(t, sol.Finished)
	require.Equal(t, int64(0), sol.Cost)
	require.Equal(t, []int32{2}, []int32(sol.Path))
}

// with no oracle rows the search degrades to plain a* and still finds
// the optimum
func TestSearchZeroHeuristic(t *testing.T) {
	g := lineGraph(t, 10)
	empty := cpd.NewOracle(g, cpd.FwdTable)
	search := newSearch(g, empty)

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 9}, &sol)
	require.True(t, sol.Finished)
	require.Equal(t, int64(9), sol.Cost)
	require.Equal(t, 10, sol.Path.Length())
	require.NotZero(t, sol.Met.NodesExpanded)
}

func TestSearchExpansionCutoff(t *testing.T) {
	g := lineGraph(t, 10)
	empty := cpd.NewOracle(g, cpd.FwdTable)
	search := newSearch(g, empty)
	conf := routing.DefaultSearchConfig()
	conf.MaxExpansions = 3
	search.Configure(conf)

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 9}, &sol)
	require.True(t, sol.Cutoff)
	require.False(t, sol.Finished)
	require.LessOrEqual(t, sol.Met.NodesExpanded, uint64(3))
}

func TestSearchTimeCutoff(t *testing.T) {
	g := lineGraph(t, 10)
	empty := cpd.NewOracle(g, cpd.FwdTable)
	search := newSearch(g, empty)
	conf := routing.DefaultSearchConfig()
	conf.MaxTime = -time.Nanosecond
	search.Configure(conf)

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 9}, &sol)
	require.True(t, sol.Cutoff)
	require.False(t, sol.Finished)
}

// capping the walk depth forces exploration but not incorrectness
func TestSearchKMoveCap(t *testing.T) {
	g := squareGraph(t)
	search := newSearch(g, buildFullOracle(t, g))
	conf := routing.DefaultSearchConfig()
	conf.MaxKMoves = 1
	search.Configure(conf)

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)
	require.True(t, sol.Finished)
	require.Equal(t, int64(3), sol.Cost)
	require.NotZero(t, sol.Met.NodesExpanded)
}

func TestSearchReuseAcrossQueries(t *testing.T) {
	g := squareGraph(t)
	search := newSearch(g, buildFullOracle(t, g))

	sol := routing.Solution{}
	search.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)
	first := sol.Cost
	search.GetPath(&routing.Problem{Start: 1, Target: 3}, &sol)
	require.Equal(t, int64(2), sol.Cost)
	search.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)
	require.Equal(t, first, sol.Cost)
}

func TestSearchMatchesDijkstraRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	n := 40
	nodes := NewArray[graph.Node](n)
	edges := NewList[graph.Edge](n * 3)
	seen := NewDict[Tuple[int32, int32], bool](n * 3)
	for u := int32(0); int(u) < n; u++ {
		for d := 0; d < 3; d++ {
			v := rng.Int31n(int32(n))
			if v == u || seen.ContainsKey(MakeTuple(u, v)) {
				continue
			}
			seen[MakeTuple(u, v)] = true
			edges.Add(graph.Edge{Tail: u, Head: v, Weight: 1 + rng.Int31n(10)})
		}
	}
	g, err := graph.NewGraph(nodes, Array[graph.Edge](edges), false)
	require.NoError(t, err)

	search := newSearch(g, buildFullOracle(t, g))
	dijk := routing.NewDijkstra(g.NodeCount(), routing.NewSimpleGraphPolicy(g, false))

	sol := routing.Solution{}
	for trial := 0; trial < 50; trial++ {
		s := rng.Int31n(int32(n))
		d := rng.Int31n(int32(n))
		dijk.Run(s, nil)
		search.GetPath(&routing.Problem{Start: s, Target: d}, &sol)
		if dijk.Distance(d) >= routing.Infinity {
			require.False(t, sol.Finished)
			continue
		}
		require.True(t, sol.Finished, "%v -> %v", s, d)
		require.Equal(t, dijk.Distance(d), sol.Cost, "%v -> %v", s, d)
	}

	// weight increases keep the search optimal for the new weights
	patches := NewList[graph.EdgePatch](8)
	for i := 0; i < 8; i++ {
		e := rng.Int31n(int32(g.EdgeCount()))
		tail, head := g.EdgeEnds(e)
		patches.Add(graph.EdgePatch{Tail: tail, Head: head, Weight: g.Weight(e) + 1 + rng.Int31n(20)})
	}
	g.Perturb(patches)

	for trial := 0; trial < 50; trial++ {
		s := rng.Int31n(int32(n))
		d := rng.Int31n(int32(n))
		dijk.Run(s, nil)
		search.GetPath(&routing.Problem{Start: s, Target: d}, &sol)
		if dijk.Distance(d) >= routing.Infinity {
			continue
		}
		require.True(t, sol.Finished, "%v -> %v", s, d)
		require.Equal(t, dijk.Distance(d), sol.Cost, "perturbed %v -> %v", s, d)
	}
}

func TestExtractionsAlgorithm(t *testing.T) {
	g := squareGraph(t)
	oracle := buildFullOracle(t, g)
	heur := routing.NewCPDHeuristic(g, oracle, 1.0)
	alg := routing.NewCPDExtractions(g, heur)

	sol := routing.Solution{}
	alg.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)
	require.True(t, sol.Finished)
	require.Equal(t, int64(3), sol.Cost)
	require.Equal(t, []int32{0, 1, 2, 3}, []int32(sol.Path))

	// extractions follow the stale oracle path after a perturbation
	g.Perturb(List[graph.EdgePatch]{{Tail: 0, Head: 1, Weight: 100}})
	alg.GetPath(&routing.Problem{Start: 0, Target: 3}, &sol)
	require.True(t, sol.Finished)
	require.Equal(t, int64(102), sol.Cost)
}
