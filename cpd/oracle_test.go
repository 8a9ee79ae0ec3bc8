package cpd

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/routing"
	. "github.com/eggeek/oracle-search/util"
	"github.com/stretchr/testify/require"
)

func squareGraph(t *testing.T, reverse bool) *graph.Graph {
	nodes := Array[graph.Node]{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	edges := Array[graph.Edge]{
		{Tail: 0, Head: 1, Weight: 1},
		{Tail: 1, Head: 2, Weight: 1},
		{Tail: 2, Head: 3, Weight: 1},
		{Tail: 0, Head: 3, Weight: 5},
	}
	g, err := graph.NewGraph(nodes, edges, reverse)
	require.NoError(t, err)
	return g
}

func randomGraph(t *testing.T, n int, seed int64, reverse bool) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	nodes := NewArray[graph.Node](n)
	for i := range nodes {
		nodes[i] = graph.Node{X: rng.Int31n(1000), Y: rng.Int31n(1000)}
	}
	edges := NewList[graph.Edge](n * 4)
	seen := NewDict[Tuple[int32, int32], bool](n * 4)
	for u := int32(0); int(u) < n; u++ {
		degree := 2 + rng.Intn(3)
		for d := 0; d < degree; d++ {
			v := rng.Int31n(int32(n))
			if v == u || seen.ContainsKey(MakeTuple(u, v)) {
				continue
			}
			seen[MakeTuple(u, v)] = true
			edges.Add(graph.Edge{Tail: u, Head: v, Weight: 1 + rng.Int31n(10)})
		}
	}
	g, err := graph.NewGraph(nodes, Array[graph.Edge](edges), reverse)
	require.NoError(t, err)
	return g
}

func allNodes(g *graph.Graph) List[int32] {
	nodes := NewList[int32](g.NodeCount())
	for i := 0; i < g.NodeCount(); i++ {
		nodes.Add(int32(i))
	}
	return nodes
}

func buildOracle(t *testing.T, g *graph.Graph, typ Symbol, threads int) *Oracle {
	oracle := NewOracle(g, typ)
	require.NoError(t, Build(g, oracle, allNodes(g), threads, 0, false))
	return oracle
}

func TestDFSPreorderIsPermutation(t *testing.T) {
	g := randomGraph(t, 50, 7, false)
	oracle := NewOracle(g, FwdTable)
	oracle.ComputeDFSPreorder(0)
	oracle.ValueIndexSwapArray()

	seen := NewArray[bool](g.NodeCount())
	for node := 0; node < g.NodeCount(); node++ {
		rank := oracle.order[node]
		require.False(t, seen[rank])
		seen[rank] = true
	}
}

func TestFirstMoveSquare(t *testing.T) {
	g := squareGraph(t, false)
	oracle := buildOracle(t, g, FwdTable, 1)

	// the cheap route to 3 starts with edge 0->1, not the direct 0->3
	moves, ok := oracle.GetFirstMove(0, 3)
	require.True(t, ok)
	require.Equal(t, uint32(1), moves)

	heur := routing.NewCPDHeuristic(g, oracle, 1.0)
	path, h := heur.ExtractPath(0, 3)
	require.True(t, h.Complete)
	require.Equal(t, int64(3), h.Upper)
	require.Equal(t, []int32{0, 1, 2, 3}, []int32(path))
}

// walking the oracle must reproduce the dijkstra-optimal cost for
// every reachable pair
func TestRoundTripForward(t *testing.T) {
	g := randomGraph(t, 40, 11, false)
	oracle := buildOracle(t, g, FwdTable, 3)
	heur := routing.NewCPDHeuristic(g, oracle, 1.0)
	dijk := routing.NewDijkstra(g.NodeCount(), routing.NewSimpleGraphPolicy(g, false))

	for s := int32(0); int(s) < g.NodeCount(); s++ {
		dijk.Run(s, nil)
		for d := int32(0); int(d) < g.NodeCount(); d++ {
			if d == s {
				continue
			}
			dist := dijk.Distance(d)
			path, h := heur.ExtractPath(s, d)
			if dist >= routing.Infinity {
				require.False(t, h.Complete)
				continue
			}
			require.True(t, h.Complete, "no oracle path %v -> %v", s, d)
			require.Equal(t, dist, h.Upper, "cost mismatch %v -> %v", s, d)
			checkPathValid(t, g, path, s, d, dist)
		}
	}
}

func TestRoundTripReverse(t *testing.T) {
	g := randomGraph(t, 40, 11, true)
	oracle := buildOracle(t, g, RevTable, 3)
	heur := routing.NewCPDHeuristic(g, oracle, 1.0)
	dijk := routing.NewDijkstra(g.NodeCount(), routing.NewSimpleGraphPolicy(g, false))

	for s := int32(0); int(s) < g.NodeCount(); s++ {
		dijk.Run(s, nil)
		for d := int32(0); int(d) < g.NodeCount(); d++ {
			if d == s {
				continue
			}
			dist := dijk.Distance(d)
			path, h := heur.ExtractPath(s, d)
			if dist >= routing.Infinity {
				require.False(t, h.Complete)
				continue
			}
			require.True(t, h.Complete, "no oracle path %v -> %v", s, d)
			require.Equal(t, dist, h.Upper, "cost mismatch %v -> %v", s, d)
			checkPathValid(t, g, path, s, d, dist)
		}
	}
}

func checkPathValid(t *testing.T, g *graph.Graph, path List[int32], s int32, d int32, cost int64) {
	require.True(t, path.Length() >= 2)
	require.Equal(t, s, path[0])
	require.Equal(t, d, path.Last())
	total := int64(0)
	for i := 0; i < path.Length()-1; i++ {
		edge, ok := g.FindOutEdge(path[i], path[i+1])
		require.True(t, ok, "missing edge %v -> %v", path[i], path[i+1])
		total += int64(g.Weight(edge))
	}
	require.Equal(t, cost, total)
}

// equal-cost predecessors must all contribute a first-move bit
func TestMultiMoveOr(t *testing.T) {
	nodes := NewArray[graph.Node](4)
	edges := Array[graph.Edge]{
		{Tail: 0, Head: 1, Weight: 1},
		{Tail: 0, Head: 2, Weight: 1},
		{Tail: 1, Head: 3, Weight: 1},
		{Tail: 2, Head: 3, Weight: 1},
	}
	g, err := graph.NewGraph(nodes, edges, false)
	require.NoError(t, err)
	oracle := buildOracle(t, g, FwdTable, 1)

	moves, ok := oracle.GetFirstMove(0, 3)
	require.True(t, ok)
	require.Equal(t, uint32(3), moves, "both 0->1 and 0->2 start optimal paths")
}

func TestSerializationRoundTrip(t *testing.T) {
	g := randomGraph(t, 30, 3, false)
	oracle := buildOracle(t, g, FwdTable, 2)

	path := filepath.Join(t.TempDir(), "test-0-0.cpd")
	require.NoError(t, oracle.Store(path))

	loaded, err := LoadOracle(path, g)
	require.NoError(t, err)
	require.Equal(t, FwdTable, loaded.Type())
	for s := int32(0); int(s) < g.NodeCount(); s++ {
		for d := int32(0); int(d) < g.NodeCount(); d++ {
			want, ok_want := oracle.GetFirstMove(s, d)
			got, ok_got := loaded.GetFirstMove(s, d)
			require.Equal(t, ok_want, ok_got)
			require.Equal(t, want, got)
		}
	}
}

func TestLoadOracleWrongGraph(t *testing.T) {
	g := randomGraph(t, 30, 3, false)
	oracle := buildOracle(t, g, FwdTable, 1)
	path := filepath.Join(t.TempDir(), "test-0-0.cpd")
	require.NoError(t, oracle.Store(path))

	other := randomGraph(t, 20, 3, false)
	_, err := LoadOracle(path, other)
	require.Error(t, err)
}

func TestMergeShards(t *testing.T) {
	g := randomGraph(t, 30, 5, false)
	evens := NewList[int32](15)
	odds := NewList[int32](15)
	for i := int32(0); int(i) < g.NodeCount(); i++ {
		if i%2 == 0 {
			evens.Add(i)
		} else {
			odds.Add(i)
		}
	}

	shard0 := NewOracle(g, FwdTable)
	require.NoError(t, Build(g, shard0, evens, 2, 0, false))
	shard1 := NewOracle(g, FwdTable)
	require.NoError(t, Build(g, shard1, odds, 2, 0, false))

	require.False(t, shard0.HasRow(1))
	require.NoError(t, shard0.Merge(shard1))
	for i := int32(0); int(i) < g.NodeCount(); i++ {
		require.True(t, shard0.HasRow(i))
	}

	full := buildOracle(t, g, FwdTable, 2)
	for s := int32(0); int(s) < g.NodeCount(); s++ {
		for d := int32(0); int(d) < g.NodeCount(); d++ {
			want, _ := full.GetFirstMove(s, d)
			got, _ := shard0.GetFirstMove(s, d)
			require.Equal(t, want, got)
		}
	}
}

func TestConfSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test-0-0.conf")
	conf := Conf{
		XYFile:    "melb-both.xy",
		Method:    "div",
		MethodKey: 9000,
		WID:       4,
		BID:       16,
		CPDType:   "reverse-table",
	}
	require.NoError(t, WriteConf(path, conf))
	loaded, err := ReadConf(path)
	require.NoError(t, err)
	require.Equal(t, conf, loaded)
}
