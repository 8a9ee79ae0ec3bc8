package parser

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/eggeek/oracle-search/graph"
	. "github.com/eggeek/oracle-search/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"
)

//*******************************************
// osm import
//*******************************************

// coordinates are stored as fixed-point degrees
const coord_scale = 1e6

type tempNode struct {
	Lon   float64
	Lat   float64
	Count int32
}

var highway_types = Dict[string, bool]{
	"motorway": true, "motorway_link": true, "trunk": true, "trunk_link": true,
	"primary": true, "primary_link": true, "secondary": true, "secondary_link": true,
	"tertiary": true, "tertiary_link": true, "unclassified": true,
	"residential": true, "living_street": true, "service": true,
}

// ParseOSMGraph reads an OSM pbf extract and builds an xy graph whose
// edge weights are great-circle distances in meters. Ways that are not
// drivable roads are dropped; two-way roads become two directed edges.
func ParseOSMGraph(pbf_file string, reverse bool) (*graph.Graph, error) {
	osm_nodes := NewDict[int64, tempNode](10000)

	file, err := os.Open(pbf_file)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// pass 1: mark the nodes of valid ways
	scanner := osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || !isValidHighway(way) {
			continue
		}
		for _, nd := range way.Nodes.NodeIDs() {
			ref := nd.FeatureID().Ref()
			node := osm_nodes[ref]
			node.Count += 1
			osm_nodes[ref] = node
		}
	}
	scanner.Close()

	// pass 2: collect coordinates and assign dense ids
	file.Seek(0, 0)
	index_mapping := NewDict[int64, int32](osm_nodes.Length())
	nodes := NewList[graph.Node](osm_nodes.Length())
	coords := NewList[Tuple[float64, float64]](osm_nodes.Length())
	scanner = osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	scanner.SkipWays = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		ref := node.FeatureID().Ref()
		if !osm_nodes.ContainsKey(ref) {
			continue
		}
		index_mapping[ref] = int32(nodes.Length())
		nodes.Add(graph.Node{
			X: int32(math.Round(node.Lon * coord_scale)),
			Y: int32(math.Round(node.Lat * coord_scale)),
		})
		coords.Add(MakeTuple(node.Lon, node.Lat))
	}
	scanner.Close()

	// pass 3: build directed edges
	file.Seek(0, 0)
	edges := NewList[graph.Edge](osm_nodes.Length())
	scanner = osmpbf.New(context.Background(), file, runtime.GOMAXPROCS(-1))
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || !isValidHighway(way) {
			continue
		}
		refs := way.Nodes.NodeIDs()
		oneway := way.Tags.Find("oneway") == "yes"
		for i := 0; i < len(refs)-1; i++ {
			a, ok_a := index_mapping[refs[i].FeatureID().Ref()]
			b, ok_b := index_mapping[refs[i+1].FeatureID().Ref()]
			if !ok_a || !ok_b {
				continue
			}
			weight := int32(math.Max(1, math.Round(haversine(coords[a], coords[b]))))
			edges.Add(graph.Edge{Tail: a, Head: b, Weight: weight})
			if !oneway {
				edges.Add(graph.Edge{Tail: b, Head: a, Weight: weight})
			}
		}
	}
	scanner.Close()

	slog.Info(fmt.Sprintf("parsed %v nodes, %v edges", nodes.Length(), edges.Length()))
	return graph.NewGraph(Array[graph.Node](nodes), Array[graph.Edge](edges), reverse)
}

func isValidHighway(way *osm.Way) bool {
	return highway_types.ContainsKey(way.Tags.Find("highway"))
}

// haversine returns the great-circle distance in meters.
func haversine(a Tuple[float64, float64], b Tuple[float64, float64]) float64 {
	const earth_radius = 6371000.0
	lat1 := a.B * math.Pi / 180
	lat2 := b.B * math.Pi / 180
	dlat := lat2 - lat1
	dlon := (b.A - a.A) * math.Pi / 180
	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earth_radius * math.Asin(math.Sqrt(h))
}
