package routing

import (
	"time"

	"github.com/eggeek/oracle-search/graph"
)

//*******************************************
// cpd extractions
//*******************************************

// CPDExtractions answers queries by oracle walk alone, with no A* loop
// around it. It is the fastest algorithm when the graph is unperturbed
// and the oracle covers the queried sources.
type CPDExtractions struct {
	g    *graph.Graph
	heur *CPDHeuristic
}

func NewCPDExtractions(g *graph.Graph, heur *CPDHeuristic) *CPDExtractions {
	return &CPDExtractions{g: g, heur: heur}
}

func (self *CPDExtractions) Configure(conf SearchConfig) {
	self.heur.SetMaxKMoves(conf.MaxKMoves)
	self.heur.SetHScale(conf.HScale)
}

func (self *CPDExtractions) GetPath(pi *Problem, sol *Solution) {
	start_time := time.Now()
	sol.Reset()

	if pi.Start == pi.Target {
		sol.Path = append(sol.Path, pi.Start)
		sol.Cost = 0
		sol.Finished = true
		sol.Met.TimeElapsed = time.Since(start_time)
		return
	}

	path, h := self.heur.ExtractPath(pi.Start, pi.Target)
	sol.Path = append(sol.Path, path...)
	sol.Cost = h.Upper
	sol.Finished = h.Complete
	sol.Cutoff = !h.Complete
	sol.Met.TimeElapsed = time.Since(start_time)
}
