package cpd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/routing"
	. "github.com/eggeek/oracle-search/util"
	"golang.org/x/exp/slog"
)

//*******************************************
// parallel cpd construction
//*******************************************

// Build fills the oracle with one row per source in nodes. Sources are
// assigned round-robin to threads; every thread owns its own row
// buffer, Dijkstra instance and listener, so the only shared write is
// the per-source slot commit inside the oracle.
func Build(g *graph.Graph, oracle *Oracle, nodes List[int32], threads int, seed int32, verbose bool) error {
	if oracle.IsReverse() && !g.HasReverse() {
		return fmt.Errorf("reverse table requires a graph with incoming adjacency")
	}
	if threads < 1 {
		threads = 1
	}
	start_time := time.Now()

	if verbose {
		slog.Info("Computing node ordering.")
	}
	oracle.ComputeDFSPreorder(seed)

	if verbose {
		slog.Info("Computing Dijkstra labels.")
	}
	bar := newProgressBar(nodes.Length())

	wg := sync.WaitGroup{}
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			buffer := NewArray[uint32](g.NodeCount())
			policy := routing.NewSimpleGraphPolicy(g, oracle.IsReverse())
			dijk := routing.NewDijkstra(g.NodeCount(), policy)
			var listener Listener
			if oracle.IsReverse() {
				listener = NewReverseListener(g)
			} else {
				listener = NewForwardListener(g)
			}
			for i := tid; i < nodes.Length(); i += threads {
				oracle.ComputeRow(nodes[i], dijk, listener, buffer)
				bar.Tick()
			}
		}(t)
	}
	wg.Wait()
	bar.Finish()

	oracle.ValueIndexSwapArray()

	if verbose {
		slog.Info(fmt.Sprintf("total preproc time (seconds): %.2f", time.Since(start_time).Seconds()))
	}
	return nil
}

//*******************************************
// progress bar
//*******************************************

type progressBar struct {
	mu    sync.Mutex
	total int
	done  int
	pct   int
}

func newProgressBar(total int) *progressBar {
	fmt.Fprint(os.Stderr, "progress: [")
	for i := 0; i < 100; i++ {
		fmt.Fprint(os.Stderr, " ")
	}
	fmt.Fprint(os.Stderr, "]\rprogress: [")
	return &progressBar{total: total}
}

func (self *progressBar) Tick() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.done += 1
	for self.total > 0 && self.done*100/self.total > self.pct {
		fmt.Fprint(os.Stderr, "=")
		self.pct += 1
	}
}

func (self *progressBar) Finish() {
	fmt.Fprintln(os.Stderr)
}
