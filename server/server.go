package server

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/routing"
	. "github.com/eggeek/oracle-search/util"
	"golang.org/x/exp/slog"
	"golang.org/x/sys/unix"
)

//*******************************************
// query server
//*******************************************

// Server multiplexes query batches over a shared graph. It owns one
// pre-built search instance per worker thread; the graph is only
// mutated between batches, so search threads never lock.
type Server struct {
	g       *graph.Graph
	algos   []routing.Search
	fifo    string
	metrics *Metrics
}

func NewServer(g *graph.Graph, algos []routing.Search, fifo string, metrics *Metrics) *Server {
	return &Server{
		g:       g,
		algos:   algos,
		fifo:    fifo,
		metrics: metrics,
	}
}

// Run creates the fifo and serves request frames until the process is
// signalled. Fatal setup errors are returned; per-request errors are
// logged and the request dropped.
func (self *Server) Run() error {
	if err := unix.Mkfifo(self.fifo, 0666); err != nil {
		return fmt.Errorf("mkfifo %v: %w", self.fifo, err)
	}
	self.installSignals()
	slog.Info("Reading from " + self.fifo)

	for {
		if err := self.serveOnce(); err != nil {
			slog.Warn("request dropped: " + err.Error())
		}
	}
}

// serveOnce blocks until a writer connects, then reads and processes
// one request frame.
func (self *Server) serveOnce() error {
	fd, err := os.Open(self.fifo)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(fd)
	fd.Close()
	if err != nil {
		return err
	}
	return self.ProcessFrame(data)
}

// ProcessFrame parses one request frame: the config blob, then the
// queries path, reply path and diff path.
func (self *Server) ProcessFrame(data []byte) error {
	read_start := time.Now()

	params, rest := ParseSearchParams(data)
	params.Sanitise(len(self.algos))
	if params.Verbose {
		slog.Info(fmt.Sprintf("config: %+v", params))
	}

	var queries_path, reply_path, diff_path string
	if _, err := fmt.Fscan(bytes.NewReader(rest), &queries_path, &reply_path, &diff_path); err != nil {
		return fmt.Errorf("reading frame paths: %w", err)
	}
	if params.Verbose {
		slog.Info("Read queries from " + queries_path)
		slog.Info("Output to " + reply_path)
	}

	queries, err := readQueries(queries_path)
	if err != nil {
		return err
	}

	if diff_path != "-" {
		patches, err := graph.LoadDiff(diff_path)
		if err != nil {
			slog.Warn("Could not open " + diff_path)
		} else {
			self.g.Perturb(patches)
		}
	}
	if params.NoCache {
		// perturbing no edges still bumps the graph version
		self.g.Perturb(nil)
	}
	read_time := time.Since(read_start)

	if queries.Length() == 0 {
		return nil
	}
	reply := self.runSearch(params, queries, read_time)
	return writeReply(reply_path, reply)
}

//*******************************************
// dispatch
//*******************************************

type threadStats struct {
	expanded  uint64
	generated uint64
	reopen    uint64
	surplus   uint64
	heap_ops  uint64
	plen      uint64
	finished  uint64
	astar     time.Duration
}

func (self *threadStats) add(other threadStats) {
	self.expanded += other.expanded
	self.generated += other.generated
	self.reopen += other.reopen
	self.surplus += other.surplus
	self.heap_ops += other.heap_ops
	self.plen += other.plen
	self.finished += other.finished
	self.astar += other.astar
}

func (self *Server) runSearch(params SearchParams, queries List[Tuple[int32, int32]], read_time time.Duration) string {
	wall_start := time.Now()
	threads := params.Threads
	n := queries.Length()
	if params.Verbose {
		slog.Info(fmt.Sprintf("Preparing to process %v queries using %v threads.", n, threads))
	}

	conf := params.ToSearchConfig()
	stats := NewArray[threadStats](threads)
	wg := sync.WaitGroup{}
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			thread_start := time.Now()
			alg := self.algos[tid]
			alg.Configure(conf)

			from := 0
			to := n
			if !params.ThreadAlloc {
				step := n * tid
				from = step / threads
				to = (step + n) / threads
			}

			sol := routing.Solution{}
			local := threadStats{}
			for i := from; i < to; i++ {
				query := queries[i]
				// modulo allocation approximates row locality on the
				// oracle at the cost of uneven thread load
				if params.ThreadAlloc && int(query.B)%threads != tid {
					continue
				}
				pi := routing.Problem{Start: query.A, Target: query.B, Debug: params.Debug}
				alg.GetPath(&pi, &sol)

				local.astar += sol.Met.TimeElapsed
				local.expanded += sol.Met.NodesExpanded
				local.generated += sol.Met.NodesGenerated
				local.heap_ops += sol.Met.HeapOps
				local.reopen += sol.Met.NodesReopen
				local.surplus += sol.Met.NodesSurplus
				local.plen += uint64(sol.Path.Length())
				if sol.Finished {
					local.finished += 1
				}
			}
			stats[tid] = local
			if params.Verbose {
				slog.Info(fmt.Sprintf("[%v] Processed %v trips in %v us.", tid, to-from, time.Since(thread_start).Microseconds()))
			}
		}(t)
	}
	wg.Wait()

	total := threadStats{}
	for _, s := range stats {
		total.add(s)
	}
	wall := time.Since(wall_start)
	if params.Verbose {
		slog.Info(fmt.Sprintf("Processed %v in %v us", n, wall.Microseconds()))
	}
	if self.metrics != nil {
		self.metrics.ObserveBatch(n, total.expanded, total.astar)
	}

	return fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v,%v,%v,%v\n",
		total.expanded, total.generated, total.reopen, total.surplus,
		total.heap_ops, total.plen, total.finished,
		read_time.Nanoseconds(), total.astar.Nanoseconds(), wall.Nanoseconds())
}

//*******************************************
// frame io
//*******************************************

func readQueries(path string) (List[Tuple[int32, int32]], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %v", path)
	}
	defer file.Close()

	var s int
	if _, err := fmt.Fscan(file, &s); err != nil {
		return nil, fmt.Errorf("%v: missing query count", path)
	}
	queries := NewList[Tuple[int32, int32]](s)
	for i := 0; i < s; i++ {
		var o, d uint64
		if _, err := fmt.Fscan(file, &o, &d); err != nil {
			return nil, fmt.Errorf("%v: bad query line %v", path, i)
		}
		queries.Add(MakeTuple(int32(o), int32(d)))
	}
	return queries, nil
}

func writeReply(path string, line string) error {
	if path == "-" {
		_, err := fmt.Fprint(os.Stdout, line)
		return err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(line)
	return err
}

//*******************************************
// signals
//*******************************************

func (self *Server) installSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	go func() {
		sig := <-ch
		slog.Warn(fmt.Sprintf("Interrupt signal %v received.", sig))
		os.Remove(self.fifo)
		code := 1
		if s, ok := sig.(syscall.Signal); ok {
			code = int(s)
		}
		os.Exit(code)
	}()
}
