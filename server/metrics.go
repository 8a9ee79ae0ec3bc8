package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
)

//*******************************************
// prometheus metrics
//*******************************************

type Metrics struct {
	registry   *prometheus.Registry
	batches    prometheus.Counter
	queries    prometheus.Counter
	expansions prometheus.Counter
	search_sec prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oracle_search_batches_total",
			Help: "Request frames processed.",
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oracle_search_queries_total",
			Help: "Individual queries answered.",
		}),
		expansions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oracle_search_expansions_total",
			Help: "Search nodes expanded.",
		}),
		search_sec: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oracle_search_seconds_total",
			Help: "Cumulative search time across threads.",
		}),
	}
	m.registry.MustRegister(m.batches, m.queries, m.expansions, m.search_sec)
	return m
}

func (self *Metrics) ObserveBatch(queries int, expanded uint64, astar time.Duration) {
	self.batches.Inc()
	self.queries.Add(float64(queries))
	self.expansions.Add(float64(expanded))
	self.search_sec.Add(astar.Seconds())
}

// Serve exposes /metrics on addr in the background.
func (self *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(self.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics listener failed: " + err.Error())
		}
	}()
}
