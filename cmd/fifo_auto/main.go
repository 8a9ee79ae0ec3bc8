package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/eggeek/oracle-search/cpd"
	"github.com/eggeek/oracle-search/distribute"
	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/routing"
	"github.com/eggeek/oracle-search/server"
	"github.com/eggeek/oracle-search/util"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func main() {
	var config string
	var opts server.Options
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fifo_auto",
		Short: "Serve shortest-path query batches over a named pipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.InitLogging(os.Stderr, verbose)

			if config != "" {
				file_opts, err := server.ReadOptions(config)
				if err != nil {
					return err
				}
				mergeOptions(cmd, &opts, file_opts)
			}
			if opts.Input == "" {
				return fmt.Errorf("parameter is missing: --input [xy-graph file]")
			}
			if opts.Alg != "table" && opts.Alg != "table-search" {
				return fmt.Errorf("--alg not recognised (want table or table-search)")
			}
			if opts.OutDir == "" {
				return fmt.Errorf("parameter is missing: --outdir [dir]")
			}

			g, err := graph.LoadXYGraph(opts.Input, true)
			if err != nil {
				return err
			}

			method, err := distribute.ParseMethod(opts.Method)
			if err != nil {
				return err
			}
			dc := distribute.NewDistributeController(g.NodeCount(), opts.MaxWorker, opts.WID)
			if err := dc.SetMethod(method, opts.PartKey); err != nil {
				return err
			}

			oracle, err := loadShards(g, &dc, opts)
			if err != nil {
				return err
			}

			threads := runtime.NumCPU()
			algos := make([]routing.Search, threads)
			for t := range algos {
				heur := routing.NewCPDHeuristic(g, oracle, 1.0)
				if opts.Alg == "table-search" {
					policy := routing.NewSimpleGraphPolicy(g, false)
					algos[t] = routing.NewCPDSearch(g, policy, heur)
				} else {
					algos[t] = routing.NewCPDExtractions(g, heur)
				}
			}
			slog.Info(fmt.Sprintf("Loaded %v search.", len(algos)))

			var metrics *server.Metrics
			if opts.Metrics != "" {
				metrics = server.NewMetrics()
				metrics.Serve(opts.Metrics)
			}

			srv := server.NewServer(g, algos, opts.Fifo, metrics)
			return srv.Run()
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "xy graph file")
	cmd.Flags().StringVar(&opts.Fifo, "fifo", "/tmp/oracle-search.fifo", "request pipe path")
	cmd.Flags().StringVar(&opts.Alg, "alg", "", "algorithm (table or table-search)")
	cmd.Flags().StringVar(&opts.Method, "partmethod", "mod", "partition method (mod or div)")
	cmd.Flags().IntVar(&opts.PartKey, "partkey", 1, "partition method parameter")
	cmd.Flags().IntVar(&opts.WID, "wid", 0, "id of this worker")
	cmd.Flags().IntVar(&opts.MaxWorker, "maxworker", 1, "number of workers")
	cmd.Flags().StringVar(&opts.OutDir, "outdir", "", "directory holding the cpd shards")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "expose prometheus metrics on this address")
	cmd.Flags().StringVar(&config, "config", "", "yaml file with defaults for the flags above")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose output")
	cmd.MarkFlagRequired("alg")
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mergeOptions fills unset flags from the yaml config.
func mergeOptions(cmd *cobra.Command, opts *server.Options, file server.Options) {
	if !cmd.Flags().Changed("input") && file.Input != "" {
		opts.Input = file.Input
	}
	if !cmd.Flags().Changed("fifo") && file.Fifo != "" {
		opts.Fifo = file.Fifo
	}
	if !cmd.Flags().Changed("alg") && file.Alg != "" {
		opts.Alg = file.Alg
	}
	if !cmd.Flags().Changed("partmethod") && file.Method != "" {
		opts.Method = file.Method
	}
	if !cmd.Flags().Changed("partkey") && file.PartKey != 0 {
		opts.PartKey = file.PartKey
	}
	if !cmd.Flags().Changed("wid") && file.WID != 0 {
		opts.WID = file.WID
	}
	if !cmd.Flags().Changed("maxworker") && file.MaxWorker != 0 {
		opts.MaxWorker = file.MaxWorker
	}
	if !cmd.Flags().Changed("outdir") && file.OutDir != "" {
		opts.OutDir = file.OutDir
	}
	if !cmd.Flags().Changed("metrics") && file.Metrics != "" {
		opts.Metrics = file.Metrics
	}
}

// loadShards reads every cpd file owned by this worker and merges the
// shards into one oracle. Missing shards are logged and skipped; the
// search degrades to a zero heuristic for their sources.
func loadShards(g *graph.Graph, dc *distribute.DistributeController, opts server.Options) (*cpd.Oracle, error) {
	var oracle *cpd.Oracle
	for _, nodes := range dc.OwnBlocks() {
		bid := int(dc.BlockID(nodes.Last()))
		path := distribute.FormatCPDFile(opts.Input, opts.OutDir, opts.WID, bid)
		shard, err := cpd.LoadOracle(path, g)
		if err != nil {
			slog.Warn("Could not load cpd shard: " + err.Error())
			continue
		}
		if oracle == nil {
			oracle = shard
			continue
		}
		if err := oracle.Merge(shard); err != nil {
			return nil, err
		}
	}
	if oracle == nil {
		return nil, fmt.Errorf("no cpd shard could be loaded from %v", opts.OutDir)
	}
	return oracle, nil
}
