package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/eggeek/oracle-search/cpd"
	"github.com/eggeek/oracle-search/distribute"
	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/util"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func main() {
	var input string
	var outdir string
	var partition string
	var partkey int
	var workerid int
	var maxworker int
	var seed int32
	var cpdtype string
	var threads int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "make_cpd_auto",
		Short: "Build the cpd shards owned by one worker, one file per block",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.InitLogging(os.Stderr, verbose)

			typ, err := cpd.ParseSymbol(cpdtype)
			if err != nil {
				return err
			}
			method, err := distribute.ParseMethod(partition)
			if err != nil {
				return err
			}

			g, err := graph.LoadXYGraph(input, typ == cpd.RevTable)
			if err != nil {
				return err
			}

			dc := distribute.NewDistributeController(g.NodeCount(), maxworker, workerid)
			if err := dc.SetMethod(method, partkey); err != nil {
				return err
			}
			if threads < 1 {
				threads = runtime.NumCPU()
			}

			for _, nodes := range dc.OwnBlocks() {
				bid := int(dc.BlockID(nodes.Last()))
				cpd_filename := distribute.FormatCPDFile(input, outdir, workerid, bid)
				conf_filename := strings.TrimSuffix(cpd_filename, ".cpd") + ".conf"

				err := cpd.WriteConf(conf_filename, cpd.Conf{
					XYFile:    input,
					Method:    method.String(),
					MethodKey: partkey,
					WID:       workerid,
					BID:       bid,
					CPDType:   typ.String(),
				})
				if err != nil {
					return err
				}

				oracle := cpd.NewOracle(g, typ)
				if err := cpd.Build(g, oracle, nodes, threads, seed, verbose); err != nil {
					return err
				}
				if verbose {
					slog.Info("Writing results to " + cpd_filename)
				}
				if err := oracle.Store(cpd_filename); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "xy graph file")
	cmd.Flags().StringVar(&outdir, "outdir", "", "output directory (defaults to the graph's)")
	cmd.Flags().StringVar(&partition, "partition", "mod", "partition method (mod or div)")
	cmd.Flags().IntVar(&partkey, "partkey", 1, "partition method parameter")
	cmd.Flags().IntVar(&workerid, "workerid", 0, "id of this worker")
	cmd.Flags().IntVar(&maxworker, "maxworker", 1, "number of workers")
	cmd.Flags().Int32Var(&seed, "seed", 0, "dfs preorder seed node")
	cmd.Flags().StringVar(&cpdtype, "cpdtype", "reverse-table", "table orientation (forward-table or reverse-table)")
	cmd.Flags().IntVar(&threads, "threads", 0, "construction threads (defaults to all cores)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose output")
	cmd.MarkFlagRequired("input")
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
