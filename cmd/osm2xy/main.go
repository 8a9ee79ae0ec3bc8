package main

import (
	"fmt"
	"os"

	"github.com/eggeek/oracle-search/graph"
	"github.com/eggeek/oracle-search/parser"
	"github.com/eggeek/oracle-search/util"
	"github.com/spf13/cobra"
)

func main() {
	var input string
	var output string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "osm2xy",
		Short: "Convert an OSM pbf extract to the xy graph format",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.InitLogging(os.Stderr, verbose)
			g, err := parser.ParseOSMGraph(input, false)
			if err != nil {
				return err
			}
			return graph.StoreXYGraph(g, output)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "osm pbf file")
	cmd.Flags().StringVar(&output, "output", "", "xy graph file to write")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose output")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
