package main

import (
	"fmt"
	"os"

	"github.com/eggeek/oracle-search/distribute"
	"github.com/spf13/cobra"
)

func main() {
	var nodenum int
	var maxworker int
	var partmethod string
	var partkey int

	cmd := &cobra.Command{
		Use:   "gen_distribute_conf",
		Short: "Print the node-to-worker assignment of a partitioning as csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := distribute.ParseMethod(partmethod)
			if err != nil {
				return err
			}
			dc := distribute.NewDistributeController(nodenum, maxworker, 0)
			if err := dc.SetMethod(method, partkey); err != nil {
				return err
			}

			fmt.Println("node,worker,block,bindex")
			for w := 0; w < maxworker; w++ {
				for _, block := range dc.GetWorkerBlocks(w) {
					for _, node := range block {
						fmt.Printf("%v,%v,%v,%v\n", node, w, dc.BlockID(node), dc.GetIndexInBlock(node))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&nodenum, "nodenum", 0, "number of nodes in the graph")
	cmd.Flags().IntVar(&maxworker, "maxworker", 1, "number of workers")
	cmd.Flags().StringVar(&partmethod, "partmethod", "mod", "partition method (mod or div)")
	cmd.Flags().IntVar(&partkey, "partkey", 1, "partition method parameter")
	cmd.MarkFlagRequired("nodenum")
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
