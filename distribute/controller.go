package distribute

import (
	"fmt"
	"path/filepath"
	"strings"

	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// partition methods
//*******************************************

type Method uint8

const (
	MOD Method = iota
	DIV
)

func ParseMethod(s string) (Method, error) {
	switch s {
	case "mod":
		return MOD, nil
	case "div":
		return DIV, nil
	}
	return MOD, fmt.Errorf("unknown partition method %q (want mod or div)", s)
}

func (self Method) String() string {
	if self == DIV {
		return "div"
	}
	return "mod"
}

//*******************************************
// distribute controller
//*******************************************

// DistributeController maps node ids to (block, index-in-block) pairs
// and assigns blocks round-robin to workers. It is the shared contract
// between cpd construction and the query server: both sides must agree
// on which worker owns which sources.
type DistributeController struct {
	num_nodes int32
	maxworker int32
	wid       int32
	method    Method
	key       int32
}

func NewDistributeController(num_nodes int, maxworker int, wid int) DistributeController {
	return DistributeController{
		num_nodes: int32(num_nodes),
		maxworker: int32(maxworker),
		wid:       int32(wid),
		method:    MOD,
		key:       1,
	}
}

func (self *DistributeController) SetMethod(method Method, key int) error {
	if key <= 0 {
		return fmt.Errorf("partition key must be positive, got %v", key)
	}
	self.method = method
	self.key = int32(key)
	return nil
}

func (self *DistributeController) WID() int {
	return int(self.wid)
}

func (self *DistributeController) NumNodes() int {
	return int(self.num_nodes)
}

func (self *DistributeController) NumBlocks() int {
	if self.method == DIV {
		return int((self.num_nodes + self.key - 1) / self.key)
	}
	return int(self.key)
}

func (self *DistributeController) BlockID(id int32) int32 {
	if self.method == DIV {
		return id / self.key
	}
	return id % self.key
}

func (self *DistributeController) GetIndexInBlock(id int32) int32 {
	if self.method == DIV {
		return id % self.key
	}
	return id / self.key
}

func (self *DistributeController) WorkerOf(block int32) int32 {
	return block % self.maxworker
}

// BlockNodes returns the node ids of one block in ascending order.
func (self *DistributeController) BlockNodes(block int32) List[int32] {
	nodes := NewList[int32](int(self.key))
	if self.method == DIV {
		start := block * self.key
		end := start + self.key
		if end > self.num_nodes {
			end = self.num_nodes
		}
		for id := start; id < end; id++ {
			nodes.Add(id)
		}
	} else {
		for id := block; id < self.num_nodes; id += self.key {
			nodes.Add(id)
		}
	}
	return nodes
}

// GetWorkerBlocks returns the blocks owned by worker w, ordered by
// block id, each block an ordered list of node ids.
func (self *DistributeController) GetWorkerBlocks(w int) List[List[int32]] {
	blocks := NewList[List[int32]](self.NumBlocks())
	for b := int32(w); b < int32(self.NumBlocks()); b += self.maxworker {
		blocks.Add(self.BlockNodes(b))
	}
	return blocks
}

// OwnBlocks returns the blocks owned by this controller's worker.
func (self *DistributeController) OwnBlocks() List[List[int32]] {
	return self.GetWorkerBlocks(int(self.wid))
}

//*******************************************
// cpd file naming
//*******************************************

// FormatCPDFile derives the per-block cpd filename
// <map>-<wid>-<bid>.cpd from the xy-graph filename.
func FormatCPDFile(xyfile string, outdir string, wid int, bid int) string {
	stem := strings.TrimSuffix(xyfile, filepath.Ext(xyfile))
	if outdir != "" {
		stem = filepath.Join(outdir, filepath.Base(stem))
	}
	return fmt.Sprintf("%v-%v-%v.cpd", stem, wid, bid)
}
