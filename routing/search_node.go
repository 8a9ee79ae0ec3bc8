package routing

import (
	"math"
	"time"

	. "github.com/eggeek/oracle-search/util"
)

const Infinity = int64(math.MaxInt64 / 4)

//*******************************************
// search nodes
//*******************************************

type NodeStatus uint8

const (
	StatusFresh NodeStatus = iota
	StatusOpen
	StatusClosed
)

// SearchNode is the per-query state of one graph node. Nodes live in a
// pool keyed on node id and are reset between queries.
type SearchNode struct {
	G      int64
	F      int64
	H      int64
	HUpper int64
	Parent int32
	Status NodeStatus
	HDone  bool
	HFull  bool
}

func NewNodePool(num_nodes int) Flags[SearchNode] {
	return NewFlags[SearchNode](int32(num_nodes), SearchNode{
		G:      Infinity,
		F:      Infinity,
		Parent: -1,
	})
}

//*******************************************
// problems and solutions
//*******************************************

type Problem struct {
	Start  int32
	Target int32
	Debug  bool
}

type Metrics struct {
	NodesExpanded  uint64
	NodesGenerated uint64
	NodesReopen    uint64
	NodesSurplus   uint64
	HeapOps        uint64
	TimeElapsed    time.Duration
}

type Solution struct {
	Path     List[int32]
	Cost     int64
	Finished bool
	Cutoff   bool
	Met      Metrics
}

func (self *Solution) Reset() {
	self.Path = self.Path[:0]
	self.Cost = Infinity
	self.Finished = false
	self.Cutoff = false
	self.Met = Metrics{}
}

//*******************************************
// search configuration
//*******************************************

// SearchConfig carries the per-request cutoffs applied to every search
// thread before a batch is dispatched.
type SearchConfig struct {
	HScale        float64
	MaxTime       time.Duration
	MaxExpansions uint64
	MaxKMoves     int
	FScale        float64
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		HScale:        1.0,
		MaxTime:       time.Hour,
		MaxExpansions: math.MaxUint64,
		MaxKMoves:     0,
		FScale:        1.0,
	}
}

// Search is the query-time algorithm interface shared by cpd search and
// plain table extraction.
type Search interface {
	GetPath(pi *Problem, sol *Solution)
	Configure(conf SearchConfig)
}
