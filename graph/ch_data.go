package graph

import (
	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// contraction-hierarchy overlay data
//*******************************************

// BBox is a geometric bounding-box label attached to an edge. An edge
// may only appear on an optimal path to targets inside its box.
type BBox struct {
	X1 int32
	Y1 int32
	X2 int32
	Y2 int32
}

func (self BBox) Contains(x int32, y int32) bool {
	return x >= self.X1 && x <= self.X2 && y >= self.Y1 && y <= self.Y2
}

func (self *BBox) Grow(x int32, y int32) {
	if x < self.X1 {
		self.X1 = x
	}
	if x > self.X2 {
		self.X2 = x
	}
	if y < self.Y1 {
		self.Y1 = y
	}
	if y > self.Y2 {
		self.Y2 = y
	}
}

// IDRange is a half-open dfs id-range label [Lo, Hi) attached to a
// down edge.
type IDRange struct {
	Lo int32
	Hi int32
}

func (self IDRange) Contains(id int32) bool {
	return id >= self.Lo && id < self.Hi
}

// CHData carries the node ordering of a contraction hierarchy built on
// top of a Graph, plus optional per-edge pruning labels.
type CHData struct {
	Rank   Array[int32]
	BBoxes Array[BBox]
	Ranges Array[IDRange]
}

func NewCHData(rank Array[int32]) *CHData {
	return &CHData{Rank: rank}
}

func (self *CHData) GetRank(node int32) int32 {
	return self.Rank[node]
}

//*******************************************
// serialization
//*******************************************

func (self *CHData) Store(path string) error {
	writer := NewBufferWriter()
	WriteArray(writer, self.Rank)
	WriteArray(writer, self.BBoxes)
	WriteArray(writer, self.Ranges)
	return WriteBufferToFile(writer, path)
}

func LoadCHData(path string) (*CHData, error) {
	reader, err := ReadBufferFromFile(path)
	if err != nil {
		return nil, err
	}
	chd := &CHData{}
	chd.Rank = ReadArray[int32](reader)
	chd.BBoxes = ReadArray[BBox](reader)
	chd.Ranges = ReadArray[IDRange](reader)
	return chd, nil
}
