package routing

import (
	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// search queue
//*******************************************

type queue_item struct {
	id int32
	f  int64
	g  int64
}

// SearchQueue is a 4-ary min-heap over search-node ids ordered by
// (f ascending, g descending). Ties on f prefer nodes closer to the
// goal. Supports decrease-key via a position index.
type SearchQueue struct {
	items List[queue_item]
	pos   Flags[int32]
	ops   uint64
}

func NewSearchQueue(num_nodes int) *SearchQueue {
	return &SearchQueue{
		items: NewList[queue_item](256),
		pos:   NewFlags[int32](int32(num_nodes), -1),
	}
}

func (self *SearchQueue) less(a queue_item, b queue_item) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.g > b.g
}

func (self *SearchQueue) Push(id int32, f int64, g int64) {
	self.ops += 1
	self.items.Add(queue_item{id, f, g})
	index := self.items.Length() - 1
	*self.pos.Get(id) = int32(index)
	self.siftUp(index)
}

// Decrease updates the key of a contained id, or pushes it if absent.
func (self *SearchQueue) Decrease(id int32, f int64, g int64) {
	index := *self.pos.Get(id)
	if index < 0 {
		self.Push(id, f, g)
		return
	}
	self.ops += 1
	self.items[index] = queue_item{id, f, g}
	self.siftUp(int(index))
}

func (self *SearchQueue) Pop() (int32, bool) {
	if self.items.Length() == 0 {
		return -1, false
	}
	self.ops += 1
	top := self.items[0]
	last := self.items.Length() - 1
	self.items[0] = self.items[last]
	self.items = self.items[:last]
	*self.pos.Get(top.id) = -1
	if last > 0 {
		*self.pos.Get(self.items[0].id) = 0
		self.siftDown(0)
	}
	return top.id, true
}

func (self *SearchQueue) Contains(id int32) bool {
	return *self.pos.Get(id) >= 0
}

func (self *SearchQueue) Len() int {
	return self.items.Length()
}

func (self *SearchQueue) HeapOps() uint64 {
	return self.ops
}

func (self *SearchQueue) Clear() {
	self.items.Clear()
	self.pos.Reset()
	self.ops = 0
}

func (self *SearchQueue) siftUp(index int) {
	for index > 0 {
		parent := (index - 1) / 4
		if !self.less(self.items[index], self.items[parent]) {
			break
		}
		self.swap(index, parent)
		index = parent
	}
}

func (self *SearchQueue) siftDown(index int) {
	length := self.items.Length()
	for {
		smallest := index
		first := 4*index + 1
		for child := first; child < first+4 && child < length; child++ {
			if self.less(self.items[child], self.items[smallest]) {
				smallest = child
			}
		}
		if smallest == index {
			break
		}
		self.swap(index, smallest)
		index = smallest
	}
}

func (self *SearchQueue) swap(i int, j int) {
	self.items[i], self.items[j] = self.items[j], self.items[i]
	*self.pos.Get(self.items[i].id) = int32(i)
	*self.pos.Get(self.items[j].id) = int32(j)
}
