package util

import (
	"golang.org/x/exp/constraints"
)

//*******************************************
// generic priority queue
//*******************************************

type pq_entry[T any, P constraints.Ordered] struct {
	item     T
	priority P
}

// Simple binary min-heap keyed on priority.
type PriorityQueue[T any, P constraints.Ordered] struct {
	entries List[pq_entry[T, P]]
}

func NewPriorityQueue[T any, P constraints.Ordered](cap int) PriorityQueue[T, P] {
	return PriorityQueue[T, P]{
		entries: NewList[pq_entry[T, P]](cap),
	}
}

func (self *PriorityQueue[T, P]) Enqueue(item T, priority P) {
	self.entries.Add(pq_entry[T, P]{item, priority})
	index := self.entries.Length() - 1
	for index > 0 {
		parent := (index - 1) / 2
		if self.entries[parent].priority <= self.entries[index].priority {
			break
		}
		self.entries[parent], self.entries[index] = self.entries[index], self.entries[parent]
		index = parent
	}
}

func (self *PriorityQueue[T, P]) Dequeue() (T, bool) {
	if self.entries.Length() == 0 {
		var t T
		return t, false
	}
	top := self.entries[0]
	last := self.entries.Length() - 1
	self.entries[0] = self.entries[last]
	self.entries = self.entries[:last]
	index := 0
	for {
		left := 2*index + 1
		right := 2*index + 2
		smallest := index
		if left < last && self.entries[left].priority < self.entries[smallest].priority {
			smallest = left
		}
		if right < last && self.entries[right].priority < self.entries[smallest].priority {
			smallest = right
		}
		if smallest == index {
			break
		}
		self.entries[smallest], self.entries[index] = self.entries[index], self.entries[smallest]
		index = smallest
	}
	return top.item, true
}

func (self *PriorityQueue[T, P]) Len() int {
	return self.entries.Length()
}

func (self *PriorityQueue[T, P]) Clear() {
	self.entries.Clear()
}
