package util

//*******************************************
// per-node flags with cheap reset
//*******************************************

// Flags stores one value per node and supports O(1) reset by
// stamping entries with a generation counter.
type Flags[T any] struct {
	values   Array[T]
	stamps   Array[int32]
	_default T
	stamp    int32
}

func NewFlags[T any](size int32, _default T) Flags[T] {
	return Flags[T]{
		values:   NewArray[T](int(size)),
		stamps:   NewArray[int32](int(size)),
		_default: _default,
		stamp:    1,
	}
}

func (self *Flags[T]) Get(index int32) *T {
	if self.stamps[index] != self.stamp {
		self.values[index] = self._default
		self.stamps[index] = self.stamp
	}
	return &self.values[index]
}

func (self *Flags[T]) IsSet(index int32) bool {
	return self.stamps[index] == self.stamp
}

func (self *Flags[T]) Reset() {
	self.stamp += 1
	if self.stamp == 0 {
		for i := range self.stamps {
			self.stamps[i] = 0
		}
		self.stamp = 1
	}
}
