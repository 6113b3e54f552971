// Package queue provides a bounded FIFO buffer that discards its oldest item
// when full.
package queue

import "sync"

type Buffer[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  uint64
}

func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Add appends item. When the buffer is full the oldest item is removed and
// returned with ok set to true.
func (b *Buffer[T]) Add(item T) (dropped T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) >= b.capacity {
		dropped, ok = b.items[0], true
		var zero T
		b.items[0] = zero
		b.items = b.items[1:]
		b.dropped++
	}
	b.items = append(b.items, item)
	return dropped, ok
}

// Drain removes and returns every buffered item in insertion order.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return nil
	}
	out := b.items
	b.items = make([]T, 0, b.capacity)
	return out
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// Dropped returns how many items were discarded because the buffer was full.
func (b *Buffer[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
