package capture

import (
	"sync"
)

// RingBuffer is a bounded, thread-safe sample buffer. Once full, writes
// overwrite the oldest samples. Storage grows on demand up to the capacity.
type RingBuffer struct {
	mu       sync.RWMutex
	buffer   []float64
	capacity int
	writePos int
	count    int
	dropped  int64
}

// NewRingBuffer creates a ring buffer holding at most capacity samples
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{capacity: capacity}
}

// Write appends samples, overwriting the oldest ones once the buffer is full
func (rb *RingBuffer) Write(data []float64) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for _, sample := range data {
		if len(rb.buffer) < rb.capacity {
			rb.buffer = append(rb.buffer, sample)
			rb.count++
			rb.writePos = len(rb.buffer) % rb.capacity
			continue
		}

		rb.buffer[rb.writePos] = sample
		rb.writePos = (rb.writePos + 1) % rb.capacity
		if rb.count < rb.capacity {
			rb.count++
		} else {
			rb.dropped++
		}
	}
	return len(data)
}

// Snapshot returns a copy of every buffered sample, oldest first
func (rb *RingBuffer) Snapshot() []float64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.lastLocked(rb.count)
}

// Recent returns a copy of the newest n samples, or fewer if not enough are buffered
func (rb *RingBuffer) Recent(n int) []float64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.lastLocked(min(n, rb.count))
}

func (rb *RingBuffer) lastLocked(n int) []float64 {
	out := make([]float64, max(n, 0))
	if n <= 0 {
		return out
	}

	start := (rb.writePos - n + rb.capacity) % rb.capacity
	if len(rb.buffer) < rb.capacity {
		start = len(rb.buffer) - n
	}

	first := copy(out, rb.buffer[start:min(start+n, len(rb.buffer))])
	copy(out[first:], rb.buffer[:n-first])
	return out
}

// Len returns the number of buffered samples
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Capacity returns the maximum number of buffered samples
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// Dropped returns how many samples have been overwritten since the last Clear
func (rb *RingBuffer) Dropped() int64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.dropped
}

// Clear empties the buffer and releases its storage
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buffer = nil
	rb.writePos = 0
	rb.count = 0
	rb.dropped = 0
}
