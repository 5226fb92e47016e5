package console

import "sync"

// Record is a cache-of-record: a value replaced wholesale by boundary
// responses, never mutated in place. A replacement is accepted only if its
// sequence number is not older than the last applied one, so a command may
// replace its own earlier value but never a later command's.
type Record[T any] struct {
	mu    sync.RWMutex
	value T
	seq   uint64
}

// NewRecord creates a record holding initial at sequence 0.
func NewRecord[T any](initial T) *Record[T] {
	return &Record[T]{value: initial}
}

// Get returns the current value.
func (r *Record[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Seq returns the sequence number of the current value.
func (r *Record[T]) Seq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Replace stores v unless seq is older than the current one and reports whether it did.
func (r *Record[T]) Replace(seq uint64, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.seq {
		return false
	}
	r.value = v
	r.seq = seq
	return true
}
