// Package pool offers typed wrappers over sync.Pool.
package pool

import "sync"

type Pool[T any] struct {
	pool  sync.Pool
	reset func(v *T)
}

func (p *Pool[T]) Get() (v *T) {
	return p.pool.Get().(*T)
}

// Returns v to the pool, reset first when the pool has a reset function
func (p *Pool[T]) Put(v *T) {
	if v == nil {
		return
	}
	if p.reset != nil {
		p.reset(v)
	}
	p.pool.Put(v)
}

// reset may be nil
func New[T any](newFunc func() (v *T), reset func(v *T)) (pool *Pool[T]) {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return newFunc() },
		},
		reset: reset,
	}
}

// Pool of byte slices of the given length
func Bytes(size int) (pool *Pool[[]byte]) {
	return New(
		func() (b *[]byte) {
			buffer := make([]byte, size)
			return &buffer
		},
		func(b *[]byte) {
			*b = (*b)[:size]
		},
	)
}
