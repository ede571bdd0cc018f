// Package litepool is a strongly typed wrapper around sync.Pool with
// optional Reset() support. It eliminates the need for unsafe type
// assertions and plays nicely with static analysis. Objects returned
// from Get() are guaranteed to be the correct type.
//
// The reverse proxy uses one of these to reuse the byte-slice buffers
// it streams upstream chunks through, so a busy proxy doesn't
// allocate a fresh buffer per request.
//
// Example:
//
//	bufs := litepool.New(func() []byte { return make([]byte, 32*1024) })
//	buf := bufs.Get()
//	defer bufs.Put(buf)
package litepool

import "sync"

// Resettable types have Reset() called before being returned to the pool.
type Resettable interface {
	Reset()
}

// Pool is a generic sync.Pool of values of type T.
type Pool[T any] struct {
	pool sync.Pool
	new  func() T
}

// New builds a Pool whose values are produced by newFn. newFn must
// never return a nil pointer/interface value.
func New[T any](newFn func() T) *Pool[T] {
	if newFn == nil {
		panic("litepool: constructor must not be nil")
	}
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return newFn() },
		},
		new: newFn,
	}
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // safe: sync.Pool.New always returns a T
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}
