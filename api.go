// Package zeroinject contains the runtime wrapper types recognised by the zeroinject resolver.
//
// Injection points and parameters declared with one of these types receive an indirection to the resolved value
// rather than the value itself.
package zeroinject

import "sync"

// Provider builds a new T on every call.
type Provider[T any] func() T

// Get a new T.
func (p Provider[T]) Get() T { return p() }

// Lazy builds its T once, on first use.
//
// A Lazy is safe for concurrent use.
type Lazy[T any] struct {
	get func() T
}

// NewLazy creates a [Lazy] that calls build at most once.
func NewLazy[T any](build func() T) *Lazy[T] {
	return &Lazy[T]{get: sync.OnceValue(build)}
}

// Get the value, building it if necessary.
func (l *Lazy[T]) Get() T { return l.get() }
