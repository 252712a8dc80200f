// Package arena provides the bulk node storage shared by the AST and IR.
//
// Every node of a compilation unit lives in an Arena slab and is addressed by a
// 1-based uint32 handle; handle 0 means "no node". There is no way to free a
// single element: the whole arena is dropped together with the unit that owns it.
package arena

import (
	"fmt"

	"fortio.org/safecast"
)

// Arena is an append-only slab of T values.
type Arena[T any] struct {
	data []T
}

// New creates an arena with room for capHint values; zero is allowed.
func New[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate stores value and returns its handle (1-based).
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena handle overflow: %w", err))
	}
	return n
}

// Get returns a pointer to the value behind index, or nil for 0 and
// out-of-range handles.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || int(index) > len(a.data) {
		return nil
	}
	return &a.data[index-1]
}

// Has reports whether index addresses a live slot.
func (a *Arena[T]) Has(index uint32) bool {
	return index != 0 && int(index) <= len(a.data)
}

// Slice exposes the backing storage. READONLY.
func (a *Arena[T]) Slice() []T {
	return a.data
}

// Len returns the number of allocated values.
func (a *Arena[T]) Len() uint32 {
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena length overflow: %w", err))
	}
	return n
}
