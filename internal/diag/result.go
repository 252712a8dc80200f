package diag

import "fmt"

// Result is the success/failure envelope returned by every stage.
//
// A failed Result carries no error value of its own: the reason lives in the
// stage's Bag. Value may still hold a partial result (tokens, a recovered AST)
// for inspection modes.
type Result[T any] struct {
	Value T
	OK    bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, OK: true}
}

// Fail returns a failed Result keeping partial as its value. It panics with
// ErrUnexplainedFailure when bag holds no error diagnostic, since a failure
// without a recorded reason is a compiler bug.
func Fail[T any](bag *Bag, partial T) Result[T] {
	if bag == nil || !bag.HasErrors() {
		panic(ErrUnexplainedFailure)
	}
	return Result[T]{Value: partial}
}

// FromBag is Ok when bag has no errors and Fail otherwise.
func FromBag[T any](bag *Bag, v T) Result[T] {
	if bag != nil && bag.HasErrors() {
		return Fail(bag, v)
	}
	return Ok(v)
}

// ErrUnexplainedFailure is raised when a stage fails without an error diagnostic.
var ErrUnexplainedFailure = fmt.Errorf("stage failed without reporting an error diagnostic")

// FromCounter is Ok when r saw no errors and a failed Result otherwise. It is
// the Reporter-based counterpart of FromBag for stages that never see the bag.
func FromCounter[T any](r *CountingReporter, v T) Result[T] {
	if r != nil && r.Errors > 0 {
		return Result[T]{Value: v}
	}
	return Ok(v)
}
