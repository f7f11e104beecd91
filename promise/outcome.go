package promise

import "github.com/pkg/errors"

type outcomeKind uint8

const (
	outcomeEmpty outcomeKind = iota
	outcomeValue
	outcomeChained
	outcomeFailed
)

// Outcome is the tagged return of a fulfillment continuation. Only Chain
// alters composition: the chained deferred adopts the node's children and
// becomes the continuation point. Value and Empty both leave the node's own
// settlement value in place; Fail rejects the node.
type Outcome[T any] struct {
	kind    outcomeKind
	value   T
	chained *Deferred[T]
	err     error
}

// Value records a plain continuation result.
func Value[T any](val T) Outcome[T] {
	return Outcome[T]{kind: outcomeValue, value: val}
}

// Chain hands composition over to another deferred.
func Chain[T any](d *Deferred[T]) Outcome[T] {
	return Outcome[T]{kind: outcomeChained, chained: d}
}

// Empty is a continuation result that carries nothing.
func Empty[T any]() Outcome[T] {
	return Outcome[T]{kind: outcomeEmpty}
}

// Fail rejects the continuation's node with reason.
func Fail[T any](reason error) Outcome[T] {
	return Outcome[T]{kind: outcomeFailed, err: reason}
}

///

// runFulfilled invokes a fulfillment continuation, converting a panic into a
// continuation failure.
func runFulfilled[T any](cb ThenFunc[T], val T) (out Outcome[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	out = cb(val)
	return out, nil
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.Errorf("%v", r)
}
