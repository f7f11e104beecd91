// Package promise implements a deferred value with synchronous dispatch.
//
// A Deferred starts Pending and settles exactly once, to Fulfilled or
// Rejected. Continuations registered with Then/Catch run inline on the call
// stack that settles the node; there is no scheduler and no goroutine. The
// package is not safe for concurrent settlement of a single node, callers
// that share a Deferred across goroutines must synchronize around it.
package promise

import (
	"context"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

type State uint8

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

///

// Resolver is invoked synchronously by New, exactly once, with the two
// settlement callbacks. A panic inside the resolver rejects the node.
type Resolver[T any] func(resolve func(T), reject func(error))

// ThenFunc runs when the node is fulfilled. Its Outcome decides whether the
// chain continues through another deferred (Chain) or stops here.
type ThenFunc[T any] func(val T) Outcome[T]

// CatchFunc runs when the node is rejected. Running it consumes the
// rejection: children of this node settle as fulfilled-with-nothing instead
// of rejected.
type CatchFunc func(reason error)

type Deferred[T any] struct {
	ctx context.Context
	id  xid.ID

	state  State
	result T
	reason error

	onFulfilled ThenFunc[T]
	onRejected  CatchFunc

	children          []*Deferred[T]
	rejectionConsumed bool
}

func newDeferred[T any](ctx context.Context) *Deferred[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Deferred[T]{
		ctx: ctx,
		id:  xid.New(),
	}
}

// New builds a Deferred. A nil resolver yields a bare Pending node.
func New[T any](ctx context.Context, resolver Resolver[T]) (d *Deferred[T]) {
	d = newDeferred[T](ctx)
	if resolver == nil {
		return d
	}
	defer func() {
		if r := recover(); r != nil {
			d.reject(recoveredError(r))
		}
	}()
	resolver(
		func(val T) { d.resolve(val) },
		func(reason error) { d.reject(reason) },
	)
	return d
}

// Resolve returns an already-fulfilled node wrapping val.
func Resolve[T any](ctx context.Context, val T) *Deferred[T] {
	d := newDeferred[T](ctx)
	d.resolve(val)
	return d
}

// Reject returns an already-rejected node.
func Reject[T any](ctx context.Context, reason error) *Deferred[T] {
	d := newDeferred[T](ctx)
	d.reject(reason)
	return d
}

///

// Then registers a continuation pair and returns the node it will settle.
// If this node is already settled the continuation runs before Then returns.
// When the fulfilled replay yields a chained deferred, that chained node is
// returned instead of the fresh child, so further calls bind to the
// innermost link.
func (d *Deferred[T]) Then(onFulfilled ThenFunc[T], onRejected CatchFunc) *Deferred[T] {
	child := newDeferred[T](d.ctx)
	child.onFulfilled = onFulfilled
	child.onRejected = onRejected
	d.children = append(d.children, child)

	switch d.state {
	case Fulfilled:
		if chained := child.resolve(d.result); chained != nil {
			return chained
		}
	case Rejected:
		if d.rejectionConsumed {
			var zero T
			child.resolve(zero)
		} else {
			child.reject(d.reason)
		}
	}
	return child
}

// Catch is Then with only a rejection handler.
func (d *Deferred[T]) Catch(onRejected CatchFunc) *Deferred[T] {
	return d.Then(nil, onRejected)
}

func (d *Deferred[T]) State() State {
	return d.state
}

// Value returns the result of a Fulfilled node.
func (d *Deferred[T]) Value() (T, error) {
	if d.state != Fulfilled {
		var zero T
		return zero, invalidState("value", d.state)
	}
	return d.result, nil
}

// Reason returns the failure of a Rejected node.
func (d *Deferred[T]) Reason() (error, error) {
	if d.state != Rejected {
		return nil, invalidState("reason", d.state)
	}
	return d.reason, nil
}

///

// resolve settles the node as Fulfilled. The first settlement wins, any
// later call is a no-op. It returns the chained deferred produced by the
// fulfillment continuation, if any, for the Then replay path.
func (d *Deferred[T]) resolve(val T) *Deferred[T] {
	if d.state != Pending {
		return nil
	}
	d.state = Fulfilled
	d.result = val

	var chained *Deferred[T]
	if d.onFulfilled != nil {
		out, cbErr := runFulfilled(d.onFulfilled, val)
		if cbErr != nil {
			d.degradeToRejected(cbErr)
			return nil
		}
		switch out.kind {
		case outcomeChained:
			chained = out.chained
			chained.adopt(d.children)
			d.children = nil
		case outcomeFailed:
			d.degradeToRejected(out.err)
			return nil
		}
	}

	// children moved to a chained node settle with its result; the rest
	// receive this node's own settlement value.
	for _, child := range d.children {
		child.resolve(val)
	}

	d.trace("settle").Msg("fulfilled")
	return chained
}

// reject settles the node as Rejected. The first settlement wins. A
// registered rejection handler consumes the failure, in which case children
// are fulfilled with nothing instead of rejected.
func (d *Deferred[T]) reject(reason error) {
	if d.state != Pending {
		return
	}
	d.state = Rejected
	d.reason = reason

	if d.onRejected != nil {
		d.onRejected(reason)
		d.rejectionConsumed = true
	}

	for _, child := range d.children {
		if d.rejectionConsumed {
			var zero T
			child.resolve(zero)
		} else {
			child.reject(reason)
		}
	}

	d.trace("settle").Bool("consumed", d.rejectionConsumed).Msg("rejected")
}

// degradeToRejected turns a just-fulfilled node into a rejected one when its
// own fulfillment continuation failed. Children have not been notified yet.
func (d *Deferred[T]) degradeToRejected(reason error) {
	var zero T
	d.state = Pending
	d.result = zero
	d.reject(reason)
}

// adopt takes ownership of children moved from a node whose continuation
// chained here: if this node is already settled they replay immediately,
// otherwise they wait for its settlement. The caller drops its own
// references.
func (d *Deferred[T]) adopt(children []*Deferred[T]) {
	switch d.state {
	case Fulfilled:
		for _, child := range children {
			child.resolve(d.result)
		}
	case Rejected:
		for _, child := range children {
			if d.rejectionConsumed {
				var zero T
				child.resolve(zero)
			} else {
				child.reject(d.reason)
			}
		}
	default:
		d.children = append(d.children, children...)
	}
}

func (d *Deferred[T]) trace(op string) *zerolog.Event {
	return zerolog.Ctx(d.ctx).Trace().
		Str("module", "promise").
		Str("op", op).
		Str("promise_id", d.id.String())
}
