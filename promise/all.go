package promise

import (
	"context"

	"github.com/rs/zerolog"
)

// fulfillmentAggregator tracks completion of the inputs to one All call.
type fulfillmentAggregator[T any] struct {
	count   int
	target  int
	root    *Deferred[[]T]
	results []T
}

// All returns a node that fulfills with the input results in input order
// once every input has fulfilled, or rejects with the first failure among
// the inputs. Later failures never change the root's reason. An empty input
// fulfills immediately with an empty slice.
func All[T any](ctx context.Context, inputs []*Deferred[T]) *Deferred[[]T] {
	agg := &fulfillmentAggregator[T]{
		target:  len(inputs),
		root:    newDeferred[[]T](ctx),
		results: make([]T, len(inputs)),
	}

	zerolog.Ctx(agg.root.ctx).Trace().
		Str("module", "promise.all").
		Str("promise_id", agg.root.id.String()).
		Int("target", agg.target).
		Msg("aggregating")

	if agg.target == 0 {
		agg.root.resolve(agg.results)
		return agg.root
	}

	for i, input := range inputs {
		idx := i
		input.Then(
			func(val T) Outcome[T] {
				agg.fulfilled(idx, val)
				return Empty[T]()
			},
			func(reason error) {
				agg.rejected(reason)
			},
		)
	}
	return agg.root
}

func (a *fulfillmentAggregator[T]) fulfilled(idx int, val T) {
	a.results[idx] = val
	a.count++
	if a.count == a.target {
		a.root.resolve(a.results)
	}
}

func (a *fulfillmentAggregator[T]) rejected(reason error) {
	// first failure wins
	if a.root.state != Pending {
		return
	}
	a.root.reject(reason)
}
