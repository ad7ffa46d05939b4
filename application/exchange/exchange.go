// Package exchange defines the pipeline stage contract (spec §4.1) and
// the chain builder that composes stages bottom-up, grounded on the
// teacher's application/commands/bus Middleware/Pipeline composition
// (command_bus.go): "wrap next, apply in reverse order" becomes the
// Exchange chain builder here.
package exchange

import (
	"context"
	"fmt"

	"gqlcache/domain/operation"
)

// Exchange is a single pipeline stage (called "exchange" in spec §2).
// A stage may consult/update its own state, call the next exchange zero
// or more times, and transform the result — but must never mutate the
// operation observed by later stages after forwarding.
type Exchange interface {
	Run(ctx context.Context, op *operation.Operation) (*operation.Result, error)
}

// ExchangeFunc adapts a plain function to the Exchange interface,
// mirroring the teacher's CommandHandlerFunc/QueryHandlerFunc adapters.
type ExchangeFunc func(ctx context.Context, op *operation.Operation) (*operation.Result, error)

// Run implements Exchange.
func (f ExchangeFunc) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	return f(ctx, op)
}

// ClientHandle is the minimal callback surface stages receive so they
// can drive observables without depending on the concrete client type
// (spec §4.1).
type ClientHandle interface {
	// RerunQuery re-executes the stored operation for opKey and
	// broadcasts the fresh result to its subscribers.
	RerunQuery(ctx context.Context, opKey string)
	// PushResult delivers a result directly to opKey's subscribers
	// without re-executing. None of the built-in stages call it.
	PushResult(ctx context.Context, opKey string, result *operation.Result)
}

// Factory builds a stage given the next stage in the chain and the
// client handle. Chains are built by applying factories right-to-left,
// the same order the teacher's Pipeline.Execute applies middleware.
type Factory func(next Exchange, client ClientHandle) Exchange

// terminalExchange fails any operation that reaches it; it is the
// innermost link of every chain (spec §4.1: "the last factory wraps a
// terminal stage that fails any operation reaching it").
type terminalExchange struct{}

func (terminalExchange) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	return nil, fmt.Errorf("exchange: operation %s reached the terminal stage — no transport configured", op.Key)
}

// Build composes factories into a single Exchange, terminating in a
// failing stage. factories[0] is outermost (first to see the
// operation); the list is applied from the end inward, matching the
// teacher's Pipeline.Execute reverse-order middleware wrapping.
func Build(factories []Factory, client ClientHandle) Exchange {
	var chain Exchange = terminalExchange{}
	for i := len(factories) - 1; i >= 0; i-- {
		chain = factories[i](chain, client)
	}
	return chain
}
