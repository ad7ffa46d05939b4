// Package telemetry provides ambient tracing and metrics for the
// pipeline, kept deliberately decoupled from cache correctness: nothing
// in application/normalizedcache depends on this package succeeding.
package telemetry

import (
	"context"
	"fmt"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray segment management around pipeline stage
// execution, adapted from the teacher's observability tracer.
type Tracer struct {
	serviceName string
}

// NewTracer creates a tracer scoped to a service name (e.g. "gqlcache").
func NewTracer(serviceName string) *Tracer {
	return &Tracer{serviceName: serviceName}
}

// StartSegment starts a new top-level trace segment.
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSegment(ctx, fmt.Sprintf("%s.%s", t.serviceName, name))
}

// StartSubsegment starts a subsegment within an existing segment.
func (t *Tracer) StartSubsegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSubsegment(ctx, name)
}

// TraceStage wraps a single Exchange.Run invocation with a subsegment,
// recording the returned error on the segment if non-nil.
func (t *Tracer) TraceStage(ctx context.Context, stageName string, fn func(context.Context) error) error {
	ctx, seg := t.StartSubsegment(ctx, stageName)
	defer seg.Close(nil)

	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}
	return err
}

// AddAnnotation adds an indexed annotation to the current segment, used
// to tag an operation key onto a trace for later lookup.
func (t *Tracer) AddAnnotation(ctx context.Context, key, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}

// TraceFactory wraps an exchange.Factory so every operation the stage
// handles runs inside a TraceStage subsegment named stageName,
// annotated with the operation key. A nil tracer returns factory
// unchanged, so tracing stays opt-in behind cfg.EnableTracing.
func TraceFactory(t *Tracer, stageName string, factory exchange.Factory) exchange.Factory {
	if t == nil {
		return factory
	}
	return func(next exchange.Exchange, client exchange.ClientHandle) exchange.Exchange {
		stage := factory(next, client)
		return exchange.ExchangeFunc(func(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
			var result *operation.Result
			err := t.TraceStage(ctx, stageName, func(ctx context.Context) error {
				t.AddAnnotation(ctx, "operationKey", op.Key)
				var runErr error
				result, runErr = stage.Run(ctx, op)
				return runErr
			})
			return result, err
		})
	}
}
