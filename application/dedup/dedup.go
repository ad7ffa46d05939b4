// Package dedup implements the deduplication stage (spec §4.2):
// concurrent identical in-flight operations collapse onto a single
// downstream call. No direct teacher analog — the teacher's bus types
// dispatch every command independently — built fresh in the idiom of
// the teacher's mutex-guarded registries (command_bus.go's
// sync.RWMutex-guarded handler map).
package dedup

import (
	"context"
	"sync"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"

	"go.uber.org/zap"
)

type waiterResult struct {
	result *operation.Result
	err    error
}

type stage struct {
	next   exchange.Exchange
	client exchange.ClientHandle
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[string][]chan waiterResult
}

// NewFactory returns a stage factory for the dedup stage.
func NewFactory(logger *zap.Logger) exchange.Factory {
	return func(next exchange.Exchange, client exchange.ClientHandle) exchange.Exchange {
		return &stage{
			next:     next,
			client:   client,
			logger:   logging(logger),
			inflight: make(map[string][]chan waiterResult),
		}
	}
}

func logging(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named("dedup")
}

func (s *stage) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	if op.Meta.OperationType != operation.TypeQuery && op.Meta.OperationType != operation.TypeMutation {
		return s.next.Run(ctx, op)
	}

	s.mu.Lock()
	waiters, inflight := s.inflight[op.Key]
	if inflight {
		ch := make(chan waiterResult, 1)
		s.inflight[op.Key] = append(waiters, ch)
		s.mu.Unlock()

		select {
		case wr := <-ch:
			return wr.result, wr.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.inflight[op.Key] = nil
	s.mu.Unlock()

	result, err := s.next.Run(ctx, op)

	s.mu.Lock()
	pending := s.inflight[op.Key]
	delete(s.inflight, op.Key)
	s.mu.Unlock()

	s.logger.Debug("dedup resolved", zap.String("opKey", op.Key), zap.Int("waiters", len(pending)))

	for _, ch := range pending {
		if err != nil {
			ch <- waiterResult{err: err}
			continue
		}
		clone := result.Clone()
		clone.Response.Debug.DidDedup = true
		ch <- waiterResult{result: clone}
	}

	if result != nil {
		result.Response.Debug.DidDedup = false
	}
	return result, err
}
