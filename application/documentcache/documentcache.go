// Package documentcache implements the document cache stage (spec §4.3):
// a coarser alternative to the normalized cache, key→result memoization
// with type-set invalidation. Directly grounded on the teacher's
// application/queries/bus CachingMiddleware (cache key via
// fmt.Sprintf("%T:%+v", ...), a Get/Set Cache interface) generalized to
// add the type-set invalidation this stage requires.
package documentcache

import (
	"context"
	"sync"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"

	"go.uber.org/zap"
)

type stage struct {
	next   exchange.Exchange
	client exchange.ClientHandle
	logger *zap.Logger

	mu             sync.RWMutex
	resultCache    map[string]*operation.Result
	operationCache map[string]map[string]struct{} // typename -> set<opKey>
}

// NewFactory returns a stage factory for the document cache stage.
func NewFactory(logger *zap.Logger) exchange.Factory {
	return func(next exchange.Exchange, client exchange.ClientHandle) exchange.Exchange {
		if logger == nil {
			logger = zap.NewNop()
		}
		return &stage{
			next:           next,
			client:         client,
			logger:         logger.Named("documentcache"),
			resultCache:    make(map[string]*operation.Result),
			operationCache: make(map[string]map[string]struct{}),
		}
	}
}

func (s *stage) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	switch op.Options.RequestPolicy {
	case operation.NetworkOnly:
		return s.forwardAndCache(ctx, op)
	case operation.CacheOnly:
		s.mu.RLock()
		cached, ok := s.resultCache[op.Key]
		s.mu.RUnlock()
		if !ok {
			return nil, errCacheOnlyMiss(op.Key)
		}
		return cached, nil
	}

	if op.Meta.OperationType == operation.TypeQuery {
		s.mu.RLock()
		cached, ok := s.resultCache[op.Key]
		s.mu.RUnlock()
		if ok {
			s.logger.Debug("document cache hit", zap.String("opKey", op.Key))
			hit := cached.Clone()
			hit.Response.Debug.Source = operation.SourceCache
			return hit, nil
		}
	}

	return s.forwardAndCache(ctx, op)
}

func (s *stage) forwardAndCache(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	if op.Meta.OperationType == operation.TypeMutation {
		// Evict before forwarding too: reruns dispatched downstream while
		// the mutation is in flight re-enter this stage and must not be
		// answered from entries the mutation is about to make stale.
		s.invalidate(op)
	}
	result, err := s.next.Run(ctx, op)
	if err != nil || result == nil || result.Response.HasErrors() {
		return result, err
	}

	switch op.Meta.OperationType {
	case operation.TypeQuery:
		if result.Response.Debug.Source == operation.SourceCache {
			// Answered by a cache further down; only network results
			// are memoized here.
			return result, nil
		}
		s.mu.Lock()
		s.resultCache[op.Key] = result
		for _, typename := range op.Meta.InvolvedTypes {
			if s.operationCache[typename] == nil {
				s.operationCache[typename] = make(map[string]struct{})
			}
			s.operationCache[typename][op.Key] = struct{}{}
		}
		s.mu.Unlock()
	case operation.TypeMutation:
		s.invalidate(op)
	}
	return result, nil
}

// invalidate evicts every query result registered under any of the
// mutation's involved types, plus the mutation's own key. It runs when
// a mutation is forwarded and again when it succeeds.
func (s *stage) invalidate(op *operation.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	toEvict := map[string]struct{}{op.Key: {}}
	for _, typename := range op.Meta.InvolvedTypes {
		for opKey := range s.operationCache[typename] {
			toEvict[opKey] = struct{}{}
		}
	}
	for opKey := range toEvict {
		delete(s.resultCache, opKey)
	}
	s.logger.Debug("document cache invalidated", zap.Int("evicted", len(toEvict)))
}

type cacheOnlyMissError struct{ opKey string }

func (e *cacheOnlyMissError) Error() string {
	return "documentcache: CacheOnly policy and no cached result for " + e.opKey
}

func errCacheOnlyMiss(opKey string) error { return &cacheOnlyMissError{opKey: opKey} }
