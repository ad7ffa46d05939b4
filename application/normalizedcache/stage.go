// Stage orchestrates normalized-cache reads, writes, invalidations,
// optimistic layers, custom updaters, and re-runs (spec §4.4). Grounded
// algorithmically on the original source's
// artemis-normalized-cache/src/cache_exchange.rs, and structurally on
// the teacher's application/commands/bus CommandBus.Send /
// SendWithTransaction dispatch shape (validate → look up → execute →
// observe side effects).
package normalizedcache

import (
	"context"
	"fmt"

	"gqlcache/application/exchange"
	"gqlcache/domain/entity"
	"gqlcache/domain/operation"
	"gqlcache/domain/selection"
	"gqlcache/pkg/gqlerrors"
	"gqlcache/pkg/telemetry"

	"go.uber.org/zap"
)

type stage struct {
	store   *Store
	keyer   *Keyer
	next    exchange.Exchange
	client  exchange.ClientHandle
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewFactory returns a stage factory for the normalized cache stage. A
// nil metrics sink is fine (Metrics.Incr no-ops on a nil receiver).
func NewFactory(store *Store, keyer *Keyer, logger *zap.Logger, metrics *telemetry.Metrics) exchange.Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next exchange.Exchange, client exchange.ClientHandle) exchange.Exchange {
		return &stage{store: store, keyer: keyer, next: next, client: client, logger: logger.Named("normalizedcache"), metrics: metrics}
	}
}

func (s *stage) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	switch op.Meta.OperationType {
	case operation.TypeQuery:
		return s.runQuery(ctx, op)
	case operation.TypeMutation:
		return s.runMutation(ctx, op)
	default:
		return s.next.Run(ctx, op)
	}
}

// runQuery implements the read path (§4.4.1) and, on a miss, the write
// path (§4.4.2) over the network response.
func (s *stage) runQuery(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	rootKey := entity.RootQuery

	if op.Options.RequestPolicy != operation.NetworkOnly {
		deser := NewDeserializer(s.store)
		val, deps, err := deser.Read(rootKey, op.Descriptor.Selection())
		// The dependency set is remembered regardless of hit or miss so
		// the re-run loop can target this query later (§4.4.1 step 4).
		s.store.SetDependencies(op.Key, deps)

		if err == nil {
			s.metrics.Incr("CacheHit")
			s.logger.Debug("cache hit", zap.String("opKey", op.Key))
			return &operation.Result{
				Key:  op.Key,
				Meta: op.Meta,
				Response: operation.Response{
					Data:  val,
					Debug: operation.DebugInfo{Source: operation.SourceCache},
				},
			}, nil
		}
		if !gqlerrors.IsMissing(err) {
			return nil, err
		}
		s.metrics.Incr("CacheMiss")
		if op.Options.RequestPolicy == operation.CacheOnly {
			return nil, fmt.Errorf("normalizedcache: CacheOnly policy and no cached result for %s", op.Key)
		}
	}

	result, err := s.next.Run(ctx, op)
	if err != nil {
		return nil, err
	}
	if result.Response.HasErrors() {
		return result, nil
	}

	ser := NewSerializer(s.store, s.keyer)
	writeDeps, werr := ser.WriteRoot(rootKey, result.Response.Data, op.Descriptor.Selection(), "", false)
	if werr != nil {
		return nil, werr
	}
	s.store.SetDependencies(op.Key, writeDeps)
	s.scheduleReruns(ctx, op.Key, writeDeps)
	return result, nil
}

// runMutation implements optimistic layers (§4.4.4), invalidation
// (§4.4.3), the write path (§4.4.2 step 6), and custom updaters
// (§4.4.6).
func (s *stage) runMutation(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	ext := extractExtension(op)

	optimisticApplied := false
	var optDeps map[entity.Key]struct{}
	if ext != nil && ext.OptimisticResult != nil && op.Options.RequestPolicy != operation.NetworkOnly {
		if val, ok := ext.OptimisticResult(); ok {
			optimisticApplied = true
			optDeps = s.writeMutation(op, val, op.Key, true)
			if ext.Update != nil {
				handle := newStoreHandle(s.store, s.keyer, op.Key, true, optDeps)
				ext.Update(val, handle, entityKeyStrings(optDeps))
			}
			s.logger.Debug("optimistic layer applied", zap.String("opKey", op.Key))
			s.scheduleReruns(ctx, op.Key, optDeps)
		}
	}

	result, err := s.next.Run(ctx, op)

	if optimisticApplied {
		// Clearing happens whether the network succeeded or failed;
		// the rollback/real-write transition is driven below so
		// subscribers never observe an intermediate "empty" state
		// (§4.4.4).
		s.store.ClearOptimisticLayer(op.Key)
	}

	if err != nil {
		if optimisticApplied {
			s.scheduleReruns(ctx, op.Key, optDeps)
		}
		return nil, err
	}

	if result.Response.HasErrors() {
		if optimisticApplied {
			// Rollback: the overlay is already cleared above, so
			// subsequent reads fall through to the pre-mutation base
			// state. Re-run the subscribers of every entity the
			// optimistic write touched so they observe it (§4.4.4,
			// §8 I4).
			s.scheduleReruns(ctx, op.Key, optDeps)
		}
		return result, nil
	}

	deps := s.writeMutation(op, result.Response.Data, "", false)
	if ext != nil && ext.Update != nil {
		handle := newStoreHandle(s.store, s.keyer, "", false, deps)
		ext.Update(result.Response.Data, handle, entityKeyStrings(deps))
	}
	s.scheduleReruns(ctx, op.Key, deps)
	return result, nil
}

// writeMutation performs invalidate-then-write for a mutation result,
// into either the base tables or opKey's optimistic overlay, and
// returns the combined dependency set.
func (s *stage) writeMutation(op *operation.Operation, value interface{}, opKey string, optimistic bool) map[entity.Key]struct{} {
	deps := s.invalidate(op.Descriptor.Selection(), value, opKey, optimistic)

	ser := NewSerializer(s.store, s.keyer)
	writeDeps, err := ser.WriteRoot(entity.RootMutation, value, op.Descriptor.Selection(), opKey, optimistic)
	if err != nil {
		s.logger.Error("mutation write failed", zap.Error(err))
		return deps
	}
	for k := range writeDeps {
		deps[k] = struct{}{}
	}
	delete(deps, entity.RootMutation)
	return deps
}

// invalidate walks the selection tree against the mutation's response
// value (mirroring the serializer's entity-keying walk) and drops the
// existing stored content for every entity it visits, before the fresh
// write repopulates it (§4.4.3). Root entities are never added to the
// returned dependency set.
func (s *stage) invalidate(selectors []selection.Selector, value interface{}, opKey string, optimistic bool) map[entity.Key]struct{} {
	deps := make(map[entity.Key]struct{})
	obj, _ := value.(map[string]interface{})
	s.invalidateWalk(entity.RootMutation, obj, selectors, opKey, optimistic, deps)
	delete(deps, entity.RootMutation)
	return deps
}

func (s *stage) invalidateWalk(selfKey entity.Key, obj map[string]interface{}, selectors []selection.Selector, opKey string, optimistic bool, deps map[entity.Key]struct{}) {
	if obj == nil {
		return
	}
	for _, sel := range selectors {
		if sel.Kind == selection.Scalar {
			continue
		}
		fk := sel.FieldKey()
		raw, present := obj[sel.FieldName]
		if !present || raw == nil {
			continue
		}

		items := []interface{}{raw}
		isList := false
		if list, ok := raw.([]interface{}); ok {
			items = list
			isList = true
		}

		for i, item := range items {
			childObj, _ := item.(map[string]interface{})
			var childKey entity.Key
			var innerSel []selection.Selector
			if sel.Kind == selection.Union {
				typename, _ := childObj["__typename"].(string)
				if typename == "" {
					continue
				}
				innerSel = sel.ResolveSelection(typename)
				childKey, _ = s.keyer.EntityKey(typename, childObj, selfKey, fk, i, isList)
			} else {
				innerSel = sel.Selection
				childKey, _ = s.keyer.EntityKey(sel.Typename, childObj, selfKey, fk, i, isList)
			}
			deps[childKey] = struct{}{}
			s.dropEntity(childKey, opKey, optimistic)
			s.invalidateWalk(childKey, childObj, innerSel, opKey, optimistic, deps)
		}
	}
}

func (s *stage) dropEntity(e entity.Key, opKey string, optimistic bool) {
	for _, fk := range s.store.AllFieldKeys(e) {
		if optimistic {
			s.store.DeleteRecordOptimistic(opKey, e, fk)
			s.store.DeleteLinkOptimistic(opKey, e, fk)
			continue
		}
		s.store.DeleteRecord(e, fk)
		s.store.DeleteLink(e, fk)
	}
}

// scheduleReruns notifies every operation that depends on any key in
// deps, other than originatingOpKey (§4.4.5). Root keys are excluded
// from the lookup: every query's dependency set contains its own root
// key (RootQuery/RootMutation/RootSubscription), so leaving them in
// would make GetDependents resolve to essentially every subscribed
// query regardless of which entities actually changed.
func (s *stage) scheduleReruns(ctx context.Context, originatingOpKey string, deps map[entity.Key]struct{}) {
	affected := make(map[string]struct{})
	for e := range deps {
		if e == entity.RootQuery || e == entity.RootMutation || e == entity.RootSubscription {
			continue
		}
		for _, opKey := range s.store.GetDependents(e) {
			if opKey == originatingOpKey {
				continue
			}
			affected[opKey] = struct{}{}
		}
	}
	for opKey := range affected {
		s.metrics.Incr("RerunDispatched")
		s.client.RerunQuery(ctx, opKey)
	}
}

// dependenciesOf looks up opKey's own last-known dependency set in the
// store's dependency index.
func (s *stage) dependenciesOf(opKey string) map[entity.Key]struct{} {
	return s.store.DependenciesOf(opKey)
}

// entityKeyStrings copies deps into the string-keyed set that
// NormalizedCacheExtension.Update receives.
func entityKeyStrings(deps map[entity.Key]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(deps))
	for k := range deps {
		out[string(k)] = struct{}{}
	}
	return out
}

func extractExtension(op *operation.Operation) *operation.NormalizedCacheExtension {
	if op.Options.Extensions == nil {
		return nil
	}
	raw, ok := op.Options.Extensions[operation.NormalizedCacheExtensionKey]
	if !ok {
		return nil
	}
	ext, _ := raw.(*operation.NormalizedCacheExtension)
	return ext
}
