// Package normalizedcache implements the normalized cache stage and its
// Entity Store (spec §3.3, §4.4, §4.5): a concurrent map holding
// records and links tables, optimistic overlays, and dependency
// bookkeeping. Grounded structurally on domain/core/aggregates/graph.go
// (sharded map-of-maps storage with defensive-copy accessors) from the
// teacher, and algorithmically on the original source's
// artemis-normalized-cache/src/store/store.rs.
package normalizedcache

import (
	"sync"

	"gqlcache/domain/entity"

	"go.uber.org/zap"
)

type recordRow struct {
	mu     sync.Mutex
	fields map[entity.FieldKey]interface{}
}

type linkRow struct {
	mu     sync.Mutex
	fields map[entity.FieldKey]entity.Link
}

// fieldSlot distinguishes "not present" from "present with this value"
// inside an optimistic overlay, so invalidation within an overlay can
// be represented as an explicit tombstone rather than a missing key.
type fieldSlot struct {
	deleted bool
	value   interface{}
}

type linkSlot struct {
	deleted bool
	link    entity.Link
}

type overlay struct {
	records map[entity.Key]map[entity.FieldKey]fieldSlot
	links   map[entity.Key]map[entity.FieldKey]linkSlot
}

func newOverlay() *overlay {
	return &overlay{
		records: make(map[entity.Key]map[entity.FieldKey]fieldSlot),
		links:   make(map[entity.Key]map[entity.FieldKey]linkSlot),
	}
}

// Store is the process-local concurrent Entity Store (§4.5).
type Store struct {
	logger *zap.Logger

	structMu sync.RWMutex // guards the records/links top-level maps
	records  map[entity.Key]*recordRow
	links    map[entity.Key]*linkRow

	depMu      sync.RWMutex
	depIndex   map[string]map[entity.Key]struct{} // opKey -> entity keys it depends on
	depInverse map[entity.Key]map[string]struct{} // entity key -> opKeys depending on it

	overlayMu       sync.RWMutex
	optimisticOrder []string // LIFO; index 0 is oldest, last is newest
	optimisticLayer map[string]*overlay
}

// NewStore constructs an empty Entity Store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:          logger.Named("normalizedcache.store"),
		records:         make(map[entity.Key]*recordRow),
		links:           make(map[entity.Key]*linkRow),
		depIndex:        make(map[string]map[entity.Key]struct{}),
		depInverse:      make(map[entity.Key]map[string]struct{}),
		optimisticLayer: make(map[string]*overlay),
	}
}

func (s *Store) recordRowFor(key entity.Key, create bool) *recordRow {
	s.structMu.RLock()
	row, ok := s.records[key]
	s.structMu.RUnlock()
	if ok || !create {
		return row
	}
	s.structMu.Lock()
	row, ok = s.records[key]
	if !ok {
		row = &recordRow{fields: make(map[entity.FieldKey]interface{})}
		s.records[key] = row
	}
	s.structMu.Unlock()
	return row
}

func (s *Store) linkRowFor(key entity.Key, create bool) *linkRow {
	s.structMu.RLock()
	row, ok := s.links[key]
	s.structMu.RUnlock()
	if ok || !create {
		return row
	}
	s.structMu.Lock()
	row, ok = s.links[key]
	if !ok {
		row = &linkRow{fields: make(map[entity.FieldKey]entity.Link)}
		s.links[key] = row
	}
	s.structMu.Unlock()
	return row
}

// ReadRecord reads a scalar field, consulting the optimistic overlay
// stack newest-first before falling back to the base table.
func (s *Store) ReadRecord(e entity.Key, f entity.FieldKey) (interface{}, bool) {
	if v, ok, found := s.readOverlayRecord(e, f); found {
		return v, ok
	}
	row := s.recordRowFor(e, false)
	if row == nil {
		return nil, false
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	v, ok := row.fields[f]
	return v, ok
}

// readOverlayRecord scans overlays newest-first. The third return value
// reports whether any overlay had an opinion (set or tombstoned) about
// this slot, so the caller knows whether to fall through to the base
// table.
func (s *Store) readOverlayRecord(e entity.Key, f entity.FieldKey) (interface{}, bool, bool) {
	s.overlayMu.RLock()
	defer s.overlayMu.RUnlock()
	for i := len(s.optimisticOrder) - 1; i >= 0; i-- {
		layer := s.optimisticLayer[s.optimisticOrder[i]]
		if layer == nil {
			continue
		}
		if fields, ok := layer.records[e]; ok {
			if slot, ok := fields[f]; ok {
				if slot.deleted {
					return nil, false, true
				}
				return slot.value, true, true
			}
		}
	}
	return nil, false, false
}

// ReadLink reads a link field, consulting overlays newest-first.
func (s *Store) ReadLink(e entity.Key, f entity.FieldKey) (entity.Link, bool) {
	if l, ok, found := s.readOverlayLink(e, f); found {
		return l, ok
	}
	row := s.linkRowFor(e, false)
	if row == nil {
		return entity.Link{}, false
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	l, ok := row.fields[f]
	return l, ok
}

func (s *Store) readOverlayLink(e entity.Key, f entity.FieldKey) (entity.Link, bool, bool) {
	s.overlayMu.RLock()
	defer s.overlayMu.RUnlock()
	for i := len(s.optimisticOrder) - 1; i >= 0; i-- {
		layer := s.optimisticLayer[s.optimisticOrder[i]]
		if layer == nil {
			continue
		}
		if fields, ok := layer.links[e]; ok {
			if slot, ok := fields[f]; ok {
				if slot.deleted {
					return entity.Link{}, false, true
				}
				return slot.link, true, true
			}
		}
	}
	return entity.Link{}, false, false
}

// WriteRecord writes a scalar field to the base table.
func (s *Store) WriteRecord(e entity.Key, f entity.FieldKey, v interface{}) {
	row := s.recordRowFor(e, true)
	row.mu.Lock()
	row.fields[f] = v
	row.mu.Unlock()
}

// WriteLink writes a link field to the base table.
func (s *Store) WriteLink(e entity.Key, f entity.FieldKey, l entity.Link) {
	row := s.linkRowFor(e, true)
	row.mu.Lock()
	row.fields[f] = l
	row.mu.Unlock()
}

// DeleteRecord drops a record from the base table (used by invalidation
// outside an optimistic layer).
func (s *Store) DeleteRecord(e entity.Key, f entity.FieldKey) {
	row := s.recordRowFor(e, false)
	if row == nil {
		return
	}
	row.mu.Lock()
	delete(row.fields, f)
	row.mu.Unlock()
}

// DeleteLink drops a link from the base table.
func (s *Store) DeleteLink(e entity.Key, f entity.FieldKey) {
	row := s.linkRowFor(e, false)
	if row == nil {
		return
	}
	row.mu.Lock()
	delete(row.fields, f)
	row.mu.Unlock()
}

// AllFieldKeys returns every field key currently recorded (records or
// links) for an entity, used by invalidation and GC.
func (s *Store) AllFieldKeys(e entity.Key) []entity.FieldKey {
	seen := make(map[entity.FieldKey]struct{})
	if row := s.recordRowFor(e, false); row != nil {
		row.mu.Lock()
		for f := range row.fields {
			seen[f] = struct{}{}
		}
		row.mu.Unlock()
	}
	if row := s.linkRowFor(e, false); row != nil {
		row.mu.Lock()
		for f := range row.fields {
			seen[f] = struct{}{}
		}
		row.mu.Unlock()
	}
	out := make([]entity.FieldKey, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	return out
}

// ensureOptimisticLayer returns (creating if needed) the overlay for
// opKey, pushing it onto the LIFO stack on first use.
func (s *Store) ensureOptimisticLayer(opKey string) *overlay {
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	layer, ok := s.optimisticLayer[opKey]
	if !ok {
		layer = newOverlay()
		s.optimisticLayer[opKey] = layer
		s.optimisticOrder = append(s.optimisticOrder, opKey)
	}
	return layer
}

// WriteRecordOptimistic writes a scalar field into opKey's overlay.
func (s *Store) WriteRecordOptimistic(opKey string, e entity.Key, f entity.FieldKey, v interface{}) {
	layer := s.ensureOptimisticLayer(opKey)
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	if layer.records[e] == nil {
		layer.records[e] = make(map[entity.FieldKey]fieldSlot)
	}
	layer.records[e][f] = fieldSlot{value: v}
}

// WriteLinkOptimistic writes a link field into opKey's overlay.
func (s *Store) WriteLinkOptimistic(opKey string, e entity.Key, f entity.FieldKey, l entity.Link) {
	layer := s.ensureOptimisticLayer(opKey)
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	if layer.links[e] == nil {
		layer.links[e] = make(map[entity.FieldKey]linkSlot)
	}
	layer.links[e][f] = linkSlot{link: l}
}

// DeleteRecordOptimistic tombstones a scalar field within opKey's
// overlay (used by optimistic-path invalidation, §4.4.3/§4.4.4).
func (s *Store) DeleteRecordOptimistic(opKey string, e entity.Key, f entity.FieldKey) {
	layer := s.ensureOptimisticLayer(opKey)
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	if layer.records[e] == nil {
		layer.records[e] = make(map[entity.FieldKey]fieldSlot)
	}
	layer.records[e][f] = fieldSlot{deleted: true}
}

// DeleteLinkOptimistic tombstones a link field within opKey's overlay.
func (s *Store) DeleteLinkOptimistic(opKey string, e entity.Key, f entity.FieldKey) {
	layer := s.ensureOptimisticLayer(opKey)
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	if layer.links[e] == nil {
		layer.links[e] = make(map[entity.FieldKey]linkSlot)
	}
	layer.links[e][f] = linkSlot{deleted: true}
}

// ClearOptimisticLayer drops opKey's overlay entirely. Idempotent:
// clearing twice is equivalent to clearing once (spec §8 round-trip
// laws).
func (s *Store) ClearOptimisticLayer(opKey string) {
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	if _, ok := s.optimisticLayer[opKey]; !ok {
		return
	}
	delete(s.optimisticLayer, opKey)
	for i, k := range s.optimisticOrder {
		if k == opKey {
			s.optimisticOrder = append(s.optimisticOrder[:i], s.optimisticOrder[i+1:]...)
			break
		}
	}
}

// SetDependencies replaces the dependency set for opKey, maintaining
// the bidirectional index consistency required by invariant I6.
func (s *Store) SetDependencies(opKey string, deps map[entity.Key]struct{}) {
	s.depMu.Lock()
	defer s.depMu.Unlock()

	if old, ok := s.depIndex[opKey]; ok {
		for e := range old {
			if inv, ok := s.depInverse[e]; ok {
				delete(inv, opKey)
				if len(inv) == 0 {
					delete(s.depInverse, e)
				}
			}
		}
	}

	cp := make(map[entity.Key]struct{}, len(deps))
	for e := range deps {
		cp[e] = struct{}{}
		if s.depInverse[e] == nil {
			s.depInverse[e] = make(map[string]struct{})
		}
		s.depInverse[e][opKey] = struct{}{}
	}
	s.depIndex[opKey] = cp
}

// DependenciesOf returns opKey's last-known dependency set.
func (s *Store) DependenciesOf(opKey string) map[entity.Key]struct{} {
	s.depMu.RLock()
	defer s.depMu.RUnlock()
	out := make(map[entity.Key]struct{}, len(s.depIndex[opKey]))
	for e := range s.depIndex[opKey] {
		out[e] = struct{}{}
	}
	return out
}

// GetDependents returns the opKeys whose last dependency set included e.
func (s *Store) GetDependents(e entity.Key) []string {
	s.depMu.RLock()
	defer s.depMu.RUnlock()
	inv := s.depInverse[e]
	out := make([]string, 0, len(inv))
	for opKey := range inv {
		out = append(out, opKey)
	}
	return out
}

// DropOperation removes opKey from the dependency index entirely.
// Closing a client subscription does not call it.
func (s *Store) DropOperation(opKey string) {
	s.SetDependencies(opKey, nil)
	s.depMu.Lock()
	delete(s.depIndex, opKey)
	s.depMu.Unlock()
}

// CollectGarbage drops any entity that is no longer reachable from any
// live operation's dependency set and carries no live link pointing to
// it. Best-effort: it scans the current base tables once; callers may
// schedule it periodically (§4.5).
func (s *Store) CollectGarbage() int {
	s.depMu.RLock()
	reachable := make(map[entity.Key]struct{}, len(s.depInverse))
	for e, ops := range s.depInverse {
		if len(ops) > 0 {
			reachable[e] = struct{}{}
		}
	}
	s.depMu.RUnlock()

	s.structMu.Lock()
	defer s.structMu.Unlock()

	// An entity is also reachable if some other live entity's link
	// field points to it; compute the referenced set first.
	referenced := make(map[entity.Key]struct{})
	for _, row := range s.links {
		row.mu.Lock()
		for _, l := range row.fields {
			for _, k := range l.Keys() {
				referenced[k] = struct{}{}
			}
		}
		row.mu.Unlock()
	}

	dropped := 0
	for e := range s.records {
		if e == entity.RootQuery || e == entity.RootMutation || e == entity.RootSubscription {
			continue
		}
		_, dep := reachable[e]
		_, ref := referenced[e]
		if !dep && !ref {
			delete(s.records, e)
			delete(s.links, e)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Debug("garbage collected", zap.Int("dropped", dropped))
	}
	return dropped
}
