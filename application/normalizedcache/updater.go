package normalizedcache

import (
	"gqlcache/domain/entity"
	"gqlcache/domain/selection"
)

// Updater is the user-supplied closure a mutation's update extension
// provides for one target query (spec §4.4.6). current is nil with
// found=false if the target query isn't presently cached; write=false
// means leave the store untouched.
type Updater func(current interface{}, found bool) (next interface{}, write bool)

// StoreHandle is the lightweight store handle passed to a mutation's
// update closure (§4.4.6, §6.3). It reads a target query from cache (no
// network), lets the closure compute a new value, and — if the closure
// opts to write — writes it back, contributing to the mutation's
// dependency set so re-runs include the updated neighbor.
type StoreHandle struct {
	store      *Store
	keyer      *Keyer
	opKey      string
	optimistic bool
	deps       map[entity.Key]struct{}
}

func newStoreHandle(store *Store, keyer *Keyer, opKey string, optimistic bool, deps map[entity.Key]struct{}) *StoreHandle {
	return &StoreHandle{store: store, keyer: keyer, opKey: opKey, optimistic: optimistic, deps: deps}
}

// UpdateQuery reads desc's cached result, runs fn over it, and writes
// the result back if fn requests a write.
func (h *StoreHandle) UpdateQuery(desc selection.Descriptor, fn Updater) error {
	rootKey := entity.RootKey(desc.OperationType())
	deser := NewDeserializer(h.store)
	current, _, err := deser.Read(rootKey, desc.Selection())

	found := err == nil
	var currentVal interface{}
	if found {
		currentVal = current
	}

	next, write := fn(currentVal, found)
	if !write {
		return nil
	}

	ser := NewSerializer(h.store, h.keyer)
	writeDeps, err := ser.WriteRoot(rootKey, next, desc.Selection(), h.opKey, h.optimistic)
	if err != nil {
		return err
	}
	for k := range writeDeps {
		h.deps[k] = struct{}{}
	}
	return nil
}
