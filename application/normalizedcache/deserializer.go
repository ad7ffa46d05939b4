package normalizedcache

import (
	"gqlcache/domain/entity"
	"gqlcache/domain/selection"
	"gqlcache/pkg/gqlerrors"
)

// Deserializer walks a selection tree, reading from the store, producing
// a typed (generic JSON-shaped) response value and recording which
// entities were touched (spec §4.4.1). Grounded algorithmically on the
// original source's artemis-normalized-cache/src/store/deserializer.rs.
type Deserializer struct {
	store *Store
}

// NewDeserializer constructs a Deserializer bound to a store.
func NewDeserializer(store *Store) *Deserializer {
	return &Deserializer{store: store}
}

// Read walks selectors rooted at rootKey. A missing record or link
// aborts the walk with the internal Missing sentinel (§4.4.1 step 2);
// the dependency set accumulated so far is still returned so the caller
// can remember it for the re-run loop (§4.4.1 step 4) even on a miss.
func (d *Deserializer) Read(rootKey entity.Key, selectors []selection.Selector) (map[string]interface{}, map[entity.Key]struct{}, error) {
	deps := make(map[entity.Key]struct{})
	val, err := d.readEntity(rootKey, selectors, deps)
	return val, deps, err
}

func (d *Deserializer) readEntity(selfKey entity.Key, selectors []selection.Selector, deps map[entity.Key]struct{}) (map[string]interface{}, error) {
	deps[selfKey] = struct{}{}
	out := make(map[string]interface{}, len(selectors))

	for _, sel := range selectors {
		fk := sel.FieldKey()

		switch sel.Kind {
		case selection.Scalar:
			v, ok := d.store.ReadRecord(selfKey, fk)
			if !ok {
				return nil, gqlerrors.Missing(string(selfKey), fk.String())
			}
			out[sel.FieldName] = v

		case selection.Object:
			link, ok := d.store.ReadLink(selfKey, fk)
			if !ok {
				return nil, gqlerrors.Missing(string(selfKey), fk.String())
			}
			v, err := d.readLink(link, sel.Selection, deps)
			if err != nil {
				return nil, err
			}
			out[sel.FieldName] = v

		case selection.Union:
			link, ok := d.store.ReadLink(selfKey, fk)
			if !ok {
				return nil, gqlerrors.Missing(string(selfKey), fk.String())
			}
			v, err := d.readUnionLink(link, sel, deps)
			if err != nil {
				return nil, err
			}
			out[sel.FieldName] = v
		}
	}
	return out, nil
}

func (d *Deserializer) readLink(link entity.Link, selectors []selection.Selector, deps map[entity.Key]struct{}) (interface{}, error) {
	switch link.Kind {
	case entity.LinkNull:
		return nil, nil
	case entity.LinkSingle:
		return d.readEntity(link.Single, selectors, deps)
	case entity.LinkList:
		out := make([]interface{}, 0, len(link.List))
		for _, k := range link.List {
			child, err := d.readEntity(k, selectors, deps)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	}
	return nil, nil
}

func (d *Deserializer) readUnionLink(link entity.Link, sel selection.Selector, deps map[entity.Key]struct{}) (interface{}, error) {
	switch link.Kind {
	case entity.LinkNull:
		return nil, nil
	case entity.LinkSingle:
		return d.readUnionEntity(link.Single, sel, deps)
	case entity.LinkList:
		out := make([]interface{}, 0, len(link.List))
		for _, k := range link.List {
			child, err := d.readUnionEntity(k, sel, deps)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	}
	return nil, nil
}

func (d *Deserializer) readUnionEntity(key entity.Key, sel selection.Selector, deps map[entity.Key]struct{}) (interface{}, error) {
	typename, ok := d.store.ReadRecord(key, entity.FieldKey{Name: "__typename"})
	if !ok {
		// Invariant §3.3(2): every Union link target must carry a
		// __typename record. Its absence here is a programming error,
		// not a cache miss (§4.4.1: "Missing __typename is a
		// programming error, not Missing").
		return nil, gqlerrors.Programming("missing __typename record on union target " + string(key))
	}
	name, ok := typename.(string)
	if !ok || name == "" {
		return nil, gqlerrors.Programming("non-string __typename record on union target " + string(key))
	}
	innerSel := sel.ResolveSelection(name)
	return d.readEntity(key, innerSel, deps)
}
