package normalizedcache

import (
	"gqlcache/domain/entity"
	"gqlcache/domain/selection"
	"gqlcache/pkg/gqlerrors"
)

// Serializer walks a typed response value guided by a selection tree,
// producing entity writes into the store and returning the accumulated
// dependency set (spec §4.4.2). Grounded algorithmically on the
// original source's artemis-normalized-cache/src/store/serializer.rs;
// unlike that source it resolves list-of-union fields fully rather than
// leaving them a todo (SPEC_FULL §14.3).
//
// The response value here is a generic JSON tree (map[string]interface{}
// / []interface{} / scalar), since the transport decodes JSON directly
// into that shape. Because the whole value is already materialized
// before the walk starts, entity keys are computed directly from the
// object rather than buffered-until-discovered as a streaming visitor
// would (spec §4.4.2 step 3 describes the streaming variant of this
// same contract).
type Serializer struct {
	store *Store
	keyer *Keyer
}

// NewSerializer constructs a Serializer bound to a store and keyer.
func NewSerializer(store *Store, keyer *Keyer) *Serializer {
	return &Serializer{store: store, keyer: keyer}
}

// WriteRoot walks value (expected to be a map[string]interface{}) rooted
// at rootKey, writing into the base tables or, if opKey is non-empty and
// optimistic is true, into that operation's optimistic overlay. It
// returns the set of entity keys touched.
func (s *Serializer) WriteRoot(rootKey entity.Key, value interface{}, selectors []selection.Selector, opKey string, optimistic bool) (map[entity.Key]struct{}, error) {
	deps := make(map[entity.Key]struct{})
	obj, _ := value.(map[string]interface{})
	if err := s.walkEntity(rootKey, obj, selectors, opKey, optimistic, deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func (s *Serializer) walkEntity(selfKey entity.Key, obj map[string]interface{}, selectors []selection.Selector, opKey string, optimistic bool, deps map[entity.Key]struct{}) error {
	deps[selfKey] = struct{}{}
	if obj == nil {
		return nil
	}

	for _, sel := range selectors {
		fk := sel.FieldKey()
		raw, present := obj[sel.FieldName]
		if !present {
			continue
		}

		switch sel.Kind {
		case selection.Scalar:
			s.writeRecord(selfKey, fk, raw, opKey, optimistic)

		case selection.Object:
			if raw == nil {
				s.writeLink(selfKey, fk, entity.NullLink(), opKey, optimistic)
				continue
			}
			if list, ok := raw.([]interface{}); ok {
				keys := make([]entity.Key, 0, len(list))
				for i, item := range list {
					childObj, _ := item.(map[string]interface{})
					childKey, _ := s.keyer.EntityKey(sel.Typename, childObj, selfKey, fk, i, true)
					if err := s.walkEntity(childKey, childObj, sel.Selection, opKey, optimistic, deps); err != nil {
						return err
					}
					keys = append(keys, childKey)
				}
				s.writeLink(selfKey, fk, entity.ListLink(keys), opKey, optimistic)
				continue
			}
			childObj, _ := raw.(map[string]interface{})
			childKey, _ := s.keyer.EntityKey(sel.Typename, childObj, selfKey, fk, 0, false)
			if err := s.walkEntity(childKey, childObj, sel.Selection, opKey, optimistic, deps); err != nil {
				return err
			}
			s.writeLink(selfKey, fk, entity.SingleLink(childKey), opKey, optimistic)

		case selection.Union:
			if raw == nil {
				s.writeLink(selfKey, fk, entity.NullLink(), opKey, optimistic)
				continue
			}
			if list, ok := raw.([]interface{}); ok {
				keys := make([]entity.Key, 0, len(list))
				for i, item := range list {
					childObj, _ := item.(map[string]interface{})
					childKey, innerSel, err := s.resolveUnion(sel, childObj, selfKey, fk, i, true, opKey, optimistic)
					if err != nil {
						return err
					}
					if err := s.walkEntity(childKey, childObj, innerSel, opKey, optimistic, deps); err != nil {
						return err
					}
					keys = append(keys, childKey)
				}
				s.writeLink(selfKey, fk, entity.ListLink(keys), opKey, optimistic)
				continue
			}
			childObj, _ := raw.(map[string]interface{})
			childKey, innerSel, err := s.resolveUnion(sel, childObj, selfKey, fk, 0, false, opKey, optimistic)
			if err != nil {
				return err
			}
			if err := s.walkEntity(childKey, childObj, innerSel, opKey, optimistic, deps); err != nil {
				return err
			}
			s.writeLink(selfKey, fk, entity.SingleLink(childKey), opKey, optimistic)
		}
	}
	return nil
}

func (s *Serializer) resolveUnion(sel selection.Selector, obj map[string]interface{}, parentKey entity.Key, fk entity.FieldKey, index int, hasIndex bool, opKey string, optimistic bool) (entity.Key, []selection.Selector, error) {
	typename, ok := obj["__typename"].(string)
	if !ok || typename == "" {
		return "", nil, gqlerrors.Programming("missing __typename on union field " + fk.String())
	}
	innerSel := sel.ResolveSelection(typename)
	childKey, _ := s.keyer.EntityKey(typename, obj, parentKey, fk, index, hasIndex)
	s.writeRecord(childKey, entity.FieldKey{Name: "__typename"}, typename, opKey, optimistic)
	return childKey, innerSel, nil
}

func (s *Serializer) writeRecord(e entity.Key, f entity.FieldKey, v interface{}, opKey string, optimistic bool) {
	if optimistic {
		s.store.WriteRecordOptimistic(opKey, e, f, v)
		return
	}
	s.store.WriteRecord(e, f, v)
}

func (s *Serializer) writeLink(e entity.Key, f entity.FieldKey, l entity.Link, opKey string, optimistic bool) {
	if optimistic {
		s.store.WriteLinkOptimistic(opKey, e, f, l)
		return
	}
	s.store.WriteLink(e, f, l)
}
