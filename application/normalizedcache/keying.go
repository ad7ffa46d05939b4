package normalizedcache

import (
	"fmt"

	"gqlcache/domain/entity"
)

// Keyer implements the entity keying rules of spec §3.4: custom-keys map,
// then id/_id fallback, then a parent-scoped synthetic key for
// non-normalizable entities (SPEC_FULL §14.2 resolves the open question
// on synthetic-key shape).
type Keyer struct {
	customKeys map[string]string // typename -> field name
}

// NewKeyer constructs a Keyer with an optional user-supplied custom-keys
// map (typename -> id field name).
func NewKeyer(customKeys map[string]string) *Keyer {
	if customKeys == nil {
		customKeys = map[string]string{}
	}
	return &Keyer{customKeys: customKeys}
}

// EntityKey computes the entity key for a non-root object, given the
// parent entity key and the field key under which it was reached (used
// only when the object turns out to be non-normalizable). index/hasIndex
// identify the object's position within a list field, if any.
func (k *Keyer) EntityKey(typename string, obj map[string]interface{}, parentKey entity.Key, fieldKey entity.FieldKey, index int, hasIndex bool) (key entity.Key, normalizable bool) {
	if field, ok := k.customKeys[typename]; ok {
		if id, ok := obj[field]; ok && id != nil {
			return entity.Make(typename, id), true
		}
	}
	if id, ok := obj["id"]; ok && id != nil {
		return entity.Make(typename, id), true
	}
	if id, ok := obj["_id"]; ok && id != nil {
		return entity.Make(typename, id), true
	}

	if hasIndex {
		return entity.Key(fmt.Sprintf("%s.%s@%d", parentKey, fieldKey.Name, index)), false
	}
	return entity.Key(fmt.Sprintf("%s.%s", parentKey, fieldKey.Name)), false
}
