package normalizedcache

import (
	"testing"

	"gqlcache/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestEntityKeyUsesIDFallback(t *testing.T) {
	keyer := NewKeyer(nil)
	obj := map[string]interface{}{"id": "1", "name": "GopherCon"}
	key, normalizable := keyer.EntityKey("Conference", obj, entity.RootQuery, entity.FieldKey{Name: "conference"}, 0, false)
	assert.True(t, normalizable)
	assert.Equal(t, entity.Make("Conference", "1"), key)
}

func TestEntityKeyUsesUnderscoreIDFallback(t *testing.T) {
	keyer := NewKeyer(nil)
	obj := map[string]interface{}{"_id": "99"}
	key, normalizable := keyer.EntityKey("Legacy", obj, entity.RootQuery, entity.FieldKey{Name: "legacy"}, 0, false)
	assert.True(t, normalizable)
	assert.Equal(t, entity.Make("Legacy", "99"), key)
}

func TestEntityKeyCustomKeyTakesPriorityOverID(t *testing.T) {
	keyer := NewKeyer(map[string]string{"Conference": "slug"})
	obj := map[string]interface{}{"id": "1", "slug": "goph-2026"}
	key, normalizable := keyer.EntityKey("Conference", obj, entity.RootQuery, entity.FieldKey{Name: "conference"}, 0, false)
	assert.True(t, normalizable)
	assert.Equal(t, entity.Make("Conference", "goph-2026"), key)
}

func TestEntityKeySyntheticForNonNormalizableScalarField(t *testing.T) {
	keyer := NewKeyer(nil)
	obj := map[string]interface{}{"city": "San Diego"} // no id
	parent := entity.Make("Conference", "1")
	fk := entity.FieldKey{Name: "venue"}

	key, normalizable := keyer.EntityKey("Venue", obj, parent, fk, 0, false)
	assert.False(t, normalizable)
	assert.Equal(t, entity.Key("Conference:1.venue"), key)
}

func TestEntityKeySyntheticForListPositionIncludesIndex(t *testing.T) {
	keyer := NewKeyer(nil)
	obj := map[string]interface{}{"label": "keynote"}
	parent := entity.Make("Conference", "1")
	fk := entity.FieldKey{Name: "sessions"}

	key0, _ := keyer.EntityKey("Session", obj, parent, fk, 0, true)
	key1, _ := keyer.EntityKey("Session", obj, parent, fk, 1, true)
	assert.Equal(t, entity.Key("Conference:1.sessions@0"), key0)
	assert.Equal(t, entity.Key("Conference:1.sessions@1"), key1)
	assert.NotEqual(t, key0, key1)
}
