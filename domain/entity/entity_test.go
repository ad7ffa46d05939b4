package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	assert.Equal(t, Key("Conference:1"), Make("Conference", "1"))
	assert.Equal(t, Key("Conference:42"), Make("Conference", 42))
}

func TestRootKey(t *testing.T) {
	assert.Equal(t, RootQuery, RootKey("Query"))
	assert.Equal(t, RootMutation, RootKey("Mutation"))
	assert.Equal(t, RootSubscription, RootKey("Subscription"))
}

func TestFieldKeyString(t *testing.T) {
	fk := FieldKey{Name: "conference", ArgsFingerprint: "id=1"}
	assert.Equal(t, "conference(id=1)", fk.String())

	bare := FieldKey{Name: "name"}
	assert.Equal(t, "name", bare.String())
}

func TestLinkConstructors(t *testing.T) {
	t.Run("null link has no keys", func(t *testing.T) {
		l := NullLink()
		assert.Equal(t, LinkNull, l.Kind)
		assert.Empty(t, l.Keys())
	})

	t.Run("single link returns its one key", func(t *testing.T) {
		l := SingleLink(Make("Conference", "1"))
		assert.Equal(t, LinkSingle, l.Kind)
		assert.Equal(t, []Key{Make("Conference", "1")}, l.Keys())
	})

	t.Run("list link returns all keys in order", func(t *testing.T) {
		keys := []Key{Make("Talk", "1"), Make("Talk", "2")}
		l := ListLink(keys)
		assert.Equal(t, LinkList, l.Kind)
		assert.Equal(t, keys, l.Keys())
	})
}
