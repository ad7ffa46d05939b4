package normalizedcache

import (
	"testing"

	"gqlcache/domain/entity"
	"gqlcache/domain/operation"
	"gqlcache/domain/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listDescriptor struct {
	selectors []selection.Selector
}

func (d *listDescriptor) OperationName() string                        { return "GetConferences" }
func (d *listDescriptor) QueryText() string                            { return "query GetConferences { conferences { id name } }" }
func (d *listDescriptor) OperationType() string                        { return string(operation.TypeQuery) }
func (d *listDescriptor) InvolvedTypes() []string                      { return []string{"Conference"} }
func (d *listDescriptor) BuildVariables() (map[string]interface{}, error) { return map[string]interface{}{}, nil }
func (d *listDescriptor) Selection() []selection.Selector               { return d.selectors }
func (d *listDescriptor) NewResponse() interface{}                     { return map[string]interface{}{} }

func TestUpdateQueryAppendsToCachedList(t *testing.T) {
	store := NewStore(nil)
	keyer := NewKeyer(nil)

	inner := []selection.Selector{selection.ScalarField("id", ""), selection.ScalarField("name", "")}
	desc := &listDescriptor{selectors: []selection.Selector{
		selection.ObjectField("conferences", "", "Conference", inner),
	}}

	// Seed the cache with one existing conference in the list.
	ser := NewSerializer(store, keyer)
	_, err := ser.WriteRoot(entity.RootQuery, map[string]interface{}{
		"conferences": []interface{}{map[string]interface{}{"id": "1", "name": "GopherCon"}},
	}, desc.Selection(), "", false)
	require.NoError(t, err)

	handle := newStoreHandle(store, keyer, "", false, make(map[entity.Key]struct{}))
	err = handle.UpdateQuery(desc, func(current interface{}, found bool) (interface{}, bool) {
		require.True(t, found)
		list := current.(map[string]interface{})["conferences"].([]interface{})
		list = append(list, map[string]interface{}{"id": "2", "name": "KubeCon"})
		return map[string]interface{}{"conferences": list}, true
	})
	require.NoError(t, err)

	deser := NewDeserializer(store)
	got, _, err := deser.Read(entity.RootQuery, desc.Selection())
	require.NoError(t, err)
	list := got["conferences"].([]interface{})
	assert.Len(t, list, 2)
	assert.Contains(t, handle.deps, entity.Make("Conference", "2"))
}

func TestUpdateQuerySkipsWriteWhenClosureDeclines(t *testing.T) {
	store := NewStore(nil)
	keyer := NewKeyer(nil)
	desc := &listDescriptor{selectors: []selection.Selector{
		selection.ObjectField("conferences", "", "Conference", []selection.Selector{selection.ScalarField("id", "")}),
	}}

	handle := newStoreHandle(store, keyer, "", false, make(map[entity.Key]struct{}))
	err := handle.UpdateQuery(desc, func(current interface{}, found bool) (interface{}, bool) {
		assert.False(t, found, "target query was never cached")
		return nil, false
	})
	require.NoError(t, err)
	assert.Empty(t, handle.deps)
}
