package normalizedcache

import (
	"testing"

	"gqlcache/domain/entity"
	"gqlcache/domain/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func talkSelectors() []selection.Selector {
	return []selection.Selector{
		selection.ScalarField("id", ""),
		selection.ScalarField("title", ""),
	}
}

func conferenceSelectors() []selection.Selector {
	return []selection.Selector{
		selection.ScalarField("id", ""),
		selection.ScalarField("name", ""),
		selection.ObjectField("talks", "", "Talk", talkSelectors()),
	}
}

func TestSerializerDeserializerObjectRoundTrip(t *testing.T) {
	store := NewStore(nil)
	keyer := NewKeyer(nil)
	ser := NewSerializer(store, keyer)

	value := map[string]interface{}{
		"conference": map[string]interface{}{
			"id":   "1",
			"name": "GopherCon",
			"talks": []interface{}{
				map[string]interface{}{"id": "t1", "title": "Generics"},
				map[string]interface{}{"id": "t2", "title": "Concurrency"},
			},
		},
	}
	selectors := []selection.Selector{
		selection.ObjectField("conference", "id=1", "Conference", conferenceSelectors()),
	}

	writeDeps, err := ser.WriteRoot(entity.RootQuery, value, selectors, "", false)
	require.NoError(t, err)
	assert.Contains(t, writeDeps, entity.Make("Conference", "1"))
	assert.Contains(t, writeDeps, entity.Make("Talk", "t1"))
	assert.Contains(t, writeDeps, entity.Make("Talk", "t2"))

	deser := NewDeserializer(store)
	got, readDeps, err := deser.Read(entity.RootQuery, selectors)
	require.NoError(t, err)
	assert.Equal(t, writeDeps, readDeps)

	conf := got["conference"].(map[string]interface{})
	assert.Equal(t, "1", conf["id"])
	assert.Equal(t, "GopherCon", conf["name"])
	talks := conf["talks"].([]interface{})
	require.Len(t, talks, 2)
	assert.Equal(t, "Generics", talks[0].(map[string]interface{})["title"])
}

func TestDeserializerReportsMissingOnPartialWrite(t *testing.T) {
	store := NewStore(nil)
	keyer := NewKeyer(nil)
	ser := NewSerializer(store, keyer)

	value := map[string]interface{}{"conference": map[string]interface{}{"id": "1", "name": "GopherCon"}} // talks omitted
	selectors := []selection.Selector{
		selection.ObjectField("conference", "id=1", "Conference", conferenceSelectors()),
	}
	_, err := ser.WriteRoot(entity.RootQuery, value, selectors, "", false)
	require.NoError(t, err)

	deser := NewDeserializer(store)
	_, _, err = deser.Read(entity.RootQuery, selectors)
	assert.Error(t, err, "reading a field never written must surface the Missing sentinel")
}

func unionTalkSelection(typename string) []selection.Selector {
	switch typename {
	case "Keynote":
		return []selection.Selector{selection.ScalarField("id", ""), selection.ScalarField("speaker", "")}
	default:
		return []selection.Selector{selection.ScalarField("id", ""), selection.ScalarField("title", "")}
	}
}

func TestSerializerDeserializerUnionListRoundTrip(t *testing.T) {
	store := NewStore(nil)
	keyer := NewKeyer(nil)
	ser := NewSerializer(store, keyer)

	value := map[string]interface{}{
		"sessions": []interface{}{
			map[string]interface{}{"__typename": "Keynote", "id": "k1", "speaker": "Rob Pike"},
			map[string]interface{}{"__typename": "Session", "id": "s1", "title": "Error Handling"},
		},
	}
	selectors := []selection.Selector{
		selection.UnionField("sessions", "", unionTalkSelection),
	}

	_, err := ser.WriteRoot(entity.RootQuery, value, selectors, "", false)
	require.NoError(t, err)

	deser := NewDeserializer(store)
	got, _, err := deser.Read(entity.RootQuery, selectors)
	require.NoError(t, err)

	sessions := got["sessions"].([]interface{})
	require.Len(t, sessions, 2)
	assert.Equal(t, "Rob Pike", sessions[0].(map[string]interface{})["speaker"])
	assert.Equal(t, "Error Handling", sessions[1].(map[string]interface{})["title"])
}

func TestSerializerWritesOptimisticallyWithoutTouchingBase(t *testing.T) {
	store := NewStore(nil)
	keyer := NewKeyer(nil)
	ser := NewSerializer(store, keyer)

	value := map[string]interface{}{"addConference": map[string]interface{}{"id": "1", "name": "Pending Conf", "talks": []interface{}{}}}
	selectors := []selection.Selector{
		selection.ObjectField("addConference", "", "Conference", conferenceSelectors()),
	}
	_, err := ser.WriteRoot(entity.RootMutation, value, selectors, "m1", true)
	require.NoError(t, err)

	_, ok := store.ReadRecord(entity.Make("Conference", "1"), entity.FieldKey{Name: "name"})
	assert.True(t, ok, "an optimistic write must still be visible via ReadRecord (overlay-aware read)")

	store.ClearOptimisticLayer("m1")
	row := store.recordRowFor(entity.Make("Conference", "1"), false)
	assert.Nil(t, row, "clearing the overlay must leave no trace in the base table")
}
