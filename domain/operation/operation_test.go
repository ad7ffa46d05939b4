package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyIsDeterministicAndVariableSensitive(t *testing.T) {
	k1 := NewKey("query Q { x }", map[string]interface{}{"id": "1"})
	k2 := NewKey("query Q { x }", map[string]interface{}{"id": "1"})
	k3 := NewKey("query Q { x }", map[string]interface{}{"id": "2"})

	assert.Equal(t, k1, k2, "identical query+variables must hash identically")
	assert.NotEqual(t, k1, k3, "different variables must produce a different key")
}

func TestNewQueryKeyIgnoresVariables(t *testing.T) {
	q := NewQueryKey("query Q($id: ID!) { x(id: $id) }")
	assert.Equal(t, q, NewQueryKey("query Q($id: ID!) { x(id: $id) }"))
	assert.NotEqual(t, q, NewKey("query Q($id: ID!) { x(id: $id) }", map[string]interface{}{"id": "1"}),
		"query key and operation key are distinct identities (SPEC_FULL §14.1)")
}

func TestOperationValidate(t *testing.T) {
	t.Run("rejects missing query name", func(t *testing.T) {
		op := &Operation{
			Key:   "k1",
			Query: Query{Text: "query Q { x }"},
		}
		err := op.Validate()
		require.Error(t, err)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		op := &Operation{
			Query: Query{Text: "query Q { x }", OperationName: "Q"},
		}
		err := op.Validate()
		require.Error(t, err)
	})

	t.Run("accepts a fully populated operation", func(t *testing.T) {
		op := &Operation{
			Key:   "k1",
			Query: Query{Text: "query Q { x }", OperationName: "Q"},
		}
		assert.NoError(t, op.Validate())
	})
}

func TestResultClone(t *testing.T) {
	r := &Result{Key: "k1", Response: Response{Data: map[string]interface{}{"a": 1}}}
	cp := r.Clone()
	cp.Response.Debug.DidDedup = true

	assert.False(t, r.Response.Debug.DidDedup, "cloning must not mutate the original's DebugInfo")
	assert.Equal(t, r.Key, cp.Key)
}

func TestResponseHasErrors(t *testing.T) {
	var r Response
	assert.False(t, r.HasErrors())
	r.Errors = []GraphQLError{{Message: "boom"}}
	assert.True(t, r.HasErrors())
}
