package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gqlcache/domain/operation"
	"gqlcache/domain/selection"
	"gqlcache/pkg/gqlerrors"
	"gqlcache/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDescriptor struct {
	variables map[string]interface{}
}

func (d *staticDescriptor) OperationName() string                          { return "GetConference" }
func (d *staticDescriptor) QueryText() string                              { return "query GetConference($id: ID!) { conference(id: $id) { id } }" }
func (d *staticDescriptor) OperationType() string                          { return string(operation.TypeQuery) }
func (d *staticDescriptor) InvolvedTypes() []string                        { return []string{"Conference"} }
func (d *staticDescriptor) BuildVariables() (map[string]interface{}, error) { return d.variables, nil }
func (d *staticDescriptor) Selection() []selection.Selector                { return nil }
func (d *staticDescriptor) NewResponse() interface{}                       { return map[string]interface{}{} }

func newOp(url string) *operation.Operation {
	return &operation.Operation{
		Key:  "q1",
		Meta: operation.Meta{OperationType: operation.TypeQuery},
		Query: operation.Query{
			Text:          "query GetConference($id: ID!) { conference(id: $id) { id } }",
			OperationName: "GetConference",
		},
		Options:    operation.Options{URL: url},
		Descriptor: &staticDescriptor{variables: map[string]interface{}{"id": "1"}},
	}
}

func TestTransportRoundTripsSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GetConference", body["operationName"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"conference": map[string]interface{}{"id": "1"}},
		})
	}))
	defer srv.Close()

	factory := NewFactory(nil, nil, nil)
	st := factory(nil, nil)

	result, err := st.Run(context.Background(), newOp(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, operation.SourceNetwork, result.Response.Debug.Source)
	data := result.Response.Data.(map[string]interface{})
	conf := data["conference"].(map[string]interface{})
	assert.Equal(t, "1", conf["id"])
}

func TestTransportWrapsGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]interface{}{{"message": "not found"}},
		})
	}))
	defer srv.Close()

	factory := NewFactory(nil, nil, nil)
	st := factory(nil, nil)

	result, err := st.Run(context.Background(), newOp(srv.URL))
	require.NoError(t, err)
	require.Len(t, result.Response.Errors, 1)
	assert.Equal(t, "not found", result.Response.Errors[0].Message)
}

func TestTransportWrapsNetworkFailureAsGqlError(t *testing.T) {
	factory := NewFactory(nil, nil, nil)
	st := factory(nil, nil)

	_, err := st.Run(context.Background(), newOp("http://127.0.0.1:1"))
	require.Error(t, err)
	assert.True(t, gqlerrors.Is(err, gqlerrors.KindNetwork))
}

func TestTransportWrapsMalformedJSONAsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	factory := NewFactory(nil, nil, nil)
	st := factory(nil, nil)

	_, err := st.Run(context.Background(), newOp(srv.URL))
	require.Error(t, err)
	assert.True(t, gqlerrors.Is(err, gqlerrors.KindDecode))
}

func TestTransportRejectsWhenRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
	}))
	defer srv.Close()

	limiter := ratelimit.NewTokenBucketLimiter(1, time.Hour)
	factory := NewFactory(nil, limiter, nil)
	st := factory(nil, nil)

	op := newOp(srv.URL)
	_, err := st.Run(context.Background(), op)
	require.NoError(t, err, "first call consumes the only token")

	_, err = st.Run(context.Background(), op)
	require.Error(t, err)
	assert.True(t, gqlerrors.Is(err, gqlerrors.KindNetwork))
}
